// Package analysis drives multimodal analysis of outlier videos.
//
// Every selected item runs through a small state machine. The video URL is
// first submitted directly. If that call fails or its answer does not parse,
// the video is downloaded, uploaded to the service's file store and polled
// until the service reports it ready, failed, or the poll timeout elapses; the
// prompt is then resubmitted against the uploaded file. Uploaded files are
// deleted afterwards whatever the outcome, and deletion errors are dropped.
//
// Failures are confined to their item: the orchestrator always returns exactly
// one result per selected item. There is no retry beyond the single fallback.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rewired-gh/outlierscope/internal/logger"
	"github.com/rewired-gh/outlierscope/internal/models"
)

// Delivery paths recorded on results.
const (
	PathDirect = "direct"
	PathUpload = "upload"
)

// Defaults.
const (
	DefaultMaxVideos      = 5
	DefaultPaceDelay      = 2 * time.Second
	DefaultPollInterval   = 5 * time.Second
	DefaultPollTimeout    = 300 * time.Second
	DefaultRequestTimeout = 60 * time.Second
	DefaultMIMEType       = "video/mp4"
)

var (
	ErrUnparseable      = errors.New("unparseable analysis response")
	ErrEmptyResponse    = errors.New("empty analysis response")
	ErrProcessingFailed = errors.New("file processing failed")
	ErrPollTimeout      = errors.New("file processing timeout")
)

// Config controls selection, pacing and timeouts.
type Config struct {
	MaxVideos      int
	PaceDelay      time.Duration // After each successful item that is followed by another
	PollInterval   time.Duration
	PollTimeout    time.Duration
	RequestTimeout time.Duration // Per network call
	MIMEType       string        // Used when the fetched content type is not a video type
}

// DefaultConfig returns the default orchestration settings.
func DefaultConfig() Config {
	return Config{
		MaxVideos:      DefaultMaxVideos,
		PaceDelay:      DefaultPaceDelay,
		PollInterval:   DefaultPollInterval,
		PollTimeout:    DefaultPollTimeout,
		RequestTimeout: DefaultRequestTimeout,
		MIMEType:       DefaultMIMEType,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxVideos <= 0 {
		c.MaxVideos = d.MaxVideos
	}
	if c.PaceDelay < 0 {
		c.PaceDelay = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MIMEType == "" {
		c.MIMEType = d.MIMEType
	}
	return c
}

// Orchestrator analyzes videos through a Service.
type Orchestrator struct {
	svc    Service
	fetch  Fetcher
	cfg    Config
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	newID  func() string
	onMove func(itemID string, from, to State)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock and the pacing/poll sleep.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithTransitionHook registers a callback invoked on every state transition.
func WithTransitionHook(fn func(itemID string, from, to State)) Option {
	return func(o *Orchestrator) {
		o.onMove = fn
	}
}

// WithIDGenerator replaces the result ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New creates an orchestrator. Zero config fields take their defaults.
func New(svc Service, fetch Fetcher, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:   svc,
		fetch: fetch,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		sleep: sleepContext,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Select returns the first n items that are playable videos.
func Select(items []models.ContentItem, n int) []models.ContentItem {
	videos := lo.Filter(items, func(item models.ContentItem, _ int) bool {
		return item.IsVideo
	})
	if n > 0 && len(videos) > n {
		videos = videos[:n]
	}
	return videos
}

// Run analyzes the selected videos of items in order, one at a time. Once ctx is
// done, the remaining items are reported as errors carrying the context error.
func (o *Orchestrator) Run(ctx context.Context, items []models.ContentItem) []models.VideoAnalysisResult {
	selected := Select(items, o.cfg.MaxVideos)
	results := make([]models.VideoAnalysisResult, 0, len(selected))
	if len(selected) == 0 {
		logger.Info("No video content found in %d item(s)", len(items))
		return results
	}

	logger.Info("Analyzing %d video(s)", len(selected))

	for i := range selected {
		item := &selected[i]
		if err := ctx.Err(); err != nil {
			res := o.newResult(item)
			res.Status = models.StatusError
			res.Error = err.Error()
			res.AnalyzedAt = o.now()
			results = append(results, res)
			continue
		}

		logger.Info("[%d/%d] Analyzing @%s - %s", i+1, len(selected), item.Author.Username, item.ID)
		res := o.Analyze(ctx, item)
		results = append(results, res)

		switch res.Status {
		case models.StatusSuccess:
			logger.Info("[%d/%d] Done via %s in %s", i+1, len(selected), res.Path, res.Duration.Round(time.Millisecond))
			if i < len(selected)-1 && o.cfg.PaceDelay > 0 {
				// A cancelled sleep is picked up by the ctx check above.
				_ = o.sleep(ctx, o.cfg.PaceDelay)
			}
		case models.StatusSkipped:
			logger.Info("[%d/%d] Skipping - no video URL", i+1, len(selected))
		default:
			logger.Warn("[%d/%d] Error: %s", i+1, len(selected), res.Error)
		}
	}

	successful := lo.CountBy(results, func(r models.VideoAnalysisResult) bool {
		return r.Status == models.StatusSuccess
	})
	logger.Info("Successfully analyzed %d/%d videos", successful, len(selected))
	return results
}

// Analyze runs one item through the state machine.
func (o *Orchestrator) Analyze(ctx context.Context, item *models.ContentItem) models.VideoAnalysisResult {
	start := o.now()
	r := &itemRun{
		o:      o,
		item:   item,
		prompt: BuildPrompt(item.Text),
	}
	r.m = newMachine(func(from, to State) {
		logger.Debug("analysis %s: %s -> %s", item.ID, from, to)
		if o.onMove != nil {
			o.onMove(item.ID, from, to)
		}
	})

	for r.m.state != StateDone {
		next := r.step(ctx)
		if err := r.m.to(next); err != nil {
			// Unreachable with the current step functions.
			r.status = models.StatusError
			r.analysis = nil
			r.err = err
			r.cleanup()
			break
		}
	}

	res := o.newResult(item)
	res.Status = r.status
	res.Path = r.path
	res.Analysis = r.analysis
	if r.status == models.StatusError {
		res.Analysis = nil
		if r.err == nil {
			r.err = errors.New("analysis failed")
		}
		res.Error = r.err.Error()
	}
	res.AnalyzedAt = o.now()
	res.Duration = res.AnalyzedAt.Sub(start)
	return res
}

func (o *Orchestrator) newResult(item *models.ContentItem) models.VideoAnalysisResult {
	return models.VideoAnalysisResult{
		ID:              o.newID(),
		ItemID:          item.ID,
		URL:             item.URL,
		VideoURL:        item.VideoURL,
		Author:          item.Author.Username,
		Text:            item.Text,
		EngagementScore: item.EngagementScore,
		EngagementRate:  item.EngagementRate,
	}
}

// itemRun is the mutable state of one item's pass through the machine.
type itemRun struct {
	o      *Orchestrator
	item   *models.ContentItem
	m      *machine
	prompt string

	path     string
	status   models.AnalysisStatus
	analysis *models.Analysis
	err      error

	data     []byte
	mimeType string
	file     *File // Set once an upload succeeded
}

// step performs the work of the current state and returns the next one.
func (r *itemRun) step(ctx context.Context) State {
	switch r.m.state {
	case StateSelect:
		if r.item.VideoURL == "" {
			return StateSkipped
		}
		return StateDirect

	case StateSkipped:
		r.status = models.StatusSkipped
		return StateDone

	case StateDirect:
		r.path = PathDirect
		a, err := r.generate(ctx, r.item.VideoURL, r.o.cfg.MIMEType)
		if err == nil {
			r.analysis = a
			return StateAnalyzed
		}
		if ctx.Err() != nil {
			r.err = ctx.Err()
			return StateErrored
		}
		logger.Warn("Direct URL failed for %s, trying upload: %v", r.item.ID, err)
		r.path = PathUpload
		return StateDownloading

	case StateDownloading:
		callCtx, cancel := r.o.callContext(ctx)
		data, contentType, err := r.o.fetch.Fetch(callCtx, r.item.VideoURL)
		cancel()
		if err != nil {
			r.err = fmt.Errorf("download failed: %w", err)
			return StateErrored
		}
		r.data = data
		r.mimeType = r.o.cfg.MIMEType
		if strings.HasPrefix(contentType, "video/") {
			r.mimeType = contentType
		}
		return StateUploading

	case StateUploading:
		callCtx, cancel := r.o.callContext(ctx)
		f, err := r.o.svc.Upload(callCtx, r.data, r.mimeType, r.displayName())
		cancel()
		r.data = nil
		if err != nil {
			r.err = fmt.Errorf("upload failed: %w", err)
			return StateErrored
		}
		if f.MIMEType == "" {
			f.MIMEType = r.mimeType
		}
		r.file = &f
		return StateProcessing

	case StateProcessing:
		return r.poll(ctx)

	case StateReady:
		callCtx, cancel := r.o.callContext(ctx)
		text, err := r.o.svc.GenerateFromURI(callCtx, r.file.URI, r.file.MIMEType, r.prompt)
		cancel()
		if err != nil {
			r.err = fmt.Errorf("analysis of uploaded file failed: %w", err)
			return StateErrored
		}
		if strings.TrimSpace(text) == "" {
			r.err = ErrEmptyResponse
			return StateErrored
		}
		if a, ok := ParseAnalysis(text); ok {
			r.analysis = a
		} else {
			r.analysis = &models.Analysis{Raw: text}
		}
		return StateAnalyzed

	case StateFailed:
		r.err = fmt.Errorf("%w: %s", ErrProcessingFailed, r.file.Name)
		return StateErrored

	case StateTimeout:
		r.err = fmt.Errorf("%w: %s not ready after %s", ErrPollTimeout, r.file.Name, r.o.cfg.PollTimeout)
		return StateErrored

	case StateAnalyzed:
		r.status = models.StatusSuccess
		return StateCleanup

	case StateErrored:
		r.status = models.StatusError
		r.analysis = nil
		return StateCleanup

	case StateCleanup:
		r.cleanup()
		return StateDone
	}

	r.err = fmt.Errorf("%w: no step for state %s", ErrInvalidTransition, r.m.state)
	return StateDone
}

// generate runs the prompt against uri and requires a well-formed answer.
func (r *itemRun) generate(ctx context.Context, uri, mimeType string) (*models.Analysis, error) {
	callCtx, cancel := r.o.callContext(ctx)
	defer cancel()

	text, err := r.o.svc.GenerateFromURI(callCtx, uri, mimeType, r.prompt)
	if err != nil {
		return nil, err
	}
	a, ok := ParseAnalysis(text)
	if !ok {
		return nil, ErrUnparseable
	}
	return a, nil
}

// poll waits for the uploaded file to leave the processing state.
func (r *itemRun) poll(ctx context.Context) State {
	deadline := r.o.now().Add(r.o.cfg.PollTimeout)
	f := *r.file

	for {
		switch f.State {
		case FileActive:
			if f.URI == "" {
				f.URI = r.file.URI
			}
			if f.MIMEType == "" {
				f.MIMEType = r.file.MIMEType
			}
			r.file = &f
			return StateReady
		case FileFailed:
			return StateFailed
		}

		if !r.o.now().Before(deadline) {
			return StateTimeout
		}
		if err := r.o.sleep(ctx, r.o.cfg.PollInterval); err != nil {
			r.err = err
			return StateErrored
		}

		callCtx, cancel := r.o.callContext(ctx)
		next, err := r.o.svc.GetFile(callCtx, f.Name)
		cancel()
		if err != nil {
			r.err = fmt.Errorf("poll failed: %w", err)
			return StateErrored
		}
		if next.Name == "" {
			next.Name = f.Name
		}
		f = next
	}
}

// cleanup deletes the uploaded file, if any. Errors are logged and dropped.
func (r *itemRun) cleanup() {
	if r.file == nil {
		return
	}
	// Deletion runs even when the run was cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), r.o.cfg.RequestTimeout)
	defer cancel()
	if err := r.o.svc.DeleteFile(ctx, r.file.Name); err != nil {
		logger.Debug("Failed to delete uploaded file %s: %v", r.file.Name, err)
	}
	r.file = nil
}

func (r *itemRun) displayName() string {
	if r.item.Platform == "" {
		return r.item.ID
	}
	return r.item.Platform + "_" + r.item.ID
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.RequestTimeout)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
