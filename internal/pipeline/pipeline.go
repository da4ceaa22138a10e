// Package pipeline wires the stages of a run together: input loading,
// normalization, scoring and outlier detection, topic extraction, report
// output and the optional video analysis of the outliers.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rewired-gh/outlierscope/internal/analysis"
	"github.com/rewired-gh/outlierscope/internal/config"
	"github.com/rewired-gh/outlierscope/internal/engagement"
	"github.com/rewired-gh/outlierscope/internal/logger"
	"github.com/rewired-gh/outlierscope/internal/metrics"
	"github.com/rewired-gh/outlierscope/internal/models"
	"github.com/rewired-gh/outlierscope/internal/normalize"
	"github.com/rewired-gh/outlierscope/internal/outlier"
	"github.com/rewired-gh/outlierscope/internal/platform"
	"github.com/rewired-gh/outlierscope/internal/storage"
	"github.com/rewired-gh/outlierscope/internal/topics"
)

// Notifier delivers a run summary.
type Notifier interface {
	SendReport(report *models.Report) error
}

// Analyzer analyzes a ranked list of items.
type Analyzer interface {
	Run(ctx context.Context, items []models.ContentItem) []models.VideoAnalysisResult
}

var _ Analyzer = (*analysis.Orchestrator)(nil)

// Config holds the detection settings of a run.
type Config struct {
	ThresholdMultiplier float64
	TopicsScope         string // config.ScopeAll or config.ScopeOutliers
	Topics              topics.Options
	Slim                bool // Force the slim outlier projection
}

// Detection is the outcome of a detection run.
type Detection struct {
	Report *models.Report
	Batch  models.OutlierBatch
	Path   string // Report file written
}

// Pipeline runs detection and analysis for one platform.
type Pipeline struct {
	profile  platform.Profile
	cfg      Config
	store    *storage.Storage
	metrics  *metrics.Metrics
	notifier Notifier
	analyzer Analyzer
	model    string
	now      func() time.Time
	newID    func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithNotifier sends a summary after each detection run.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithAnalyzer enables video analysis. model is recorded in the analysis file.
func WithAnalyzer(a Analyzer, model string) Option {
	return func(p *Pipeline) {
		p.analyzer = a
		p.model = model
	}
}

// WithClock replaces the wall clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

// New creates a pipeline for profile writing output through store.
func New(profile platform.Profile, cfg Config, store *storage.Storage, opts ...Option) *Pipeline {
	if cfg.ThresholdMultiplier <= 0 {
		cfg.ThresholdMultiplier = outlier.DefaultThresholdMultiplier
	}
	if cfg.TopicsScope == "" {
		cfg.TopicsScope = config.ScopeAll
	}
	cfg.Topics.Sounds = profile.Extras.Sounds
	cfg.Topics.Mentions = profile.Extras.Mentions

	p := &Pipeline{
		profile: profile,
		cfg:     cfg,
		store:   store,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile returns the platform profile of the pipeline.
func (p *Pipeline) Profile() platform.Profile {
	return p.profile
}

// Detect loads records from paths, detects outliers, writes the report and
// sends the summary when a notifier is configured. Input errors are fatal;
// notification errors are logged.
func (p *Pipeline) Detect(paths ...string) (*Detection, error) {
	records, err := storage.LoadRecords(paths...)
	if err != nil {
		return nil, err
	}

	items := p.profile.NormalizeAll(records)
	logger.Info("Normalized %d %s record(s)", len(items), p.profile.Name)

	report, batch := p.BuildReport(items)

	path, err := p.store.SaveReport(report)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	logger.WithFields(logger.Fields{
		"platform": p.profile.Name,
		"total":    batch.Total,
		"outliers": len(batch.Outliers),
		"path":     path,
	}).Info("Report written")

	if p.metrics != nil {
		p.metrics.ObserveDetection(p.profile.Name, &batch)
	}

	if p.notifier != nil {
		if err := p.notifier.SendReport(report); err != nil {
			logger.Warn("Failed to send notification: %v", err)
		}
	}

	return &Detection{Report: report, Batch: batch, Path: path}, nil
}

// BuildReport scores items in place, detects outliers and assembles the report.
func (p *Pipeline) BuildReport(items []models.ContentItem) (*models.Report, models.OutlierBatch) {
	batch := outlier.Detect(items, p.profile.Weights, p.cfg.ThresholdMultiplier)

	topicItems := items
	if p.cfg.TopicsScope == config.ScopeOutliers {
		topicItems = batch.Outliers
	}

	report := &models.Report{
		RunID:        p.newID(),
		Generated:    p.now(),
		Platform:     p.profile.Name,
		CountLabel:   p.profile.CountLabel,
		OutlierCount: len(batch.Outliers),
		Threshold:    batch.ThresholdMultiplier,
		Stats: models.ReportStats{
			MeanRate:       batch.MeanRate,
			StdDev:         batch.StdDev,
			ThresholdValue: batch.Threshold,
		},
		Topics:   topics.Extract(topicItems, p.cfg.Topics),
		Accounts: accounts(items),
	}

	if p.profile.CountLabel == platform.LabelVideos {
		report.TotalVideos = batch.Total
	} else {
		report.TotalPosts = batch.Total
	}

	if p.profile.Extras.ContentPatterns {
		patterns := topics.Patterns(batch.Outliers)
		report.ContentPatterns = &patterns
	}

	if p.profile.Extras.Slim || p.cfg.Slim {
		slim := make([]models.SlimItem, 0, len(batch.Outliers))
		for i := range batch.Outliers {
			slim = append(slim, batch.Outliers[i].Slim())
		}
		report.Outliers = slim
	} else {
		report.Outliers = batch.Outliers
	}

	return report, batch
}

// accounts returns the distinct known usernames of items in first-seen order.
func accounts(items []models.ContentItem) []string {
	names := lo.FilterMap(items, func(item models.ContentItem, _ int) (string, bool) {
		name := item.Author.Username
		return name, name != "" && name != normalize.Unknown
	})
	return lo.Uniq(names)
}

// Analyze runs the analyzer over the ranked outliers and writes the analysis
// file. runID ties the file to a report; an empty runID gets a fresh one.
func (p *Pipeline) Analyze(ctx context.Context, runID string, outliers []models.ContentItem) (*storage.AnalysisFile, string, error) {
	if p.analyzer == nil {
		return nil, "", fmt.Errorf("video analysis is not configured")
	}
	if runID == "" {
		runID = p.newID()
	}

	results := p.analyzer.Run(ctx, outliers)

	file := &storage.AnalysisFile{
		RunID:     runID,
		Generated: p.now(),
		Platform:  p.profile.Name,
		Model:     p.model,
		Analyzed: lo.CountBy(results, func(r models.VideoAnalysisResult) bool {
			return r.Status == models.StatusSuccess
		}),
		Results: results,
	}

	path, err := p.store.SaveAnalysis(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save analysis: %w", err)
	}
	logger.Info("Wrote %d analysis result(s) to %s", len(results), path)

	if p.metrics != nil {
		p.metrics.ObserveAnalysis(p.profile.Name, results)
	}
	return file, path, nil
}

// AnalyzeFiles loads previously written outliers (or any input records),
// re-scores them with the profile weights and analyzes them in rank order.
func (p *Pipeline) AnalyzeFiles(ctx context.Context, paths ...string) (*storage.AnalysisFile, string, error) {
	records, err := storage.LoadRecords(paths...)
	if err != nil {
		return nil, "", err
	}
	items := p.profile.NormalizeAll(records)
	engagement.AnnotateAll(items, p.profile.Weights)
	outlier.Rank(items)
	return p.Analyze(ctx, "", items)
}

// Run detects outliers and, when an analyzer is configured, analyzes them.
func (p *Pipeline) Run(ctx context.Context, paths ...string) (*Detection, *storage.AnalysisFile, error) {
	det, err := p.Detect(paths...)
	if err != nil {
		return nil, nil, err
	}
	if p.analyzer == nil {
		return det, nil, nil
	}
	file, _, err := p.Analyze(ctx, det.Report.RunID, det.Batch.Outliers)
	if err != nil {
		return det, nil, err
	}
	return det, file, nil
}
