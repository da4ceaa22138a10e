package models

import (
	"errors"
	"time"
)

// AnalysisStatus is the outcome of analyzing one video.
type AnalysisStatus string

const (
	StatusSuccess AnalysisStatus = "success"
	StatusSkipped AnalysisStatus = "skipped"
	StatusError   AnalysisStatus = "error"
)

// Analysis is the structured answer of the multimodal analysis service.
// Raw holds the model's text when it could not be parsed as the expected JSON.
type Analysis struct {
	HookTechnique    string `json:"hook_technique,omitempty"`
	ContentStructure string `json:"content_structure,omitempty"`
	DeliveryStyle    string `json:"delivery_style,omitempty"`
	CTAStrategy      string `json:"cta_strategy,omitempty"`
	WhyItWorks       string `json:"why_it_works,omitempty"`
	Raw              string `json:"raw,omitempty"`
}

// VideoAnalysisResult is the per-outlier record produced by the analysis orchestrator
type VideoAnalysisResult struct {
	ID              string         `json:"id"`
	ItemID          string         `json:"item_id"`
	URL             string         `json:"url,omitempty"`
	VideoURL        string         `json:"video_url,omitempty"`
	Author          string         `json:"author"`
	Text            string         `json:"text,omitempty"`
	EngagementScore float64        `json:"engagement_score"`
	EngagementRate  float64        `json:"engagement_rate"`
	Status          AnalysisStatus `json:"status"`
	Path            string         `json:"path,omitempty"` // "direct" or "upload"
	Analysis        *Analysis      `json:"analysis,omitempty"`
	Error           string         `json:"error,omitempty"`
	Duration        time.Duration  `json:"duration"`
	AnalyzedAt      time.Time      `json:"analyzed_at"`
}

// Validate checks that the result carries exactly what its status implies.
func (r *VideoAnalysisResult) Validate() error {
	if r.ID == "" {
		return errors.New("result ID must not be empty")
	}
	if r.ItemID == "" {
		return errors.New("item ID must not be empty")
	}
	switch r.Status {
	case StatusSuccess:
		if r.Analysis == nil || r.Error != "" {
			return errors.New("success result must carry an analysis and no error")
		}
	case StatusError:
		if r.Error == "" || r.Analysis != nil {
			return errors.New("error result must carry an error and no analysis")
		}
	case StatusSkipped:
		if r.Error != "" || r.Analysis != nil {
			return errors.New("skipped result must carry neither analysis nor error")
		}
	default:
		return errors.New("status must be 'success', 'skipped' or 'error'")
	}
	if r.AnalyzedAt.After(time.Now()) {
		return errors.New("analyzed at must not be in the future")
	}
	return nil
}
