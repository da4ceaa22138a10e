package models

import (
	"encoding/json"
	"time"
)

// ReportStats carries the distribution statistics behind the outlier threshold.
type ReportStats struct {
	MeanRate       float64 `json:"mean_rate"`
	StdDev         float64 `json:"std_dev"`
	ThresholdValue float64 `json:"threshold_value"`
}

// Report is the structured result of one detection run, consumed by report generation.
type Report struct {
	RunID           string           `json:"run_id"`
	Generated       time.Time        `json:"generated"`
	Platform        string           `json:"platform"`
	CountLabel      string           `json:"-"` // "posts" or "videos"; selects the total key
	TotalPosts      int              `json:"total_posts,omitempty"`
	TotalVideos     int              `json:"total_videos,omitempty"`
	OutlierCount    int              `json:"outlier_count"`
	Threshold       float64          `json:"threshold"` // Multiplier k, not the computed value
	Stats           ReportStats      `json:"stats"`
	Topics          TopicSummary     `json:"topics"`
	ContentPatterns *ContentPatterns `json:"content_patterns,omitempty"`
	Accounts        []string         `json:"accounts"`
	// Outliers holds []ContentItem, or []SlimItem for slim profiles.
	Outliers any `json:"outliers"`
}

// Total returns the item count and its label.
func (r *Report) Total() (int, string) {
	switch {
	case r.CountLabel == "videos", r.CountLabel == "" && r.TotalVideos > 0:
		return r.TotalVideos, "videos"
	default:
		return r.TotalPosts, "posts"
	}
}

// MarshalJSON writes the total under the key of the count label, even when
// the run saw no items.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	out := struct {
		plain
		TotalPosts  *int `json:"total_posts,omitempty"`
		TotalVideos *int `json:"total_videos,omitempty"`
	}{plain: plain(r)}

	total, label := r.Total()
	if label == "videos" {
		out.TotalVideos = &total
	} else {
		out.TotalPosts = &total
	}
	return json.Marshal(out)
}

// AuthorSummary is the author projection kept by SlimItem.
type AuthorSummary struct {
	Username  string `json:"username"`
	Followers int64  `json:"followers"`
	Verified  bool   `json:"verified"`
}

// SlimItem is the reduced outlier projection used by microblogging reports.
type SlimItem struct {
	URL             string                `json:"url"`
	Text            string                `json:"text"`
	CreatedAt       string                `json:"created_at"`
	Metrics         map[Interaction]int64 `json:"metrics"`
	EngagementScore float64               `json:"engagement_score"`
	EngagementRate  float64               `json:"engagement_rate"`
	Author          AuthorSummary         `json:"author"`
	MediaURLs       []string              `json:"media_urls,omitempty"`
}

// Slim projects a content item onto its slim form.
func (c *ContentItem) Slim() SlimItem {
	return SlimItem{
		URL:             c.URL,
		Text:            c.Text,
		CreatedAt:       c.CreatedAt,
		Metrics:         c.Metrics,
		EngagementScore: c.EngagementScore,
		EngagementRate:  c.EngagementRate,
		Author: AuthorSummary{
			Username:  c.Author.Username,
			Followers: c.Author.Followers,
			Verified:  c.Author.Verified,
		},
		MediaURLs: c.MediaURLs,
	}
}
