// Package models defines the core domain entities for outlierscope.
// These models represent normalized social content items, the statistics of an
// outlier detection pass, mined topic summaries and per-video analysis results.
// All models include built-in validation to ensure data integrity throughout the application.
//
// Terminology:
//   - Item: one post, video or tweet, normalized from a platform-native record.
//   - Engagement score: weighted sum of an item's interaction counts.
//   - Engagement rate: score normalized by the author's follower count (×100).
//   - Outlier: an item whose rate exceeds mean + k·σ of its batch.
package models

import (
	"errors"
	"fmt"
)

// Interaction is one kind of audience interaction counted on a content item.
type Interaction string

const (
	Likes     Interaction = "likes"
	Comments  Interaction = "comments"
	Shares    Interaction = "shares"
	Saves     Interaction = "saves"
	Views     Interaction = "views"
	Bookmarks Interaction = "bookmarks"
	Quotes    Interaction = "quotes"
	Replies   Interaction = "replies"
)

// Interactions lists every interaction kind in canonical order.
// Anything that folds over counts iterates in this order so results are reproducible.
var Interactions = []Interaction{Likes, Comments, Shares, Saves, Views, Bookmarks, Quotes, Replies}

// Valid reports whether i is a known interaction kind.
func (i Interaction) Valid() bool {
	for _, known := range Interactions {
		if i == known {
			return true
		}
	}
	return false
}

// Author is the account that published a content item.
type Author struct {
	Username  string `json:"username"`
	Followers int64  `json:"followers"`
	Verified  bool   `json:"verified"`
}

// ContentItem represents one normalized post, video or tweet.
//
// EngagementScore and EngagementRate are derived fields attached in place by the
// engagement package. They are not part of the item's identity and can be
// recomputed from Metrics at any time with the same result.
type ContentItem struct {
	ID        string                `json:"id"`
	Platform  string                `json:"platform,omitempty"`
	URL       string                `json:"url,omitempty"`
	Author    Author                `json:"author"`
	Text      string                `json:"text"`
	CreatedAt string                `json:"created_at,omitempty"` // Platform timestamp, carried through verbatim
	Metrics   map[Interaction]int64 `json:"metrics"`
	Hashtags  []string              `json:"hashtags,omitempty"` // Explicit hashtag list from the platform record
	MediaURLs []string              `json:"media_urls,omitempty"`
	VideoURL  string                `json:"video_url,omitempty"`
	Sound     string                `json:"sound,omitempty"` // Sound / music name on short-video platforms
	IsVideo   bool                  `json:"is_video"`
	IsQuote   bool                  `json:"is_quote,omitempty"`

	EngagementScore float64 `json:"engagement_score"`
	EngagementRate  float64 `json:"engagement_rate"`
}

// Count returns the raw count for an interaction kind, treating missing counts as 0.
func (c *ContentItem) Count(kind Interaction) int64 {
	if c.Metrics == nil {
		return 0
	}
	return c.Metrics[kind]
}

// Validate checks that all content item fields are valid.
func (c *ContentItem) Validate() error {
	if c.ID == "" {
		return errors.New("content item ID must not be empty")
	}
	if c.Author.Followers < 0 {
		return errors.New("author followers must not be negative")
	}
	for kind, n := range c.Metrics {
		if !kind.Valid() {
			return fmt.Errorf("unknown interaction kind %q", kind)
		}
		if n < 0 {
			return fmt.Errorf("%s count must not be negative", kind)
		}
	}
	if c.EngagementScore < 0 {
		return errors.New("engagement score must not be negative")
	}
	if c.EngagementRate < 0 {
		return errors.New("engagement rate must not be negative")
	}
	return nil
}
