// Package engagement converts raw interaction counts into a weighted engagement
// score and an audience-normalized engagement rate.
//
//	score = Σ count(kind) × weight(kind)
//	rate  = 100 × score / followers   (rate = score when followers is 0 or unknown)
//
// The rate is the only cross-account comparable quantity: raw score favors large accounts.
package engagement

import (
	"fmt"

	"github.com/rewired-gh/outlierscope/internal/models"
)

// Weights maps interaction kinds to non-negative multipliers.
// Kinds absent from the map do not contribute to the score.
type Weights map[models.Interaction]float64

// Validate checks that every kind is known and every weight is non-negative.
func (w Weights) Validate() error {
	for kind, m := range w {
		if !kind.Valid() {
			return fmt.Errorf("unknown interaction kind %q", kind)
		}
		if m < 0 {
			return fmt.Errorf("weight for %s must not be negative", kind)
		}
	}
	return nil
}

// Clone returns an independent copy of w.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Score returns the weighted sum of the item's interaction counts.
// Missing counts contribute 0.
func Score(item *models.ContentItem, w Weights) float64 {
	var score float64
	// Fixed kind order keeps the float sum bit-identical across calls.
	for _, kind := range models.Interactions {
		weight, ok := w[kind]
		if !ok {
			continue
		}
		score += float64(item.Count(kind)) * weight
	}
	return score
}

// Rate returns 100 × score / followers, or the raw score when the follower
// count is 0 or unknown.
func Rate(item *models.ContentItem, w Weights) float64 {
	score := Score(item, w)
	if item.Author.Followers <= 0 {
		return score
	}
	return 100 * score / float64(item.Author.Followers)
}

// Annotate attaches score and rate to the item in place. Calling it repeatedly
// yields the same values.
func Annotate(item *models.ContentItem, w Weights) {
	item.EngagementScore = Score(item, w)
	item.EngagementRate = Rate(item, w)
}

// AnnotateAll annotates every item of the slice in place.
func AnnotateAll(items []models.ContentItem, w Weights) {
	for i := range items {
		Annotate(&items[i], w)
	}
}
