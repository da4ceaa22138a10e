// Package outlier selects unusually high-engagement items from a batch.
//
// An item is an outlier when its engagement rate strictly exceeds
//
//	threshold = mean(rate) + k × σ(rate)
//
// where σ is the sample standard deviation (Bessel correction, divide by n-1)
// and k is the threshold multiplier. Outliers are ranked by engagement score
// descending; equal scores keep their input order.
//
// Batches with fewer than two items have no meaningful σ; every item of such a
// batch is returned as an outlier. A fully homogeneous batch has σ = 0 and
// therefore yields no outliers.
package outlier

import (
	"math"
	"sort"

	"github.com/rewired-gh/outlierscope/internal/engagement"
	"github.com/rewired-gh/outlierscope/internal/logger"
	"github.com/rewired-gh/outlierscope/internal/models"
)

// DefaultThresholdMultiplier is the k used when none is configured.
const DefaultThresholdMultiplier = 2.0

// Detect annotates every item with its engagement score and rate (in place) and
// returns the batch statistics together with the ranked outliers.
func Detect(items []models.ContentItem, w engagement.Weights, k float64) models.OutlierBatch {
	batch := models.OutlierBatch{
		Total:               len(items),
		ThresholdMultiplier: k,
		Outliers:            []models.ContentItem{},
	}
	if len(items) == 0 {
		return batch
	}

	engagement.AnnotateAll(items, w)

	rates := make([]float64, len(items))
	for i := range items {
		rates[i] = items[i].EngagementRate
	}
	batch.MeanRate = Mean(rates)

	if len(items) < 2 {
		batch.Threshold = batch.MeanRate
		batch.Outliers = append(batch.Outliers, items...)
		logger.Debug("Detect: %d item(s), returning all unfiltered", len(items))
		return batch
	}

	batch.StdDev = SampleStdDev(rates)
	batch.Threshold = batch.MeanRate + k*batch.StdDev

	maxRate := 0.0
	for i := range items {
		if items[i].EngagementRate > maxRate {
			maxRate = items[i].EngagementRate
		}
		if items[i].EngagementRate > batch.Threshold {
			batch.Outliers = append(batch.Outliers, items[i])
		}
	}

	Rank(batch.Outliers)

	logger.Debug("Detect: n=%d mean=%.4f std_dev=%.4f k=%.2f threshold=%.4f max_rate=%.4f outliers=%d",
		len(items), batch.MeanRate, batch.StdDev, k, batch.Threshold, maxRate, len(batch.Outliers))

	return batch
}

// Rank sorts items by engagement score descending. The sort is stable.
func Rank(items []models.ContentItem) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].EngagementScore > items[b].EngagementScore
	})
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev returns the Bessel-corrected standard deviation of values.
// Returns 0 when fewer than two values are given.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// Top returns at most n leading outliers of the batch. n <= 0 returns all.
func Top(batch models.OutlierBatch, n int) []models.ContentItem {
	if n <= 0 || n >= len(batch.Outliers) {
		return batch.Outliers
	}
	return batch.Outliers[:n]
}
