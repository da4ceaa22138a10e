package models

import (
	"errors"
	"math"
)

// OutlierBatch is the result of one outlier detection pass over a set of items.
type OutlierBatch struct {
	Total               int           `json:"total"`
	MeanRate            float64       `json:"mean_rate"`
	StdDev              float64       `json:"std_dev"`
	ThresholdMultiplier float64       `json:"threshold_multiplier"`
	Threshold           float64       `json:"threshold"` // mean_rate + threshold_multiplier × std_dev
	Outliers            []ContentItem `json:"outliers"`
}

// Validate checks that the batch statistics are consistent.
func (b *OutlierBatch) Validate() error {
	if b.Total < 0 {
		return errors.New("total must not be negative")
	}
	if len(b.Outliers) > b.Total {
		return errors.New("outlier count must not exceed total")
	}
	if b.StdDev < 0 {
		return errors.New("std dev must not be negative")
	}
	if math.IsNaN(b.Threshold) || math.IsNaN(b.MeanRate) {
		return errors.New("statistics must not be NaN")
	}
	for i := 1; i < len(b.Outliers); i++ {
		if b.Outliers[i].EngagementScore > b.Outliers[i-1].EngagementScore {
			return errors.New("outliers must be sorted by engagement score descending")
		}
	}
	return nil
}
