package outlier

import (
	"fmt"
	"math"
	"testing"

	"github.com/rewired-gh/outlierscope/internal/engagement"
	"github.com/rewired-gh/outlierscope/internal/models"
)

// likesOnly makes score == likes, and rate == score because followers are unset.
var likesOnly = engagement.Weights{models.Likes: 1}

func itemsWithRates(rates ...int64) []models.ContentItem {
	items := make([]models.ContentItem, len(rates))
	for i, r := range rates {
		items[i] = models.ContentItem{
			ID:      fmt.Sprintf("item-%d", i),
			Author:  models.Author{Username: "u"},
			Metrics: map[models.Interaction]int64{models.Likes: r},
		}
	}
	return items
}

func TestDetect_Empty(t *testing.T) {
	batch := Detect(nil, likesOnly, 2.0)
	if batch.Total != 0 || len(batch.Outliers) != 0 {
		t.Errorf("Expected empty batch, got %+v", batch)
	}
	if batch.Outliers == nil {
		t.Error("Expected non-nil outlier slice")
	}
}

func TestDetect_SingleItemReturnedUnfiltered(t *testing.T) {
	items := itemsWithRates(7)
	batch := Detect(items, likesOnly, 2.0)

	if len(batch.Outliers) != 1 {
		t.Fatalf("Expected 1 outlier for single-item batch, got %d", len(batch.Outliers))
	}
	if batch.Outliers[0].ID != "item-0" {
		t.Errorf("Expected item-0, got %s", batch.Outliers[0].ID)
	}
	if batch.Outliers[0].EngagementScore != 7 {
		t.Errorf("Expected annotated score 7, got %f", batch.Outliers[0].EngagementScore)
	}
}

func TestDetect_ExtremeButNotPastTwoSigma(t *testing.T) {
	items := itemsWithRates(10, 10, 10, 90)
	batch := Detect(items, likesOnly, 2.0)

	if math.Abs(batch.MeanRate-30) > 1e-9 {
		t.Errorf("Expected mean 30, got %f", batch.MeanRate)
	}
	// Σ(x-μ)² = 4800, n-1 = 3
	if math.Abs(batch.StdDev-40) > 1e-9 {
		t.Errorf("Expected sample std dev 40, got %f", batch.StdDev)
	}
	if math.Abs(batch.Threshold-110) > 1e-9 {
		t.Errorf("Expected threshold 110, got %f", batch.Threshold)
	}
	if len(batch.Outliers) != 0 {
		t.Errorf("Expected no outliers (90 < threshold), got %d", len(batch.Outliers))
	}
}

func TestDetect_SingleSpike(t *testing.T) {
	items := itemsWithRates(1, 1, 1, 1, 1, 1, 1, 1, 1, 100)
	batch := Detect(items, likesOnly, 2.0)

	if len(batch.Outliers) != 1 {
		t.Fatalf("Expected 1 outlier, got %d", len(batch.Outliers))
	}
	if batch.Outliers[0].ID != "item-9" {
		t.Errorf("Expected item-9 as outlier, got %s", batch.Outliers[0].ID)
	}
	if batch.Outliers[0].EngagementRate <= batch.Threshold {
		t.Errorf("Outlier rate %f must exceed threshold %f", batch.Outliers[0].EngagementRate, batch.Threshold)
	}
}

func TestDetect_HomogeneousBatchHasNoOutliers(t *testing.T) {
	items := itemsWithRates(5, 5, 5, 5, 5)
	batch := Detect(items, likesOnly, 2.0)

	if batch.StdDev != 0 {
		t.Errorf("Expected zero std dev, got %f", batch.StdDev)
	}
	if batch.Threshold != batch.MeanRate {
		t.Errorf("Expected threshold == mean for zero std dev, got %f vs %f", batch.Threshold, batch.MeanRate)
	}
	if len(batch.Outliers) != 0 {
		t.Errorf("Expected no outliers, got %d", len(batch.Outliers))
	}
}

func TestDetect_StrictInequality(t *testing.T) {
	// mean 2, σ 1 for {1, 2, 3}; with k = 1 the threshold is exactly 3
	items := itemsWithRates(1, 2, 3)
	batch := Detect(items, likesOnly, 1.0)

	if math.Abs(batch.Threshold-3) > 1e-9 {
		t.Fatalf("Expected threshold 3, got %f", batch.Threshold)
	}
	if len(batch.Outliers) != 0 {
		t.Errorf("Item exactly at threshold must not be an outlier, got %d outliers", len(batch.Outliers))
	}
}

func TestDetect_RankedByScoreStable(t *testing.T) {
	// Rates are driven by followers, scores by likes: outliers are selected by
	// rate but ranked by score.
	items := []models.ContentItem{
		{ID: "small-a", Author: models.Author{Followers: 10}, Metrics: map[models.Interaction]int64{models.Likes: 50}},
		{ID: "big", Author: models.Author{Followers: 100}, Metrics: map[models.Interaction]int64{models.Likes: 900}},
		{ID: "small-b", Author: models.Author{Followers: 10}, Metrics: map[models.Interaction]int64{models.Likes: 50}},
	}
	for i := 0; i < 20; i++ {
		items = append(items, models.ContentItem{
			ID:      fmt.Sprintf("filler-%d", i),
			Author:  models.Author{Followers: 1000},
			Metrics: map[models.Interaction]int64{models.Likes: 10},
		})
	}

	batch := Detect(items, likesOnly, 1.0)
	if err := batch.Validate(); err != nil {
		t.Fatalf("batch invalid: %v", err)
	}

	got := make([]string, len(batch.Outliers))
	for i, o := range batch.Outliers {
		got[i] = o.ID
	}
	want := []string{"big", "small-a", "small-b"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Expected ranking %v, got %v", want, got)
	}
	for _, o := range batch.Outliers {
		if o.EngagementRate <= batch.Threshold {
			t.Errorf("Outlier %s rate %f not above threshold %f", o.ID, o.EngagementRate, batch.Threshold)
		}
	}
}

func TestDetect_AnnotatesInputInPlace(t *testing.T) {
	items := itemsWithRates(3, 4)
	Detect(items, likesOnly, 2.0)

	for _, it := range items {
		if it.EngagementScore == 0 || it.EngagementRate == 0 {
			t.Errorf("Expected item %s to be annotated, got score=%f rate=%f", it.ID, it.EngagementScore, it.EngagementRate)
		}
	}
}

func TestSampleStdDev(t *testing.T) {
	tests := []struct {
		values   []float64
		expected float64
	}{
		{nil, 0},
		{[]float64{4}, 0},
		{[]float64{2, 4, 4, 4, 5, 5, 7, 9}, math.Sqrt(32.0 / 7.0)},
		{[]float64{1, 1, 1}, 0},
	}

	for _, tt := range tests {
		got := SampleStdDev(tt.values)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("SampleStdDev(%v) = %f, expected %f", tt.values, got, tt.expected)
		}
	}
}

func TestTop(t *testing.T) {
	batch := models.OutlierBatch{Outliers: []models.ContentItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	if got := Top(batch, 2); len(got) != 2 || got[0].ID != "a" {
		t.Errorf("Top(2) = %v", got)
	}
	if got := Top(batch, 0); len(got) != 3 {
		t.Errorf("Top(0) should return all, got %d", len(got))
	}
	if got := Top(batch, 10); len(got) != 3 {
		t.Errorf("Top(10) should return all, got %d", len(got))
	}
}
