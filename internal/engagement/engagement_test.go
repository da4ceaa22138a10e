package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/outlierscope/internal/models"
)

var tiktokWeights = Weights{
	models.Likes:    1,
	models.Comments: 3,
	models.Shares:   2,
	models.Saves:    2,
	models.Views:    0.05,
}

func item(followers int64, metrics map[models.Interaction]int64) *models.ContentItem {
	return &models.ContentItem{
		ID:      "item",
		Author:  models.Author{Username: "u", Followers: followers},
		Metrics: metrics,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		metrics map[models.Interaction]int64
		want    float64
	}{
		{"no metrics", nil, 0},
		{"likes only", map[models.Interaction]int64{models.Likes: 10}, 10},
		{
			"all kinds",
			map[models.Interaction]int64{
				models.Likes: 100, models.Comments: 10, models.Shares: 5,
				models.Saves: 5, models.Views: 1000,
			},
			100 + 30 + 10 + 10 + 50,
		},
		{"unweighted kind ignored", map[models.Interaction]int64{models.Bookmarks: 99}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(item(0, tt.metrics), tiktokWeights)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScore_MonotonicAndNonNegative(t *testing.T) {
	base := map[models.Interaction]int64{models.Likes: 5, models.Comments: 2, models.Views: 40}
	prev := Score(item(0, base), tiktokWeights)
	require.GreaterOrEqual(t, prev, 0.0)

	for _, kind := range models.Interactions {
		bumped := map[models.Interaction]int64{}
		for k, v := range base {
			bumped[k] = v
		}
		bumped[kind]++
		got := Score(item(0, bumped), tiktokWeights)
		assert.GreaterOrEqual(t, got, prev, "score decreased when %s increased", kind)
	}
}

func TestRate(t *testing.T) {
	metrics := map[models.Interaction]int64{models.Likes: 50, models.Comments: 10}

	t.Run("followers zero degenerates to score", func(t *testing.T) {
		it := item(0, metrics)
		assert.Equal(t, Score(it, tiktokWeights), Rate(it, tiktokWeights))
	})

	t.Run("normalized by followers", func(t *testing.T) {
		it := item(400, metrics)
		assert.InDelta(t, 100*80.0/400.0, Rate(it, tiktokWeights), 1e-9)
	})
}

func TestAnnotate_Idempotent(t *testing.T) {
	it := item(1234, map[models.Interaction]int64{
		models.Likes: 77, models.Comments: 13, models.Shares: 3, models.Views: 98765,
	})

	Annotate(it, tiktokWeights)
	score, rate := it.EngagementScore, it.EngagementRate
	Annotate(it, tiktokWeights)

	assert.Equal(t, score, it.EngagementScore)
	assert.Equal(t, rate, it.EngagementRate)
}

func TestAnnotateAll(t *testing.T) {
	items := []models.ContentItem{
		*item(0, map[models.Interaction]int64{models.Likes: 1}),
		*item(10, map[models.Interaction]int64{models.Likes: 1}),
	}
	AnnotateAll(items, tiktokWeights)

	assert.Equal(t, 1.0, items[0].EngagementRate)
	assert.Equal(t, 10.0, items[1].EngagementRate)
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, tiktokWeights.Validate())
	assert.Error(t, Weights{models.Likes: -1}.Validate())
	assert.Error(t, Weights{"hearts": 1}.Validate())
}

func TestWeightsClone(t *testing.T) {
	clone := tiktokWeights.Clone()
	clone[models.Likes] = 42
	assert.Equal(t, 1.0, tiktokWeights[models.Likes])
}
