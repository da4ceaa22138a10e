package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestContentItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    ContentItem
		wantErr bool
	}{
		{
			name: "valid item",
			item: ContentItem{
				ID:      "post-1",
				Author:  Author{Username: "alice", Followers: 1200},
				Text:    "hello",
				Metrics: map[Interaction]int64{Likes: 10, Comments: 2},
			},
			wantErr: false,
		},
		{
			name:    "valid item without metrics",
			item:    ContentItem{ID: "post-2"},
			wantErr: false,
		},
		{
			name:    "empty ID",
			item:    ContentItem{Metrics: map[Interaction]int64{Likes: 1}},
			wantErr: true,
		},
		{
			name: "negative count",
			item: ContentItem{
				ID:      "post-3",
				Metrics: map[Interaction]int64{Likes: -1},
			},
			wantErr: true,
		},
		{
			name: "unknown interaction",
			item: ContentItem{
				ID:      "post-4",
				Metrics: map[Interaction]int64{"hearts": 3},
			},
			wantErr: true,
		},
		{
			name: "negative followers",
			item: ContentItem{
				ID:     "post-5",
				Author: Author{Username: "bob", Followers: -5},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ContentItem.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContentItemCount(t *testing.T) {
	item := ContentItem{ID: "x"}
	if got := item.Count(Likes); got != 0 {
		t.Errorf("Count on nil metrics = %d, want 0", got)
	}

	item.Metrics = map[Interaction]int64{Views: 500}
	if got := item.Count(Views); got != 500 {
		t.Errorf("Count(views) = %d, want 500", got)
	}
	if got := item.Count(Shares); got != 0 {
		t.Errorf("Count(shares) = %d, want 0", got)
	}
}

func TestOutlierBatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		batch   OutlierBatch
		wantErr bool
	}{
		{
			name:    "empty batch",
			batch:   OutlierBatch{},
			wantErr: false,
		},
		{
			name: "sorted outliers",
			batch: OutlierBatch{
				Total: 3,
				Outliers: []ContentItem{
					{ID: "a", EngagementScore: 30},
					{ID: "b", EngagementScore: 30},
					{ID: "c", EngagementScore: 10},
				},
			},
			wantErr: false,
		},
		{
			name: "unsorted outliers",
			batch: OutlierBatch{
				Total: 2,
				Outliers: []ContentItem{
					{ID: "a", EngagementScore: 10},
					{ID: "b", EngagementScore: 30},
				},
			},
			wantErr: true,
		},
		{
			name: "more outliers than total",
			batch: OutlierBatch{
				Total:    1,
				Outliers: []ContentItem{{ID: "a"}, {ID: "b"}},
			},
			wantErr: true,
		},
		{
			name:    "negative std dev",
			batch:   OutlierBatch{Total: 2, StdDev: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("OutlierBatch.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVideoAnalysisResultValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		result  VideoAnalysisResult
		wantErr bool
	}{
		{
			name: "valid success",
			result: VideoAnalysisResult{
				ID: "r-1", ItemID: "v-1", Status: StatusSuccess,
				Analysis: &Analysis{HookTechnique: "question"}, AnalyzedAt: now,
			},
			wantErr: false,
		},
		{
			name: "valid error",
			result: VideoAnalysisResult{
				ID: "r-2", ItemID: "v-2", Status: StatusError,
				Error: "upload failed", AnalyzedAt: now,
			},
			wantErr: false,
		},
		{
			name:    "valid skipped",
			result:  VideoAnalysisResult{ID: "r-3", ItemID: "v-3", Status: StatusSkipped, AnalyzedAt: now},
			wantErr: false,
		},
		{
			name: "success with error",
			result: VideoAnalysisResult{
				ID: "r-4", ItemID: "v-4", Status: StatusSuccess,
				Analysis: &Analysis{}, Error: "boom", AnalyzedAt: now,
			},
			wantErr: true,
		},
		{
			name: "error with analysis",
			result: VideoAnalysisResult{
				ID: "r-5", ItemID: "v-5", Status: StatusError,
				Analysis: &Analysis{}, Error: "boom", AnalyzedAt: now,
			},
			wantErr: true,
		},
		{
			name:    "unknown status",
			result:  VideoAnalysisResult{ID: "r-6", ItemID: "v-6", Status: "pending", AnalyzedAt: now},
			wantErr: true,
		},
		{
			name: "future timestamp",
			result: VideoAnalysisResult{
				ID: "r-7", ItemID: "v-7", Status: StatusSkipped,
				AnalyzedAt: now.Add(1 * time.Hour),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("VideoAnalysisResult.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlim(t *testing.T) {
	item := ContentItem{
		ID:              "t-1",
		URL:             "https://x.com/a/status/1",
		Text:            "hello",
		CreatedAt:       "2025-01-01T00:00:00Z",
		Author:          Author{Username: "a", Followers: 10, Verified: true},
		Metrics:         map[Interaction]int64{Likes: 3},
		MediaURLs:       []string{"https://pbs.twimg.com/1.jpg"},
		VideoURL:        "https://video.twimg.com/1.mp4",
		EngagementScore: 3,
		EngagementRate:  30,
	}

	slim := item.Slim()
	if slim.URL != item.URL || slim.Text != item.Text || slim.CreatedAt != item.CreatedAt {
		t.Errorf("slim lost identifying fields: %+v", slim)
	}
	if slim.Author.Username != "a" || !slim.Author.Verified || slim.Author.Followers != 10 {
		t.Errorf("unexpected author summary: %+v", slim.Author)
	}
	if slim.EngagementRate != 30 || len(slim.MediaURLs) != 1 {
		t.Errorf("unexpected engagement or media: %+v", slim)
	}
}

func TestReportMarshalTotal(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
		absent string
	}{
		{"empty video run", Report{CountLabel: "videos"}, `"total_videos":0`, `"total_posts"`},
		{"empty post run", Report{CountLabel: "posts"}, `"total_posts":0`, `"total_videos"`},
		{"unlabeled videos", Report{TotalVideos: 4}, `"total_videos":4`, `"total_posts"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(&tt.report)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Expected %s in %s", tt.want, data)
			}
			if strings.Contains(string(data), tt.absent) {
				t.Errorf("Unexpected %s in %s", tt.absent, data)
			}
		})
	}
}
