package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/outlierscope/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRecords_ArrayAndWrapper(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `[{"id": 7321123456789012345, "likesCount": 10}, "junk", {"id": "b"}]`)
	b := writeFile(t, dir, "b.json", `{"generated": "2025-01-01", "outliers": [{"id": "c"}]}`)

	records, err := LoadRecords(a, b)
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if id, ok := records[0]["id"].(json.Number); !ok || id.String() != "7321123456789012345" {
		t.Errorf("Expected id decoded as json.Number, got %T %v", records[0]["id"], records[0]["id"])
	}
	if records[2]["id"] != "c" {
		t.Errorf("Expected wrapped record c, got %v", records[2]["id"])
	}
}

func TestLoadRecords_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		paths []string
	}{
		{"no paths", nil},
		{"missing file", []string{filepath.Join(dir, "missing.json")}},
		{"malformed", []string{writeFile(t, dir, "bad.json", `[{"id": 1},`)}},
		{"object without outliers", []string{writeFile(t, dir, "obj.json", `{"items": []}`)}},
		{"scalar", []string{writeFile(t, dir, "num.json", `42`)}},
		{"empty", []string{writeFile(t, dir, "empty.json", "  \n")}},
		{"trailing data", []string{writeFile(t, dir, "two.json", `[] []`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRecords(tt.paths...)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, ErrInput) {
				t.Errorf("Expected ErrInput, got %v", err)
			}
		})
	}
}

func TestLoadRecords_RemovesStaleTempFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "in.json", `[]`)
	writeFile(t, dir, "in.json.tmp", `partial`)

	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected stale temp file to be removed")
	}
}

func TestStorage_SaveReportRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "out"), 0o600, 0o700)

	item := models.ContentItem{ID: "p1", Author: models.Author{Username: "ann"}, Metrics: map[models.Interaction]int64{models.Likes: 3}}
	report := &models.Report{
		RunID:        "run-1",
		Generated:    time.Now(),
		Platform:     "instagram",
		TotalPosts:   1,
		OutlierCount: 1,
		Threshold:    2,
		Accounts:     []string{"ann"},
		Outliers:     []models.ContentItem{item},
	}

	path, err := s.SaveReport(report)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if !strings.HasSuffix(path, "instagram_outliers.json") {
		t.Errorf("Unexpected path %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected 0600, got %v", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should not remain after save")
	}

	// The written report is itself valid input.
	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(records) != 1 || records[0]["id"] != "p1" {
		t.Errorf("Unexpected records %v", records)
	}
}

func TestStorage_SaveAnalysis(t *testing.T) {
	s := New(t.TempDir(), 0, 0)
	file := &AnalysisFile{
		RunID:     "run-1",
		Generated: time.Now(),
		Platform:  "tiktok",
		Results:   []models.VideoAnalysisResult{{ID: "r1", ItemID: "v1", Status: models.StatusSkipped}},
	}

	path, err := s.SaveAnalysis(file)
	if err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if path != filepath.Join(s.Dir(), "tiktok_video_analysis.json") {
		t.Errorf("Unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var back AnalysisFile
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Results) != 1 || back.Results[0].Status != models.StatusSkipped {
		t.Errorf("Unexpected results %+v", back.Results)
	}
}

func TestStorage_EmptyDirUsesTmpDir(t *testing.T) {
	s := New("", 0, 0)
	if !strings.HasSuffix(s.Dir(), "outlierscope") {
		t.Errorf("Expected dir to end with outlierscope, got %s", s.Dir())
	}
}
