// Package storage loads platform-native input records and persists run output
// as flat JSON snapshots.
//
// Input files are either a JSON array of records or a JSON object carrying the
// records under an "outliers" key, which is the shape the tool writes itself.
// Numbers are decoded as json.Number so large identifiers survive intact.
//
// Output is written atomically: the JSON is written to a temporary file next
// to the target and renamed over it. A stale temporary file from an
// interrupted write is removed before the target is read again.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/outlierscope/internal/logger"
	"github.com/rewired-gh/outlierscope/internal/models"
)

// ErrInput marks fatal input errors: missing, unreadable or malformed files.
var ErrInput = errors.New("input error")

const (
	outliersSuffix = "_outliers.json"
	analysisSuffix = "_video_analysis.json"
	tempSuffix     = ".tmp"
)

// Storage writes run output below a directory.
type Storage struct {
	dir             string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// AnalysisFile is the persisted shape of a video analysis run.
type AnalysisFile struct {
	RunID     string                       `json:"run_id"`
	Generated time.Time                    `json:"generated"`
	Platform  string                       `json:"platform"`
	Model     string                       `json:"model,omitempty"`
	Analyzed  int                          `json:"analyzed"`
	Results   []models.VideoAnalysisResult `json:"results"`
}

// New creates a Storage writing below dir.
// If dir is empty, uses an OS-appropriate tmp directory
func New(dir string, filePermissions, dirPermissions os.FileMode) *Storage {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "outlierscope")
	}
	if filePermissions == 0 {
		filePermissions = 0o644
	}
	if dirPermissions == 0 {
		dirPermissions = 0o755
	}
	return &Storage{
		dir:             dir,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Dir returns the output directory.
func (s *Storage) Dir() string {
	return s.dir
}

// OutliersPath returns the report file path of a platform.
func (s *Storage) OutliersPath(platform string) string {
	return filepath.Join(s.dir, platform+outliersSuffix)
}

// AnalysisPath returns the video analysis file path of a platform.
func (s *Storage) AnalysisPath(platform string) string {
	return filepath.Join(s.dir, platform+analysisSuffix)
}

// SaveReport writes a detection report and returns the path written.
func (s *Storage) SaveReport(report *models.Report) (string, error) {
	path := s.OutliersPath(report.Platform)
	if err := s.SaveJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAnalysis writes the video analysis results and returns the path written.
func (s *Storage) SaveAnalysis(file *AnalysisFile) (string, error) {
	path := s.AnalysisPath(file.Platform)
	if err := s.SaveJSON(path, file); err != nil {
		return "", err
	}
	return path, nil
}

// SaveJSON writes v as indented JSON to path atomically.
func (s *Storage) SaveJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPermissions); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := path + tempSuffix
	if err := os.WriteFile(tempPath, jsonData, s.filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}

	logger.Debug("Saved %s (%d bytes)", path, len(jsonData))
	return nil
}

// LoadRecords reads and concatenates the records of every path, in order.
// Every error is wrapped in ErrInput.
func LoadRecords(paths ...string) ([]map[string]interface{}, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no input files", ErrInput)
	}

	var all []map[string]interface{}
	for _, path := range paths {
		records, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded %d records from %s", len(records), path)
		all = append(all, records...)
	}
	return all, nil
}

func loadFile(path string) ([]map[string]interface{}, error) {
	// Clean up any stale temp file from an interrupted write
	tempPath := path + tempSuffix
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrInput, path, err)
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}
	return records, nil
}

// DecodeRecords decodes a JSON array of records or an object with an
// "outliers" array. Array elements that are not objects are skipped.
func DecodeRecords(data []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}

	var raw []interface{}
	switch trimmed[0] {
	case '[':
		if err := decode(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
	case '{':
		var wrapper struct {
			Outliers *[]interface{} `json:"outliers"`
		}
		if err := decode(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		if wrapper.Outliers == nil {
			return nil, errors.New(`object input must have an "outliers" array`)
		}
		raw = *wrapper.Outliers
	default:
		return nil, errors.New("input must be a JSON array or an object with an \"outliers\" array")
	}

	records := make([]map[string]interface{}, 0, len(raw))
	skipped := 0
	for _, elem := range raw {
		rec, ok := elem.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		logger.Warn("Skipped %d non-object record(s)", skipped)
	}
	return records, nil
}

func decode(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}
