// Package platform holds the declarative per-platform configuration: engagement
// weights, field-name tables, the video predicate and which extra topic
// extractors apply. Adding a platform is a data addition: register a Profile
// or load one from YAML.
package platform

import (
	"errors"
	"fmt"

	"github.com/rewired-gh/outlierscope/internal/engagement"
	"github.com/rewired-gh/outlierscope/internal/models"
	"github.com/rewired-gh/outlierscope/internal/normalize"
)

// Count labels used for the report total.
const (
	LabelPosts  = "posts"
	LabelVideos = "videos"
)

// Extras selects platform-specific extraction and output behavior.
type Extras struct {
	Sounds          bool `yaml:"sounds"`           // count sound / music names
	Mentions        bool `yaml:"mentions"`         // count @mentions
	ContentPatterns bool `yaml:"content_patterns"` // structural patterns over outliers
	Slim            bool `yaml:"slim"`             // write the slim outlier projection
}

// Profile is the complete configuration of one platform.
type Profile struct {
	Name       string
	CountLabel string
	Weights    engagement.Weights
	Fields     normalize.FieldMap
	Video      normalize.VideoRule
	Extras     Extras
}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile name must not be empty")
	}
	if p.CountLabel != LabelPosts && p.CountLabel != LabelVideos {
		return fmt.Errorf("profile %s: count label must be %q or %q", p.Name, LabelPosts, LabelVideos)
	}
	if len(p.Weights) == 0 {
		return fmt.Errorf("profile %s: at least one engagement weight is required", p.Name)
	}
	if err := p.Weights.Validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	for kind := range p.Fields.Metrics {
		if !kind.Valid() {
			return fmt.Errorf("profile %s: unknown metric field kind %q", p.Name, kind)
		}
	}
	return nil
}

// IsShortVideo reports whether the platform counts sounds.
func (p *Profile) IsShortVideo() bool {
	return p.Extras.Sounds
}

// NormalizeAll converts platform-native records to content items. The canonical
// output field names are tried after the platform's own.
func (p *Profile) NormalizeAll(records []map[string]interface{}) []models.ContentItem {
	fields := p.Fields.WithFallback(normalize.Canonical)
	rule := p.Video.WithFallback(normalize.CanonicalVideoRule)

	items := make([]models.ContentItem, 0, len(records))
	for _, rec := range records {
		item := normalize.Item(rec, fields, rule)
		item.Platform = p.Name
		items = append(items, item)
	}
	return items
}

// clone returns a deep copy so registered profiles cannot be mutated through a
// returned value.
func (p Profile) clone() Profile {
	out := p
	out.Weights = p.Weights.Clone()
	out.Fields = p.Fields.WithFallback(normalize.FieldMap{})
	out.Video = p.Video.WithFallback(normalize.VideoRule{})
	return out
}
