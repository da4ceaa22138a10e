package platform

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/outlierscope/internal/engagement"
	"github.com/rewired-gh/outlierscope/internal/normalize"
)

// Registry resolves platform names to profiles.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry creates a registry holding the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range builtins() {
		r.profiles[p.Name] = p
	}
	return r
}

// Get returns a copy of the named profile. Names are case-insensitive and
// built-in aliases (twitter, ig, yt) are accepted.
func (r *Registry) Get(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	p, ok := r.profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown platform %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p.clone(), nil
}

// Names returns the registered profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a profile.
func (r *Registry) Register(p Profile) error {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	if err := p.Validate(); err != nil {
		return err
	}
	r.profiles[p.Name] = p.clone()
	return nil
}

// profileFile is the YAML shape of a profile. Pointer fields distinguish
// "not set" from zero when inheriting from a base profile.
type profileFile struct {
	Name       string               `yaml:"name"`
	Base       string               `yaml:"base"`
	CountLabel string               `yaml:"count_label"`
	Weights    engagement.Weights   `yaml:"weights"`
	Fields     *normalize.FieldMap  `yaml:"fields"`
	Video      *normalize.VideoRule `yaml:"video"`
	Extras     struct {
		Sounds          *bool `yaml:"sounds"`
		Mentions        *bool `yaml:"mentions"`
		ContentPatterns *bool `yaml:"content_patterns"`
		Slim            *bool `yaml:"slim"`
	} `yaml:"extras"`
}

// document is the top-level YAML shape of a profiles file.
type document struct {
	Profiles []profileFile `yaml:"profiles"`
}

// LoadFile registers every profile of a YAML profiles file. A profile naming a
// base inherits everything from it; fields set in the file replace the base's.
// Field lists set in the file are tried before the base's own candidates.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles file: %w", err)
	}
	return r.Load(data)
}

// Load registers every profile of a YAML profiles document.
func (r *Registry) Load(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse profiles: %w", err)
	}

	for i, pf := range doc.Profiles {
		p, err := r.resolve(pf)
		if err != nil {
			return fmt.Errorf("profile %d: %w", i, err)
		}
		if err := r.Register(p); err != nil {
			return fmt.Errorf("profile %d: %w", i, err)
		}
	}
	return nil
}

func (r *Registry) resolve(pf profileFile) (Profile, error) {
	var p Profile
	if pf.Base != "" {
		base, err := r.Get(pf.Base)
		if err != nil {
			return Profile{}, err
		}
		p = base
	}

	p.Name = pf.Name
	if pf.CountLabel != "" {
		p.CountLabel = pf.CountLabel
	}
	if len(pf.Weights) > 0 {
		p.Weights = pf.Weights
	}
	if pf.Fields != nil {
		p.Fields = pf.Fields.WithFallback(p.Fields)
	}
	if pf.Video != nil {
		p.Video = pf.Video.WithFallback(p.Video)
	}
	setBool(&p.Extras.Sounds, pf.Extras.Sounds)
	setBool(&p.Extras.Mentions, pf.Extras.Mentions)
	setBool(&p.Extras.ContentPatterns, pf.Extras.ContentPatterns)
	setBool(&p.Extras.Slim, pf.Extras.Slim)

	return p, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
