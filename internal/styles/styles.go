// Package styles holds the UI style presets offered to the widget generator.
package styles

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

var ErrNotFound = errors.New("styles: preset not found")

// Preset is one selectable UI style. Prompt is appended verbatim to the
// widget generation prompt.
type Preset struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"displayName" json:"displayName"`
	Description string `yaml:"description" json:"description"`
	Prompt      string `yaml:"prompt" json:"-"`
	SortOrder   int    `yaml:"sortOrder" json:"sortOrder"`
	Active      bool   `yaml:"active" json:"active"`
}

// Registry is an immutable set of presets keyed by name.
type Registry struct {
	byName  map[string]Preset
	ordered []Preset
}

// Default returns the built-in presets.
func Default() *Registry {
	r, err := Parse(defaultPresets)
	if err != nil {
		panic(fmt.Sprintf("styles: embedded presets: %v", err))
	}
	return r
}

// Load reads presets from a YAML file. An empty path returns Default().
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("styles: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes a YAML list of presets. Names must be unique and non-empty.
func Parse(b []byte) (*Registry, error) {
	var list []Preset
	if err := yaml.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("styles: parse: %w", err)
	}
	r := &Registry{byName: make(map[string]Preset, len(list))}
	for i, p := range list {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("styles: preset %d has no name", i)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("styles: duplicate preset %q", p.Name)
		}
		if p.DisplayName == "" {
			p.DisplayName = p.Name
		}
		p.Prompt = strings.TrimSpace(p.Prompt)
		r.byName[p.Name] = p
		r.ordered = append(r.ordered, p)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].SortOrder < r.ordered[j].SortOrder
	})
	return r, nil
}

// Get returns the named preset, active or not.
func (r *Registry) Get(name string) (Preset, error) {
	p, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// Active lists active presets by sort order.
func (r *Registry) Active() []Preset {
	out := make([]Preset, 0, len(r.ordered))
	for _, p := range r.ordered {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}
