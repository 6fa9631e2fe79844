// Package registry loads the static metric catalogue used to answer
// "what does this metric mean" queries. The catalogue is read once and
// immutable for the process lifetime.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RegistryError indicates the metric catalogue could not be loaded.
type RegistryError struct {
	msg string
}

func (e *RegistryError) Error() string {
	return e.msg
}

// Errorf builds a RegistryError from a format string.
func Errorf(format string, args ...any) error {
	return &RegistryError{msg: fmt.Sprintf(format, args...)}
}

// Definition is one catalogue entry. Every field is mandatory in the
// catalogue file.
type Definition struct {
	ID                 string `yaml:"-" json:"id"`
	Name               string `yaml:"name" json:"name"`
	Definition         string `yaml:"definition" json:"definition"`
	Owner              string `yaml:"owner" json:"owner"`
	MinAggregationSize int    `yaml:"min_aggregation_size" json:"min_aggregation_size"`
	FreshnessDays      int    `yaml:"freshness_days" json:"freshness_days"`
}

// Bullet renders the definition as a single catalogue line.
func (d Definition) Bullet() string {
	return fmt.Sprintf(
		"%s — %s (owner: %s; min aggregation %d; refreshed every %d days)",
		d.Name, d.Definition, d.Owner, d.MinAggregationSize, d.FreshnessDays,
	)
}

// Registry holds the loaded catalogue in file order.
type Registry struct {
	order   []string
	metrics map[string]Definition
}

// Load reads the catalogue YAML at path. A catalogue entry missing any
// mandatory field fails the whole load, not just that entry.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf("metrics registry not found at %s. Set COPILOT_METRICS_FILE.", path)
	}

	var doc struct {
		Metrics yaml.Node `yaml:"metrics"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, Errorf("unable to parse metrics file %s: %v", path, err)
	}

	reg := &Registry{metrics: make(map[string]Definition)}
	if doc.Metrics.Kind != yaml.MappingNode {
		return reg, nil
	}

	// Mapping node content alternates key, value.
	for i := 0; i+1 < len(doc.Metrics.Content); i += 2 {
		key := doc.Metrics.Content[i].Value
		entry := doc.Metrics.Content[i+1]

		var fields map[string]yaml.Node
		if err := entry.Decode(&fields); err != nil {
			return nil, Errorf("metric %q has a malformed definition: %v", key, err)
		}
		for _, required := range []string{"name", "definition", "owner", "min_aggregation_size", "freshness_days"} {
			if _, ok := fields[required]; !ok {
				return nil, Errorf("metric %q is missing the required field %q", key, required)
			}
		}

		var def Definition
		if err := entry.Decode(&def); err != nil {
			return nil, Errorf("metric %q has a malformed definition: %v", key, err)
		}
		def.ID = key
		reg.order = append(reg.order, key)
		reg.metrics[key] = def
	}
	return reg, nil
}

// Describe returns the catalogue entries for the given identifiers, in
// request order, silently omitting unknown ids. A nil slice selects the
// full catalogue in file order.
func (r *Registry) Describe(ids []string) []Definition {
	keys := ids
	if keys == nil {
		keys = r.order
	}
	var selected []Definition
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if def, ok := r.metrics[key]; ok {
			selected = append(selected, def)
		}
	}
	return selected
}

// AsMarkdown renders the selected entries as a bulleted catalogue block.
func (r *Registry) AsMarkdown(ids []string) string {
	selected := r.Describe(ids)
	if len(selected) == 0 {
		return "No metric definitions available for the requested identifiers."
	}
	lines := []string{"Metric catalogue:"}
	for _, def := range selected {
		lines = append(lines, "- "+def.Bullet())
	}
	return strings.Join(lines, "\n")
}
