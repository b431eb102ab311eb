package outcomes

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set maps course-outcome tags (CO1, CO2, ...) to their definitions. Tags are
// always stored upper-case.
type Set map[string]string

// Default is the built-in outcome catalogue used when no file is configured.
func Default() Set {
	return Set{
		"CO1": "Explain fundamental principles, concepts and evolution of computing systems as they relate to different fields.",
		"CO2": "Expound in the recent developments in the different computing knowledge areas.",
		"CO3": "Analyze solutions employed by organizations to address different computing issues.",
	}
}

type fileFormat struct {
	Outcomes map[string]string `yaml:"outcomes"`
}

// LoadFile reads an outcome catalogue from a YAML file of the form:
//
//	outcomes:
//	  CO1: "definition"
func LoadFile(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outcomes file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse outcomes file: %w", err)
	}
	if len(f.Outcomes) == 0 {
		return nil, fmt.Errorf("outcomes file %s defines no outcomes", path)
	}
	out := make(Set, len(f.Outcomes))
	for tag, def := range f.Outcomes {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		def = strings.TrimSpace(def)
		if tag == "" || def == "" {
			continue
		}
		out[tag] = def
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("outcomes file %s defines no usable outcomes", path)
	}
	return out, nil
}

// Load resolves the catalogue from path when non-empty, otherwise Default.
func Load(path string) (Set, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Has reports whether tag is part of the catalogue (case-insensitive).
func (s Set) Has(tag string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(tag))]
	return ok
}

// Tags returns the sorted tag list.
func (s Set) Tags() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Filter keeps only the requested tags that exist in the catalogue,
// upper-cased, preserving request order and dropping duplicates.
func (s Set) Filter(requested []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(requested))
	for _, tag := range requested {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		if _, ok := s[tag]; !ok {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// FormatDefinitions renders "- TAG: definition" lines for prompt injection,
// restricted to the given tags, in the given order.
func (s Set) FormatDefinitions(tags []string) string {
	var b strings.Builder
	for _, tag := range tags {
		def, ok := s[strings.ToUpper(strings.TrimSpace(tag))]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", strings.ToUpper(strings.TrimSpace(tag)), def)
	}
	return strings.TrimRight(b.String(), "\n")
}
