// Package descriptor reads extensions.yaml files. Each top-level key names a
// section and maps to the list of paths, relative to the descriptor's
// directory, that make up that extension:
//
//	Python:
//	  - plugin.yaml
//	  - Python.mon
//	  - venv
//	Offset:
//	  - Offset.mon
package descriptor

import (
	"fmt"
	"path"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional descriptor file name.
const FileName = "extensions.yaml"

// Section is one named group of paths.
type Section struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// Descriptor is a parsed extensions.yaml in document order.
type Descriptor struct {
	Sections []Section `json:"sections"`
}

// Parse decodes a descriptor. Sections keep the order in which they appear
// in the document. A section value may be a list of paths, a single path or
// empty.
func Parse(data []byte) (*Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: descriptor: %v", errors.ErrValidation, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Descriptor{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: descriptor must be a mapping of sections", errors.ErrValidation)
	}

	d := &Descriptor{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		name := strings.TrimSpace(key.Value)
		if name == "" {
			return nil, fmt.Errorf("%w: descriptor line %d: empty section name", errors.ErrValidation, key.Line)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: descriptor line %d: duplicate section %q", errors.ErrValidation, key.Line, name)
		}
		seen[name] = true

		paths, err := sectionPaths(name, value)
		if err != nil {
			return nil, err
		}
		d.Sections = append(d.Sections, Section{Name: name, Paths: paths})
	}
	return d, nil
}

func sectionPaths(name string, value *yaml.Node) ([]string, error) {
	var raw []string
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag != "!!null" {
			raw = append(raw, value.Value)
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: descriptor line %d: section %q must list paths", errors.ErrValidation, item.Line, name)
			}
			raw = append(raw, item.Value)
		}
	default:
		return nil, fmt.Errorf("%w: descriptor line %d: section %q must list paths", errors.ErrValidation, value.Line, name)
	}

	paths := make([]string, 0, len(raw))
	for _, p := range raw {
		clean, err := cleanPath(p)
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %v", errors.ErrValidation, name, err)
		}
		if clean != "" {
			paths = append(paths, clean)
		}
	}
	return paths, nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("absolute path %q", p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q leaves the descriptor directory", p)
	}
	if clean == "." {
		return "", nil
	}
	return clean, nil
}

// Names returns the section names in document order.
func (d *Descriptor) Names() []string {
	names := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		names = append(names, s.Name)
	}
	return names
}

// Select returns the named sections in document order. No names selects
// every section. Unknown names fail with ErrValidation.
func (d *Descriptor) Select(names []string) ([]Section, error) {
	if len(names) == 0 {
		return d.Sections, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = true
	}

	var out []Section
	for _, s := range d.Sections {
		if wanted[s.Name] {
			out = append(out, s)
			delete(wanted, s.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for _, n := range names {
			if wanted[strings.TrimSpace(n)] {
				missing = append(missing, n)
			}
		}
		return nil, fmt.Errorf("%w: unknown sections %s", errors.ErrValidation, strings.Join(missing, ", "))
	}
	return out, nil
}

// Paths returns the de-duplicated paths of the given sections in order.
func Paths(sections []Section) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sections {
		for _, p := range s.Paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
