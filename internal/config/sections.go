package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cirdoc/internal/sections"
)

// LoadSections reads a standalone sections file. It holds either a list of
// {title, content|file} entries or a mapping of title to content; mapping
// order is kept. File references resolve against the file's directory.
func LoadSections(path string) ([]sections.Section, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sections: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	j := &Job{dir: filepath.Dir(abs)}
	if j.Sections, err = parseSections(b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	j.resolvePaths()
	return j.ResolveSections()
}

func parseSections(b []byte) ([]Section, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	doc := node.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var list []Section
		if err := doc.Decode(&list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return list, nil
	case yaml.MappingNode:
		out := make([]Section, 0, len(doc.Content)/2)
		for i := 0; i+1 < len(doc.Content); i += 2 {
			k, v := doc.Content[i], doc.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: section %q: content must be text (line %d)", ErrInvalid, k.Value, v.Line)
			}
			out = append(out, Section{Title: k.Value, Content: v.Value})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: sections must be a list or a mapping", ErrInvalid)
	}
}
