package glossary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// termFile is the on-disk shape of a term list: either a bare list of
// entries or a mapping with a "terms" key. JSON is accepted as YAML.
type termFile struct {
	Terms []Entry `yaml:"terms"`
}

// LoadFile reads a YAML or JSON term list.
func LoadFile(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a term list document.
func Parse(b []byte) ([]Entry, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, fmt.Errorf("decode terms: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	doc := node.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var list []Entry
		if err := doc.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode terms: %w", err)
		}
		return list, nil
	case yaml.MappingNode:
		var f termFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode terms: %w", err)
		}
		return f.Terms, nil
	default:
		return nil, fmt.Errorf("decode terms: expected a list or a mapping, got %s", kindName(doc.Kind))
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}
