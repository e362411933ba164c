package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a transition table:
//
//	transitions:
//	  publish:
//	    from: [draft, private]
//	    to: public
type tableFile struct {
	Transitions domain.Transitions `yaml:"transitions" json:"transitions"`
}

// ParseTransitions decodes a YAML (or JSON, which YAML accepts) transition table.
func ParseTransitions(data []byte) (domain.Transitions, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse transitions: %w", err)
	}
	if err := Validate(f.Transitions); err != nil {
		return nil, err
	}
	return f.Transitions, nil
}

// LoadTransitions reads a transition table from a .yaml/.yml or .json file.
func LoadTransitions(path string) (domain.Transitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transitions: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var f tableFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse transitions: %w", err)
		}
		if err := Validate(f.Transitions); err != nil {
			return nil, err
		}
		return f.Transitions, nil
	}
	return ParseTransitions(data)
}

// DecodeTransitions converts a loosely typed table (e.g. from frontmatter or a
// settings map) into Transitions.
func DecodeTransitions(raw map[string]any) (domain.Transitions, error) {
	table := make(domain.Transitions, len(raw))
	if err := mapstructure.Decode(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to decode transitions: %w", err)
	}
	if err := Validate(table); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate checks that every transition names a destination and at least one source.
func Validate(table domain.Transitions) error {
	for action, tr := range table {
		if action == "" {
			return fmt.Errorf("transition with empty action name")
		}
		if tr.To == "" {
			return fmt.Errorf("transition %q: missing destination state", action)
		}
		if len(tr.From) == 0 {
			return fmt.Errorf("transition %q: missing source states", action)
		}
	}
	return nil
}
