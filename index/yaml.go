package index

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of an index file.
type File struct {
	Entries []Entry `yaml:"entries"`
}

// LoadFile reads a YAML index file.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", path, err)
	}
	s, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("index file %s: %w", path, err)
	}
	return s, nil
}

// ParseYAML parses index entries in the File layout.
func ParseYAML(data []byte) (*Static, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	return NewStatic(f.Entries)
}
