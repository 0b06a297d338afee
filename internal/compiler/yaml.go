package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type definitionFile struct {
	Criteria []yaml.Node `yaml:"criteria"`
}

// LoadYAML decodes definitions from a YAML or JSON document with a
// top-level criteria list. Unknown keys are rejected.
func LoadYAML(data []byte) ([]Definition, error) {
	var file definitionFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	if file.Criteria == nil {
		return nil, &CompileError{Field: "criteria", Message: "top-level criteria list is required"}
	}

	defs := make([]Definition, 0, len(file.Criteria))
	for i := range file.Criteria {
		node := &file.Criteria[i]

		var def Definition
		if err := decodeStrict(node, &def); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("criteria[%d]", i),
				Message: err.Error(),
				Line:    node.Line,
			}
		}
		def.Line = node.Line
		defs = append(defs, def)
	}
	return defs, nil
}

// decodeStrict decodes node rejecting unknown keys, which yaml.Node.Decode
// does not do on its own.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// UnmarshalYAML accepts a bare field name as an ascending key.
func (t *OrderTerm) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Field = value.Value
		t.Direction = ""
		return nil
	}
	type plain OrderTerm
	return value.Decode((*plain)(t))
}

// LoadFile loads definitions from a .cue, .yaml, .yml or .json file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(data, path)
	case ".yaml", ".yml", ".json":
		defs, err := LoadYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return defs, nil
	default:
		return nil, fmt.Errorf("%s: unsupported file type (want .cue, .yaml, .yml or .json)", path)
	}
}
