package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/compiler"
)

// Scenario defines a conformance test scenario. The records are loaded into
// both repositories, the criteria run against each, and both results must
// equal the expectation.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection is the collection the records are stored in.
	Collection string `yaml:"collection"`

	// Records are the documents to store, in insertion order. They receive
	// ids r1, r2, ... in that order.
	Records []map[string]any `yaml:"records"`

	// Criteria is the definition under test. Name defaults to the scenario
	// name and From to the collection.
	Criteria compiler.Definition `yaml:"criteria"`

	// Expect is the expected outcome.
	Expect Expectation `yaml:"expect"`
}

// Expectation lists the ids the criteria must return, in order.
type Expectation struct {
	IDs []string `yaml:"ids"`

	// Warnings, when set, must equal the portability warnings of the
	// built query.
	Warnings []string `yaml:"warnings,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Criteria.Name == "" {
		scenario.Criteria.Name = scenario.Name
	}
	if scenario.Criteria.From == "" {
		scenario.Criteria.From = scenario.Collection
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Collection == "" {
		return fmt.Errorf("collection is required")
	}

	if s.Criteria.From != s.Collection {
		return fmt.Errorf("criteria.from %q must match collection %q", s.Criteria.From, s.Collection)
	}

	for i, rec := range s.Records {
		if rec == nil {
			return fmt.Errorf("records[%d]: must be an object", i)
		}
	}

	if s.Expect.IDs == nil {
		return fmt.Errorf("expect.ids is required (use [] when nothing matches)")
	}

	return nil
}

// RecordID returns the id the harness assigns to the i-th record.
func RecordID(i int) string {
	return fmt.Sprintf("r%d", i+1)
}
