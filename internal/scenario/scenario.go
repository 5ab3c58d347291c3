// Package scenario loads declarative harness runs from YAML files.
//
// A scenario names a generator and the configuration the harness should
// apply to it: working directory, arguments, options, mocked prompt
// answers, and dependency generators. Files are validated twice: a
// strict YAML decode (unknown fields are typos) and a CUE schema check
// that reports shape errors with positions.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one harness run.
type Scenario struct {
	// Name uniquely identifies this scenario; it also keys golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Generator is the namespace of the generator under test, resolved
	// through the resolver supplied at build time.
	Generator string `yaml:"generator"`

	// Dir is the working directory prepared for the run. Optional; when
	// empty the run executes in the current directory.
	Dir string `yaml:"dir,omitempty"`

	// Arguments is a single space-separated argument string. Mutually
	// exclusive with Args.
	Arguments string `yaml:"arguments,omitempty"`

	// Args is a pre-split argument list. Mutually exclusive with Arguments.
	Args []string `yaml:"args,omitempty"`

	// Options are merged onto the generator over the skip_install default.
	Options map[string]any `yaml:"options,omitempty"`

	// Answers are the mocked prompt answers.
	Answers map[string]any `yaml:"answers,omitempty"`

	// Dependencies are generator namespaces registered before the
	// generator under test, in order.
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// Dependency names a dependency generator.
type Dependency struct {
	Namespace string `yaml:"namespace"`
}

// Load reads, decodes, and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes and validates scenario YAML. The filename is used only
// in error positions.
func Parse(filename string, data []byte) (*Scenario, error) {
	if err := ValidateCUE(filename, data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Strict decode catches typos the schema's optional fields would
	// otherwise let through (e.g. "argument:" vs "arguments:").
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &sc, nil
}

// validate checks the constraints the schema cannot express.
func validate(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sc.Description == "" {
		return fmt.Errorf("description is required")
	}
	if sc.Generator == "" {
		return fmt.Errorf("generator is required")
	}
	if sc.Arguments != "" && len(sc.Args) > 0 {
		return fmt.Errorf("arguments and args are mutually exclusive")
	}
	for i, dep := range sc.Dependencies {
		if dep.Namespace == "" {
			return fmt.Errorf("dependencies[%d]: namespace is required", i)
		}
	}
	return nil
}
