package scenario

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// ValidateCUE checks scenario YAML against the embedded CUE schema.
// Uses the CUE SDK's Go API directly (not CLI subprocess); schema
// violations come back with file positions.
func ValidateCUE(filename string, data []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("failed to compile scenario schema: %w", err)
	}
	schema := schemaVal.LookupPath(cue.ParsePath("#Scenario"))
	if !schema.Exists() {
		return fmt.Errorf("scenario schema is missing #Scenario")
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("failed to build YAML value: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}

	return nil
}
