package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gentest/internal/env"
	"github.com/roach88/gentest/internal/generator"
	"github.com/roach88/gentest/internal/prompt"
)

const validScenario = `
name: basic
description: Exercises the demo generator
generator: "scaffold:app"
arguments: "api --verbose"
options:
  force: true
answers:
  module: example.com/api
dependencies:
  - namespace: "dep:helper"
`

func TestParse_Valid(t *testing.T) {
	sc, err := Parse("basic.yaml", []byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "basic", sc.Name)
	assert.Equal(t, "scaffold:app", sc.Generator)
	assert.Equal(t, "api --verbose", sc.Arguments)
	assert.Equal(t, true, sc.Options["force"])
	assert.Equal(t, "example.com/api", sc.Answers["module"])
	require.Len(t, sc.Dependencies, 1)
	assert.Equal(t, "dep:helper", sc.Dependencies[0].Namespace)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	doc := `
name: typo
description: has a typo
generator: "scaffold:app"
argument: "oops"
`
	_, err := Parse("typo.yaml", []byte(doc))
	require.Error(t, err)
}

func TestParse_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"no name", "description: d\ngenerator: g\n"},
		{"no description", "name: n\ngenerator: g\n"},
		{"no generator", "name: n\ndescription: d\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.name+".yaml", []byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_ArgsAndArgumentsMutuallyExclusive(t *testing.T) {
	doc := `
name: both
description: both argument forms
generator: "scaffold:app"
arguments: "a b"
args: [a, b]
`
	_, err := Parse("both.yaml", []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestParse_SchemaViolationFromCUE(t *testing.T) {
	doc := `
name: bad
description: args should be a list
generator: "scaffold:app"
args: "not-a-list"
`
	_, err := Parse("bad.yaml", []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema violation")
}

func TestParse_EmptyDependencyNamespace(t *testing.T) {
	doc := `
name: bad-dep
description: dependency without namespace
generator: "scaffold:app"
dependencies:
  - namespace: ""
`
	_, err := Parse("bad-dep.yaml", []byte(doc))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", sc.Name)
}

type recordingGen struct {
	generator.Base
	runs     int
	answered prompt.Answers
}

func (g *recordingGen) Run(ctx context.Context) error {
	g.runs++
	answers, err := g.Prompter.Prompt(ctx, []prompt.Question{
		{Name: "module", Message: "Module path", Default: "example.com/app"},
	})
	if err != nil {
		return err
	}
	g.answered = answers
	return nil
}

func TestBuild_RunsThroughHarness(t *testing.T) {
	target := &recordingGen{Base: generator.NewBase("scaffold:app")}
	dep := &recordingGen{Base: generator.NewBase("dep:helper")}
	resolver := env.MapResolver{
		"scaffold:app": func() generator.Generator { return target },
		"dep:helper":   func() generator.Generator { return dep },
	}

	sc, err := Parse("basic.yaml", []byte(validScenario))
	require.NoError(t, err)
	sc.Dir = "" // keep the test in its own working directory

	rc := Build(sc, BuildOptions{Resolver: resolver})
	require.NoError(t, rc.Run(context.Background()))

	assert.Equal(t, 1, target.runs)
	assert.Equal(t, []string{"api", "--verbose"}, target.Args)
	assert.Equal(t, true, target.Options["force"])
	assert.Equal(t, true, target.Options[generator.OptionSkipInstall])

	// Prompt answers came from the scenario.
	assert.Equal(t, "example.com/api", target.answered["module"])
}
