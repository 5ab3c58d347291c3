// Package scaffold is the built-in demo generator: it scaffolds a
// minimal Go project layout in the current working directory. It exists
// so the CLI and the end-to-end tests have a real generator to drive,
// and it exercises every surface the harness touches: arguments,
// options, prompting, and the skip_install flag.
package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/roach88/gentest/internal/env"
	"github.com/roach88/gentest/internal/generator"
	"github.com/roach88/gentest/internal/prompt"
)

// Namespace the generator self-declares.
const Namespace = "scaffold:app"

// Generator scaffolds a Go project. The first positional argument is
// the application name; the module path and license come from prompts.
type Generator struct {
	generator.Base
}

// New creates a scaffold generator. Registered as env.Factory by the
// CLI and tests.
func New() generator.Generator {
	return &Generator{Base: generator.NewBase(Namespace)}
}

// Factory adapts New to env.Factory.
func Factory() generator.Generator { return New() }

// Resolver returns a resolver covering the built-in generators.
func Resolver() env.Resolver {
	return env.MapResolver{
		Namespace: Factory,
	}
}

var questions = []prompt.Question{
	{Name: "module", Message: "Module path", Default: "example.com/app"},
	{Name: "license", Message: "License identifier", Default: "MIT"},
}

// Run writes the project files into the current working directory.
func (g *Generator) Run(ctx context.Context) error {
	name := "app"
	if len(g.Args) > 0 {
		name = g.Args[0]
	}

	answers, err := g.Prompter.Prompt(ctx, questions)
	if err != nil {
		return fmt.Errorf("failed to prompt: %w", err)
	}

	data := templateData{
		Name:    name,
		Module:  answers.String("module", "example.com/app"),
		License: answers.String("license", "MIT"),
	}

	for _, f := range projectFiles {
		if err := writeTemplated(f.path, f.tmpl, data); err != nil {
			return err
		}
	}

	if g.SkipInstall() {
		g.Logger.Debug("skipping dependency install", "app", name)
		return nil
	}
	return g.installDeps(data)
}

// installDeps records the dependency install step. The harness merges
// skip_install=true by default, so tests never reach this unless they
// override the option.
func (g *Generator) installDeps(data templateData) error {
	g.Logger.Info("installing dependencies", "module", data.Module)
	note := fmt.Sprintf("install requested for %s\n", data.Module)
	if err := os.WriteFile(".install.log", []byte(note), 0o644); err != nil {
		return fmt.Errorf("failed to record install: %w", err)
	}
	return nil
}

type templateData struct {
	Name    string
	Module  string
	License string
}

type projectFile struct {
	path string
	tmpl string
}

var projectFiles = []projectFile{
	{
		path: "go.mod",
		tmpl: "module {{.Module}}\n\ngo 1.25\n",
	},
	{
		path: filepath.Join("cmd", "{{.Name}}", "main.go"),
		tmpl: `package main

import "fmt"

func main() {
	fmt.Println("{{.Name}}")
}
`,
	},
	{
		path: "README.md",
		tmpl: "# {{.Name}}\n\nLicensed under {{.License}}.\n",
	},
}

// writeTemplated renders both the path and the content as templates and
// writes the result, creating parent directories as needed.
func writeTemplated(pathTmpl, contentTmpl string, data templateData) error {
	path, err := render("path", pathTmpl, data)
	if err != nil {
		return err
	}
	content, err := render(path, contentTmpl, data)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func render(name, tmpl string, data templateData) (string, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
