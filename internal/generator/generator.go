// Package generator defines the contract a scaffolding generator must
// satisfy to be driven by the harness.
//
// A generator self-declares a namespace (e.g. "scaffold:app"), receives
// positional arguments and an options map before it runs, and asks its
// questions through a Prompter it does not own. The harness swaps the
// prompter for a mock during tests, so generators must never read stdin
// directly.
package generator

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/gentest/internal/prompt"
)

// OptionSkipInstall is the option key controlling expensive post-run side
// effects (dependency installation and the like). The harness merges it
// as true unless the caller overrides it, so generators under test skip
// installs by default.
const OptionSkipInstall = "skip_install"

// Generator is a scaffolding generator instance.
//
// Namespace returns the self-declared namespace used when the generator
// is registered without an explicit one. SetArgs, SetOptions and
// SetPrompter are called by the harness before Run; generators should
// treat them as configuration, not as runtime mutation points.
type Generator interface {
	Namespace() string
	SetArgs(args []string)
	SetOptions(opts map[string]any)
	SetPrompter(p prompt.Prompter)
	Run(ctx context.Context) error
}

// Base is an embeddable Generator implementation carrying the mutable
// surface the harness writes to. Concrete generators embed Base and
// implement Run.
//
// Args and Arguments always hold the same slice. Both names exist
// because generator code in the wild reads either one; SetArgs keeps
// them in lockstep.
type Base struct {
	NS        string
	Args      []string
	Arguments []string
	Options   map[string]any

	Prompter prompt.Prompter
	Logger   *slog.Logger
}

// NewBase creates a Base with the given namespace, an interactive
// prompter, and a discard logger. Callers override both as needed.
func NewBase(namespace string) Base {
	return Base{
		NS:       namespace,
		Options:  map[string]any{},
		Prompter: prompt.NewStdio(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Namespace returns the self-declared namespace.
func (b *Base) Namespace() string { return b.NS }

// SetArgs stores the positional arguments under both field names.
func (b *Base) SetArgs(args []string) {
	b.Args = args
	b.Arguments = args
}

// SetOptions replaces the options map.
func (b *Base) SetOptions(opts map[string]any) {
	if opts == nil {
		opts = map[string]any{}
	}
	b.Options = opts
}

// SetPrompter replaces the prompter the generator asks questions through.
func (b *Base) SetPrompter(p prompt.Prompter) { b.Prompter = p }

// SetLogger replaces the generator's logger.
func (b *Base) SetLogger(l *slog.Logger) { b.Logger = l }

// BoolOption reads a boolean option, returning def when the key is
// absent or not a bool.
func (b *Base) BoolOption(key string, def bool) bool {
	v, ok := b.Options[key]
	if !ok {
		return def
	}
	bv, ok := v.(bool)
	if !ok {
		return def
	}
	return bv
}

// StringOption reads a string option, returning def when the key is
// absent or not a string.
func (b *Base) StringOption(key string, def string) string {
	v, ok := b.Options[key]
	if !ok {
		return def
	}
	sv, ok := v.(string)
	if !ok {
		return def
	}
	return sv
}

// SkipInstall reports whether expensive post-run side effects should be
// skipped. Defaults to false when the option was never merged; the
// harness always merges it as true.
func (b *Base) SkipInstall() bool {
	return b.BoolOption(OptionSkipInstall, false)
}
