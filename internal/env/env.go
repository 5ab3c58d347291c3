// Package env implements the generator registry used by the harness.
//
// An Environment is created fresh per run context and owned by it; there
// is no process-wide registry. Generators register under a namespace
// (e.g. "scaffold:app") either by self-declaration (a Factory whose
// product reports its own namespace), by explicit namespace (a stub), or
// by plain namespace string resolved through a Resolver the embedding
// program supplies.
package env

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/gentest/internal/generator"
)

// ErrUnknownNamespace is returned by Create and Register when no factory
// is known for the requested namespace.
var ErrUnknownNamespace = errors.New("unknown generator namespace")

// Factory constructs a fresh generator instance.
type Factory func() generator.Generator

// Resolver maps plain namespace strings to factories. Programs embedding
// the harness supply one covering the generators they ship; tests
// typically use MapResolver.
type Resolver interface {
	Resolve(namespace string) (Factory, error)
}

// MapResolver is a Resolver backed by a literal map.
type MapResolver map[string]Factory

// Resolve looks the namespace up in the map.
func (m MapResolver) Resolve(namespace string) (Factory, error) {
	f, ok := m[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	return f, nil
}

// Descriptor identifies a generator to register. Exactly one of the
// following shapes is valid:
//
//   - Namespace only: resolved through the environment's Resolver and
//     registered under that namespace.
//   - Factory only: registered under the namespace its product
//     self-declares.
//   - Factory and Namespace: registered as a stub under the explicit
//     namespace, bypassing self-declaration.
type Descriptor struct {
	Namespace string
	Factory   Factory
}

// ByNamespace describes a generator by plain namespace string.
func ByNamespace(namespace string) Descriptor {
	return Descriptor{Namespace: namespace}
}

// ByFactory describes a generator by direct factory; it registers under
// its self-declared namespace.
func ByFactory(f Factory) Descriptor {
	return Descriptor{Factory: f}
}

// Stub describes a factory pinned to an explicit namespace.
func Stub(f Factory, namespace string) Descriptor {
	return Descriptor{Namespace: namespace, Factory: f}
}

// Environment resolves namespaces to generator factories.
//
// Not safe for concurrent use; a run context owns its environment and
// touches it from a single goroutine.
type Environment struct {
	resolver  Resolver
	factories map[string]Factory
	logger    *slog.Logger
}

// Option configures an Environment.
type Option func(*Environment)

// WithResolver sets the resolver used for plain namespace descriptors.
func WithResolver(r Resolver) Option {
	return func(e *Environment) { e.resolver = r }
}

// WithLogger sets the environment's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Environment) { e.logger = l }
}

// New creates an empty environment. Without WithResolver, plain
// namespace descriptors fail with ErrUnknownNamespace.
func New(opts ...Option) *Environment {
	e := &Environment{
		factories: map[string]Factory{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register registers the described generator and returns the namespace
// it was registered under. Registering a namespace twice replaces the
// earlier factory: last registration wins.
func (e *Environment) Register(d Descriptor) (string, error) {
	switch {
	case d.Factory != nil && d.Namespace != "":
		e.RegisterStub(d.Factory, d.Namespace)
		return d.Namespace, nil

	case d.Factory != nil:
		ns, err := e.Namespace(d)
		if err != nil {
			return "", err
		}
		e.factories[ns] = d.Factory
		e.logger.Debug("registered generator", "namespace", ns)
		return ns, nil

	case d.Namespace != "":
		if e.resolver == nil {
			return "", fmt.Errorf("%w: %q (no resolver configured)", ErrUnknownNamespace, d.Namespace)
		}
		f, err := e.resolver.Resolve(d.Namespace)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %q: %w", d.Namespace, err)
		}
		e.factories[d.Namespace] = f
		e.logger.Debug("registered generator", "namespace", d.Namespace)
		return d.Namespace, nil

	default:
		return "", errors.New("empty generator descriptor")
	}
}

// RegisterStub registers a factory under an explicit namespace,
// bypassing self-declared namespace resolution.
func (e *Environment) RegisterStub(f Factory, namespace string) {
	e.factories[namespace] = f
	e.logger.Debug("registered stub generator", "namespace", namespace)
}

// Namespace reports the namespace the descriptor would register under,
// without registering it. For factory descriptors this instantiates the
// factory once to read the self-declared namespace.
func (e *Environment) Namespace(d Descriptor) (string, error) {
	if d.Namespace != "" {
		return d.Namespace, nil
	}
	if d.Factory == nil {
		return "", errors.New("empty generator descriptor")
	}
	g := d.Factory()
	if g == nil {
		return "", errors.New("generator factory returned nil")
	}
	ns := g.Namespace()
	if ns == "" {
		return "", errors.New("generator declares an empty namespace")
	}
	return ns, nil
}

// Create instantiates the generator registered under the namespace.
func (e *Environment) Create(namespace string) (generator.Generator, error) {
	f, ok := e.factories[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	g := f()
	if g == nil {
		return nil, fmt.Errorf("factory for %q returned nil", namespace)
	}
	return g, nil
}

// Namespaces returns the registered namespaces. Order is unspecified.
func (e *Environment) Namespaces() []string {
	out := make([]string, 0, len(e.factories))
	for ns := range e.factories {
		out = append(out, ns)
	}
	return out
}
