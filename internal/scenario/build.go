package scenario

import (
	"log/slog"

	"github.com/roach88/gentest/internal/env"
	"github.com/roach88/gentest/internal/harness"
	"github.com/roach88/gentest/internal/store"
	"github.com/roach88/gentest/internal/trace"
)

// BuildOptions carries the ambient wiring a scenario run needs beyond
// what the file declares.
type BuildOptions struct {
	// Resolver resolves the scenario's generator namespaces.
	Resolver env.Resolver
	// Logger for the run context. Nil keeps the harness default.
	Logger *slog.Logger
	// Store archives the run trace when non-nil.
	Store *store.Store
	// Clock overrides the trace clock when non-nil.
	Clock trace.Clock
}

// Build translates a validated scenario into a configured RunContext.
// The context is ready to Run; nothing has executed yet.
func Build(sc *Scenario, opts BuildOptions) *harness.RunContext {
	rc := harness.New(env.ByNamespace(sc.Generator)).
		WithResolver(opts.Resolver)

	if opts.Logger != nil {
		rc.WithLogger(opts.Logger)
	}
	if opts.Clock != nil {
		rc.WithClock(opts.Clock)
	}
	if opts.Store != nil {
		rc.WithStore(opts.Store)
	}

	if sc.Dir != "" {
		rc.InDir(sc.Dir)
	}
	if sc.Arguments != "" {
		rc.WithArguments(sc.Arguments)
	}
	if len(sc.Args) > 0 {
		rc.WithArgs(sc.Args...)
	}
	if sc.Options != nil {
		rc.WithOptions(sc.Options)
	}
	if sc.Answers != nil {
		rc.WithAnswers(sc.Answers)
	}
	if len(sc.Dependencies) > 0 {
		deps := make([]env.Descriptor, len(sc.Dependencies))
		for i, dep := range sc.Dependencies {
			deps[i] = env.ByNamespace(dep.Namespace)
		}
		rc.WithGenerators(deps...)
	}

	return rc
}
