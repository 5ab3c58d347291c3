// Package harness configures and executes a single scaffolding generator
// under test.
//
// A RunContext is built with the descriptor of the generator under test,
// configured through a chain of With* calls, and started with Run. Some
// configuration calls register asynchronous holds (preparing a working
// directory, for example); Run blocks until every hold has been released,
// then performs the readiness transition exactly once: it assembles a
// fresh environment, registers dependencies, instantiates the generator,
// mocks its prompt, applies arguments and options, notifies ready
// subscribers, and invokes the generator's run routine.
//
//	err := harness.New(env.ByNamespace("scaffold:app")).
//		InDir(t.TempDir()).
//		WithArguments("api --verbose").
//		WithAnswers(prompt.Answers{"module": "example.com/api"}).
//		Run(ctx)
//
// A RunContext is consumed by Run and is not reusable. Misuse - a second
// Run, configuration after Run, a hold released twice or after the run
// started - panics: a broken test setup must fail the test loudly, not
// be absorbed.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/roach88/gentest/internal/env"
	"github.com/roach88/gentest/internal/generator"
	"github.com/roach88/gentest/internal/prompt"
	"github.com/roach88/gentest/internal/store"
	"github.com/roach88/gentest/internal/testdir"
	"github.com/roach88/gentest/internal/testutil"
	"github.com/roach88/gentest/internal/trace"
)

// DefaultNamespace is the namespace a raw factory descriptor (one with
// no explicit namespace and a factory whose self-declared namespace is
// not consulted) is registered under.
const DefaultNamespace = "gen:test"

// RunContext configures and executes one generator under test.
//
// Configuration methods return the context for chaining and must all be
// called before Run. The environment and generator instance exist only
// after the transition inside Run; both are exclusively owned by the
// context.
type RunContext struct {
	desc      env.Descriptor
	arguments []string
	options   map[string]any
	answers   prompt.Answers
	deps      []env.Descriptor
	onEnd     func(error)
	readySubs []func(generator.Generator)

	resolver env.Resolver
	logger   *slog.Logger
	archive  *store.Store

	holds *barrier
	tr    *trace.Trace

	mu       sync.Mutex
	started  bool
	setupErr error

	environment *env.Environment
	gen         generator.Generator
}

// New creates a RunContext for the described generator.
//
// The context starts with empty arguments and options, no answers, no
// dependencies, and a discard logger. Trace sequence numbers come from
// a fresh deterministic clock unless WithClock overrides it.
func New(desc env.Descriptor) *RunContext {
	return &RunContext{
		desc:    desc,
		options: map[string]any{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		holds:   newBarrier(),
		tr:      trace.New(testutil.NewDeterministicClock()),
	}
}

// configuring panics if the run has already started. Every mutator goes
// through it: late mutation would silently miss the generator, so it is
// rejected instead.
func (rc *RunContext) configuring(method string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.started {
		panic("harness: " + method + " called after Run started")
	}
}

// InDir arranges for the run to happen inside path: the directory is
// removed, recreated, and entered before the generator is instantiated.
// Preparation runs asynchronously under a hold; Run waits for it.
func (rc *RunContext) InDir(path string) *RunContext {
	rc.configuring("InDir")
	release := rc.Hold()
	go func() {
		defer release()
		if err := testdir.Make(path); err != nil {
			rc.failSetup(err)
		}
	}()
	return rc
}

// WithArguments sets the generator's arguments from a single
// space-separated string. "foo bar --flag" becomes ["foo" "bar" "--flag"].
func (rc *RunContext) WithArguments(raw string) *RunContext {
	rc.configuring("WithArguments")
	rc.arguments = strings.Fields(raw)
	return rc
}

// WithArgs sets the generator's arguments, passed through unchanged.
func (rc *RunContext) WithArgs(args ...string) *RunContext {
	rc.configuring("WithArgs")
	rc.arguments = args
	return rc
}

// WithOptions sets the options merged onto the generator. The merge
// applies skip_install=true first, so callers override it by supplying
// the key explicitly.
func (rc *RunContext) WithOptions(opts map[string]any) *RunContext {
	rc.configuring("WithOptions")
	rc.options = opts
	return rc
}

// WithAnswers sets the mocked prompt answers. Prompts the generator
// issues resolve immediately from this set instead of blocking on input.
func (rc *RunContext) WithAnswers(answers prompt.Answers) *RunContext {
	rc.configuring("WithAnswers")
	rc.answers = answers
	return rc
}

// WithGenerators sets the dependency generators registered, in order,
// before the generator under test. When two descriptors share a
// namespace the later registration wins.
func (rc *RunContext) WithGenerators(deps ...env.Descriptor) *RunContext {
	rc.configuring("WithGenerators")
	rc.deps = deps
	return rc
}

// WithResolver sets the resolver the environment uses for plain
// namespace descriptors.
func (rc *RunContext) WithResolver(r env.Resolver) *RunContext {
	rc.configuring("WithResolver")
	rc.resolver = r
	return rc
}

// WithLogger sets the context's logger.
func (rc *RunContext) WithLogger(l *slog.Logger) *RunContext {
	rc.configuring("WithLogger")
	rc.logger = l
	return rc
}

// WithStore archives the run's trace to st after the generator finishes.
func (rc *RunContext) WithStore(st *store.Store) *RunContext {
	rc.configuring("WithStore")
	rc.archive = st
	return rc
}

// WithClock sets the clock stamping trace sequence numbers. Tests share
// a clock across contexts to interleave their traces deterministically.
func (rc *RunContext) WithClock(clock trace.Clock) *RunContext {
	rc.configuring("WithClock")
	rc.tr = trace.New(clock)
	return rc
}

// OnReady subscribes fn to the ready notification. Subscribers run
// synchronously after the generator is fully configured and before its
// run routine is invoked, so they may inspect or adjust the instance.
func (rc *RunContext) OnReady(fn func(generator.Generator)) *RunContext {
	rc.configuring("OnReady")
	rc.readySubs = append(rc.readySubs, fn)
	return rc
}

// OnEnd sets the completion callback, invoked with whatever the
// generator's run routine reports (nil on success).
func (rc *RunContext) OnEnd(cb func(error)) *RunContext {
	rc.configuring("OnEnd")
	rc.onEnd = cb
	return rc
}

// Hold registers an asynchronous prerequisite and returns its single-use
// release function. Run does not transition until every hold acquired
// through this method has been released.
//
// Releasing a hold twice, or after the run has started, panics.
func (rc *RunContext) Hold() (release func()) {
	rc.configuring("Hold")
	rel := rc.holds.hold()
	return func() {
		rc.mu.Lock()
		started := rc.started
		rc.mu.Unlock()
		if started {
			panic("harness: hold released after run started")
		}
		rel()
	}
}

// failSetup records the first asynchronous setup failure. Run surfaces
// it instead of transitioning.
func (rc *RunContext) failSetup(err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.setupErr == nil {
		rc.setupErr = err
	}
}

// Run waits for all outstanding holds, then performs the readiness
// transition exactly once and executes the generator. The generator's
// result is returned and, when OnEnd was configured, forwarded to the
// completion callback.
//
// Setup and registration failures are returned without invoking the
// completion callback: they mean the run never started. Calling Run a
// second time panics.
func (rc *RunContext) Run(ctx context.Context) error {
	if err := rc.holds.wait(ctx); err != nil {
		return fmt.Errorf("waiting for setup holds: %w", err)
	}

	rc.mu.Lock()
	if rc.started {
		rc.mu.Unlock()
		panic("harness: Run called twice")
	}
	rc.started = true
	setupErr := rc.setupErr
	rc.mu.Unlock()

	if setupErr != nil {
		return fmt.Errorf("setup failed: %w", setupErr)
	}

	return rc.transition(ctx)
}

// transition assembles the environment and executes the generator. The
// ordering is load-bearing: dependencies register before the target so
// the target can resolve them, the prompt is mocked before arguments
// and options land, and ready subscribers run before the run routine.
func (rc *RunContext) transition(ctx context.Context) error {
	e := env.New(env.WithResolver(rc.resolver), env.WithLogger(rc.logger))
	rc.environment = e

	for i, dep := range rc.deps {
		ns, err := e.Register(dep)
		if err != nil {
			return fmt.Errorf("failed to register dependency %d: %w", i, err)
		}
		rc.tr.Record(trace.EventDependencyRegistered, ns, nil)
	}

	ns, err := rc.registerTarget(e)
	if err != nil {
		return err
	}
	rc.tr.Record(trace.EventTargetRegistered, ns, nil)

	gen, err := e.Create(ns)
	if err != nil {
		return fmt.Errorf("failed to instantiate %q: %w", ns, err)
	}
	rc.gen = gen
	rc.tr.Record(trace.EventCreated, ns, nil)

	prompt.Mock(gen, rc.answers)
	gen.SetArgs(rc.arguments)

	merged := map[string]any{generator.OptionSkipInstall: true}
	maps.Copy(merged, rc.options)
	gen.SetOptions(merged)

	rc.tr.Record(trace.EventReady, ns, nil)
	rc.logger.Debug("generator ready", "namespace", ns, "args", rc.arguments)
	for _, fn := range rc.readySubs {
		fn(gen)
	}

	runErr := gen.Run(ctx)
	rc.tr.Record(trace.EventRunCompleted, ns, map[string]any{"ok": runErr == nil})
	rc.logger.Debug("generator finished", "namespace", ns, "ok", runErr == nil)

	if rc.onEnd != nil {
		rc.onEnd(runErr)
	}

	if archiveErr := rc.archiveRun(ctx, ns, runErr); archiveErr != nil {
		if runErr != nil {
			return runErr
		}
		return archiveErr
	}

	return runErr
}

// registerTarget registers the generator under test. A plain namespace
// descriptor goes through the environment's standard registration path;
// a raw factory is registered as a stub under DefaultNamespace.
func (rc *RunContext) registerTarget(e *env.Environment) (string, error) {
	if rc.desc.Factory != nil && rc.desc.Namespace == "" {
		e.RegisterStub(rc.desc.Factory, DefaultNamespace)
		return DefaultNamespace, nil
	}
	ns, err := e.Register(rc.desc)
	if err != nil {
		return "", fmt.Errorf("failed to register generator under test: %w", err)
	}
	return ns, nil
}

// archiveRun persists the completed run's trace when a store was
// configured.
func (rc *RunContext) archiveRun(ctx context.Context, ns string, runErr error) error {
	if rc.archive == nil {
		return nil
	}

	run := store.Run{Namespace: ns, Pass: runErr == nil}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	id, err := rc.archive.ArchiveRun(ctx, run, rc.tr.Events())
	if err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}
	rc.logger.Debug("run archived", "run_id", id, "namespace", ns)
	return nil
}

// Started reports whether the readiness transition has occurred.
func (rc *RunContext) Started() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.started
}

// Outstanding returns the number of unreleased holds.
func (rc *RunContext) Outstanding() int {
	return rc.holds.outstanding()
}

// Generator returns the instantiated generator under test. Nil before
// the transition.
func (rc *RunContext) Generator() generator.Generator {
	return rc.gen
}

// Environment returns the environment assembled for this run. Nil
// before the transition.
func (rc *RunContext) Environment() *env.Environment {
	return rc.environment
}

// Trace returns the run's lifecycle trace.
func (rc *RunContext) Trace() *trace.Trace {
	return rc.tr
}
