package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gentest/internal/env"
	"github.com/roach88/gentest/internal/generator"
	"github.com/roach88/gentest/internal/prompt"
	"github.com/roach88/gentest/internal/testdir"
	"github.com/roach88/gentest/internal/trace"
)

// fakeGen records how the harness configured and ran it.
type fakeGen struct {
	generator.Base
	runs      int
	runErr    error
	questions []prompt.Question
	answered  prompt.Answers
}

func newFakeGen(ns string) *fakeGen {
	return &fakeGen{Base: generator.NewBase(ns)}
}

func (g *fakeGen) Run(ctx context.Context) error {
	g.runs++
	if len(g.questions) > 0 {
		answers, err := g.Prompter.Prompt(ctx, g.questions)
		if err != nil {
			return err
		}
		g.answered = answers
	}
	return g.runErr
}

func TestRun_NoHoldsRunsImmediately(t *testing.T) {
	gen := newFakeGen("fake:basic")

	var ended error
	endCalled := false
	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		OnEnd(func(err error) {
			endCalled = true
			ended = err
		})

	require.NoError(t, rc.Run(context.Background()))

	assert.True(t, rc.Started())
	assert.Equal(t, 1, gen.runs)
	assert.True(t, endCalled)
	assert.NoError(t, ended)
}

func TestRun_ArgumentsFromString(t *testing.T) {
	gen := newFakeGen("fake:args")

	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		WithArguments("foo bar --flag")
	require.NoError(t, rc.Run(context.Background()))

	assert.Equal(t, []string{"foo", "bar", "--flag"}, gen.Args)
	assert.Equal(t, []string{"foo", "bar", "--flag"}, gen.Arguments)
}

func TestRun_ArgumentsFromSlicePassedThrough(t *testing.T) {
	gen := newFakeGen("fake:args")

	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		WithArgs("foo bar", "--flag")
	require.NoError(t, rc.Run(context.Background()))

	// A pre-split slice is not re-split.
	assert.Equal(t, []string{"foo bar", "--flag"}, gen.Args)
}

func TestRun_OptionsMergeSkipInstallDefault(t *testing.T) {
	gen := newFakeGen("fake:opts")

	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		WithOptions(map[string]any{"force": true})
	require.NoError(t, rc.Run(context.Background()))

	assert.Equal(t, true, gen.Options[generator.OptionSkipInstall])
	assert.Equal(t, true, gen.Options["force"])
}

func TestRun_OptionsOverrideSkipInstall(t *testing.T) {
	gen := newFakeGen("fake:opts")

	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		WithOptions(map[string]any{generator.OptionSkipInstall: false})
	require.NoError(t, rc.Run(context.Background()))

	assert.Equal(t, false, gen.Options[generator.OptionSkipInstall])
}

func TestRun_PromptAnswersMocked(t *testing.T) {
	gen := newFakeGen("fake:prompt")
	gen.questions = []prompt.Question{
		{Name: "module", Message: "Module path", Default: "example.com/app"},
		{Name: "license", Message: "License", Default: "MIT"},
	}

	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		WithAnswers(prompt.Answers{"module": "example.com/api"})
	require.NoError(t, rc.Run(context.Background()))

	assert.Equal(t, "example.com/api", gen.answered["module"])
	// Unanswered questions fall back to their defaults.
	assert.Equal(t, "MIT", gen.answered["license"])
}

func TestRun_RawFactoryRegistersUnderDefaultNamespace(t *testing.T) {
	gen := newFakeGen("fake:self-declared")

	rc := New(env.ByFactory(func() generator.Generator { return gen }))
	require.NoError(t, rc.Run(context.Background()))

	// A raw factory descriptor is stubbed under the fixed test
	// namespace, not its self-declared one.
	_, err := rc.Environment().Create(DefaultNamespace)
	require.NoError(t, err)

	events := rc.Trace().Events()
	require.NotEmpty(t, events)
	assert.Equal(t, trace.EventTargetRegistered, events[0].Type)
	assert.Equal(t, DefaultNamespace, events[0].Namespace)
}

func TestRun_NamespaceDescriptorResolvedThroughResolver(t *testing.T) {
	gen := newFakeGen("my:generator")
	resolver := env.MapResolver{
		"my:generator": func() generator.Generator { return gen },
	}

	rc := New(env.ByNamespace("my:generator")).WithResolver(resolver)
	require.NoError(t, rc.Run(context.Background()))

	assert.Equal(t, 1, gen.runs)
	events := rc.Trace().Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "my:generator", events[0].Namespace)
}

func TestRun_UnknownNamespaceFailsTheRun(t *testing.T) {
	rc := New(env.ByNamespace("missing:generator"))

	err := rc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, env.ErrUnknownNamespace)
}

func TestRun_DependencyLastRegistrationWins(t *testing.T) {
	first := newFakeGen("dep:shared")
	second := newFakeGen("dep:shared")
	target := newFakeGen("fake:target")

	rc := New(env.ByFactory(func() generator.Generator { return target })).
		WithGenerators(
			env.Stub(func() generator.Generator { return first }, "dep:shared"),
			env.Stub(func() generator.Generator { return second }, "dep:shared"),
		)
	require.NoError(t, rc.Run(context.Background()))

	resolved, err := rc.Environment().Create("dep:shared")
	require.NoError(t, err)
	assert.Same(t, second, resolved)
}

func TestRun_OnReadyFiresBeforeRun(t *testing.T) {
	gen := newFakeGen("fake:ready")

	var runsAtReady int
	var seen generator.Generator
	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		OnReady(func(g generator.Generator) {
			seen = g
			runsAtReady = gen.runs
		})
	require.NoError(t, rc.Run(context.Background()))

	assert.Same(t, gen, seen)
	assert.Equal(t, 0, runsAtReady, "ready subscriber must observe the instance before it runs")
	assert.Equal(t, 1, gen.runs)
}

func TestRun_GeneratorErrorForwardedToOnEnd(t *testing.T) {
	gen := newFakeGen("fake:failing")
	gen.runErr = errors.New("scaffolding exploded")

	var ended error
	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		OnEnd(func(err error) { ended = err })

	err := rc.Run(context.Background())
	require.ErrorIs(t, err, gen.runErr)
	assert.ErrorIs(t, ended, gen.runErr)
}

func TestRun_HoldsDeferTransition(t *testing.T) {
	gen := newFakeGen("fake:held")
	rc := New(env.ByFactory(func() generator.Generator { return gen }))

	releases := []func(){rc.Hold(), rc.Hold(), rc.Hold()}

	done := make(chan error, 1)
	go func() {
		done <- rc.Run(context.Background())
	}()

	// Releasing fewer than all holds never triggers the transition.
	releases[1]()
	releases[0]()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, rc.Started())
	assert.Nil(t, rc.Generator())
	assert.Equal(t, 0, gen.runs)

	releases[2]()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not complete after final release")
	}
	assert.True(t, rc.Started())
	assert.Equal(t, 1, gen.runs)
}

func TestRun_SecondRunPanics(t *testing.T) {
	gen := newFakeGen("fake:once")
	rc := New(env.ByFactory(func() generator.Generator { return gen }))
	require.NoError(t, rc.Run(context.Background()))

	assert.PanicsWithValue(t, "harness: Run called twice", func() {
		_ = rc.Run(context.Background())
	})
	assert.Equal(t, 1, gen.runs, "no double invocation of the run routine")
}

func TestRun_MutatorAfterRunPanics(t *testing.T) {
	gen := newFakeGen("fake:late")
	rc := New(env.ByFactory(func() generator.Generator { return gen }))
	require.NoError(t, rc.Run(context.Background()))

	assert.PanicsWithValue(t, "harness: WithArgs called after Run started", func() {
		rc.WithArgs("too", "late")
	})
	assert.PanicsWithValue(t, "harness: OnEnd called after Run started", func() {
		rc.OnEnd(func(error) {})
	})
}

func TestRun_HoldReleasedAfterRunPanics(t *testing.T) {
	gen := newFakeGen("fake:stale-hold")
	rc := New(env.ByFactory(func() generator.Generator { return gen }))

	release := rc.Hold()
	release()
	require.NoError(t, rc.Run(context.Background()))

	// A stale release kept past the transition must fail loudly, and
	// with its own message: the started check fires before the
	// barrier's double-release check.
	assert.PanicsWithValue(t, "harness: hold released after run started", func() {
		release()
	})
}

func TestRun_CancelledContextWhileHeld(t *testing.T) {
	rc := New(env.ByNamespace("never:runs"))
	release := rc.Hold()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, rc.Started())
}

func TestRun_InDirFailureSurfaces(t *testing.T) {
	restore, err := testdir.Snapshot()
	require.NoError(t, err)
	t.Cleanup(func() { _ = restore() })

	// A path below a regular file cannot be created.
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	gen := newFakeGen("fake:dir")
	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		InDir(filepath.Join(file, "sub"))

	err = rc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup failed")
	assert.Equal(t, 0, gen.runs)
}

func TestRun_EndToEnd(t *testing.T) {
	restore, err := testdir.Snapshot()
	require.NoError(t, err)
	t.Cleanup(func() { _ = restore() })

	dir := filepath.Join(t.TempDir(), "workspace")
	dep := newFakeGen("dep:helper")
	gen := newFakeGen("fake:e2e")

	var endOrder []string
	rc := New(env.ByFactory(func() generator.Generator { return gen })).
		InDir(dir).
		WithGenerators(env.Stub(func() generator.Generator { return dep }, "dep:helper")).
		OnReady(func(generator.Generator) { endOrder = append(endOrder, "ready") }).
		OnEnd(func(error) { endOrder = append(endOrder, "end") })

	require.NoError(t, rc.Run(context.Background()))

	// The run happened inside the prepared directory.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	evalDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	evalCwd, err := filepath.EvalSymlinks(cwd)
	require.NoError(t, err)
	assert.Equal(t, evalDir, evalCwd)

	// Dependency registered before the target was instantiated, ready
	// fired before the completion callback.
	types := make([]string, 0)
	for _, ev := range rc.Trace().Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		trace.EventDependencyRegistered,
		trace.EventTargetRegistered,
		trace.EventCreated,
		trace.EventReady,
		trace.EventRunCompleted,
	}, types)
	assert.Equal(t, []string{"ready", "end"}, endOrder)
	assert.Equal(t, 1, gen.runs)
}
