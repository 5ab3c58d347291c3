// Package prompt provides the question/answer surface generators use for
// interactive input, plus the mock prompter the harness installs so test
// runs never block on a terminal.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Question is a single prompt a generator asks.
type Question struct {
	// Name keys the answer in the Answers map.
	Name string
	// Message is the text shown to the user.
	Message string
	// Default is used when no answer is supplied. May be nil.
	Default any
}

// Answers maps question names to answer values.
type Answers map[string]any

// String reads an answer as a string, returning def when absent or not
// a string.
func (a Answers) String(name, def string) string {
	v, ok := a[name]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Bool reads an answer as a bool, returning def when absent or not a bool.
func (a Answers) Bool(name string, def bool) bool {
	v, ok := a[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Prompter resolves a batch of questions into answers.
//
// Implementations must honor ctx cancellation for any blocking read.
type Prompter interface {
	Prompt(ctx context.Context, questions []Question) (Answers, error)
}

// Stdio prompts on a terminal: writes each question's message to Out and
// reads a line from In. Empty input selects the question's default.
type Stdio struct {
	In  io.Reader
	Out io.Writer
}

// NewStdio creates a Stdio prompter bound to os.Stdin/os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{In: os.Stdin, Out: os.Stdout}
}

// Prompt asks each question in order.
//
// Reads are performed on the calling goroutine; ctx is checked between
// questions, not mid-read.
func (s *Stdio) Prompt(ctx context.Context, questions []Question) (Answers, error) {
	reader := bufio.NewReader(s.In)
	answers := make(Answers, len(questions))

	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if q.Default != nil {
			fmt.Fprintf(s.Out, "%s [%v]: ", q.Message, q.Default)
		} else {
			fmt.Fprintf(s.Out, "%s: ", q.Message)
		}

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read answer for %q: %w", q.Name, err)
		}
		line = strings.TrimSpace(line)

		if line == "" {
			answers[q.Name] = q.Default
		} else {
			answers[q.Name] = line
		}
	}

	return answers, nil
}

// MockPrompter resolves questions immediately from a configured answer
// set, falling back to each question's default when no answer was
// configured. It never blocks and never errors.
type MockPrompter struct {
	answers Answers
}

// NewMock creates a MockPrompter. A nil answer set behaves like an empty
// one: every question resolves to its default.
func NewMock(answers Answers) *MockPrompter {
	if answers == nil {
		answers = Answers{}
	}
	return &MockPrompter{answers: answers}
}

// Prompt answers each question from the configured set or its default.
func (m *MockPrompter) Prompt(_ context.Context, questions []Question) (Answers, error) {
	answers := make(Answers, len(questions))
	for _, q := range questions {
		if v, ok := m.answers[q.Name]; ok {
			answers[q.Name] = v
			continue
		}
		answers[q.Name] = q.Default
	}
	return answers, nil
}

// HasTerminal is the interface a generator satisfies to have its
// prompter swapped. generator.Base satisfies it.
type HasTerminal interface {
	SetPrompter(p Prompter)
}

// Mock replaces the generator's prompter with a MockPrompter over the
// given answers (or no answers). Prompt calls on the generator then
// resolve immediately instead of waiting on real input.
func Mock(g HasTerminal, answers Answers) {
	g.SetPrompter(NewMock(answers))
}
