package trace

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares a named trace against its golden file under
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run the owning package's tests with
// -update. Golden files are the source of truth for expected lifecycle
// event sequences.
func AssertGolden(t *testing.T, name string, tr *Trace) error {
	t.Helper()

	data, err := MarshalSnapshot(name, tr)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
