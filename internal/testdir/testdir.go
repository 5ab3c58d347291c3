// Package testdir prepares throwaway working directories for generator
// runs: the target is removed, recreated, and the process chdirs into
// it. Because the working directory is process-global, tests should
// capture and restore it with Snapshot.
package testdir

import (
	"fmt"
	"os"
)

// Make removes path (and anything under it), recreates it, and changes
// the process working directory into it.
func Make(path string) error {
	if path == "" {
		return fmt.Errorf("test directory path is empty")
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clean test directory: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create test directory: %w", err)
	}
	if err := os.Chdir(path); err != nil {
		return fmt.Errorf("failed to enter test directory: %w", err)
	}
	return nil
}

// Snapshot captures the current working directory and returns a restore
// function. Intended for use with t.Cleanup.
func Snapshot() (restore func() error, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to read working directory: %w", err)
	}
	return func() error {
		return os.Chdir(cwd)
	}, nil
}
