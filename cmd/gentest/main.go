package main

import (
	"fmt"
	"os"

	"github.com/roach88/gentest/internal/cli"
	"github.com/roach88/gentest/internal/scaffold"
)

func main() {
	cmd := cli.NewRootCommand(scaffold.Resolver())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
