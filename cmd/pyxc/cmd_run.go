package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"pyxc/internal/build"
	"pyxc/internal/config"
)

// runCmd implements spec §6's `run <file>`: compile (reusing the cache
// when possible) then spawn the resulting binary, forwarding its
// standard streams. Grounded on the teacher's cmd_run.go.
type runCmd struct {
	zigPath string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and run a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile (reusing the cache when possible) and execute the result.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.zigPath, "zig", "zig", "path to the TL compiler binary")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		return fail("File not provided")
	}
	sourcePath := args[0]

	opts := config.Default()
	opts.ZigPath = c.zigPath
	orchestrator := build.New(opts)

	result, err := orchestrator.Compile(ctx, sourcePath, "")
	if err != nil {
		return fail("Build failed:\n\t%v", err)
	}

	exitCode, err := orchestrator.Run(ctx, result.BinaryPath, args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Run failed:\n\t%v\n", err)
		return subcommands.ExitFailure
	}
	if exitCode != 0 {
		return subcommands.ExitStatus(exitCode)
	}
	return subcommands.ExitSuccess
}
