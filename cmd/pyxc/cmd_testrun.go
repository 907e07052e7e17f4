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

// testCmd implements spec §6's `test` subcommand: the language-agnostic
// test runner over every *_test.py fixture in a directory.
type testCmd struct {
	dir string
}

func (*testCmd) Name() string     { return "test" }
func (*testCmd) Synopsis() string { return "Compile and run every *_test.py fixture" }
func (*testCmd) Usage() string {
	return `test [-dir <path>]:
  Compile and execute every *_test.py fixture under -dir, concurrently.
`
}

func (c *testCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", ".", "directory to search for *_test.py fixtures")
}

func (c *testCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	orchestrator := build.New(config.Default())
	reports, err := orchestrator.RunTests(ctx, c.dir)
	if err != nil {
		return fail("Test discovery failed:\n\t%v", err)
	}
	if len(reports) == 0 {
		fmt.Println("pyxc: no *_test.py fixtures found")
		return subcommands.ExitSuccess
	}

	failed := 0
	for _, report := range reports {
		if report.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "💥 FAIL %s:\n\t%v\n", report.File, report.Err)
			continue
		}
		fmt.Printf("ok   %s\n", report.File)
	}
	if failed > 0 {
		return fail("%d of %d fixtures failed", failed, len(reports))
	}
	return subcommands.ExitSuccess
}
