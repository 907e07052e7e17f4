// Command pyxc is the ahead-of-time Python-subset-to-Zig compiler's
// entry point. Subcommand dispatch is grounded directly on the
// teacher's main.go/cmd_run.go/cmd_repl.go registration pattern
// (google/subcommands), extended with the build/run/test subcommands
// spec §6 names and a bare-invocation-falls-back-to-run default
// mirroring the teacher's bare-REPL fallback.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&buildCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&testCmd{}, "")
	subcommands.Register(&cacheCmd{}, "")

	// Bare `pyxc <file>` falls back to `run`, mirroring the teacher's
	// main.go defaulting to its REPL when no subcommand is given.
	if len(os.Args) > 1 {
		if _, err := os.Stat(os.Args[1]); err == nil {
			args := append([]string{"run"}, os.Args[1:]...)
			os.Args = append(os.Args[:1], args...)
		}
	}

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "💥 "+format+"\n", args...)
	return subcommands.ExitFailure
}
