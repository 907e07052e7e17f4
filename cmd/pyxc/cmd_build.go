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

// buildCmd implements spec §6's `build <file> [<out>]`: compile only,
// grounded on the teacher's cmd_emit_bytecode.go flag/argument
// handling (filePath flag, positional source argument).
type buildCmd struct {
	zigPath string
	opt     string
	emitZig bool
	watch   bool
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "Compile a source file to a native binary" }
func (*buildCmd) Usage() string {
	return `build <file> [<out>]:
  Compile pyxc source to a native binary without running it.
`
}

func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.zigPath, "zig", "zig", "path to the TL compiler binary")
	f.StringVar(&c.opt, "opt", string(config.OptReleaseFast), "zig optimisation mode (Debug, ReleaseSafe, ReleaseFast, ReleaseSmall)")
	f.BoolVar(&c.emitZig, "S", false, "dump the generated Zig source next to the output binary")
	f.BoolVar(&c.watch, "watch", false, "recompile whenever the source file changes")
}

func (c *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		return fail("File not provided")
	}
	sourcePath := args[0]
	outputPath := ""
	if len(args) > 1 {
		outputPath = args[1]
	}

	opts := config.Default()
	opts.ZigPath = c.zigPath
	opts.Opt = config.OptMode(c.opt)
	opts.EmitZig = c.emitZig

	orchestrator := build.New(opts)

	if c.watch {
		err := orchestrator.Watch(ctx, sourcePath, outputPath, func(result *build.Result, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "💥 Build error:\n\t%v\n", err)
				return
			}
			fmt.Println(result.Summary())
		})
		if err != nil {
			return fail("Watch failed: %v", err)
		}
		return subcommands.ExitSuccess
	}

	result, err := orchestrator.Compile(ctx, sourcePath, outputPath)
	if err != nil {
		return fail("Build failed:\n\t%v", err)
	}
	fmt.Println(result.Summary())
	return subcommands.ExitSuccess
}
