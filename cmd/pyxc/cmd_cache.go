package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"pyxc/internal/build"
	"pyxc/internal/config"
)

// cacheCmd implements the `cache stats` supplement of SPEC_FULL.md §5,
// reporting cache directory size and binary count.
type cacheCmd struct{}

func (*cacheCmd) Name() string     { return "cache" }
func (*cacheCmd) Synopsis() string { return "Inspect the build cache" }
func (*cacheCmd) Usage() string {
	return `cache stats:
  Report cache directory size and cached-binary count.
`
}

func (*cacheCmd) SetFlags(f *flag.FlagSet) {}

func (*cacheCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 || args[0] != "stats" {
		return fail("Usage: cache stats")
	}

	opts := config.Default()
	stats, err := build.CacheStats(opts.CacheDir)
	if err != nil {
		return fail("Cache stats failed:\n\t%v", err)
	}
	fmt.Printf("pyxc cache: %s\n  %d binaries, %s total\n", stats.Dir, stats.BinaryCount, stats.HumanizedSize)
	return subcommands.ExitSuccess
}
