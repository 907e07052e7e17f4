// Package config resolves the small set of options every subcommand
// shares: where cached binaries live, which zig binary to invoke, and
// in what optimisation mode. Populated from flag.FlagSet by each
// subcommand's SetFlags, the same mechanism the teacher's
// cmd_emit_bytecode.go uses for its disassemble/dump flags.
package config

import (
	"os"
	"path/filepath"
)

// OptMode selects the zig build-exe optimisation mode passed to the TL
// compiler (spec §4.6 step 4: "release-optimised mode").
type OptMode string

const (
	OptDebug        OptMode = "Debug"
	OptReleaseSafe  OptMode = "ReleaseSafe"
	OptReleaseFast  OptMode = "ReleaseFast"
	OptReleaseSmall OptMode = "ReleaseSmall"
)

// Options is the compiler configuration threaded through the Build
// Orchestrator of spec §4.6.
type Options struct {
	// CacheDir holds cached binaries and their .hash sidecars (spec §6
	// "Cache layout"). Defaults to the OS user-cache directory under a
	// pyxc subdirectory.
	CacheDir string
	// ZigPath is the path to the TL compiler binary invoked as a
	// subprocess (spec §4.6 step 4).
	ZigPath string
	// Opt is the optimisation mode passed to `zig build-exe`.
	Opt OptMode
	// EmitZig writes the generated Zig source to `<output>.zig` next to
	// the produced binary (the `-S` flag of SPEC_FULL.md §5); a cache hit
	// writes no source file.
	EmitZig bool
	// Watch recompiles whenever the source file changes (the `-watch`
	// supplement of SPEC_FULL.md §5).
	Watch bool
}

// Default returns the Options a bare `pyxc <file>` invocation runs
// with: cache under the user's cache directory, `zig` resolved from
// PATH, ReleaseFast optimisation.
func Default() Options {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return Options{
		CacheDir: filepath.Join(dir, "pyxc"),
		ZigPath:  "zig",
		Opt:      OptReleaseFast,
	}
}
