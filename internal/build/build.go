// Package build implements the Build Orchestrator of spec §4.6: it
// resolves the output path, consults the content-addressed cache
// sidecar, runs the compiler pipeline (lexer -> parser -> analyzer ->
// emitter) when the cache misses, materialises the runtime library and
// scratch Zig source, and shells out to the TL compiler. Grounded on
// the teacher's cmd_run.go/cmd_emit_bytecode.go file-IO and
// os.ReadFile error-wrapping idiom for the pipeline glue, and on
// thought-machine-please's content-addressed cache pattern
// (src/fs/hash.go, src/cache/dir_cache.go) for the hash-sidecar design
// — no file from that repo is copied, only its cache idea and its
// go.mod's library choices (go-humanize, uuid-named scratch paths).
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"pyxc/internal/config"
	"pyxc/internal/emit"
	"pyxc/internal/lexer"
	"pyxc/internal/parser"
	"pyxc/internal/runtime"
	"pyxc/internal/types"
)

// Orchestrator runs spec §4.6's algorithm for a single source file.
type Orchestrator struct {
	opts config.Options
}

// New creates an Orchestrator over the given configuration.
func New(opts config.Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// Result reports what Compile did, for the CLI's success/failure lines.
type Result struct {
	BinaryPath string
	FromCache  bool
	Duration   time.Duration
	ZigPath    string // set when config.EmitZig dumped the generated source
}

// resolveOutputPath implements spec §4.6 step 1: output_path if given,
// else <cache_dir>/<basename_without_extension>, creating cache_dir if
// missing.
func (o *Orchestrator) resolveOutputPath(sourcePath, explicitOut string) (string, error) {
	if explicitOut != "" {
		return explicitOut, nil
	}
	if err := os.MkdirAll(o.opts.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(o.opts.CacheDir, base), nil
}

func hashPath(binaryPath string) string { return binaryPath + ".hash" }

// digest computes the cache key of spec §4.6/§6: the hex-encoded
// SHA-256 of the exact source bytes.
func digest(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// cacheHit reports whether binaryPath exists and its .hash sidecar
// matches want once surrounding whitespace is trimmed (spec §8
// "Cache correctness"); any other
// sidecar content invalidates the cache.
func cacheHit(binaryPath, want string) bool {
	if _, err := os.Stat(binaryPath); err != nil {
		return false
	}
	got, err := os.ReadFile(hashPath(binaryPath))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(got)) == want
}

// Compile runs spec §4.6's full algorithm: cache check, then
// lex/parse/analyze/emit, scratch-file write, TL compiler invocation,
// and hash sidecar rewrite.
func (o *Orchestrator) Compile(ctx context.Context, sourcePath, explicitOut string) (*Result, error) {
	start := time.Now()
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	outputPath, err := o.resolveOutputPath(sourcePath, explicitOut)
	if err != nil {
		return nil, err
	}

	want := digest(source)
	if cacheHit(outputPath, want) {
		return &Result{BinaryPath: outputPath, FromCache: true, Duration: time.Since(start)}, nil
	}

	zigSource, err := o.compileToZig(source)
	if err != nil {
		return nil, err
	}

	scratchDir := filepath.Join(o.opts.CacheDir, "scratch-"+uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	mainPath := filepath.Join(scratchDir, "main.zig")
	if err := os.WriteFile(mainPath, []byte(zigSource), 0o644); err != nil {
		return nil, fmt.Errorf("writing scratch source: %w", err)
	}
	runtimeRoot, err := runtime.WriteTo(filepath.Join(scratchDir, "runtime"))
	if err != nil {
		return nil, fmt.Errorf("materialising runtime library: %w", err)
	}

	if err := o.invokeZig(ctx, mainPath, runtimeRoot, outputPath); err != nil {
		return nil, err
	}

	if err := os.WriteFile(hashPath(outputPath), []byte(want), 0o644); err != nil {
		return nil, fmt.Errorf("writing cache hash: %w", err)
	}

	result := &Result{BinaryPath: outputPath, Duration: time.Since(start)}
	if o.opts.EmitZig {
		dumpPath := outputPath + ".zig"
		if err := os.WriteFile(dumpPath, []byte(zigSource), 0o644); err == nil {
			result.ZigPath = dumpPath
		}
	}
	return result, nil
}

// compileToZig runs the linear Lexer -> Parser -> Analyzer -> Emitter
// pipeline of spec §2 over in-memory source bytes.
func (o *Orchestrator) compileToZig(source []byte) (string, error) {
	lex := lexer.New(string(source))
	tokens, err := lex.Scan()
	if err != nil {
		return "", err
	}

	p := parser.New(tokens)
	module, err := p.Parse()
	if err != nil {
		return "", err
	}

	analyzer := types.New()
	result, err := analyzer.Analyze(module)
	if err != nil {
		return "", err
	}

	emitter := emit.New(result)
	zigSource, err := emitter.Emit(module)
	if err != nil {
		return "", err
	}
	return zigSource, nil
}

// invokeZig shells out to the TL compiler in release-optimised mode
// (spec §4.6 step 4), wrapping its stderr into the same
// go-multierror container the parser and emitter already use for
// diagnostic aggregation.
func (o *Orchestrator) invokeZig(ctx context.Context, mainPath, runtimeRoot, outputPath string) error {
	zigPath := o.opts.ZigPath
	if zigPath == "" {
		zigPath = "zig"
	}
	args := []string{
		"build-exe",
		mainPath,
		"--mod", runtime.ModuleName + "::" + runtimeRoot,
		"--deps", runtime.ModuleName,
		"-O" + string(o.opts.Opt),
		"-femit-bin=" + outputPath,
	}
	cmd := exec.CommandContext(ctx, zigPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var merr *multierror.Error
		merr = multierror.Append(merr, fmt.Errorf("zig build-exe: %w", err))
		if stderr.Len() > 0 {
			merr = multierror.Append(merr, fmt.Errorf("%s", stderr.String()))
		}
		return merr.ErrorOrNil()
	}
	return nil
}

// Summary renders a success line in the teacher's terse diagnostic
// style, with the duration rounded by time.Duration.Round.
func (r *Result) Summary() string {
	if r.FromCache {
		return fmt.Sprintf("pyxc: using cached binary %s (lookup took %s)", r.BinaryPath, r.Duration.Round(time.Microsecond))
	}
	return fmt.Sprintf("pyxc: built %s in %s", r.BinaryPath, r.Duration.Round(time.Millisecond))
}
