package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pyxc/internal/config"
)

func TestDigestIsDeterministicAndContentAddressed(t *testing.T) {
	a := digest([]byte("print(1)\n"))
	b := digest([]byte("print(1)\n"))
	c := digest([]byte("print(2)\n"))
	if a != b {
		t.Fatalf("digest not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Fatal("digest collided across different source bytes")
	}
	if len(a) != 64 {
		t.Fatalf("expected a hex-encoded SHA-256 (64 chars), got %d", len(a))
	}
}

func TestCacheHitRequiresBinaryAndMatchingSidecar(t *testing.T) {
	dir := t.TempDir()
	binaryPath := filepath.Join(dir, "prog")

	if cacheHit(binaryPath, "anything") {
		t.Fatal("expected a miss before the binary exists")
	}

	if err := os.WriteFile(binaryPath, []byte("fake-binary"), 0o755); err != nil {
		t.Fatal(err)
	}
	if cacheHit(binaryPath, "deadbeef") {
		t.Fatal("expected a miss with no sidecar yet")
	}

	if err := os.WriteFile(hashPath(binaryPath), []byte("deadbeef\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !cacheHit(binaryPath, "deadbeef") {
		t.Fatal("expected a hit once the sidecar matches (trailing newline trimmed)")
	}
	if cacheHit(binaryPath, "other-hash") {
		t.Fatal("expected a miss when the sidecar doesn't match the wanted digest")
	}
}

func TestResolveOutputPathPrefersExplicitOutput(t *testing.T) {
	o := New(config.Options{CacheDir: t.TempDir()})
	got, err := o.resolveOutputPath("/tmp/prog.py", "/tmp/out/prog")
	if err != nil {
		t.Fatalf("resolveOutputPath error: %v", err)
	}
	if got != "/tmp/out/prog" {
		t.Fatalf("expected the explicit output path to win, got %q", got)
	}
}

func TestResolveOutputPathDefaultsUnderCacheDir(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	o := New(config.Options{CacheDir: cacheDir})
	got, err := o.resolveOutputPath("/tmp/fib.py", "")
	if err != nil {
		t.Fatalf("resolveOutputPath error: %v", err)
	}
	want := filepath.Join(cacheDir, "fib")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := os.Stat(cacheDir); err != nil {
		t.Fatalf("expected resolveOutputPath to create the cache dir: %v", err)
	}
}

func TestCompileToZigRunsTheFullPipeline(t *testing.T) {
	o := New(config.Options{CacheDir: t.TempDir()})
	out, err := o.compileToZig([]byte("def f(n):\n    return n\nprint(f(7))\n"))
	if err != nil {
		t.Fatalf("compileToZig error: %v", err)
	}
	if !strings.Contains(out, `@import("pyxc_runtime")`) {
		t.Fatalf("expected emitted source to import the runtime, got:\n%s", out)
	}
	if !strings.Contains(out, "fn f(") {
		t.Fatalf("expected emitted source to define f, got:\n%s", out)
	}
}

func TestCompileToZigPropagatesLexErrors(t *testing.T) {
	o := New(config.Options{CacheDir: t.TempDir()})
	if _, err := o.compileToZig([]byte("x = 1 $ y\n")); err == nil {
		t.Fatal("expected an error for an unrecognised byte")
	}
}

func TestSummaryDistinguishesCacheHitFromFreshBuild(t *testing.T) {
	cached := &Result{BinaryPath: "/tmp/prog", FromCache: true, Duration: 2 * time.Millisecond}
	if !strings.Contains(cached.Summary(), "cached") {
		t.Fatalf("expected a cache-hit summary, got %q", cached.Summary())
	}
	fresh := &Result{BinaryPath: "/tmp/prog", FromCache: false, Duration: 2 * time.Second}
	if !strings.Contains(fresh.Summary(), "built") {
		t.Fatalf("expected a fresh-build summary, got %q", fresh.Summary())
	}
}
