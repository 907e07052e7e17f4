package build

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheStatsCountsBinariesAndExcludesSidecarsAndScratch(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("fib", 100)
	write("fib.hash", 64)
	write("greet", 200)
	write("greet.hash", 64)

	scratchDir := filepath.Join(dir, "scratch-abc123")
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(scratchDir, "main.zig"), make([]byte, 50), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := CacheStats(dir)
	if err != nil {
		t.Fatalf("CacheStats error: %v", err)
	}
	if stats.BinaryCount != 2 {
		t.Fatalf("expected 2 binaries (sidecars and scratch files excluded), got %d", stats.BinaryCount)
	}
	if stats.TotalBytes != 100+64+200+64+50 {
		t.Fatalf("unexpected total bytes: %d", stats.TotalBytes)
	}
	if stats.HumanizedSize == "" {
		t.Fatal("expected a humanized size string")
	}
}

func TestCacheStatsOnMissingDirIsEmptyNotError(t *testing.T) {
	stats, err := CacheStats(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("expected a missing cache dir to be treated as empty, got error: %v", err)
	}
	if stats.BinaryCount != 0 || stats.TotalBytes != 0 {
		t.Fatalf("expected zero stats for a missing dir, got %+v", stats)
	}
}
