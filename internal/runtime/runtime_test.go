package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilesIncludesEveryRuntimeModule(t *testing.T) {
	files, err := Files()
	if err != nil {
		t.Fatalf("Files() error: %v", err)
	}
	want := []string{"root.zig", "object.zig", "string.zig", "list.zig", "dict.zig", "tuple.zig", "json.zig", "http.zig"}
	for _, name := range want {
		if _, ok := files[name]; !ok {
			t.Errorf("expected embedded runtime to include %s", name)
		}
	}
}

func TestWriteToMaterialisesFilesAndReturnsRootPath(t *testing.T) {
	dir := t.TempDir()
	rootPath, err := WriteTo(dir)
	if err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}
	if rootPath != filepath.Join(dir, "root.zig") {
		t.Fatalf("unexpected root path: %s", rootPath)
	}
	if _, err := os.Stat(rootPath); err != nil {
		t.Fatalf("expected root.zig to be written to disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "object.zig")); err != nil {
		t.Fatalf("expected object.zig to be written to disk: %v", err)
	}
}
