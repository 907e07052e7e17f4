// Package runtime embeds the hand-written Zig runtime library every
// emitted program links against (spec §4.5): the PyObject tagged
// value, PyInt/PyString/PyList/PyDict/PyTuple and their operations,
// reference counting, and the json/http builtins. The teacher has no
// runtime-library analogue of its own (Nilan values live as Go `any`
// in interpreter/environment.go); this package is grounded directly on
// spec §4.5's table instead, following the stdlib embed idiom so the
// Build Orchestrator can materialise it next to generated Zig source
// without requiring a separate install step.
package runtime

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed rt/*.zig
var sources embed.FS

// ModuleName is the import name emitted code uses for the runtime
// (`const rt = @import("pyxc_runtime");` in internal/emit.Emit).
const ModuleName = "pyxc_runtime"

// Files returns the embedded Zig source files keyed by their basename
// ("object.zig", "string.zig", ...); as a map it carries no file order.
func Files() (map[string][]byte, error) {
	entries, err := sources.ReadDir("rt")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(entries))
	for _, ent := range entries {
		data, err := sources.ReadFile("rt/" + ent.Name())
		if err != nil {
			return nil, err
		}
		out[ent.Name()] = data
	}
	return out, nil
}

// WriteTo materialises every embedded runtime source file into dir,
// returning the path of the root module file ("root.zig") that
// `zig build-exe --mod pyxc_runtime::` should be pointed at. Used by
// internal/build before invoking the TL compiler on a scratch build.
func WriteTo(dir string) (string, error) {
	files, err := Files()
	if err != nil {
		return "", err
	}
	for name, data := range files {
		if err := writeFile(dir, name, data); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "root.zig"), nil
}

func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
