package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Stats reports cache directory size and entry counters for the
// `cache stats` supplement of SPEC_FULL.md §5, grounded in
// thought-machine-please's `plz cache` introspection commands.
type Stats struct {
	Dir          string
	TotalBytes   int64
	BinaryCount  int
	HumanizedSize string
}

// CacheStats walks the cache directory, totalling the size of every file
// in it (binaries, .hash sidecars and scratch files alike) and counting
// the cached binaries, formatting the total with go-humanize.
func CacheStats(cacheDir string) (Stats, error) {
	stats := Stats{Dir: cacheDir}
	err := filepath.WalkDir(cacheDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.TotalBytes += info.Size()
		if !strings.HasSuffix(path, ".hash") && !strings.Contains(path, "scratch-") {
			stats.BinaryCount++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	stats.HumanizedSize = humanize.Bytes(uint64(stats.TotalBytes))
	return stats, nil
}
