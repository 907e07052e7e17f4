package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch recompiles sourcePath each time it changes on disk, invoking
// onRebuild with the result and error of every Compile, failed ones
// included. It blocks until ctx is
// canceled. This is the `-watch` convenience of SPEC_FULL.md §5, a
// small ambient feature several corpus CLIs offer (e.g.
// jinterlante1206-AleutianLocal's and thought-machine-please's use of
// fsnotify for live-reload/rebuild loops).
func (o *Orchestrator) Watch(ctx context.Context, sourcePath, outputPath string, onRebuild func(*Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(sourcePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	result, err := o.Compile(ctx, sourcePath, outputPath)
	onRebuild(result, err)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != sourcePath || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			result, err := o.Compile(ctx, sourcePath, outputPath)
			onRebuild(result, err)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "💥 Watch error:\n\t%v\n", werr)
		}
	}
}
