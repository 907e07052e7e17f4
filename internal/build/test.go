package build

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// TestReport is one fixture's compile-and-execute result, collected by
// RunTests for the `test` subcommand of spec §6.
type TestReport struct {
	File string
	Err  error
}

// RunTests discovers every *_test.py fixture under dir and runs each
// one's compile-and-execute cycle concurrently with a bounded
// errgroup, matching SPEC_FULL.md §4's domain-stack wiring of
// golang.org/x/sync/errgroup (mined from breadchris-yaegi's go.mod).
// Results are returned sorted by file name for deterministic output.
func (o *Orchestrator) RunTests(ctx context.Context, dir string) ([]TestReport, error) {
	fixtures, err := filepath.Glob(filepath.Join(dir, "*_test.py"))
	if err != nil {
		return nil, fmt.Errorf("globbing test fixtures: %w", err)
	}

	reports := make([]TestReport, len(fixtures))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for i, fixture := range fixtures {
		i, fixture := i, fixture
		group.Go(func() error {
			reports[i] = TestReport{File: fixture, Err: o.runOneFixture(gctx, fixture)}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].File < reports[j].File })
	return reports, nil
}

func (o *Orchestrator) runOneFixture(ctx context.Context, fixture string) error {
	result, err := o.Compile(ctx, fixture, "")
	if err != nil {
		return err
	}
	exitCode, err := o.Run(ctx, result.BinaryPath, nil)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("%s exited %d", fixture, exitCode)
	}
	return nil
}
