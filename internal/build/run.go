package build

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// Run spawns the compiled binary, forwarding its standard streams, and
// returns its exit code (spec §4.6 step 6, `run` mode).
func (o *Orchestrator) Run(ctx context.Context, binaryPath string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, err
}
