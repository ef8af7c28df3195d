// Package usercmd runs external helper programs attached to the caller's
// terminal.
package usercmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Timeout bounds a single run. Zero means no limit; interactive
	// helpers such as sudo may wait on a password prompt indefinitely.
	Timeout time.Duration
}

func New() *Runner {
	return &Runner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// RunAttached runs name with the runner's stdio and returns its exit code.
// A non-zero exit is reported through the code, not as an error; err is set
// only when the program could not be started or waited for.
func (r *Runner) RunAttached(ctx context.Context, name string, args ...string) (int, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return -1, fmt.Errorf("%s %v: %w", name, args, ctx.Err())
		}
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("%s %v: %w", name, args, err)
}
