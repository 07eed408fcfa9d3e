package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hochfrequenz/advent-runner/internal/program"
)

// waitDelay bounds how long Wait keeps reading pipes after a timed out
// child was killed
const waitDelay = 2 * time.Second

// processOutput is what a finished child process left behind
type processOutput struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	// ExitErr is set when the process exited non-zero or was killed.
	ExitErr error
	// FeedErr is set when the input could not be written to stdin.
	FeedErr error
}

// execute runs prog in the project root and collects its output. When stdin
// is non-nil it is written to the child from a separate goroutine so a child
// that writes before draining its input cannot deadlock against us.
func (p *Project) execute(ctx context.Context, prog program.Program, stdin []byte) (*processOutput, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	cmd := prog.Cmd(ctx, p.root)
	if p.cfg.Timeout > 0 {
		cmd.WaitDelay = waitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var in io.WriteCloser
	if stdin != nil {
		var err error
		if in, err = cmd.StdinPipe(); err != nil {
			return nil, fmt.Errorf("failed to open stdin: %w", err)
		}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	if p.cfg.Debug {
		log.Printf("[project] started %s with PID %d", prog, cmd.Process.Pid)
	}

	var feeder errgroup.Group
	if in != nil {
		feeder.Go(func() error {
			if _, err := in.Write(stdin); err != nil {
				in.Close()
				return err
			}
			return in.Close()
		})
	}

	waitErr := cmd.Wait()
	feedErr := feeder.Wait()

	out := &processOutput{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
		FeedErr:  feedErr,
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			out.ExitErr = fmt.Errorf("killed after exceeding the %s timeout: %w", p.cfg.Timeout, waitErr)
		case ctx.Err() != nil:
			out.ExitErr = fmt.Errorf("interrupted: %w", ctx.Err())
		case errors.As(waitErr, &exitErr):
			out.ExitErr = waitErr
		default:
			return nil, fmt.Errorf("waiting for %s: %w", prog, waitErr)
		}
	}

	if p.cfg.Debug {
		log.Printf("[project] %s finished in %s (stdout %d bytes, stderr %d bytes)",
			prog, out.Duration.Round(time.Millisecond), len(out.Stdout), len(out.Stderr))
	}

	return out, nil
}
