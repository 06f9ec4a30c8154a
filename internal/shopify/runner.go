// Package shopify drives the external Shopify theme CLI. Every call is a
// subprocess started with an explicit argument list.
package shopify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultBinary is the executable used when no other is configured.
const DefaultBinary = "shopify"

// Result holds the outcome of one CLI invocation.
type Result struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Invocation describes one CLI call.
type Invocation struct {
	Args []string
	// Dir is the working directory of the subprocess. Empty means inherit.
	Dir string
	// Echo, when set, also receives stdout and stderr as they are produced.
	Echo  io.Writer
	Stdin io.Reader
}

// Runner executes the theme CLI. A non-zero exit is reported through
// Result.ExitCode, not as an error; errors mean the process could not run.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// ExecRunner runs the CLI binary with os/exec.
type ExecRunner struct {
	binary  string
	timeout time.Duration
	logger  *log.Logger
}

// NewExecRunner creates a runner for the given binary.
func NewExecRunner(binary string, logger *log.Logger) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExecRunner{binary: binary, logger: logger}
}

// WithTimeout bounds every invocation. Zero leaves timeouts to the CLI.
func (r *ExecRunner) WithTimeout(d time.Duration) *ExecRunner {
	r.timeout = d
	return r
}

// Run executes the binary with the invocation's arguments.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdin = inv.Stdin

	var stdout, stderr bytes.Buffer
	if inv.Echo != nil {
		cmd.Stdout = io.MultiWriter(&stdout, inv.Echo)
		cmd.Stderr = io.MultiWriter(&stderr, inv.Echo)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	r.logger.Debug("running theme cli", "binary", r.binary, "args", inv.Args, "dir", inv.Dir)

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Args:     inv.Args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("running %s: %w", r.binary, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.logger.Debug("theme cli finished", "args", inv.Args, "exit", result.ExitCode, "took", result.Duration.Round(time.Millisecond))
	return result, nil
}
