// =============================================================================
// Metadata Deployer - Command Runner
// =============================================================================
//
// Every interaction with the org goes through an external CLI. This package
// runs such a command to completion and reports what happened.
//
// BEHAVIOR:
//   - Arguments are passed as an argv slice; no shell is involved.
//   - stdout and stderr are buffered in memory.
//   - Every command runs under a timeout and honours context cancellation.
//     Cancellation kills the command's whole process group, so wrapper
//     scripts cannot leave a child holding the output pipes.
//   - A non-zero exit is a result, not an error. Callers decide per call
//     whether a failed command skips one item or aborts the run.
//
// =============================================================================

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// waitDelay bounds how long Run waits for the output pipes to close after
// the command has been killed.
const waitDelay = 2 * time.Second

// ErrTimeout is returned when a command outlives its timeout.
var ErrTimeout = errors.New("command timed out")

// Command describes one external invocation.
type Command struct {
	// Name is the executable, looked up on PATH.
	Name string

	// Args are passed verbatim.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Timeout bounds the run. Zero means the runner's default.
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	Command  Command
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports a zero exit code.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Err converts a non-zero exit into an *ExitError. A successful result
// returns nil.
func (r Result) Err() error {
	if r.Success() {
		return nil
	}
	return &ExitError{Command: r.Command, ExitCode: r.ExitCode, Stderr: r.Stderr}
}

// ExitError carries the details of a command that exited non-zero.
type ExitError struct {
	Command  Command
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command.Name, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner runs commands. Tests substitute a scripted implementation.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// =============================================================================
// EXEC RUNNER
// =============================================================================

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// DefaultTimeout applies to commands without their own timeout.
	DefaultTimeout time.Duration

	log *logrus.Entry
}

// NewExecRunner returns a runner with the given default timeout.
func NewExecRunner(defaultTimeout time.Duration, log *logrus.Entry) *ExecRunner {
	return &ExecRunner{DefaultTimeout: defaultTimeout, log: log}
}

// Run executes cmd and waits for it to exit.
//
// RETURNS:
//   - The result of a command that started and exited, whatever its code.
//   - ErrTimeout if the timeout fired, the context error if ctx was
//     cancelled, or the start error if the executable could not be run.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if r.log != nil {
		r.log.Infof("Running command %s", cmd)
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = waitDelay
	killProcessGroup(c)

	start := time.Now()
	err := c.Run()
	result := Result{
		Command:  cmd,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, cmd)
		}
		return result, fmt.Errorf("command cancelled: %s: %w", cmd, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		return result, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}

	return result, nil
}

// RunChecked runs cmd and folds a non-zero exit into the returned error.
func RunChecked(ctx context.Context, r Runner, cmd Command) (Result, error) {
	res, err := r.Run(ctx, cmd)
	if err != nil {
		return res, err
	}
	return res, res.Err()
}
