package executor

import (
	"context"
	"os/exec"
	"strings"
	"syscall" // For exit code
	"time"

	"github.com/pkg/errors"

	"github.com/mensylisir/elevate/logger"
)

const (
	// DefaultTimeout bounds a single elevated invocation.
	DefaultTimeout = 30 * time.Second
	// DefaultOutputLimit caps captured stdout and stderr, each.
	DefaultOutputLimit = 1 << 20 // 1 MiB
	// killGracePeriod is how long cmd.Wait may linger after the context
	// fires before remaining I/O pipes are forcibly closed.
	killGracePeriod = 5 * time.Second
)

// localExecutor implements the Executor interface for the local machine.
type localExecutor struct {
	elevationCommand []string
	timeout          time.Duration
	outputLimit      int64
}

// LocalOption configures a local executor.
type LocalOption func(*localExecutor)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(timeout time.Duration) LocalOption {
	return func(l *localExecutor) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithOutputLimit overrides the per-stream output cap in bytes.
func WithOutputLimit(limit int64) LocalOption {
	return func(l *localExecutor) {
		if limit > 0 {
			l.outputLimit = limit
		}
	}
}

// WithElevationCommand overrides the elevation wrapper, default ["sudo"].
// Useful for containers (e.g. gosu) and for tests, which substitute a
// wrapper that does not require real privileges.
func WithElevationCommand(args ...string) LocalOption {
	return func(l *localExecutor) {
		if len(args) > 0 {
			l.elevationCommand = args
		}
	}
}

// NewLocalExecutor creates an Executor that elevates on the local machine.
func NewLocalExecutor(opts ...LocalOption) Executor {
	l := &localExecutor{
		elevationCommand: []string{"sudo"},
		timeout:          DefaultTimeout,
		outputLimit:      DefaultOutputLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *localExecutor) Run(ctx context.Context, command string, args []string, credential string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("command cannot be empty")
	}

	runCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	argv := append([]string{}, l.elevationCommand[1:]...)
	if credential != "" {
		// -S reads the password from stdin, -p "" suppresses the prompt text.
		argv = append(argv, "-S", "-p", "", "--")
	} else {
		// Non-interactive: fail instead of prompting.
		argv = append(argv, "-n", "--")
	}
	argv = append(argv, command)
	argv = append(argv, args...)

	cmd := exec.CommandContext(runCtx, l.elevationCommand[0], argv...)
	stdout := newLimitWriter(l.outputLimit)
	stderr := newLimitWriter(l.outputLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = killGracePeriod
	if credential != "" {
		// The credential crosses this boundary only; it is never placed on
		// the argv where the process list could expose it.
		cmd.Stdin = strings.NewReader(credential + "\n")
	}

	logger.Log.WithComponent("executor").Debugf("running elevated command %q with %d args", command, len(args))

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Duration:  time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		logger.Log.WithComponent("executor").Warnf("elevated command %q killed after %v timeout", command, l.timeout)
		return result, nil
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				result.ExitCode = status.ExitStatus()
			} else {
				result.ExitCode = 1
			}
			return result, nil
		}
		// Not an exit status: the invocation itself failed, e.g. the
		// elevation binary is missing.
		result.ExitCode = 1
		return result, errors.Wrapf(err, "failed to run elevated command '%s'", command)
	}

	return result, nil
}
