package executor

import (
	"context"
	"time"
)

// Result captures the outcome of a single elevated invocation.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Truncated bool
	Duration  time.Duration
}

// Success reports whether the invocation exited cleanly.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs a command through an elevation wrapper on a target system
// (local or remote).
type Executor interface {
	// Run executes command with args under elevated privileges. A non-empty
	// credential is supplied to the wrapper through a non-echoing stdin
	// channel, never on the command line; an empty credential invokes the
	// wrapper in non-interactive passwordless mode so it fails fast instead
	// of prompting. The returned error covers invocation problems such as a
	// missing binary; a non-zero exit is reported via Result, not error.
	Run(ctx context.Context, command string, args []string, credential string) (*Result, error)
}
