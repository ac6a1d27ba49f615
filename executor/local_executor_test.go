package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeFakeSudo installs a shell stand-in for the elevation wrapper. It
// understands the flags the executor emits (-n, -S, -p, --) and, in stdin
// mode, verifies the first line against requiredPassword the way sudo -S
// does.
func writeFakeSudo(t *testing.T, requiredPassword string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executor tests require a POSIX shell")
	}

	script := fmt.Sprintf(`#!/bin/sh
mode=""
while [ $# -gt 0 ]; do
  case "$1" in
    -n) mode="passwordless"; shift ;;
    -S) mode="stdin"; shift ;;
    -p) shift 2 ;;
    --) shift; break ;;
    *) break ;;
  esac
done
if [ "$mode" = "stdin" ]; then
  IFS= read -r pw
  if [ "$pw" != "%s" ]; then
    echo "Sorry, try again." >&2
    exit 1
  fi
fi
exec "$@"
`, requiredPassword)

	path := filepath.Join(t.TempDir(), "fakesudo")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake sudo: %v", err)
	}
	return path
}

func TestLocalExecutor_Passwordless(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "")
	le := NewLocalExecutor(WithElevationCommand(fakeSudo))

	result, err := le.Run(context.Background(), "echo", []string{"hello", "world"}, "")
	if err != nil {
		t.Fatalf("Run(echo) failed: %v", err)
	}
	if !result.Success() {
		t.Errorf("Run(echo) exit code = %d; want 0. stderr: %s", result.ExitCode, result.Stderr)
	}
	if strings.TrimSpace(result.Stdout) != "hello world" {
		t.Errorf("Run(echo) stdout = %q; want %q", result.Stdout, "hello world")
	}
	if result.TimedOut || result.Truncated {
		t.Errorf("unexpected TimedOut=%v Truncated=%v", result.TimedOut, result.Truncated)
	}
}

func TestLocalExecutor_CredentialOverStdin(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "hunter2")
	le := NewLocalExecutor(WithElevationCommand(fakeSudo))

	result, err := le.Run(context.Background(), "echo", []string{"ok"}, "hunter2")
	if err != nil {
		t.Fatalf("Run with correct credential failed: %v", err)
	}
	if !result.Success() {
		t.Errorf("exit code = %d; want 0. stderr: %s", result.ExitCode, result.Stderr)
	}
	if strings.TrimSpace(result.Stdout) != "ok" {
		t.Errorf("stdout = %q; want %q", result.Stdout, "ok")
	}
}

func TestLocalExecutor_CredentialRejected(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "hunter2")
	le := NewLocalExecutor(WithElevationCommand(fakeSudo))

	result, err := le.Run(context.Background(), "echo", []string{"ok"}, "wrong")
	if err != nil {
		t.Fatalf("Run with wrong credential should report via exit code, got error: %v", err)
	}
	if result.Success() {
		t.Errorf("expected non-zero exit for rejected credential")
	}
	if !strings.Contains(result.Stderr, "Sorry, try again.") {
		t.Errorf("stderr = %q; want the authentication failure signature", result.Stderr)
	}
}

func TestLocalExecutor_EmptyCommand(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "")
	le := NewLocalExecutor(WithElevationCommand(fakeSudo))

	if _, err := le.Run(context.Background(), "  ", nil, ""); err == nil {
		t.Errorf("expected an error for an empty command")
	}
}

func TestLocalExecutor_CommandNotFound(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "")
	le := NewLocalExecutor(WithElevationCommand(fakeSudo))

	result, err := le.Run(context.Background(), "a_very_unlikely_command_to_exist_xyz123", nil, "")
	if err != nil {
		// exec through the wrapper surfaces not-found as a shell exit code,
		// not an invocation error.
		t.Fatalf("Run(not-found) returned error: %v", err)
	}
	if result.Success() {
		t.Errorf("expected non-zero exit for a missing command")
	}
}

func TestLocalExecutor_MissingElevationBinary(t *testing.T) {
	le := NewLocalExecutor(WithElevationCommand("/nonexistent/fakesudo_xyz123"))

	_, err := le.Run(context.Background(), "echo", []string{"hi"}, "")
	if err == nil {
		t.Errorf("expected an invocation error when the elevation binary is missing")
	}
}

func TestLocalExecutor_Timeout(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "")
	le := NewLocalExecutor(
		WithElevationCommand(fakeSudo),
		WithTimeout(100*time.Millisecond),
	)

	start := time.Now()
	result, err := le.Run(context.Background(), "sleep", []string{"5"}, "")
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run(sleep) returned error: %v", err)
	}
	if !result.TimedOut {
		t.Errorf("expected TimedOut=true")
	}
	if result.Success() {
		t.Errorf("timed-out run must not report success")
	}
	if elapsed >= 5*time.Second {
		t.Errorf("run took %v; the subprocess was not terminated", elapsed)
	}
}

func TestLocalExecutor_OutputCap(t *testing.T) {
	fakeSudo := writeFakeSudo(t, "")
	le := NewLocalExecutor(
		WithElevationCommand(fakeSudo),
		WithOutputLimit(512),
	)

	result, err := le.Run(context.Background(), "sh", []string{"-c", "i=0; while [ $i -lt 1000 ]; do echo abcdefghij; i=$((i+1)); done"}, "")
	if err != nil {
		t.Fatalf("Run(loop) failed: %v", err)
	}
	if !result.Truncated {
		t.Errorf("expected Truncated=true for output beyond the cap")
	}
	if !strings.HasSuffix(result.Stdout, TruncationMarker) {
		t.Errorf("truncated stdout should end with the truncation marker")
	}
	if len(result.Stdout) > 512+len(TruncationMarker) {
		t.Errorf("stdout length %d exceeds cap plus marker", len(result.Stdout))
	}
}

func TestLimitWriter(t *testing.T) {
	w := newLimitWriter(4)
	n, err := w.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write = %d, %v; want 6, nil", n, err)
	}
	if !w.Truncated() {
		t.Errorf("expected truncation")
	}
	if w.String() != "abcd"+TruncationMarker {
		t.Errorf("String() = %q", w.String())
	}

	w2 := newLimitWriter(16)
	w2.Write([]byte("short"))
	if w2.Truncated() || w2.String() != "short" {
		t.Errorf("unexpected truncation for small write: %q", w2.String())
	}
}
