package privilege

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/mensylisir/elevate/logger"
)

// DefaultProbeTimeout bounds the passwordless probe. The probe runs sudo in
// non-interactive mode so it cannot hang on a prompt, but a bound is still
// applied in case the elevation binary itself stalls.
const DefaultProbeTimeout = 5 * time.Second

// Prober answers whether the current session can elevate without a
// credential.
type Prober interface {
	// ProbePasswordless returns true only when elevation succeeds with no
	// credential and no prompt. Any failure, including the underlying
	// mechanism demanding a password, reports false.
	ProbePasswordless(ctx context.Context) bool
}

// sudoProber probes via a no-op elevated command in non-interactive mode
// ("sudo -n true").
type sudoProber struct {
	elevationCommand []string
	timeout          time.Duration
}

// ProberOption configures a sudo prober.
type ProberOption func(*sudoProber)

// WithProbeTimeout overrides the probe deadline.
func WithProbeTimeout(timeout time.Duration) ProberOption {
	return func(p *sudoProber) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithProbeElevationCommand overrides the elevation wrapper, e.g. for
// containers where gosu replaces sudo.
func WithProbeElevationCommand(args ...string) ProberOption {
	return func(p *sudoProber) {
		if len(args) > 0 {
			p.elevationCommand = args
		}
	}
}

// NewSudoProber creates a Prober backed by the system sudo binary.
func NewSudoProber(opts ...ProberOption) Prober {
	p := &sudoProber{
		elevationCommand: []string{"sudo"},
		timeout:          DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *sudoProber) ProbePasswordless(ctx context.Context) bool {
	if IsRoot() {
		return true
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append([]string{}, p.elevationCommand[1:]...)
	args = append(args, "-n", "true")
	cmd := exec.CommandContext(probeCtx, p.elevationCommand[0], args...)
	// No stdin: even a misconfigured wrapper cannot stop and wait for input.
	cmd.Stdin = nil

	err := cmd.Run()
	if err != nil {
		logger.Log.WithComponent("prober").Debugf("passwordless probe failed: %v", err)
		return false
	}
	return true
}

// IsRoot returns true if the current process already has root privileges.
func IsRoot() bool {
	return os.Geteuid() == 0
}
