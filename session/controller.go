package session

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mensylisir/elevate/cache"
	"github.com/mensylisir/elevate/executor"
	"github.com/mensylisir/elevate/logger"
	"github.com/mensylisir/elevate/privilege"
)

const (
	// DefaultCredentialTTL bounds how long a successfully used credential
	// stays cached.
	DefaultCredentialTTL = 5 * time.Minute
	// DefaultProbeGrace is how long a "true" passwordless probe may be
	// reused before probing again.
	DefaultProbeGrace = 10 * time.Second
)

// Controller orchestrates the credential store, the privilege prober and
// the command executor for each elevation request.
type Controller struct {
	store  *cache.CredentialStore
	prober privilege.Prober
	exec   executor.Executor

	ttl        time.Duration
	probeGrace time.Duration

	// clearSystemCache drops the OS-level elevation timestamp (sudo -k),
	// best effort. Replaceable in tests.
	clearSystemCache func()

	mu            sync.Mutex
	lastProbeTrue time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithCredentialTTL overrides the cached-credential lifetime.
func WithCredentialTTL(ttl time.Duration) ControllerOption {
	return func(c *Controller) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithProbeGrace overrides the probe reuse window. Zero disables reuse so
// every request without a cached credential probes again.
func WithProbeGrace(grace time.Duration) ControllerOption {
	return func(c *Controller) {
		c.probeGrace = grace
	}
}

// WithSystemCacheClearer overrides the OS-level cache drop hook.
func WithSystemCacheClearer(fn func()) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.clearSystemCache = fn
		}
	}
}

// NewController wires a controller over the given components.
func NewController(store *cache.CredentialStore, prober privilege.Prober, exec executor.Executor, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:            store,
		prober:           prober,
		exec:             exec,
		ttl:              DefaultCredentialTTL,
		probeGrace:       DefaultProbeGrace,
		clearSystemCache: dropSudoTimestamp,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute processes one elevation request through the state machine
// Idle -> Probing -> Executing -> Done, or Idle -> Probing ->
// AwaitingPassword when no credential is available. AwaitingPassword ends
// the call; the caller must re-invoke with a password.
func (c *Controller) Execute(ctx context.Context, req *ElevationRequest) *ElevationResponse {
	log := logger.Log.WithComponent("session")

	if strings.TrimSpace(req.Command) == "" {
		return failureResponse("command cannot be empty")
	}

	var (
		credential string
		cached     bool
		fresh      bool
	)

	if req.Password != "" {
		// A supplied password skips probing entirely.
		credential = req.Password
		fresh = true
		log.Debugf("state %s -> %s: request carries a password", StateIdle, StateExecuting)
	} else {
		log.Debugf("state %s -> %s", StateIdle, StateProbing)
		if secret, ok := c.store.Retrieve(); ok {
			credential = secret
			cached = true
			log.Debugf("state %s -> %s: cached credential", StateProbing, StateExecuting)
		} else if c.probePasswordless(ctx) {
			log.Debugf("state %s -> %s: passwordless elevation available", StateProbing, StateExecuting)
		} else {
			log.Debugf("state %s -> %s", StateProbing, StateAwaitingPassword)
			return needsPasswordResponse("Password required")
		}
	}

	result, err := c.exec.Run(ctx, req.Command, req.Args, credential)
	if err != nil {
		log.Errorf("elevated execution of %q failed: %v", req.Command, err)
		return failureResponse(err.Error())
	}

	if result.TimedOut {
		return failureResponse(fmt.Sprintf("command '%s' timed out after %s", req.Command, result.Duration.Round(time.Millisecond)))
	}

	if result.Success() {
		if fresh {
			c.store.Store(credential, c.ttl)
			log.Debugf("state %s -> %s: credential cached for %s", StateExecuting, StateDone, c.ttl)
		} else {
			log.Debugf("state %s -> %s", StateExecuting, StateDone)
		}
		return &ElevationResponse{
			Success: true,
			Output:  result.Stdout,
			Cached:  cached,
		}
	}

	if isAuthFailure(result.Stderr) {
		if cached {
			// The cached credential is stale or revoked; drop it so the
			// next request prompts instead of failing the same way.
			c.store.Clear()
			log.Debugf("cached credential rejected, cache cleared")
		}
		log.Debugf("state %s -> %s: authentication failure", StateExecuting, StateDone)
		return needsPasswordResponse("Authentication required")
	}

	errText := strings.TrimSpace(result.Stderr)
	if errText == "" {
		errText = fmt.Sprintf("command '%s' exited with status %d", req.Command, result.ExitCode)
	}
	log.Debugf("state %s -> %s: exit status %d", StateExecuting, StateDone, result.ExitCode)
	return &ElevationResponse{
		Success: false,
		Output:  result.Stdout,
		Error:   errText,
		Cached:  cached,
	}
}

// ExecuteDirect performs a plain elevated run with no cache read or write
// and no probing. The wrapper still runs non-interactively so a missing
// credential fails fast instead of prompting.
func (c *Controller) ExecuteDirect(ctx context.Context, command string, args []string) *ElevationResponse {
	if strings.TrimSpace(command) == "" {
		return failureResponse("command cannot be empty")
	}

	result, err := c.exec.Run(ctx, command, args, "")
	if err != nil {
		return failureResponse(err.Error())
	}
	if result.TimedOut {
		return failureResponse(fmt.Sprintf("command '%s' timed out after %s", command, result.Duration.Round(time.Millisecond)))
	}

	resp := &ElevationResponse{
		Success: result.Success(),
		Output:  result.Stdout,
	}
	if !result.Success() {
		resp.Error = strings.TrimSpace(result.Stderr)
		if resp.Error == "" {
			resp.Error = fmt.Sprintf("command '%s' exited with status %d", command, result.ExitCode)
		}
	}
	return resp
}

// ClearCache discards the cached credential and, best effort, the OS-level
// elevation timestamp. Always succeeds.
func (c *Controller) ClearCache(ctx context.Context) {
	c.store.Clear()
	c.clearSystemCache()

	// The environment changed; a previous probe result may no longer hold.
	c.mu.Lock()
	c.lastProbeTrue = time.Time{}
	c.mu.Unlock()

	logger.Log.WithComponent("session").Debug("credential cache cleared")
}

// CheckPrivileges reports whether elevation would succeed right now without
// prompting: either a live cached credential exists or the passwordless
// probe succeeds.
func (c *Controller) CheckPrivileges(ctx context.Context) bool {
	if _, ok := c.store.Retrieve(); ok {
		return true
	}
	return c.probePasswordless(ctx)
}

// probePasswordless runs the prober, reusing a recent "true" within the
// grace window. Only positive results are reused; the environment can grant
// access at any time, so a "false" is never cached.
func (c *Controller) probePasswordless(ctx context.Context) bool {
	c.mu.Lock()
	if c.probeGrace > 0 && !c.lastProbeTrue.IsZero() && time.Since(c.lastProbeTrue) < c.probeGrace {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	if !c.prober.ProbePasswordless(ctx) {
		return false
	}

	c.mu.Lock()
	c.lastProbeTrue = time.Now()
	c.mu.Unlock()
	return true
}

func dropSudoTimestamp() {
	if err := exec.Command("sudo", "-k").Run(); err != nil {
		logger.Log.WithComponent("session").Debugf("sudo -k failed: %v", err)
	}
}

func failureResponse(errText string) *ElevationResponse {
	return &ElevationResponse{
		Success: false,
		Error:   errText,
	}
}

func needsPasswordResponse(errText string) *ElevationResponse {
	return &ElevationResponse{
		Success:       false,
		Error:         errText,
		NeedsPassword: true,
	}
}
