package executor

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/mensylisir/elevate/common"
	"github.com/mensylisir/elevate/logger"
)

// SSHConfig describes a remote elevation target.
type SSHConfig struct {
	Address        string
	Port           int
	User           string
	Password       string
	PrivateKeyPath string
	ConnectTimeout time.Duration
}

// sshExecutor implements Executor against a remote host. The elevation
// wrapper runs on the remote side; the credential is written to the remote
// session's stdin, never embedded in the command string.
type sshExecutor struct {
	config           SSHConfig
	elevationCommand []string
	timeout          time.Duration
	outputLimit      int64
}

// SSHOption configures an SSH executor.
type SSHOption func(*sshExecutor)

// WithSSHTimeout overrides the per-invocation timeout.
func WithSSHTimeout(timeout time.Duration) SSHOption {
	return func(s *sshExecutor) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithSSHOutputLimit overrides the per-stream output cap in bytes.
func WithSSHOutputLimit(limit int64) SSHOption {
	return func(s *sshExecutor) {
		if limit > 0 {
			s.outputLimit = limit
		}
	}
}

// WithSSHElevationCommand overrides the remote elevation wrapper.
func WithSSHElevationCommand(args ...string) SSHOption {
	return func(s *sshExecutor) {
		if len(args) > 0 {
			s.elevationCommand = args
		}
	}
}

// NewSSHExecutor creates an Executor that elevates on a remote host.
func NewSSHExecutor(config SSHConfig, opts ...SSHOption) (Executor, error) {
	if config.Address == "" {
		return nil, errors.New("ssh executor requires a target address")
	}
	if config.User == "" {
		return nil, errors.New("ssh executor requires a user")
	}
	if config.Password == "" && config.PrivateKeyPath == "" {
		return nil, errors.New("ssh executor requires a password or a private key")
	}
	if config.Port == 0 {
		config.Port = common.DefaultSSHPort
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	s := &sshExecutor{
		config:           config,
		elevationCommand: []string{"sudo"},
		timeout:          DefaultTimeout,
		outputLimit:      DefaultOutputLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *sshExecutor) clientConfig() (*ssh.ClientConfig, error) {
	authMethods := make([]ssh.AuthMethod, 0, 2)
	if s.config.Password != "" {
		authMethods = append(authMethods, ssh.Password(s.config.Password))
	}
	if s.config.PrivateKeyPath != "" {
		keyBytes, err := os.ReadFile(s.config.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read private key %s", s.config.PrivateKeyPath)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse private key")
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	return &ssh.ClientConfig{
		User:            s.config.User,
		Auth:            authMethods,
		Timeout:         s.config.ConnectTimeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

func (s *sshExecutor) Run(ctx context.Context, command string, args []string, credential string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("command cannot be empty")
	}

	clientConfig, err := s.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(s.config.Address, fmt.Sprintf("%d", s.config.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", addr)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ssh session")
	}
	defer session.Close()

	stdout := newLimitWriter(s.outputLimit)
	stderr := newLimitWriter(s.outputLimit)
	session.Stdout = stdout
	session.Stderr = stderr
	if credential != "" {
		session.Stdin = strings.NewReader(credential + "\n")
	}

	remoteCmd := s.buildRemoteCommand(command, args, credential != "")
	log := logger.Log.WithComponent("executor").WithField(common.LogFieldRemote, addr)
	log.Debugf("running remote elevated command %q with %d args", command, len(args))

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := session.Start(remoteCmd); err != nil {
		return nil, errors.Wrapf(err, "failed to start remote command '%s'", command)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- session.Wait() }()

	result := &Result{}
	select {
	case <-runCtx.Done():
		// Best effort: most sshd builds ignore signals, closing the session
		// tears the remote process down with it.
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-waitCh
		result.TimedOut = true
		result.ExitCode = -1
		log.Warnf("remote elevated command %q killed after %v timeout", command, s.timeout)
	case waitErr := <-waitCh:
		if waitErr != nil {
			if exitErr, ok := waitErr.(*ssh.ExitError); ok {
				result.ExitCode = exitErr.ExitStatus()
			} else {
				result.ExitCode = 1
				result.Stdout = stdout.String()
				result.Stderr = stderr.String()
				result.Duration = time.Since(start)
				return result, errors.Wrapf(waitErr, "remote command '%s' failed", command)
			}
		}
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.Truncated = stdout.Truncated() || stderr.Truncated()
	result.Duration = time.Since(start)
	return result, nil
}

// buildRemoteCommand assembles the remote invocation line. Arguments are
// single-quoted so the remote shell cannot interpret them; the credential is
// never part of this string.
func (s *sshExecutor) buildRemoteCommand(command string, args []string, withCredential bool) string {
	parts := append([]string{}, s.elevationCommand...)
	if withCredential {
		parts = append(parts, "-S", "-p", "''", "--")
	} else {
		parts = append(parts, "-n", "--")
	}
	parts = append(parts, shellQuote(command))
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, `'`, `'\''`) + "'"
}
