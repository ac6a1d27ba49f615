package config

import (
	"path/filepath"
	"time"

	"github.com/mensylisir/elevate/common"
	"github.com/mensylisir/elevate/util"
)

// Conservative policy defaults. Deployments that want longer credential
// retention can raise the TTL per config file.
const (
	DefaultCredentialTTL = Duration(5 * time.Minute)
	DefaultExecTimeout   = Duration(30 * time.Second)
	DefaultOutputLimit   = 1 << 20 // 1 MiB per stream
	DefaultProbeGrace    = Duration(10 * time.Second)
	DefaultLogLevel      = "info"
)

// DefaultSocketPath returns the default bridge socket location. It
// prefers the user runtime directory so unprivileged daemons work out
// of the box.
func DefaultSocketPath() string {
	base := util.GetenvOrDefault("XDG_RUNTIME_DIR", common.GetRunDir())
	return filepath.Join(base, common.AppName+".sock")
}

// SetDefaults fills unset fields with the shipped defaults.
func SetDefaults(cfg *ServiceConfig) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath()
	}
	if cfg.CredentialTTL == 0 {
		cfg.CredentialTTL = DefaultCredentialTTL
	}
	if cfg.ExecTimeout == 0 {
		cfg.ExecTimeout = DefaultExecTimeout
	}
	if cfg.OutputLimit == 0 {
		cfg.OutputLimit = DefaultOutputLimit
	}
	if cfg.ProbeGrace == 0 {
		cfg.ProbeGrace = DefaultProbeGrace
	}
	if len(cfg.ElevationCommand) == 0 {
		cfg.ElevationCommand = []string{"sudo"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Remote != nil && cfg.Remote.Port == 0 {
		cfg.Remote.Port = common.DefaultSSHPort
	}
}

// Default returns a fully defaulted configuration without reading a file.
func Default() *ServiceConfig {
	cfg := &ServiceConfig{}
	SetDefaults(cfg)
	return cfg
}
