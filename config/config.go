package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceConfig is the top-level configuration structure.
type ServiceConfig struct {
	// SocketPath is where the bridge listens for frontend connections.
	SocketPath string `yaml:"socketPath,omitempty"`
	// CredentialTTL bounds how long a verified credential stays cached.
	CredentialTTL Duration `yaml:"credentialTTL,omitempty"`
	// ExecTimeout bounds each elevated invocation.
	ExecTimeout Duration `yaml:"execTimeout,omitempty"`
	// OutputLimit caps captured output per stream, in bytes.
	OutputLimit int64 `yaml:"outputLimit,omitempty"`
	// ProbeGrace is how long a positive passwordless probe may be reused.
	ProbeGrace Duration `yaml:"probeGrace,omitempty"`
	// ElevationCommand overrides the elevation wrapper, e.g. ["gosu"].
	ElevationCommand []string `yaml:"elevationCommand,omitempty"`
	Log              LogSpec  `yaml:"log,omitempty"`
	// Remote, when set, points the executor at a remote host over SSH
	// instead of the local machine.
	Remote *RemoteSpec `yaml:"remote,omitempty"`
}

// LogSpec configures the logging sink.
type LogSpec struct {
	Dir     string `yaml:"dir,omitempty"`
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// RemoteSpec describes a remote elevation target.
type RemoteSpec struct {
	Address        string `yaml:"address"`
	Port           int    `yaml:"port,omitempty"` // Default 22 if not specified
	User           string `yaml:"user"`
	Password       string `yaml:"password,omitempty"`
	PrivateKeyPath string `yaml:"privateKeyPath,omitempty"`
}

// LoadServiceConfig reads a YAML file from the given path and unmarshals it
// into a ServiceConfig with defaults applied.
func LoadServiceConfig(filePath string) (*ServiceConfig, error) {
	if filePath == "" {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}

	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from '%s': %w", filePath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", filePath, err)
	}

	SetDefaults(&cfg)
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *ServiceConfig) Validate() error {
	if c.CredentialTTL < 0 {
		return fmt.Errorf("credentialTTL cannot be negative")
	}
	if c.ExecTimeout < 0 {
		return fmt.Errorf("execTimeout cannot be negative")
	}
	if c.OutputLimit < 0 {
		return fmt.Errorf("outputLimit cannot be negative")
	}
	if c.Remote != nil {
		if c.Remote.Address == "" {
			return fmt.Errorf("remote.address is required when a remote target is configured")
		}
		if c.Remote.User == "" {
			return fmt.Errorf("remote.user is required when a remote target is configured")
		}
		if c.Remote.Password == "" && c.Remote.PrivateKeyPath == "" {
			return fmt.Errorf("remote target requires remote.password or remote.privateKeyPath")
		}
	}
	return nil
}
