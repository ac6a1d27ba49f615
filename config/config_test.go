package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleServiceConfigYAML = `
socketPath: /tmp/elevate-test.sock
credentialTTL: 2m
execTimeout: 10s
outputLimit: 65536
probeGrace: 5s
elevationCommand: ["doas"]
log:
  dir: /var/log/elevate
  level: debug
  verbose: true
remote:
  address: "192.168.1.10"
  user: "deploy"
  password: "password123"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elevate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadServiceConfig_Full(t *testing.T) {
	path := writeTempConfig(t, sampleServiceConfigYAML)

	cfg, err := LoadServiceConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/elevate-test.sock", cfg.SocketPath)
	assert.Equal(t, 2*time.Minute, cfg.CredentialTTL.Std())
	assert.Equal(t, 10*time.Second, cfg.ExecTimeout.Std())
	assert.Equal(t, int64(65536), cfg.OutputLimit)
	assert.Equal(t, 5*time.Second, cfg.ProbeGrace.Std())
	assert.Equal(t, []string{"doas"}, cfg.ElevationCommand)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Verbose)

	require.NotNil(t, cfg.Remote)
	assert.Equal(t, "192.168.1.10", cfg.Remote.Address)
	assert.Equal(t, 22, cfg.Remote.Port, "ssh port defaults to 22")
	assert.Equal(t, "deploy", cfg.Remote.User)
}

func TestLoadServiceConfig_Defaults(t *testing.T) {
	path := writeTempConfig(t, "log:\n  level: \"\"\n")

	cfg, err := LoadServiceConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultSocketPath(), cfg.SocketPath)
	assert.Equal(t, DefaultCredentialTTL, cfg.CredentialTTL)
	assert.Equal(t, DefaultExecTimeout, cfg.ExecTimeout)
	assert.Equal(t, int64(DefaultOutputLimit), cfg.OutputLimit)
	assert.Equal(t, DefaultProbeGrace, cfg.ProbeGrace)
	assert.Equal(t, []string{"sudo"}, cfg.ElevationCommand)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Nil(t, cfg.Remote)
}

func TestLoadServiceConfig_Errors(t *testing.T) {
	_, err := LoadServiceConfig("")
	assert.Error(t, err)

	_, err = LoadServiceConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeTempConfig(t, "socketPath: [not, a, string]")
	_, err = LoadServiceConfig(path)
	assert.Error(t, err)
}

func TestLoadServiceConfig_RemoteValidation(t *testing.T) {
	path := writeTempConfig(t, "remote:\n  address: \"10.0.0.1\"\n  user: \"deploy\"\n")
	_, err := LoadServiceConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")

	path = writeTempConfig(t, "remote:\n  user: \"deploy\"\n  password: \"x\"\n")
	_, err = LoadServiceConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultCredentialTTL, cfg.CredentialTTL)
	assert.NoError(t, cfg.Validate())
}
