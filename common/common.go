package common

import (
	"io/fs"
	"path/filepath"
)

const (
	AppName    = "elevate"
	RunDirBase = "/run/"
)

// GetRunDir returns the runtime directory holding the bridge socket.
func GetRunDir() string {
	return filepath.Join(RunDirBase, AppName) + "/"
}

// Structured log field names used across the service.
const (
	LogFieldApp       = "App"
	LogFieldComponent = "Component"
	LogFieldOperation = "Operation"
	LogFieldRequestID = "RequestID"
	LogFieldRemote    = "Remote"
)

const (
	// FileMode0755 represents rwxr-xr-x
	FileMode0755 fs.FileMode = 0755
	// FileMode0600 represents rw-------
	FileMode0600 fs.FileMode = 0600
	// FileMode0700 represents rwx------
	FileMode0700 fs.FileMode = 0700
)

// Bridge operation names. These are part of the wire contract with the
// frontend and must not be renamed.
const (
	OpFastSudo            = "fast_sudo"
	OpClearSudoCache      = "clear_sudo_cache"
	OpCheckSudoPrivileges = "check_sudo_privileges"
	OpDirectEscalation    = "direct_privilege_escalation"
)

const (
	DefaultSSHPort = 22
)
