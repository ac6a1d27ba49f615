package session

// ElevationRequest is the payload of a fast_sudo call. Field names are part
// of the wire contract with the frontend and must not change.
type ElevationRequest struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Password string   `json:"password,omitempty"`
}

// ElevationResponse is the structured outcome of an elevation attempt.
// Invariants: Success=true implies NeedsPassword=false; NeedsPassword=true
// implies Success=false; Cached=true means the credential came from the
// cache rather than the request. The credential value itself never appears
// in any field.
type ElevationResponse struct {
	Success       bool   `json:"success"`
	Output        string `json:"output"`
	Error         string `json:"error,omitempty"`
	Cached        bool   `json:"cached"`
	NeedsPassword bool   `json:"needs_password"`
}

// State names the controller's per-request state machine.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateExecuting
	StateAwaitingPassword
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProbing:
		return "Probing"
	case StateExecuting:
		return "Executing"
	case StateAwaitingPassword:
		return "AwaitingPassword"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
