// Package bridge carries elevation requests between the frontend adapter
// and the session controller. Communication uses newline-delimited
// JSON-encoded envelopes over a Unix domain socket; each envelope holds one
// operation and each connection may carry any number of them in sequence.
package bridge

import (
	"github.com/mensylisir/elevate/session"
)

// Request is the envelope sent from the frontend adapter to the service.
type Request struct {
	// ID correlates the response with the request; assigned by the client.
	ID string `json:"id,omitempty"`
	// Op is one of the operation names in the common package.
	Op string `json:"op"`
	// Request carries the elevation payload for fast_sudo and
	// direct_privilege_escalation; unused for the other operations.
	Request *session.ElevationRequest `json:"request,omitempty"`
}

// Response is the envelope sent back to the frontend adapter. OK covers the
// envelope level only: an elevation that failed in an orderly way still has
// OK=true with the failure described inside Response.
type Response struct {
	ID string `json:"id,omitempty"`
	OK bool   `json:"ok"`
	// Error is set when the envelope itself could not be served, e.g. an
	// unknown operation or a malformed payload.
	Error string `json:"error,omitempty"`
	// Response carries the elevation outcome for fast_sudo and
	// direct_privilege_escalation.
	Response *session.ElevationResponse `json:"response,omitempty"`
	// Granted carries the check_sudo_privileges result.
	Granted *bool `json:"granted,omitempty"`
}
