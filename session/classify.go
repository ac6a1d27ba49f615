package session

import "strings"

// Stderr signatures that mean the elevation mechanism wanted a credential
// it did not get, or rejected the one it got. Matching is the session
// controller's job; the executor only reports exit status and streams.
var authFailureSignatures = []string{
	"sorry, try again",
	"incorrect password",
	"a password is required",
	"no password entry",
	"a terminal is required",
	"authentication failure",
}

// isAuthFailure reports whether stderr carries an authentication failure
// signature rather than an ordinary command failure.
func isAuthFailure(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, signature := range authFailureSignatures {
		if strings.Contains(lower, signature) {
			return true
		}
	}
	return false
}
