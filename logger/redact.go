package logger

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// RedactedPlaceholder replaces sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

// Field keys whose values are always masked, case-insensitively.
var sensitiveFieldKeys = []string{
	"password",
	"passwd",
	"secret",
	"credential",
	"token",
}

// key=value and "key: value" occurrences inside message strings.
var sensitiveValuePattern = regexp.MustCompile(`(?i)(password|passwd|secret|credential|token)(\s*[=:]\s*)\S+`)

// RedactionHook masks credential material in log entries before any
// formatter or sink sees them. The credential store never logs the secret
// itself; this hook is the backstop for callers that log request data.
type RedactionHook struct{}

// NewRedactionHook returns a hook that masks sensitive fields and message
// fragments on every log level.
func NewRedactionHook() *RedactionHook {
	return &RedactionHook{}
}

// Levels implements logrus.Hook.
func (h *RedactionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *RedactionHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if isSensitiveKey(key) {
			entry.Data[key] = RedactedPlaceholder
		}
	}
	entry.Message = RedactText(entry.Message)
	return nil
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveFieldKeys {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// RedactText masks key=value credential fragments inside free-form text.
func RedactText(text string) string {
	if text == "" {
		return text
	}
	return sensitiveValuePattern.ReplaceAllString(text, "${1}${2}"+RedactedPlaceholder)
}
