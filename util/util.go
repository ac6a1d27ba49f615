package util

import (
	"os"
	"strings"
)

// TruncateString shortens s to maxLength runes, appending ellipsis when
// truncation occurred. If maxLength is smaller than the ellipsis itself,
// the ellipsis is truncated too.
func TruncateString(s string, maxLength int, ellipsis string) string {
	if maxLength < 0 {
		maxLength = 0
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	ellipsisRunes := []rune(ellipsis)
	if maxLength <= len(ellipsisRunes) {
		return string(ellipsisRunes[:maxLength])
	}
	return string(runes[:maxLength-len(ellipsisRunes)]) + ellipsis
}

// GetenvOrDefault returns the value of the environment variable key,
// or defaultValue if it is unset or empty.
func GetenvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// FirstNonEmpty returns the first string in strs that is not empty after
// trimming whitespace, or "" if none qualifies.
func FirstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
