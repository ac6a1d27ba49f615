package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newCapturedLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.AddHook(NewRedactionHook())
	return l, buf
}

func TestRedactionHookMasksSensitiveFields(t *testing.T) {
	l, buf := newCapturedLogger()

	l.WithField("password", "hunter2").Info("authenticating")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, RedactedPlaceholder)
}

func TestRedactionHookMasksKeyVariants(t *testing.T) {
	l, buf := newCapturedLogger()

	l.WithField("UserPassword", "s3cr3t").
		WithField("apiToken", "tok-123").
		WithField("host", "db01").
		Info("connecting")

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t")
	assert.NotContains(t, out, "tok-123")
	assert.Contains(t, out, "db01")
}

func TestRedactionHookMasksMessageFragments(t *testing.T) {
	l, buf := newCapturedLogger()

	l.Infof("retrying with password=%s after failure", "opensesame")

	out := buf.String()
	assert.NotContains(t, out, "opensesame")
	assert.True(t, strings.Contains(out, "password="+RedactedPlaceholder), "expected masked fragment in %q", out)
}

func TestRedactText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain message", "plain message"},
		{"secret=abc", "secret=" + RedactedPlaceholder},
		{"Token: xyz", "Token: " + RedactedPlaceholder},
		{"passwd = qwerty rest", "passwd = " + RedactedPlaceholder + " rest"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RedactText(tc.in), "input %q", tc.in)
	}
}
