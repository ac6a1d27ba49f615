package executor

import "bytes"

// TruncationMarker is appended to captured output that hit the byte cap.
const TruncationMarker = "\n[output truncated]"

// limitWriter buffers writes up to a byte cap and discards the rest,
// remembering that truncation occurred. It keeps runaway subprocess output
// from growing memory without bound.
type limitWriter struct {
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func newLimitWriter(limit int64) *limitWriter {
	return &limitWriter{limit: limit}
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - int64(w.buf.Len())
	if remaining <= 0 {
		w.truncated = true
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

// String returns the captured output, with the truncation marker appended
// when the cap was hit.
func (w *limitWriter) String() string {
	if w.truncated {
		return w.buf.String() + TruncationMarker
	}
	return w.buf.String()
}

func (w *limitWriter) Truncated() bool {
	return w.truncated
}
