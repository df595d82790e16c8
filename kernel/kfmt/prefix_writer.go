package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter wraps another io.Writer and injects Prefix at the start of
// every line. Drivers receive one during init so their log lines carry the
// driver name.
type PrefixWriter struct {
	// A writer where all writes get sent to.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	// midLine is set when the last write did not end with a line feed.
	midLine bool
}

// Write writes p to the sink, injecting the prefix at each line start. The
// injected prefix is not included in the returned byte count.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			doWrite(w.Sink, w.Prefix)
			w.midLine = true
		}

		line := p
		if idx := bytes.IndexByte(p, '\n'); idx != -1 {
			line = p[:idx+1]
		}

		n, err := w.Sink.Write(line)
		written += n
		if err != nil {
			return written, err
		}

		if line[len(line)-1] == '\n' {
			w.midLine = false
		}
		p = p[len(line):]
	}

	return written, nil
}

// Reset makes the next write start with a fresh prefix.
func (w *PrefixWriter) Reset() {
	w.midLine = false
}
