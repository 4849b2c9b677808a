package playback

import (
	"fmt"
	"io"
)

// Sink is a progressively-appendable audio output. Chunks are appended in
// strict arrival order and never concurrently; EndOfStream finalizes playback
// once no further chunks are expected.
type Sink interface {
	Append(chunk []byte) error
	EndOfStream() error
}

// WriterSink streams chunks to an io.Writer (a file, a pipe into an external
// player, or a test buffer).
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink writing sequential chunks to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Append(chunk []byte) error {
	if _, err := s.w.Write(chunk); err != nil {
		return fmt.Errorf("sink write: %w", err)
	}
	return nil
}

func (s *WriterSink) EndOfStream() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// discardSink is the degraded no-audio sink used when real sink setup fails.
type discardSink struct{}

func (discardSink) Append([]byte) error { return nil }
func (discardSink) EndOfStream() error  { return nil }
