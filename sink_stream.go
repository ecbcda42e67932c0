package archive

import (
	"bufio"
	"fmt"
	"io"
)

// StreamSink writes an archive forward onto any io.Writer, buffering through
// bufio and tracking the first error that occurs. After an error, all
// subsequent writes become no-ops and the error is reported as ErrSinkFull
// at the session boundary; a partially-written stream is the caller's to
// discard.
//
// A StreamSink cannot hand back the finished buffer; validation of a
// streamed archive happens wherever the bytes land.
type StreamSink struct {
	w     *bufio.Writer
	count int64
	err   error
}

var _ Sink = (*StreamSink)(nil)

// NewStreamSink wraps w. Wrapping an existing *bufio.Writer reuses it rather
// than double-buffering.
func NewStreamSink(w io.Writer) (*StreamSink, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	if bw, ok := w.(*bufio.Writer); ok {
		return &StreamSink{w: bw}, nil
	}
	return &StreamSink{w: bufio.NewWriterSize(w, BUFFER_SIZE)}, nil
}

func (s *StreamSink) setError(err error) {
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("%w: %w", ErrSinkFull, err)
	}
}

// Err returns the latched error, if any.
func (s *StreamSink) Err() error { return s.err }

func (s *StreamSink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.count += int64(n)
	s.setError(err)
	return n, s.err
}

func (s *StreamSink) Pos() Position { return Position(s.count) }

func (s *StreamSink) Align(align int) (Position, error) {
	pad := Roundup(int(s.count), align) - int(s.count)
	if pad > 0 {
		if _, err := s.Write(zeros[:pad]); err != nil {
			return Position(s.count), err
		}
	}
	return Position(s.count), nil
}

// Flush drains the buffered bytes to the underlying writer.
func (s *StreamSink) Flush() error {
	if s.err != nil {
		return s.err
	}
	s.setError(s.w.Flush())
	return s.err
}

// Count returns the total bytes written, including padding.
func (s *StreamSink) Count() int64 { return s.count }
