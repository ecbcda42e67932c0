package archive

import "io"

// Sink is the write-forward byte output of a serializer session. It is
// append-only: there is no seek and no rewrite, so bytes already emitted —
// and the positions handed out for them — never move. This is what lets
// producers stream an archive to disk or a network without buffering it
// whole, and what makes "targets lie strictly earlier" a stable property.
type Sink interface {
	io.Writer

	// Pos returns the cursor: the number of bytes written so far. It is
	// monotonic.
	Pos() Position

	// Align writes zero bytes until the cursor is a multiple of align and
	// returns the resulting cursor. align must be a power of two.
	Align(align int) (Position, error)
}

// BufferSink accumulates the archive in an in-memory AlignedBuffer. It is
// the sink behind ToBytes.
type BufferSink struct {
	buf *AlignedBuffer
}

var _ Sink = (*BufferSink)(nil)

// NewBufferSink creates a buffer sink with a fresh aligned buffer.
func NewBufferSink() *BufferSink {
	return &BufferSink{buf: NewAlignedBuffer(BUFFER_SIZE)}
}

func (s *BufferSink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *BufferSink) Pos() Position { return s.buf.Len() }

func (s *BufferSink) Align(align int) (Position, error) {
	pad := Roundup(s.buf.Len(), align) - s.buf.Len()
	if pad > 0 {
		s.buf.Write(zeros[:pad])
	}
	return s.buf.Len(), nil
}

// Bytes returns the aligned view of the archive written so far.
func (s *BufferSink) Bytes() []byte { return s.buf.Bytes() }

// Reset empties the sink for reuse, retaining storage.
func (s *BufferSink) Reset() { s.buf.Reset() }
