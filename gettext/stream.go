package gettext

import (
	"bufio"
	"errors"
	"io"
)

// LineStream is the seekable line source a Reader consumes.
// The reader borrows the stream and never closes it.
type LineStream interface {
	// ReadLine returns the next line without its trailing "\n" or "\r\n".
	// It returns io.EOF once no bytes are left.
	ReadLine() (line string, err error)

	// Seek moves the stream to the absolute byte offset.
	Seek(offset int64) error

	// Offset returns the offset of the next unread byte.
	Offset() int64
}

// SeekableLines implements LineStream on top of an io.ReadSeeker.
type SeekableLines struct {
	rs     io.ReadSeeker
	reader *bufio.Reader
	offset int64
	err    error
}

var _ LineStream = new(SeekableLines)

// NewLineStream creates a LineStream reading from the current
// position of rs. rs is never closed.
func NewLineStream(rs io.ReadSeeker) *SeekableLines {
	offset, err := rs.Seek(0, io.SeekCurrent)
	return &SeekableLines{
		rs:     rs,
		reader: bufio.NewReader(rs),
		offset: offset,
		err:    err,
	}
}

func (s *SeekableLines) ReadLine() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := s.reader.ReadBytes('\n')
	s.offset += int64(len(b))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if len(b) == 0 {
		return "", io.EOF
	}
	b = trimEOL(b)
	return string(b), nil
}

func (s *SeekableLines) Seek(offset int64) error {
	if _, err := s.rs.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	s.reader.Reset(s.rs)
	s.offset = offset
	s.err = nil
	return nil
}

func (s *SeekableLines) Offset() int64 { return s.offset }

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}
