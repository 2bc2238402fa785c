// Package gettext provides a streaming, seekable GNU gettext `.po` and `.pot`
// reader together with the record, comment and string folding primitives
// needed to write catalogs back.
//
// The Reader never loads a whole catalog into memory. It keeps a byte offset
// per record it has seen, so previously visited records can be revisited with
// a single seek, and its state can be exported as a Cursor to resume later.
package gettext

import (
	"errors"
	"fmt"
)

type Position struct {
	Filename string
	Offset   int64
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("offset %d", p.Offset)
	}
	return fmt.Sprintf("%s: offset %d", p.Filename, p.Offset)
}

type Error struct {
	Pos      Position
	Expected string
	Err      error
}

func (e Error) Error() string {
	err := e.Err
	if err == nil {
		err = ErrUnexpectedLine
	}
	if e.Expected == "" {
		return fmt.Sprintf("%s: %s", e.Pos, err.Error())
	}
	return fmt.Sprintf("%s: expected %s; %s", e.Pos, e.Expected, err.Error())
}

func (e Error) Unwrap() error {
	if e.Err == nil {
		return ErrUnexpectedLine
	}
	return e.Err
}

// SeekError is returned by Reader.Seek.
type SeekError struct {
	Requested int

	// MaxReachable is the highest record index known to exist,
	// -1 if the catalog holds no records.
	MaxReachable int

	Err error
}

func (e *SeekError) Error() string {
	if errors.Is(e.Err, ErrInvalidSeekTarget) {
		return fmt.Sprintf("%s; requested index: %d", e.Err.Error(), e.Requested)
	}
	return fmt.Sprintf("%s; maximum index: %d; requested index: %d",
		e.Err.Error(), e.MaxReachable, e.Requested)
}

func (e *SeekError) Unwrap() error { return e.Err }

// IOError wraps a failure of the underlying stream.
// It matches both ErrIO and the original error.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %s: %v", ErrIO, e.Op, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

var (
	ErrInvalidSeekTarget   = errors.New("seek index must not be negative")
	ErrSeekBeyondEnd       = errors.New("seek index beyond the last record")
	ErrMalformedQuotedLine = errors.New("malformed quoted line")
	ErrUnexpectedLine      = errors.New("found unexpected line")
	ErrInvalidCursor       = errors.New("invalid cursor")
	ErrNotHeader           = errors.New("record is not a header, msgid must be empty")
	ErrIO                  = errors.New("i/o failure")
)
