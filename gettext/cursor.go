package gettext

import (
	"fmt"
)

// Cursor is the serializable position state of a Reader.
type Cursor struct {
	// Index is the index of the current record, -1 before the first one.
	Index int `json:"index" yaml:"index"`

	// Positions maps record indexes to the byte offset
	// the record starts at.
	Positions map[int]int64 `json:"positions" yaml:"positions"`

	// Exhausted is true once the end of the stream has been reached.
	Exhausted bool `json:"exhausted" yaml:"exhausted"`
}

// Cursor returns the current state of r.
func (r *Reader) Cursor() Cursor {
	c := Cursor{
		Index:     r.index,
		Positions: make(map[int]int64, len(r.positions)),
		Exhausted: r.exhausted,
	}
	for i, p := range r.positions {
		c.Positions[i] = p
	}
	return c
}

// Validate checks c for internal consistency.
func (c Cursor) Validate() error {
	if c.Index < -1 {
		return fmt.Errorf("%w: index %d is less than -1", ErrInvalidCursor, c.Index)
	}
	if c.Index >= len(c.Positions) {
		return fmt.Errorf("%w: index %d has no known position", ErrInvalidCursor, c.Index)
	}
	prev := int64(-1)
	for i := range len(c.Positions) {
		p, ok := c.Positions[i]
		if !ok {
			return fmt.Errorf("%w: positions are not contiguous, missing index %d",
				ErrInvalidCursor, i)
		}
		if p <= prev {
			return fmt.Errorf("%w: position %d of index %d is not after %d",
				ErrInvalidCursor, p, i, prev)
		}
		prev = p
	}
	return nil
}

// NewReaderFromCursor creates a Reader resuming from c on s.
// s must hold the same content the cursor was taken from.
// If c points to a record it is decoded again and becomes Current.
func NewReaderFromCursor(s LineStream, c Cursor, opts ...Option) (*Reader, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r := NewReader(s, opts...)
	r.exhausted = c.Exhausted
	r.positions = make([]int64, len(c.Positions))
	for i := range r.positions {
		r.positions[i] = c.Positions[i]
	}
	if c.Index < 0 {
		if err := r.jump(-1); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := r.Seek(c.Index); err != nil {
		return nil, err
	}
	return r, nil
}
