package gettext

import (
	"errors"
	"io"
	"iter"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Reader decodes records from a LineStream one at a time.
//
// A fresh Reader is positioned before the first record (Index() == -1).
// Next advances to the following record; once the stream is exhausted
// Current reports no record until the reader is repositioned with Seek
// or Rewind. The reader remembers the byte offset of every record it
// has decoded, so seeking back to a known record costs a single stream
// seek.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	stream    LineStream
	index     int
	positions []int64
	exhausted bool
	current   *Record
	err       error

	// One line of lookahead.
	line      string
	lineStart int64
	hasLine   bool
	lineEOF   bool

	strict   bool
	filename string
	log      log.FieldLogger
}

// Option configures a Reader.
type Option func(*Reader)

// Strict makes malformed lines fail decoding instead of
// being logged and skipped.
func Strict(strict bool) Option { return func(r *Reader) { r.strict = strict } }

// WithLogger sets the logger lenient decoding reports recoveries to.
func WithLogger(l log.FieldLogger) Option { return func(r *Reader) { r.log = l } }

// WithFilename sets the name reported in errors and log entries.
func WithFilename(name string) Option { return func(r *Reader) { r.filename = name } }

// NewReader creates a Reader positioned before the first record.
// The stream is expected to be at the beginning of the catalog.
func NewReader(s LineStream, opts ...Option) *Reader {
	r := &Reader{
		stream: s,
		index:  -1,
		log:    log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the last decoded record.
// ok is false before the first Next and after the end was reached.
func (r *Reader) Current() (rec Record, ok bool) {
	if r.current == nil {
		return Record{}, false
	}
	return r.current.Clone(), true
}

// Index returns the index of the current record, or of the last record
// decoded before the end was reached. -1 before the first record.
func (r *Reader) Index() int { return r.index }

// Exhausted reports whether the end of the stream has been reached.
func (r *Reader) Exhausted() bool { return r.exhausted }

// Err returns the error that stopped Records.
func (r *Reader) Err() error { return r.err }

// Next decodes the record following the current one.
// Reaching the end is not an error: Current reports no record afterwards.
// On error the reader's position is left unchanged.
func (r *Reader) Next() error {
	saved := r.save()
	start, rec, err := r.decode()
	if err != nil {
		if rerr := r.restore(saved); rerr != nil {
			return rerr
		}
		return err
	}
	if rec == nil {
		r.current = nil
		r.exhausted = true
		return nil
	}
	next := r.index + 1
	if next == len(r.positions) {
		r.positions = append(r.positions, start)
	}
	r.index = next
	r.current = rec
	return nil
}

// Seek positions the reader on the record with the given index.
//
// Known records are reached with a single stream seek. Unknown ones are
// reached by decoding forward from the last known record. If the index
// is past the last record a *SeekError wrapping ErrSeekBeyondEnd is
// returned and the reader is left where it was.
func (r *Reader) Seek(index int) error {
	if index < 0 {
		return &SeekError{Requested: index, MaxReachable: r.maxKnown(), Err: ErrInvalidSeekTarget}
	}
	if r.exhausted && index >= len(r.positions) {
		return &SeekError{Requested: index, MaxReachable: r.maxKnown(), Err: ErrSeekBeyondEnd}
	}

	saved := r.save()
	fail := func(err error) error {
		if rerr := r.restore(saved); rerr != nil {
			return rerr
		}
		return err
	}

	from := min(index, len(r.positions)-1)
	if err := r.jump(from); err != nil {
		return fail(err)
	}
	for {
		if err := r.Next(); err != nil {
			return fail(err)
		}
		if r.current == nil {
			return fail(&SeekError{Requested: index, MaxReachable: r.index, Err: ErrSeekBeyondEnd})
		}
		if r.index == index {
			return nil
		}
	}
}

// Rewind positions the reader on the first record.
// On error the reader's position is left unchanged.
func (r *Reader) Rewind() error {
	saved := r.save()
	err := r.jump(0)
	if err == nil {
		err = r.Next()
	}
	if err != nil {
		if rerr := r.restore(saved); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

// Records iterates over the records following the current one.
// Iteration stops at the end of the stream or on the first error,
// which is then returned by Err.
func (r *Reader) Records() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		r.err = nil
		for {
			if err := r.Next(); err != nil {
				r.err = err
				return
			}
			if r.current == nil {
				return
			}
			if !yield(r.index, r.current.Clone()) {
				return
			}
		}
	}
}

func (r *Reader) maxKnown() int { return len(r.positions) - 1 }

// jump moves the stream to the start of record i so that the following
// Next decodes it. i == -1 or an empty position index start at offset 0.
func (r *Reader) jump(i int) error {
	var offset int64
	if i >= 0 && i < len(r.positions) {
		offset = r.positions[i]
	} else {
		i = 0
	}
	if err := r.stream.Seek(offset); err != nil {
		return &IOError{Op: "seek", Err: err}
	}
	r.index = i - 1
	r.current = nil
	r.hasLine, r.lineEOF = false, false
	return nil
}

type readerState struct {
	index     int
	current   *Record
	line      string
	lineStart int64
	hasLine   bool
	lineEOF   bool
	offset    int64
}

func (r *Reader) save() readerState {
	return readerState{
		index:     r.index,
		current:   r.current,
		line:      r.line,
		lineStart: r.lineStart,
		hasLine:   r.hasLine,
		lineEOF:   r.lineEOF,
		offset:    r.stream.Offset(),
	}
}

func (r *Reader) restore(s readerState) error {
	if r.stream.Offset() != s.offset {
		if err := r.stream.Seek(s.offset); err != nil {
			return &IOError{Op: "seek", Err: err}
		}
	}
	r.index, r.current = s.index, s.current
	r.line, r.lineStart, r.hasLine, r.lineEOF = s.line, s.lineStart, s.hasLine, s.lineEOF
	return nil
}

// peek makes sure the lookahead line is loaded.
// ok is false at the end of the stream.
func (r *Reader) peek() (line string, ok bool, err error) {
	if !r.hasLine && !r.lineEOF {
		start := r.stream.Offset()
		l, err := r.stream.ReadLine()
		switch {
		case errors.Is(err, io.EOF):
			r.lineEOF = true
		case err != nil:
			return "", false, &IOError{Op: "read", Err: err}
		default:
			r.line, r.lineStart, r.hasLine = l, start, true
		}
	}
	return r.line, r.hasLine, nil
}

func (r *Reader) consume() { r.hasLine = false }

func (r *Reader) pos() Position { return Position{Filename: r.filename, Offset: r.lineStart} }

// skipBlank consumes blank lines.
func (r *Reader) skipBlank() error {
	for {
		l, ok, err := r.peek()
		if err != nil || !ok || !isBlank(l) {
			return err
		}
		r.consume()
	}
}

// decode reads the next record and returns the offset its first line
// starts at. rec is nil if the stream ended before a msgid was found.
func (r *Reader) decode() (start int64, rec *Record, err error) {
	for {
		if _, ok, err := r.peek(); err != nil || !ok {
			return 0, nil, err
		}
		start, rec, err = r.decodeRecord()
		if err != nil {
			return 0, nil, err
		}
		if rec != nil {
			return start, rec, nil
		}
		// No msgid: trailing comments or a dropped incomplete record.
	}
}

// decodeRecord reads a single record starting at the lookahead line.
// start is the offset of the first comment or keyword line of the record.
// It returns a nil record if no msgid was found.
func (r *Reader) decodeRecord() (start int64, _ *Record, err error) {
	var rec Record
	start = -1
	for {
		comments, first, err := r.readComments()
		if err != nil {
			return 0, nil, err
		}
		if start < 0 {
			start = first
		}
		rec.Comments = append(rec.Comments, comments...)

		l, ok, err := r.peek()
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			break
		}
		if hasKeyword(l, "msgctxt") || hasKeyword(l, "msgid") {
			if start < 0 {
				start = r.lineStart
			}
			break
		}
		if err := r.unexpected("msgctxt or msgid"); err != nil {
			return 0, nil, err
		}
	}

	if rec.Msgctxt, err = r.readBlock("msgctxt"); err != nil {
		return 0, nil, err
	}
	if rec.Msgid, err = r.readBlock("msgid"); err != nil {
		return 0, nil, err
	}
	if rec.Msgid == nil {
		if _, ok, err := r.peek(); err != nil || !ok {
			return 0, nil, err
		}
		// Something other than msgid follows msgctxt, drop what was read.
		return 0, nil, r.unexpected("msgid")
	}
	if rec.MsgidPlural, err = r.readBlock("msgid_plural"); err != nil {
		return 0, nil, err
	}

	lines, err := r.readBlock("msgstr")
	if err != nil {
		return 0, nil, err
	}
	if lines != nil {
		rec.Msgstr = []Translation{{Index: Singular, Lines: lines}}
		return start, &rec, nil
	}
	for i := 0; ; i++ {
		lines, err := r.readBlock("msgstr[" + strconv.Itoa(i) + "]")
		if err != nil {
			return 0, nil, err
		}
		if lines == nil {
			break
		}
		rec.Msgstr = append(rec.Msgstr, Translation{Index: i, Lines: lines})
	}
	return start, &rec, nil
}

// unexpected handles a line that fits no grammar rule.
// Strict readers fail, lenient ones log and skip the line.
func (r *Reader) unexpected(expected string) error {
	e := Error{Pos: r.pos(), Expected: expected, Err: ErrUnexpectedLine}
	if r.strict {
		return e
	}
	r.log.WithFields(log.Fields{
		"file":   r.filename,
		"offset": r.lineStart,
		"line":   r.line,
	}).Warnf("skipping line, expected %s", expected)
	r.consume()
	return nil
}

// readComments reads comment lines and the blank lines between them.
// first is the offset of the first comment line, -1 if there is none.
func (r *Reader) readComments() (lines []string, first int64, err error) {
	first = -1
	for {
		if err := r.skipBlank(); err != nil {
			return nil, 0, err
		}
		l, ok, err := r.peek()
		if err != nil {
			return nil, 0, err
		}
		if !ok || !strings.HasPrefix(l, "#") {
			return lines, first, nil
		}
		if first < 0 {
			first = r.lineStart
		}
		lines = append(lines, l)
		r.consume()
	}
}

// readBlock reads a keyword line and its bare quoted continuation lines.
// It returns nil if the lookahead line doesn't start with keyword.
func (r *Reader) readBlock(keyword string) ([]string, error) {
	if err := r.skipBlank(); err != nil {
		return nil, err
	}
	l, ok, err := r.peek()
	if err != nil || !ok || !hasKeyword(l, keyword) {
		return nil, err
	}
	v, err := r.unquote(l[len(keyword):])
	if err != nil {
		return nil, err
	}
	r.consume()
	lines := []string{v}

	for {
		if err := r.skipBlank(); err != nil {
			return nil, err
		}
		l, ok, err := r.peek()
		if err != nil {
			return nil, err
		}
		if !ok || !strings.HasPrefix(strings.TrimLeft(l, " \t"), `"`) {
			break
		}
		v, err := r.unquote(l)
		if err != nil {
			return nil, err
		}
		r.consume()
		lines = append(lines, v)
	}

	if len(lines) > 1 && lines[0] == "" {
		// Drop the empty placeholder opening a multi-line value.
		lines = lines[1:]
	}
	return lines, nil
}

// unquote returns the unescaped content of a quoted value.
// Lenient readers strip whatever quotes are present and log
// values that aren't properly framed.
func (r *Reader) unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && !escapedAt(s, len(s)-1) {
		return Unescape(s[1 : len(s)-1]), nil
	}
	if r.strict {
		return "", Error{Pos: r.pos(), Expected: "quoted string", Err: ErrMalformedQuotedLine}
	}
	r.log.WithFields(log.Fields{
		"file":   r.filename,
		"offset": r.lineStart,
		"line":   r.line,
	}).Warn(ErrMalformedQuotedLine.Error())
	s = strings.TrimPrefix(s, `"`)
	if !escapedAt(s, len(s)-1) {
		s = strings.TrimSuffix(s, `"`)
	}
	return Unescape(s), nil
}

// escapedAt reports whether the byte at i is preceded
// by an odd number of backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// hasKeyword reports whether line starts with keyword
// followed by whitespace or an opening quote.
func hasKeyword(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) || len(line) == len(keyword) {
		return false
	}
	switch line[len(keyword)] {
	case ' ', '\t', '"':
		return true
	}
	return false
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
