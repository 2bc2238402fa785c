package gettext

import (
	"hash"
	"strings"
	"sync"
	"unsafe"

	"github.com/cespare/xxhash"
)

// Singular is the Translation index of a bare msgstr.
const Singular = -1

// Record is a single catalog entry.
//
// Every field holds the unescaped fragments of its value as they appear on
// the physical lines of the file. A nil slice means the keyword is absent.
type Record struct {
	// Comments are the raw comment lines including their '#' prefix.
	Comments []string

	Msgctxt     []string
	Msgid       []string
	MsgidPlural []string
	Msgstr      []Translation
}

// Translation is the value of one msgstr or msgstr[Index] keyword.
type Translation struct {
	// Index is Singular for a bare msgstr, the plural form index otherwise.
	Index int
	Lines []string
}

// NewHeaderRecord returns the record storing h,
// the entry with an empty msgid.
func NewHeaderRecord(h *Header) Record {
	return Record{
		Msgid: []string{""},
		Msgstr: []Translation{
			{Index: Singular, Lines: Fold(h.String(), 0)},
		},
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	cp := Record{
		Comments:    cloneLines(r.Comments),
		Msgctxt:     cloneLines(r.Msgctxt),
		Msgid:       cloneLines(r.Msgid),
		MsgidPlural: cloneLines(r.MsgidPlural),
	}
	if r.Msgstr != nil {
		cp.Msgstr = make([]Translation, len(r.Msgstr))
		for i, t := range r.Msgstr {
			cp.Msgstr[i] = Translation{Index: t.Index, Lines: cloneLines(t.Lines)}
		}
	}
	return cp
}

func cloneLines(l []string) []string {
	if l == nil {
		return nil
	}
	cp := make([]string, len(l))
	copy(cp, l)
	return cp
}

func (r Record) Context() string  { return Unfold(r.Msgctxt) }
func (r Record) ID() string       { return Unfold(r.Msgid) }
func (r Record) IDPlural() string { return Unfold(r.MsgidPlural) }

// IsHeader reports whether r is the catalog header entry.
func (r Record) IsHeader() bool {
	return len(r.Msgctxt) == 0 && r.Msgid != nil && r.ID() == ""
}

// Translation returns the logical value of the msgstr with the given index.
// Use Singular for a bare msgstr.
func (r Record) Translation(index int) (string, bool) {
	for _, t := range r.Msgstr {
		if t.Index == index {
			return Unfold(t.Lines), true
		}
	}
	return "", false
}

// Key returns the gettext lookup key: msgid prefixed by the
// context and an EOT separator if a context is present.
func (r Record) Key() string { return MessageKey(r.Context(), r.ID(), r.Msgctxt != nil) }

// MessageKey builds the lookup key Record.Key returns.
func MessageKey(msgctxt, msgid string, hasContext bool) string {
	if !hasContext {
		return msgid
	}
	return msgctxt + "\x04" + msgid
}

var hasherPool = sync.Pool{
	New: func() any { return xxhash.New() },
}

// Hash returns the 64-bit XXHash of Key.
func (r Record) Hash() uint64 { return HashKey(r.Key()) }

// HashKey returns the 64-bit XXHash of a lookup key.
func HashKey(key string) uint64 {
	h := hasherPool.Get().(hash.Hash64)
	defer hasherPool.Put(h)

	h.Reset()
	_, _ = h.Write(unsafeS2B(key))
	return h.Sum64()
}

// unsafeS2B unsafely converts s to []byte.
//
// WARNING: The returned byte slice shares the underlying memory with s
// and therefore breaks Go's string immutability guarantee.
// Use for temporary conversions with utmost caution!
func unsafeS2B(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// CommentBlock parses the comment lines of r.
func (r Record) CommentBlock() (*CommentBlock, error) { return ParseComments(r.Comments) }

// String returns r in PO syntax, every line terminated by a line break.
func (r Record) String() string {
	var b strings.Builder
	_ = Encoder{}.EncodeRecord(&b, r)
	return b.String()
}

// DecodeRecord decodes the first record of text.
// It returns ErrSeekBeyondEnd if text contains no record.
func DecodeRecord(text string) (Record, error) {
	r := NewReader(NewLineStream(strings.NewReader(text)), Strict(true))
	if err := r.Next(); err != nil {
		return Record{}, err
	}
	rec, ok := r.Current()
	if !ok {
		return Record{}, &SeekError{Requested: 0, MaxReachable: -1, Err: ErrSeekBeyondEnd}
	}
	return rec, nil
}
