package gettext

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

type CommentKind uint8

const (
	_ CommentKind = iota

	CommentKindTranslator // #  translator-comments
	CommentKindFlag       // #, flag...
	CommentKindExtracted  // #. extracted-comments
	CommentKindReference  // #: reference...
	CommentKindPrevious   // #| msgid previous-untranslated-string
)

func (k CommentKind) String() string {
	switch k {
	case CommentKindTranslator:
		return "translator"
	case CommentKindFlag:
		return "flag"
	case CommentKindExtracted:
		return "extracted"
	case CommentKindReference:
		return "reference"
	case CommentKindPrevious:
		return "previous"
	}
	return "unknown"
}

// Comment is one of TranslatorComment, FlagComment, ExtractedComment,
// ReferenceComment or PreviousComment.
type Comment interface {
	Kind() CommentKind
}

type TranslatorComment struct{ Text string }

type FlagComment struct{ Name, Text string }

type ExtractedComment struct{ Text string }

type ReferenceComment struct{ Targets []string }

// PreviousComment holds the previous msgctxt/msgid of a fuzzy entry.
type PreviousComment struct{ Record Record }

func (TranslatorComment) Kind() CommentKind { return CommentKindTranslator }
func (FlagComment) Kind() CommentKind       { return CommentKindFlag }
func (ExtractedComment) Kind() CommentKind  { return CommentKindExtracted }
func (ReferenceComment) Kind() CommentKind  { return CommentKindReference }
func (PreviousComment) Kind() CommentKind   { return CommentKindPrevious }

// CommentBlock is the ordered set of comments preceding a record.
//
// Entries are addressed by ids of the form "{kind}:{ordinal}", or
// "flag:{name}" for flags, and rendered in insertion order.
// Weights are stored for the caller but never affect the order.
type CommentBlock struct {
	order    []string
	items    map[string]commentItem
	counters map[CommentKind]int
	lastID   string
}

type commentItem struct {
	weight  int
	comment Comment
}

type setOptions struct {
	weight int
	id     string
}

// SetOption configures a CommentBlock setter.
type SetOption func(*setOptions)

// Weight stores an informational weight with the entry.
func Weight(w int) SetOption { return func(o *setOptions) { o.weight = w } }

// ID sets or replaces the entry with the given id instead of
// generating a new one. It is ignored by SetFlag.
func ID(id string) SetOption { return func(o *setOptions) { o.id = id } }

func NewCommentBlock() *CommentBlock {
	return &CommentBlock{
		items:    map[string]commentItem{},
		counters: map[CommentKind]int{},
	}
}

// LastID returns the id assigned by the last setter.
func (b *CommentBlock) LastID() string { return b.lastID }

func (b *CommentBlock) SetTranslator(text string, opts ...SetOption) string {
	return b.setCounted(TranslatorComment{Text: text}, opts)
}

func (b *CommentBlock) SetExtracted(text string, opts ...SetOption) string {
	return b.setCounted(ExtractedComment{Text: text}, opts)
}

func (b *CommentBlock) SetReference(targets []string, opts ...SetOption) string {
	return b.setCounted(ReferenceComment{Targets: cloneLines(targets)}, opts)
}

func (b *CommentBlock) SetPrevious(rec Record, opts ...SetOption) string {
	return b.setCounted(PreviousComment{Record: rec.Clone()}, opts)
}

// SetFlag sets the flag name. Setting the same name again
// replaces the entry in place.
func (b *CommentBlock) SetFlag(name, text string, opts ...SetOption) string {
	o := applySetOptions(opts)
	id := CommentKindFlag.String() + ":" + name
	b.lastID = id
	b.put(id, commentItem{weight: o.weight, comment: FlagComment{Name: name, Text: text}})
	return id
}

func (b *CommentBlock) setCounted(c Comment, opts []SetOption) string {
	o := applySetOptions(opts)
	id := o.id
	if id == "" {
		kind := c.Kind()
		id = kind.String() + ":" + strconv.Itoa(b.counters[kind])
		b.counters[kind]++
	}
	b.lastID = id
	b.put(id, commentItem{weight: o.weight, comment: c})
	return id
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (b *CommentBlock) put(id string, item commentItem) {
	if b.items == nil {
		b.items = map[string]commentItem{}
		b.counters = map[CommentKind]int{}
	}
	if _, ok := b.items[id]; !ok {
		b.order = append(b.order, id)
	}
	b.items[id] = item
}

// Delete removes the entry with the given id if present.
func (b *CommentBlock) Delete(id string) {
	if _, ok := b.items[id]; !ok {
		return
	}
	delete(b.items, id)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Get returns the comment and weight stored under id.
func (b *CommentBlock) Get(id string) (c Comment, weight int, ok bool) {
	item, ok := b.items[id]
	return item.comment, item.weight, ok
}

func (b *CommentBlock) Len() int { return len(b.order) }

// All iterates over ids and comments in insertion order.
func (b *CommentBlock) All() iter.Seq2[string, Comment] {
	return func(yield func(string, Comment) bool) {
		for _, id := range b.order {
			if !yield(id, b.items[id].comment) {
				return
			}
		}
	}
}

// Render returns the comment lines, each terminated by a line break.
func (b *CommentBlock) Render() string {
	var s strings.Builder
	for _, l := range b.Lines() {
		s.WriteString(l)
		s.WriteByte('\n')
	}
	return s.String()
}

// Lines returns the rendered comment lines without line breaks.
func (b *CommentBlock) Lines() []string {
	var lines []string
	add := func(prefix, text string) {
		for l := range strings.SplitSeq(text, "\n") {
			lines = append(lines, strings.TrimRight(prefix+l, " \t\r"))
		}
	}
	for _, id := range b.order {
		switch c := b.items[id].comment.(type) {
		case TranslatorComment:
			add("#  ", c.Text)
		case FlagComment:
			if c.Text == "" {
				add("#, ", c.Name)
			} else {
				add("#, ", c.Name+" "+c.Text)
			}
		case ExtractedComment:
			add("#. ", c.Text)
		case ReferenceComment:
			add("#: ", strings.Join(c.Targets, " "))
		case PreviousComment:
			add("#| ", strings.TrimRight(c.Record.String(), "\n"))
		default:
			panic(fmt.Errorf("unsupported comment type: %T", c)) // Should never happen.
		}
	}
	return lines
}

// ParseComments parses raw comment lines into a CommentBlock.
//
// Flag lines are split at commas. Consecutive extracted lines form one entry
// and consecutive previous lines are decoded as one record. Any other line
// starting with '#', obsolete entries included, is a translator comment.
//
// Parsing is lossy for translator lines: all spaces following '#' are
// dropped and rendering adds the canonical "#  " prefix, so "#~ msgid"
// renders as "#  ~ msgid". Record.Comments keeps the raw lines.
func ParseComments(lines []string) (*CommentBlock, error) {
	b := NewCommentBlock()
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch {
		case strings.HasPrefix(l, "#,"):
			for f := range strings.SplitSeq(l[2:], ",") {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				name, text, _ := strings.Cut(f, " ")
				b.SetFlag(name, strings.TrimSpace(text))
			}
		case strings.HasPrefix(l, "#."):
			text := []string{commentText(l[2:])}
			for i+1 < len(lines) && strings.HasPrefix(lines[i+1], "#.") {
				i++
				text = append(text, commentText(lines[i][2:]))
			}
			b.SetExtracted(strings.Join(text, "\n"))
		case strings.HasPrefix(l, "#:"):
			b.SetReference(strings.Fields(l[2:]))
		case strings.HasPrefix(l, "#|"):
			var text strings.Builder
			text.WriteString(commentText(l[2:]))
			text.WriteByte('\n')
			for i+1 < len(lines) && strings.HasPrefix(lines[i+1], "#|") {
				i++
				text.WriteString(commentText(lines[i][2:]))
				text.WriteByte('\n')
			}
			rec, err := DecodeRecord(text.String())
			if err != nil {
				return nil, fmt.Errorf("decoding previous record: %w", err)
			}
			b.SetPrevious(rec)
		case strings.HasPrefix(l, "#"):
			b.SetTranslator(strings.TrimLeft(l[1:], " "))
		default:
			return nil, Error{Expected: "comment", Err: ErrUnexpectedLine}
		}
	}
	return b, nil
}

// commentText strips the single space separating a comment marker
// from its text.
func commentText(s string) string { return strings.TrimPrefix(s, " ") }
