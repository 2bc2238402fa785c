package gettext

import (
	"iter"
	"strings"

	"golang.org/x/text/language"
)

// Well-known header keys.
//
// See https://www.gnu.org/software/gettext/manual/gettext.html#Header-Entry
const (
	HeaderProjectIdVersion        = "Project-Id-Version"
	HeaderReportMsgidBugsTo       = "Report-Msgid-Bugs-To"
	HeaderPOTCreationDate         = "POT-Creation-Date"
	HeaderPORevisionDate          = "PO-Revision-Date"
	HeaderLastTranslator          = "Last-Translator"
	HeaderLanguageTeam            = "Language-Team"
	HeaderLanguage                = "Language"
	HeaderContentType             = "Content-Type"
	HeaderContentTransferEncoding = "Content-Transfer-Encoding"
	HeaderMIMEVersion             = "MIME-Version"
	HeaderPluralForms             = "Plural-Forms"
)

// Header is the key/value metadata stored in the msgstr of the
// entry with an empty msgid. Keys are case-insensitive and keep
// the spelling and order they were first set with.
type Header struct {
	keys   []string
	values map[string]string
}

type XHeader struct{ Name, Value string }

// ParseHeader parses "Key: Value" lines. Blank lines are ignored
// and a line without ": " is a key with an empty value.
func ParseHeader(s string) *Header {
	h := new(Header)
	for l := range strings.SplitSeq(s, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		key, value, _ := strings.Cut(l, ": ")
		h.Set(key, value)
	}
	return h
}

// HeaderFromRecord parses the header stored in rec.
func HeaderFromRecord(rec Record) (*Header, error) {
	if !rec.IsHeader() {
		return nil, ErrNotHeader
	}
	v, _ := rec.Translation(Singular)
	return ParseHeader(v), nil
}

// Set sets key to value, keeping the position of an existing key.
func (h *Header) Set(key, value string) {
	if h.values == nil {
		h.values = map[string]string{}
	}
	k := strings.ToLower(key)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[k] = value
}

func (h *Header) Get(key string) (string, bool) {
	v, ok := h.values[strings.ToLower(key)]
	return v, ok
}

func (h *Header) Delete(key string) {
	k := strings.ToLower(key)
	if _, ok := h.values[k]; !ok {
		return
	}
	delete(h.values, k)
	for i, o := range h.keys {
		if strings.ToLower(o) == k {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

func (h *Header) Len() int { return len(h.keys) }

// All iterates over keys and values in order.
func (h *Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range h.keys {
			if !yield(k, h.values[strings.ToLower(k)]) {
				return
			}
		}
	}
}

// NonStandard returns the entries that aren't well-known keys.
func (h *Header) NonStandard() []XHeader {
	var l []XHeader
	for k, v := range h.All() {
		if !isWellKnownHeader(k) {
			l = append(l, XHeader{Name: k, Value: v})
		}
	}
	return l
}

func isWellKnownHeader(key string) bool {
	switch strings.ToLower(key) {
	case strings.ToLower(HeaderProjectIdVersion),
		strings.ToLower(HeaderReportMsgidBugsTo),
		strings.ToLower(HeaderPOTCreationDate),
		strings.ToLower(HeaderPORevisionDate),
		strings.ToLower(HeaderLastTranslator),
		strings.ToLower(HeaderLanguageTeam),
		strings.ToLower(HeaderLanguage),
		strings.ToLower(HeaderContentType),
		strings.ToLower(HeaderContentTransferEncoding),
		strings.ToLower(HeaderMIMEVersion),
		strings.ToLower(HeaderPluralForms):
		return true
	}
	return false
}

// String returns one "Key: Value" line per entry.
func (h *Header) String() string {
	var b strings.Builder
	for k, v := range h.All() {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return b.String()
}

// Language parses the Language header as BCP 47,
// accepting gettext style underscores like "pt_BR".
func (h *Header) Language() (language.Tag, error) {
	v, _ := h.Get(HeaderLanguage)
	v = strings.TrimSpace(v)
	if v == "" {
		return language.Und, nil
	}
	// Drop a gettext "@modifier" and encoding suffix.
	if i := strings.IndexAny(v, ".@"); i != -1 {
		v = v[:i]
	}
	return language.Parse(strings.ReplaceAll(v, "_", "-"))
}
