// Package pocatalog provides random access lookups and language bundles
// on top of the streaming gettext catalog reader.
package pocatalog

import (
	"github.com/romshark/pocatalog/gettext"
	"github.com/romshark/pocatalog/internal/cldr"
	"golang.org/x/text/language"
)

// Catalog is a lookup index over a single PO catalog.
//
// The index maps the xxhash of every record key to the record indexes
// sharing it and is built with one pass over the reader on first use.
// Lookups then seek straight to the matching records, so the catalog
// never holds more than one record in memory.
// Catalog takes over the position of the reader and isn't safe for
// concurrent use.
type Catalog struct {
	r      *gettext.Reader
	index  map[uint64][]int
	count  int
	header *gettext.Header
}

// New creates a catalog reading records from r.
func New(r *gettext.Reader) *Catalog { return &Catalog{r: r} }

func (c *Catalog) build() error {
	if c.index != nil {
		return nil
	}
	index := map[uint64][]int{}
	var header *gettext.Header
	add := func(i int, rec gettext.Record) error {
		h := rec.Hash()
		index[h] = append(index[h], i)
		if header == nil && rec.IsHeader() {
			var err error
			if header, err = gettext.HeaderFromRecord(rec); err != nil {
				return err
			}
		}
		return nil
	}

	if err := c.r.Rewind(); err != nil {
		return err
	}
	count := 0
	if rec, ok := c.r.Current(); ok {
		if err := add(0, rec); err != nil {
			return err
		}
		count = 1
		for i, rec := range c.r.Records() {
			if err := add(i, rec); err != nil {
				return err
			}
			count = i + 1
		}
		if err := c.r.Err(); err != nil {
			return err
		}
	}
	c.index, c.count, c.header = index, count, header
	return nil
}

// Lookup returns the record with the given context and msgid.
// An empty msgctxt matches records without a msgctxt keyword.
func (c *Catalog) Lookup(msgctxt, msgid string) (gettext.Record, bool, error) {
	if err := c.build(); err != nil {
		return gettext.Record{}, false, err
	}
	key := gettext.MessageKey(msgctxt, msgid, msgctxt != "")
	for _, i := range c.index[gettext.HashKey(key)] {
		if err := c.r.Seek(i); err != nil {
			return gettext.Record{}, false, err
		}
		if rec, ok := c.r.Current(); ok && rec.Key() == key {
			return rec, true, nil
		}
	}
	return gettext.Record{}, false, nil
}

// Text returns the singular translation of msgid,
// or msgid itself if it's missing or untranslated.
func (c *Catalog) Text(msgctxt, msgid string) (string, error) {
	rec, ok, err := c.Lookup(msgctxt, msgid)
	if err != nil || !ok {
		return msgid, err
	}
	if v, ok := rec.Translation(gettext.Singular); ok && v != "" {
		return v, nil
	}
	return msgid, nil
}

// Header returns the header of the catalog.
// ok is false if the catalog has no header entry.
func (c *Catalog) Header() (*gettext.Header, bool, error) {
	if err := c.build(); err != nil {
		return nil, false, err
	}
	return c.header, c.header != nil, nil
}

// Language returns the language declared in the header,
// language.Und if there is none.
func (c *Catalog) Language() (language.Tag, error) {
	h, ok, err := c.Header()
	if err != nil || !ok {
		return language.Und, err
	}
	return h.Language()
}

// PluralForms returns the Plural-Forms header. If the header doesn't
// declare one, the gettext default for the catalog language is returned.
func (c *Catalog) PluralForms() (string, bool, error) {
	h, ok, err := c.Header()
	if err != nil {
		return "", false, err
	}
	if ok {
		if v, ok := h.Get(gettext.HeaderPluralForms); ok && v != "" {
			return v, true, nil
		}
	}
	lang, err := c.Language()
	if err != nil || lang == language.Und {
		return "", false, err
	}
	base, conf := lang.Base()
	if conf == language.No {
		return "", false, nil
	}
	forms, ok := cldr.ByBase(base)
	if !ok {
		return "", false, nil
	}
	return forms.GettextPluralForms, true, nil
}

// Len returns the number of records.
func (c *Catalog) Len() (int, error) {
	if err := c.build(); err != nil {
		return 0, err
	}
	return c.count, nil
}
