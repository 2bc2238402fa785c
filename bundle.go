package pocatalog

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Bundle is a group of catalogs keyed by their language.
type Bundle struct {
	locales          []language.Tag
	defaultLocaleStr string
	catalogs         []*Catalog
	catalogByLocale  map[string]*Catalog
	matcher          language.Matcher
}

var (
	ErrEmptyBundle     = errors.New("empty bundle")
	ErrCatalogConflict = errors.New("conflicting catalogs")
	ErrNoLanguage      = errors.New("catalog header declares no language")
)

// NewBundle creates a bundle of catalogs.
// Every catalog must declare a distinct Language header.
func NewBundle(defaultLocale language.Tag, catalogs ...*Catalog) (*Bundle, error) {
	if len(catalogs) < 1 {
		return nil, ErrEmptyBundle
	}
	b := &Bundle{
		locales:          make([]language.Tag, len(catalogs)),
		defaultLocaleStr: defaultLocale.String(),
		catalogs:         make([]*Catalog, len(catalogs)),
		catalogByLocale:  make(map[string]*Catalog, len(catalogs)),
	}
	for i, c := range catalogs {
		locale, err := c.Language()
		if err != nil {
			return nil, fmt.Errorf("reading language of catalog %d: %w", i, err)
		}
		if locale == language.Und {
			return nil, fmt.Errorf("%w: catalog %d", ErrNoLanguage, i)
		}
		localeStr := locale.String()
		if _, ok := b.catalogByLocale[localeStr]; ok {
			return nil, fmt.Errorf("%w for %q", ErrCatalogConflict, locale)
		}
		b.locales[i] = locale
		b.catalogByLocale[localeStr] = c
		b.catalogs[i] = c
	}
	b.matcher = language.NewMatcher(b.locales)
	return b, nil
}

// Match returns the best matching catalog for the preferred tags.
func (b *Bundle) Match(tags ...language.Tag) (*Catalog, language.Confidence) {
	_, i, c := b.matcher.Match(tags...)
	return b.catalogs[i], c
}

// ForBase returns either the catalog for language, or the default catalog
// if no catalog for language is found.
func (b *Bundle) ForBase(language language.Base) *Catalog {
	c := b.catalogByLocale[language.String()]
	if c == nil {
		c = b.catalogByLocale[b.defaultLocaleStr]
	}
	return c
}

// Default returns the catalog for the default locale,
// nil if the bundle has none.
func (b *Bundle) Default() *Catalog { return b.catalogByLocale[b.defaultLocaleStr] }

// Locales returns all locales of the bundle.
func (b *Bundle) Locales() []language.Tag { return b.locales }

// Catalogs returns all catalogs in the order they were added.
func (b *Bundle) Catalogs() []*Catalog { return b.catalogs }
