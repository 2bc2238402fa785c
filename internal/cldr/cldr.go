// Package cldr provides plural form data for the catalog languages
// combining CLDR cardinal categories with gettext Plural-Forms formulas.
package cldr

import (
	"strconv"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/ar"
	"github.com/go-playground/locales/cs"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/hu"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/pl"
	"github.com/go-playground/locales/ru"
	"github.com/go-playground/locales/uk"
	"golang.org/x/text/language"
)

type CLDRPluralForm uint8

const (
	_ CLDRPluralForm = iota

	CLDRPluralFormZero
	CLDRPluralFormOne
	CLDRPluralFormTwo
	CLDRPluralFormFew
	CLDRPluralFormMany
	CLDRPluralFormOther
)

func (f CLDRPluralForm) String() string {
	switch f {
	case CLDRPluralFormZero:
		return "Zero"
	case CLDRPluralFormOne:
		return "One"
	case CLDRPluralFormTwo:
		return "Two"
	case CLDRPluralFormFew:
		return "Few"
	case CLDRPluralFormMany:
		return "Many"
	case CLDRPluralFormOther:
		return "Other"
	}
	return ""
}

// CLDRForms marks the categories a language uses.
type CLDRForms struct{ Zero, One, Two, Few, Many, Other bool }

type PluralForms struct {
	// Cardinal and CardinalForms are the CLDR cardinal categories.
	Cardinal      CLDRForms
	CardinalForms []CLDRPluralForm

	// GettextFormula is the C expression selecting the msgstr index.
	GettextFormula string

	// GettextPluralForms is the value of the Plural-Forms header.
	GettextPluralForms string
}

type gettextRule struct {
	translator func() locales.Translator
	nplurals   int
	formula    string
}

const (
	formulaGermanic   = "n != 1"
	formulaEastSlavic = "(n % 10 == 1 && n % 100 != 11) ? 0 : " +
		"((n % 10 >= 2 && n % 10 <= 4 && (n % 100 < 12 || n % 100 > 14)) ? 1 : 2)"
)

var rules = map[string]gettextRule{
	"en": {en.New, 2, formulaGermanic},
	"de": {de.New, 2, formulaGermanic},
	"hu": {hu.New, 2, formulaGermanic},
	"ja": {ja.New, 1, "0"},
	"ru": {ru.New, 3, formulaEastSlavic},
	"uk": {uk.New, 3, formulaEastSlavic},
	"pl": {pl.New, 3, "(n == 1) ? 0 : ((n % 10 >= 2 && n % 10 <= 4 && " +
		"(n % 100 < 12 || n % 100 > 14)) ? 1 : 2)"},
	"cs": {cs.New, 3, "(n == 1) ? 0 : ((n >= 2 && n <= 4) ? 1 : 2)"},
	"ar": {ar.New, 6, "(n == 0) ? 0 : ((n == 1) ? 1 : ((n == 2) ? 2 : " +
		"((n % 100 >= 3 && n % 100 <= 10) ? 3 : ((n % 100 >= 11) ? 4 : 5))))"},
}

// ByTag returns the plural forms of the exact tag.
// Regional tags like en-US aren't matched, use ByBase for those.
func ByTag(tag language.Tag) (PluralForms, bool) {
	r, ok := rules[tag.String()]
	if !ok {
		return PluralForms{}, false
	}
	return r.pluralForms(), true
}

// ByBase returns the plural forms of the base language.
func ByBase(base language.Base) (PluralForms, bool) {
	return ByTag(language.Make(base.String()))
}

func (r gettextRule) pluralForms() PluralForms {
	var p PluralForms
	for _, c := range r.translator().PluralsCardinal() {
		var f CLDRPluralForm
		switch c {
		case locales.PluralRuleZero:
			f, p.Cardinal.Zero = CLDRPluralFormZero, true
		case locales.PluralRuleOne:
			f, p.Cardinal.One = CLDRPluralFormOne, true
		case locales.PluralRuleTwo:
			f, p.Cardinal.Two = CLDRPluralFormTwo, true
		case locales.PluralRuleFew:
			f, p.Cardinal.Few = CLDRPluralFormFew, true
		case locales.PluralRuleMany:
			f, p.Cardinal.Many = CLDRPluralFormMany, true
		case locales.PluralRuleOther:
			f, p.Cardinal.Other = CLDRPluralFormOther, true
		default:
			continue
		}
		p.CardinalForms = append(p.CardinalForms, f)
	}
	p.GettextFormula = r.formula
	p.GettextPluralForms = "nplurals=" + strconv.Itoa(r.nplurals) + "; plural=" + r.formula
	return p
}
