package gettext

import (
	"fmt"
	"io"
	"iter"
	"strconv"
)

type Encoder struct{}

// EncodeRecord writes rec to w in PO syntax.
func (e Encoder) EncodeRecord(w io.Writer, rec Record) error {
	for _, c := range rec.Comments {
		if _, err := fmt.Fprintln(w, c); err != nil {
			return err
		}
	}
	if err := e.printDirective(w, "msgctxt", rec.Msgctxt); err != nil {
		return err
	}
	if err := e.printDirective(w, "msgid", rec.Msgid); err != nil {
		return err
	}
	if err := e.printDirective(w, "msgid_plural", rec.MsgidPlural); err != nil {
		return err
	}
	for _, t := range rec.Msgstr {
		name := "msgstr"
		if t.Index != Singular {
			name = "msgstr[" + strconv.Itoa(t.Index) + "]"
		}
		lines := t.Lines
		if len(lines) == 0 {
			// A msgstr keyword is never written without a value.
			lines = []string{""}
		}
		if err := e.printDirective(w, name, lines); err != nil {
			return err
		}
	}
	return nil
}

// EncodeCatalog writes all records to w separated by blank lines.
func (e Encoder) EncodeCatalog(w io.Writer, records iter.Seq[Record]) error {
	first := true
	for rec := range records {
		if !first {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		first = false
		if err := e.EncodeRecord(w, rec); err != nil {
			return err
		}
	}
	return nil
}

func (e Encoder) printDirective(w io.Writer, name string, lines []string) error {
	if len(lines) < 1 {
		// Nothing to write
		return nil
	}
	if len(lines) == 1 {
		if _, err := fmt.Fprintf(w, "%s %s\n", name, Quote(lines[0])); err != nil {
			return err
		}
		return nil
	}

	// Multi-line
	if _, err := fmt.Fprintf(w, "%s \"\"\n", name); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, Quote(l)); err != nil {
			return err
		}
	}
	return nil
}
