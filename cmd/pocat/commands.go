package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/romshark/pocatalog"
	"github.com/romshark/pocatalog/gettext"
	"github.com/romshark/pocatalog/internal/checkpoint"
	"github.com/romshark/pocatalog/strfmt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type listCommand struct {
	*app
	cmd *cobra.Command
}

func (v *listCommand) Command() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "list <file>",
		Short: "Print the index and msgid of every record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return v.Execute(args)
		},
	}
	return v.cmd
}

func (v *listCommand) Execute(args []string) error {
	r, f, err := v.openReader(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	for i, rec := range r.Records() {
		if _, err := fmt.Fprintf(v.stdout, "%d\t%s\n", i, label(rec)); err != nil {
			return err
		}
	}
	return r.Err()
}

// label returns a single line description of rec.
func label(rec gettext.Record) string {
	id := gettext.Escape(rec.ID())
	if rec.Msgctxt != nil {
		return gettext.Escape(rec.Context()) + " | " + id
	}
	return id
}

type showCommand struct {
	*app
	cmd *cobra.Command
	O   struct {
		Comments bool
	}
}

func (v *showCommand) Command() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "show <file> <index>...",
		Short: "Print the records with the given indexes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return v.Execute(args)
		},
	}
	v.cmd.Flags().BoolVar(&v.O.Comments, "comments", false,
		"print the parsed comments of each record")
	return v.cmd
}

func (v *showCommand) Execute(args []string) error {
	indexes := make([]int, len(args)-1)
	for i, a := range args[1:] {
		n, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidIndex, a)
		}
		indexes[i] = n
	}

	r, f, err := v.openReader(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	for i, index := range indexes {
		if err := r.Seek(index); err != nil {
			return err
		}
		rec, _ := r.Current()
		if i > 0 {
			if _, err := fmt.Fprintln(v.stdout); err != nil {
				return err
			}
		}
		if v.O.Comments {
			if err := printComments(v.stdout, rec); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(v.stdout, rec.String()); err != nil {
			return err
		}
	}
	return nil
}

func printComments(w io.Writer, rec gettext.Record) error {
	b, err := rec.CommentBlock()
	if err != nil {
		return err
	}
	for id, c := range b.All() {
		var text string
		switch c := c.(type) {
		case gettext.TranslatorComment:
			text = c.Text
		case gettext.FlagComment:
			text = strings.TrimSpace(c.Name + " " + c.Text)
		case gettext.ExtractedComment:
			text = c.Text
		case gettext.ReferenceComment:
			text = strings.Join(c.Targets, " ")
		case gettext.PreviousComment:
			text = label(c.Record)
		}
		if _, err := fmt.Fprintf(w, "; %s: %s\n", id, gettext.Escape(text)); err != nil {
			return err
		}
	}
	return nil
}

type nextCommand struct {
	*app
	cmd *cobra.Command
	O   struct {
		Count      int
		Reset      bool
		CursorJSON string
		CursorPath string
	}
}

func (v *nextCommand) Command() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "next <file>",
		Short: "Print the records following the last ones printed",
		Long: `Print the records following the ones printed by the previous
invocation. The position in each file is kept in the state file
(--state) and discarded when the file changes size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return v.Execute(args)
		},
	}
	v.cmd.Flags().IntVarP(&v.O.Count, "count", "n", 1, "number of records to print")
	v.cmd.Flags().BoolVar(&v.O.Reset, "reset", false, "start from the first record")
	v.cmd.Flags().StringVar(&v.O.CursorJSON, "cursor-json", "",
		"resume from a cursor stored in a JSON document instead of the state file")
	v.cmd.Flags().StringVar(&v.O.CursorPath, "cursor-path", "",
		"path of the cursor inside --cursor-json (default: the whole document)")
	return v.cmd
}

func (v *nextCommand) Execute(args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	statePath := v.v.GetString("state")
	state, err := checkpoint.Load(statePath)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	c, resume, err := v.cursor(state, path, info.Size())
	if err != nil {
		return err
	}
	s := gettext.NewLineStream(f)
	r := gettext.NewReader(s, v.readerOptions(args[0])...)
	if resume {
		if r, err = gettext.NewReaderFromCursor(s, c, v.readerOptions(args[0])...); err != nil {
			return fmt.Errorf("resuming %s: %w", args[0], err)
		}
		log.WithField("index", c.Index).Debug("resuming from cursor")
	}

	printed := 0
	for range v.O.Count {
		if err := r.Next(); err != nil {
			return err
		}
		rec, ok := r.Current()
		if !ok {
			log.WithField("file", args[0]).Info("end of catalog reached")
			break
		}
		if printed > 0 {
			if _, err := fmt.Fprintln(v.stdout); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(v.stdout, rec.String()); err != nil {
			return err
		}
		printed++
	}

	state.Set(path, info.Size(), r.Cursor())
	return state.Save(statePath)
}

// cursor returns the cursor to resume from.
// resume is false if reading starts from the first record.
func (v *nextCommand) cursor(
	state *checkpoint.State, path string, size int64,
) (c gettext.Cursor, resume bool, err error) {
	switch {
	case v.O.Reset:
		return gettext.Cursor{}, false, nil
	case v.O.CursorJSON != "":
		b, err := os.ReadFile(v.O.CursorJSON)
		if err != nil {
			return gettext.Cursor{}, false, err
		}
		c, err = checkpoint.CursorFromJSON(b, v.O.CursorPath)
		if err != nil {
			return gettext.Cursor{}, false, fmt.Errorf("%s: %w", v.O.CursorJSON, err)
		}
		return c, true, nil
	}
	c, resume = state.Cursor(path, size)
	return c, resume, nil
}

type headerCommand struct {
	*app
	cmd *cobra.Command
}

func (v *headerCommand) Command() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "header <file>",
		Short: "Print the catalog header and its plural forms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return v.Execute(args)
		},
	}
	return v.cmd
}

func (v *headerCommand) Execute(args []string) error {
	r, f, err := v.openReader(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	c := pocatalog.New(r)
	h, ok, err := c.Header()
	if err != nil {
		return err
	}
	if !ok {
		log.WithField("file", args[0]).Warn("catalog has no header")
		h = new(gettext.Header)
	}
	if _, err := io.WriteString(v.stdout, h.String()); err != nil {
		return err
	}

	if pf, _ := h.Get(gettext.HeaderPluralForms); pf != "" {
		return nil
	}
	p, ok, err := c.PluralForms()
	if err != nil {
		return err
	}
	if ok {
		_, err = fmt.Fprintf(v.stdout, "# suggested %s: %s\n", gettext.HeaderPluralForms, p)
	}
	return err
}

type foldCommand struct {
	*app
	cmd *cobra.Command
	O   struct {
		Keyword string
		Dedent  bool
	}
}

func (v *foldCommand) Command() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "fold [text]",
		Short: "Print text as a folded PO value",
		Long: `Print text as a folded PO value. Without arguments
the text is read from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return v.Execute(args)
		},
	}
	v.cmd.Flags().StringVar(&v.O.Keyword, "keyword", "msgstr",
		"keyword the value is printed for: msgctxt, msgid, msgid_plural or msgstr")
	v.cmd.Flags().BoolVar(&v.O.Dedent, "dedent", false,
		"strip the common indentation and surrounding blank lines of the text")
	return v.cmd
}

func (v *foldCommand) Execute(args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(v.stdin)
		if err != nil {
			return err
		}
		text = string(b)
	}

	if v.O.Dedent {
		text = strfmt.Dedent(text)
	}
	lines := gettext.Fold(text, v.v.GetInt("wrap-width"))
	var rec gettext.Record
	switch v.O.Keyword {
	case "msgctxt":
		rec.Msgctxt = lines
	case "msgid":
		rec.Msgid = lines
	case "msgid_plural":
		rec.MsgidPlural = lines
	case "msgstr":
		rec.Msgstr = []gettext.Translation{{Index: gettext.Singular, Lines: lines}}
	default:
		return fmt.Errorf("unsupported keyword %q", v.O.Keyword)
	}
	_, err := io.WriteString(v.stdout, rec.String())
	return err
}

type fmtCommand struct {
	*app
	cmd *cobra.Command
	O   struct {
		Refold bool
	}
}

func (v *fmtCommand) Command() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "fmt <file>",
		Short: "Print the catalog in canonical formatting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return v.Execute(args)
		},
	}
	v.cmd.Flags().BoolVar(&v.O.Refold, "refold", false,
		"fold all values at --wrap-width")
	return v.cmd
}

func (v *fmtCommand) Execute(args []string) error {
	r, f, err := v.openReader(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	width := v.v.GetInt("wrap-width")
	records := func(yield func(gettext.Record) bool) {
		for _, rec := range r.Records() {
			if v.O.Refold {
				rec = refold(rec, width)
			}
			if !yield(rec) {
				return
			}
		}
	}
	if err := (gettext.Encoder{}).EncodeCatalog(v.stdout, records); err != nil {
		return err
	}
	return r.Err()
}

func refold(rec gettext.Record, width int) gettext.Record {
	f := func(lines []string) []string {
		if lines == nil {
			return nil
		}
		return gettext.Fold(gettext.Unfold(lines), width)
	}
	rec.Msgctxt = f(rec.Msgctxt)
	rec.Msgid = f(rec.Msgid)
	rec.MsgidPlural = f(rec.MsgidPlural)
	for i, t := range rec.Msgstr {
		rec.Msgstr[i].Lines = f(t.Lines)
	}
	return rec
}
