package gettext_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/romshark/pocatalog/gettext"
	"github.com/romshark/pocatalog/strfmt"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const helloPO = "msgid \"Hello world 0\"\n" +
	"msgstr \"Hello világ 0\"\n" +
	"msgid \"Hello world 1\"\n" +
	"msgstr \"Hello világ 1\"\n"

var fixturePO = strfmt.Dedent(`
	# translator note
	#. extracted
	#: src/main.go:10 src/util.go:3
	#, fuzzy, c-format
	#| msgid "Old"
	msgctxt "menu"
	msgid ""
	"Open "
	"file"
	msgstr "Datei öffnen"

	msgid "%d file"
	msgid_plural "%d files"
	msgstr[0] "%d Datei"
	msgstr[1] "%d Dateien"

	msgid "multi"

	msgstr ""
	"line one\n"

	"line two"
`)

var fixtureRecords = []gettext.Record{
	{
		Comments: []string{
			"# translator note",
			"#. extracted",
			"#: src/main.go:10 src/util.go:3",
			"#, fuzzy, c-format",
			`#| msgid "Old"`,
		},
		Msgctxt: []string{"menu"},
		Msgid:   []string{"Open ", "file"},
		Msgstr: []gettext.Translation{
			{Index: gettext.Singular, Lines: []string{"Datei öffnen"}},
		},
	},
	{
		Msgid:       []string{"%d file"},
		MsgidPlural: []string{"%d files"},
		Msgstr: []gettext.Translation{
			{Index: 0, Lines: []string{"%d Datei"}},
			{Index: 1, Lines: []string{"%d Dateien"}},
		},
	},
	{
		Msgid: []string{"multi"},
		Msgstr: []gettext.Translation{
			{Index: gettext.Singular, Lines: []string{"line one\n", "line two"}},
		},
	},
}

func newReader(input string, opts ...gettext.Option) *gettext.Reader {
	logger, _ := test.NewNullLogger()
	opts = append([]gettext.Option{gettext.WithLogger(logger)}, opts...)
	return gettext.NewReader(gettext.NewLineStream(strings.NewReader(input)), opts...)
}

func readAll(t *testing.T, r *gettext.Reader) []gettext.Record {
	t.Helper()
	var l []gettext.Record
	for _, rec := range r.Records() {
		l = append(l, rec)
	}
	require.NoError(t, r.Err())
	return l
}

func requireCurrentID(t *testing.T, r *gettext.Reader, expectIndex int, expectID string) {
	t.Helper()
	rec, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, expectIndex, r.Index())
	require.Equal(t, expectID, rec.ID())
}

func TestReaderHello(t *testing.T) {
	t.Parallel()

	s := &countingStream{LineStream: gettext.NewLineStream(strings.NewReader(helloPO))}
	r := gettext.NewReader(s)

	_, ok := r.Current()
	require.False(t, ok)
	require.Equal(t, -1, r.Index())

	require.NoError(t, r.Next())
	rec, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, []string{"Hello world 0"}, rec.Msgid)
	require.Equal(t, []gettext.Translation{
		{Index: gettext.Singular, Lines: []string{"Hello világ 0"}},
	}, rec.Msgstr)

	require.NoError(t, r.Next())
	requireCurrentID(t, r, 1, "Hello world 1")
	require.Equal(t, map[int]int64{0: 0, 1: 46}, r.Cursor().Positions)

	// Revisiting a known record is a single stream seek.
	s.seeks = 0
	require.NoError(t, r.Seek(0))
	requireCurrentID(t, r, 0, "Hello world 0")
	require.Equal(t, 1, s.seeks)

	require.NoError(t, r.Next())
	requireCurrentID(t, r, 1, "Hello world 1")

	require.NoError(t, r.Next())
	_, ok = r.Current()
	require.False(t, ok)
	require.True(t, r.Exhausted())
	require.Equal(t, 1, r.Index())

	// Advancing past the end stays at the end.
	require.NoError(t, r.Next())
	_, ok = r.Current()
	require.False(t, ok)
}

func TestReaderFixture(t *testing.T) {
	t.Parallel()

	r := newReader(fixturePO)
	require.Equal(t, fixtureRecords, readAll(t, r))
	require.True(t, r.Exhausted())
	require.Equal(t, 2, r.Index())

	rec := fixtureRecords[1]
	v, ok := rec.Translation(1)
	require.True(t, ok)
	require.Equal(t, "%d Dateien", v)
	_, ok = rec.Translation(gettext.Singular)
	require.False(t, ok)

	require.Equal(t, "Open file", fixtureRecords[0].ID())
	require.Equal(t, "menu", fixtureRecords[0].Context())
	v, _ = fixtureRecords[2].Translation(gettext.Singular)
	require.Equal(t, "line one\nline two", v)
}

func TestReaderRoundTrip(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	err := gettext.Encoder{}.EncodeCatalog(&b, slices.Values(fixtureRecords))
	require.NoError(t, err)
	require.Equal(t, strfmt.Dedent(`
		# translator note
		#. extracted
		#: src/main.go:10 src/util.go:3
		#, fuzzy, c-format
		#| msgid "Old"
		msgctxt "menu"
		msgid ""
		"Open "
		"file"
		msgstr "Datei öffnen"

		msgid "%d file"
		msgid_plural "%d files"
		msgstr[0] "%d Datei"
		msgstr[1] "%d Dateien"

		msgid "multi"
		msgstr ""
		"line one\n"
		"line two"
	`)+"\n", b.String())

	require.Equal(t, fixtureRecords, readAll(t, newReader(b.String())))
}

func TestReaderSeek(t *testing.T) {
	t.Parallel()

	sequential := readAll(t, newReader(fixturePO))

	t.Run("forward_unknown", func(t *testing.T) {
		t.Parallel()
		r := newReader(fixturePO)
		require.NoError(t, r.Seek(2))
		rec, ok := r.Current()
		require.True(t, ok)
		require.Equal(t, sequential[2], rec)
		require.Len(t, r.Cursor().Positions, 3)
	})

	t.Run("every_index", func(t *testing.T) {
		t.Parallel()
		r := newReader(fixturePO)
		for _, i := range []int{1, 0, 2, 2, 0, 1} {
			require.NoError(t, r.Seek(i))
			rec, ok := r.Current()
			require.True(t, ok)
			require.Equal(t, i, r.Index())
			require.Equal(t, sequential[i], rec)
		}
	})

	t.Run("next_after_seek", func(t *testing.T) {
		t.Parallel()
		r := newReader(fixturePO)
		require.NoError(t, r.Seek(1))
		require.NoError(t, r.Next())
		rec, _ := r.Current()
		require.Equal(t, sequential[2], rec)
	})

	t.Run("negative", func(t *testing.T) {
		t.Parallel()
		r := newReader(fixturePO)
		err := r.Seek(-1)
		require.ErrorIs(t, err, gettext.ErrInvalidSeekTarget)
		var serr *gettext.SeekError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, -1, serr.Requested)
	})

	t.Run("beyond_end", func(t *testing.T) {
		t.Parallel()
		r := newReader(fixturePO)
		require.NoError(t, r.Seek(1))
		before := r.Cursor()
		beforeRec, _ := r.Current()

		err := r.Seek(5)
		require.ErrorIs(t, err, gettext.ErrSeekBeyondEnd)
		var serr *gettext.SeekError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, 5, serr.Requested)
		require.Equal(t, 2, serr.MaxReachable)

		// Position is restored, learned offsets are kept.
		require.Equal(t, 1, r.Index())
		rec, ok := r.Current()
		require.True(t, ok)
		require.Equal(t, beforeRec, rec)
		require.True(t, r.Exhausted())
		require.Len(t, r.Cursor().Positions, 3)
		require.Equal(t, before.Positions[1], r.Cursor().Positions[1])

		require.NoError(t, r.Next())
		rec, _ = r.Current()
		require.Equal(t, sequential[2], rec)
	})
}

func TestReaderSeekBeyondEndExhaustedNoIO(t *testing.T) {
	t.Parallel()

	s := &countingStream{LineStream: gettext.NewLineStream(strings.NewReader(helloPO))}
	r := gettext.NewReader(s)
	for range 3 {
		require.NoError(t, r.Next())
	}
	require.True(t, r.Exhausted())

	s.reads, s.seeks = 0, 0
	err := r.Seek(2)
	require.ErrorIs(t, err, gettext.ErrSeekBeyondEnd)
	var serr *gettext.SeekError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, 1, serr.MaxReachable)
	require.Zero(t, s.reads)
	require.Zero(t, s.seeks)
}

func TestReaderSeekReportsLastIndex(t *testing.T) {
	t.Parallel()

	r := newReader(helloPO)
	err := r.Seek(7)
	var serr *gettext.SeekError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, gettext.ErrSeekBeyondEnd)
	require.Equal(t, 7, serr.Requested)
	require.Equal(t, 1, serr.MaxReachable)

	// The failed seek left the reader fresh.
	require.Equal(t, -1, r.Index())
	_, ok := r.Current()
	require.False(t, ok)
	require.NoError(t, r.Next())
	requireCurrentID(t, r, 0, "Hello world 0")
}

func TestReaderDegenerate(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, input string) {
		t.Helper()

		r := newReader(input)
		err := r.Seek(0)
		var serr *gettext.SeekError
		require.ErrorAs(t, err, &serr)
		require.ErrorIs(t, err, gettext.ErrSeekBeyondEnd)
		require.Equal(t, -1, serr.MaxReachable)

		r = newReader(input)
		require.NoError(t, r.Next())
		_, ok := r.Current()
		require.False(t, ok)
		require.True(t, r.Exhausted())
		require.Equal(t, -1, r.Index())
		require.Empty(t, r.Cursor().Positions)
		require.Empty(t, readAll(t, r))
	}

	f(t, "")
	f(t, "\n\n\n")
	f(t, "  \t\n\r\n")
	f(t, "# only a comment\n")
	f(t, "#, fuzzy\n\n#: a.go:1\n")
	f(t, "msgctxt \"dangling\"\n")
}

func TestReaderTrailingComments(t *testing.T) {
	t.Parallel()

	r := newReader(helloPO + "\n#~ msgid \"obsolete\"\n")
	l := readAll(t, r)
	require.Len(t, l, 2)
	require.True(t, r.Exhausted())
	require.Equal(t, 1, r.Index())
}

func TestReaderCRLF(t *testing.T) {
	t.Parallel()

	r := newReader("msgid \"a\"\r\nmsgstr \"b\"\r\n\r\nmsgid \"c\"\r\nmsgstr \"d\"\r\n")
	l := readAll(t, r)
	require.Len(t, l, 2)
	require.Equal(t, []string{"a"}, l[0].Msgid)
	require.Equal(t, []string{"d"}, l[1].Msgstr[0].Lines)
	require.Equal(t, map[int]int64{0: 0, 1: 25}, r.Cursor().Positions)

	require.NoError(t, r.Seek(1))
	requireCurrentID(t, r, 1, "c")
}

func TestReaderBlankLinesAndComments(t *testing.T) {
	t.Parallel()

	r := newReader(strfmt.Dedent(`
		# first

		#, fuzzy

		msgid ""

		"a"
		msgstr "b"
	`))
	l := readAll(t, r)
	require.Equal(t, []gettext.Record{{
		Comments: []string{"# first", "#, fuzzy"},
		Msgid:    []string{"a"},
		Msgstr:   []gettext.Translation{{Index: gettext.Singular, Lines: []string{"b"}}},
	}}, l)
}

func TestReaderHeaderPlaceholderKept(t *testing.T) {
	t.Parallel()

	// A lone empty value is the header msgid, not a placeholder.
	l := readAll(t, newReader("msgid \"\"\nmsgstr \"\"\n\"Language: de\\n\"\n"))
	require.Len(t, l, 1)
	require.Equal(t, []string{""}, l[0].Msgid)
	require.True(t, l[0].IsHeader())
	require.Equal(t, []string{"Language: de\n"}, l[0].Msgstr[0].Lines)
}

func TestReaderUnexpectedLine(t *testing.T) {
	t.Parallel()

	const input = "msgid \"a\"\nmsgstr \"A\"\ngarbage line\nmsgid \"b\"\nmsgstr \"B\"\n"

	t.Run("lenient", func(t *testing.T) {
		t.Parallel()
		logger, hook := test.NewNullLogger()
		r := gettext.NewReader(
			gettext.NewLineStream(strings.NewReader(input)),
			gettext.WithLogger(logger), gettext.WithFilename("de.po"),
		)
		l := readAll(t, r)
		require.Len(t, l, 2)
		require.Equal(t, "b", l[1].ID())
		require.Equal(t, map[int]int64{0: 0, 1: 34}, r.Cursor().Positions)

		require.Len(t, hook.Entries, 1)
		e := hook.LastEntry()
		require.Equal(t, logrus.WarnLevel, e.Level)
		require.Equal(t, "de.po", e.Data["file"])
		require.Equal(t, int64(21), e.Data["offset"])
		require.Equal(t, "garbage line", e.Data["line"])
	})

	t.Run("strict", func(t *testing.T) {
		t.Parallel()
		r := newReader(input, gettext.Strict(true), gettext.WithFilename("de.po"))
		require.NoError(t, r.Next())

		err := r.Next()
		require.ErrorIs(t, err, gettext.ErrUnexpectedLine)
		var perr gettext.Error
		require.ErrorAs(t, err, &perr)
		require.Equal(t, gettext.Position{Filename: "de.po", Offset: 21}, perr.Pos)
		require.Equal(t, "de.po: offset 21: expected msgctxt or msgid; found unexpected line",
			err.Error())

		// The failed advance left the reader on the first record.
		requireCurrentID(t, r, 0, "a")
		require.False(t, r.Exhausted())
	})

	t.Run("strict_records", func(t *testing.T) {
		t.Parallel()
		r := newReader(input, gettext.Strict(true))
		var ids []string
		for _, rec := range r.Records() {
			ids = append(ids, rec.ID())
		}
		require.Equal(t, []string{"a"}, ids)
		require.ErrorIs(t, r.Err(), gettext.ErrUnexpectedLine)
	})

	t.Run("msgctxt_without_msgid", func(t *testing.T) {
		t.Parallel()
		const input = "msgctxt \"x\"\ngarbage\nmsgid \"b\"\nmsgstr \"B\"\n"
		l := readAll(t, newReader(input))
		require.Equal(t, []gettext.Record{{
			Msgid:  []string{"b"},
			Msgstr: []gettext.Translation{{Index: gettext.Singular, Lines: []string{"B"}}},
		}}, l)

		r := newReader(input, gettext.Strict(true))
		require.ErrorIs(t, r.Next(), gettext.ErrUnexpectedLine)
	})
}

func TestReaderMalformedQuotedLine(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, expectMsgid []string, input string) {
		t.Helper()

		err := newReader(input, gettext.Strict(true)).Next()
		require.ErrorIs(t, err, gettext.ErrMalformedQuotedLine)

		logger, hook := test.NewNullLogger()
		r := gettext.NewReader(gettext.NewLineStream(strings.NewReader(input)),
			gettext.WithLogger(logger))
		require.NoError(t, r.Next())
		rec, ok := r.Current()
		require.True(t, ok)
		require.Equal(t, expectMsgid, rec.Msgid)
		require.NotEmpty(t, hook.Entries)
		require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	}

	f(t, []string{"unterminated"}, "msgid \"unterminated\nmsgstr \"\"\n")
	f(t, []string{"unopened"}, "msgid unopened\"\nmsgstr \"\"\n")
	f(t, []string{`escaped"`}, "msgid \"escaped\\\"\nmsgstr \"\"\n")
	f(t, []string{"a", "b"}, "msgid \"\"\n\"a\"\n\"b\nmsgstr \"\"\n")
}

func TestReaderRewind(t *testing.T) {
	t.Parallel()

	r := newReader(helloPO)
	require.Len(t, readAll(t, r), 2)
	require.NoError(t, r.Rewind())
	requireCurrentID(t, r, 0, "Hello world 0")

	var ids []string
	for i, rec := range r.Records() {
		require.Equal(t, len(ids)+1, i)
		ids = append(ids, rec.ID())
	}
	require.Equal(t, []string{"Hello world 1"}, ids)

	// Rewind on an empty catalog ends up at the end.
	r = newReader("")
	require.NoError(t, r.Rewind())
	_, ok := r.Current()
	require.False(t, ok)
	require.True(t, r.Exhausted())
}

func TestReaderRecordsBreak(t *testing.T) {
	t.Parallel()

	r := newReader(fixturePO)
	for i := range r.Records() {
		if i == 1 {
			break
		}
	}
	requireCurrentID(t, r, 1, "%d file")
}

func TestReaderIOError(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk on fire")
	s := &failingStream{
		LineStream: gettext.NewLineStream(strings.NewReader(helloPO)),
		err:        errDisk,
		failAt:     46,
	}
	r := gettext.NewReader(s)

	// Decoding the first record needs one line of lookahead at offset 46.
	err := r.Next()
	require.ErrorIs(t, err, gettext.ErrIO)
	require.ErrorIs(t, err, errDisk)
	var ioErr *gettext.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "read", ioErr.Op)

	require.Equal(t, -1, r.Index())
	_, ok := r.Current()
	require.False(t, ok)
	require.False(t, r.Exhausted())
	require.Equal(t, int64(0), s.Offset())

	s.failAt = -1
	require.NoError(t, r.Next())
	requireCurrentID(t, r, 0, "Hello world 0")
	require.Equal(t, map[int]int64{0: 0}, r.Cursor().Positions)
}

func TestReaderSeekIOError(t *testing.T) {
	t.Parallel()

	errSeek := errors.New("seek failed")
	s := &failingStream{
		LineStream: gettext.NewLineStream(strings.NewReader(helloPO)),
		failAt:     -1,
	}
	r := gettext.NewReader(s)
	require.NoError(t, r.Next())
	require.NoError(t, r.Next())

	s.seekErr = errSeek
	err := r.Seek(0)
	require.ErrorIs(t, err, gettext.ErrIO)
	require.ErrorIs(t, err, errSeek)
	require.Equal(t, 1, r.Index())
}

func TestReaderRewindIOError(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk failure")
	s := &failingStream{
		LineStream: gettext.NewLineStream(strings.NewReader(helloPO)),
		err:        errDisk,
		failAt:     -1,
	}
	r := gettext.NewReader(s)
	require.NoError(t, r.Next())
	require.NoError(t, r.Next())

	s.failAt = 0
	err := r.Rewind()
	require.ErrorIs(t, err, gettext.ErrIO)
	require.ErrorIs(t, err, errDisk)
	requireCurrentID(t, r, 1, "Hello world 1")

	s.failAt = -1
	s.seekErr = errors.New("seek failed")
	require.ErrorIs(t, r.Rewind(), gettext.ErrIO)
	requireCurrentID(t, r, 1, "Hello world 1")

	s.seekErr = nil
	require.NoError(t, r.Rewind())
	requireCurrentID(t, r, 0, "Hello world 0")
}

// countingStream counts stream operations.
type countingStream struct {
	gettext.LineStream
	reads, seeks int
}

func (s *countingStream) ReadLine() (string, error) {
	s.reads++
	return s.LineStream.ReadLine()
}

func (s *countingStream) Seek(offset int64) error {
	s.seeks++
	return s.LineStream.Seek(offset)
}

// failingStream fails reads at or after failAt unless failAt is negative,
// and every seek while seekErr is set.
type failingStream struct {
	gettext.LineStream
	err     error
	failAt  int64
	seekErr error
}

func (s *failingStream) ReadLine() (string, error) {
	if s.failAt >= 0 && s.Offset() >= s.failAt {
		return "", s.err
	}
	return s.LineStream.ReadLine()
}

func (s *failingStream) Seek(offset int64) error {
	if s.seekErr != nil {
		return s.seekErr
	}
	return s.LineStream.Seek(offset)
}
