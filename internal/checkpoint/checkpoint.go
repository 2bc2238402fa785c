// Package checkpoint persists reader cursors between CLI invocations.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/romshark/pocatalog/gettext"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrCursorNotFound = errors.New("cursor not found")
)

// State holds one cursor per catalog file.
type State struct {
	Files map[string]Entry `yaml:"files"`
}

// Entry is the saved cursor of a file. Size is the file size the cursor
// was taken at and is used to detect files changed since.
type Entry struct {
	Cursor gettext.Cursor `yaml:"cursor"`
	Size   int64          `yaml:"size"`
}

// Load reads the state file at path.
// A missing file yields an empty state.
func Load(path string) (*State, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Debug("no checkpoint state, starting fresh")
		return &State{Files: map[string]Entry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	s := new(State)
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decoding state %s: %w", path, err)
	}
	if s.Files == nil {
		s.Files = map[string]Entry{}
	}
	return s, nil
}

// Save writes s to path, replacing the previous state atomically.
func (s *State) Save(path string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}

// Cursor returns the cursor saved for file. ok is false if there is none
// or if the file size differs from the one the cursor was taken at.
func (s *State) Cursor(file string, size int64) (gettext.Cursor, bool) {
	e, ok := s.Files[file]
	if !ok {
		return gettext.Cursor{}, false
	}
	if e.Size != size {
		log.WithFields(log.Fields{
			"file":  file,
			"saved": e.Size,
			"size":  size,
		}).Info("file changed since the checkpoint, discarding cursor")
		return gettext.Cursor{}, false
	}
	return e.Cursor, true
}

// Set saves the cursor of file.
func (s *State) Set(file string, size int64, c gettext.Cursor) {
	if s.Files == nil {
		s.Files = map[string]Entry{}
	}
	s.Files[file] = Entry{Cursor: c, Size: size}
}

// CursorFromJSON extracts the cursor found at the gjson path in data.
// An empty path selects the whole document.
func CursorFromJSON(data []byte, path string) (gettext.Cursor, error) {
	if !gjson.ValidBytes(data) {
		return gettext.Cursor{}, ErrInvalidJSON
	}
	res := gjson.ParseBytes(data)
	if path != "" {
		res = res.Get(path)
	}
	if !res.IsObject() {
		return gettext.Cursor{}, fmt.Errorf("%w at %q", ErrCursorNotFound, path)
	}

	index := res.Get("index")
	if !index.Exists() {
		return gettext.Cursor{}, fmt.Errorf("%w: missing index", gettext.ErrInvalidCursor)
	}
	c := gettext.Cursor{
		Index:     int(index.Int()),
		Positions: map[int]int64{},
		Exhausted: res.Get("exhausted").Bool(),
	}
	var err error
	res.Get("positions").ForEach(func(key, value gjson.Result) bool {
		i, convErr := strconv.Atoi(key.String())
		if convErr != nil {
			err = fmt.Errorf("%w: position key %q", gettext.ErrInvalidCursor, key.String())
			return false
		}
		c.Positions[i] = value.Int()
		return true
	})
	if err != nil {
		return gettext.Cursor{}, err
	}
	if err := c.Validate(); err != nil {
		return gettext.Cursor{}, err
	}
	return c, nil
}
