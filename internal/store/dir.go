// Package store reads migration documents from a directory and writes
// generated files back.
package store

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"dbdesign/internal/dsl"
)

// Dir is a directory of migration documents.
type Dir struct {
	Root string
	Ext  string // defaults to ".php"
}

func NewDir(root string) *Dir {
	return &Dir{Root: root, Ext: ".php"}
}

func (d *Dir) ext() string {
	if d.Ext == "" {
		return ".php"
	}
	return d.Ext
}

// Documents reads every document in file name order. Any read error aborts
// the whole listing.
func (d *Dir) Documents() ([]dsl.Document, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", d.Root)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), d.ext()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]dsl.Document, 0, len(names))
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(d.Root, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		docs = append(docs, dsl.Document{ID: name, Text: string(b)})
	}
	return docs, nil
}

// WriteAll stages every file next to its target and then renames them into
// place. When staging fails nothing is renamed and the staged files are
// removed. Names must be plain file names.
func (d *Dir) WriteAll(files map[string]string) error {
	names := make([]string, 0, len(files))
	for name := range files {
		if err := checkName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", d.Root)
	}

	batch := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	staged := make(map[string]string, len(names))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, name := range names {
		tmp := filepath.Join(d.Root, "."+name+"."+batch+".tmp")
		if err := os.WriteFile(tmp, []byte(files[name]), 0o644); err != nil {
			cleanup()
			return errors.Wrapf(err, "stage %s", name)
		}
		staged[name] = tmp
	}
	for _, name := range names {
		if err := os.Rename(staged[name], filepath.Join(d.Root, name)); err != nil {
			cleanup()
			return errors.Wrapf(err, "write %s", name)
		}
		delete(staged, name)
	}
	return nil
}

// ErrBadName is returned for identifiers that would escape the directory.
var ErrBadName = errors.New("invalid file name")

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return errors.Wrapf(ErrBadName, "%q", name)
	}
	return nil
}
