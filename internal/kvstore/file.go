package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"
)

// File implements Store with one file per key inside a directory.
// Writes go to a temporary file that is renamed over the old value, so a
// reader never observes a half-written value.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a file store rooted at dir
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}
	return &File{dir: dir}, nil
}

// Get returns the value stored under key
func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrapf(err, "failed to read key %q", key)
	}
	return data, nil
}

// Set replaces the value stored under key
func (f *File) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write key %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write key %q", key)
	}

	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return errors.Wrapf(err, "failed to replace key %q", key)
	}
	return nil
}

// Close is a no-op; files are not held open between calls
func (f *File) Close() error {
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, fileName(key)+".json")
}

// fileName keeps letters, digits, dash and underscore so a key can never
// escape the store directory
func fileName(key string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, key)
	if name == "" {
		return "_"
	}
	return name
}
