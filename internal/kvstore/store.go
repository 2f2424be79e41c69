// Package kvstore provides the durable key-value engines behind the local
// task backend. Every engine stores opaque byte values under string keys.
package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrKeyNotFound is returned by Get when the key has never been written
var ErrKeyNotFound = errors.New("key not found")

// Store is a minimal durable key-value store
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Close releases the underlying resources
	Close() error
}

// Engine names a Store implementation
type Engine string

const (
	EngineBadger Engine = "badger"
	EngineBolt   Engine = "bolt"
	EngineFile   Engine = "file"
	EngineMemory Engine = "memory"
)

// Engines lists the supported engines
var Engines = []Engine{EngineBadger, EngineBolt, EngineFile, EngineMemory}

// Valid reports whether e is a supported engine
func (e Engine) Valid() bool {
	switch e {
	case EngineBadger, EngineBolt, EngineFile, EngineMemory:
		return true
	}
	return false
}

// Config selects and locates a Store
type Config struct {
	Engine Engine
	Path   string
	Logger *logrus.Logger
}

// Open creates the Store described by cfg.
//
// Path is a directory for badger and file, a single database file for bolt
// (a ".bolt" suffix is added when missing) and ignored for memory.
func Open(cfg Config) (Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	if cfg.Engine != EngineMemory {
		if cfg.Path == "" {
			return nil, fmt.Errorf("%s engine requires a path", cfg.Engine)
		}
		path, err := expandHome(cfg.Path)
		if err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	switch cfg.Engine {
	case EngineBadger:
		return NewBadger(cfg.Path, logger)

	case EngineBolt:
		path := cfg.Path
		if !strings.HasSuffix(path, ".bolt") {
			path = filepath.Join(path, "taskboard.bolt")
		}
		return NewBolt(path)

	case EngineFile:
		return NewFile(cfg.Path)

	case EngineMemory:
		return NewMemory(), nil

	default:
		return nil, fmt.Errorf("unsupported storage engine: %s", cfg.Engine)
	}
}

// Info describes the trade-offs of each engine
func Info() map[Engine]string {
	return map[Engine]string{
		EngineBadger: "LSM-tree database in a directory. Fast writes, but keeps large value logs on disk.",
		EngineBolt:   "B+ tree database in a single compact file. Good default for a personal task list.",
		EngineFile:   "One plain JSON file per key. Human readable and easy to back up.",
		EngineMemory: "Process memory only. Nothing survives a restart.",
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
