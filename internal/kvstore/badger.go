package kvstore

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const badgerKeyPrefix = "taskboard:"

// Badger implements Store using BadgerDB
type Badger struct {
	db     *badger.DB
	logger *logrus.Logger
}

// NewBadger opens (or creates) a BadgerDB database in dir
func NewBadger(dir string, logger *logrus.Logger) (*Badger, error) {
	return openBadger(badger.DefaultOptions(dir), logger)
}

// NewBadgerInMemory opens a BadgerDB instance that never touches disk
func NewBadgerInMemory(logger *logrus.Logger) (*Badger, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), logger)
}

func openBadger(opts badger.Options, logger *logrus.Logger) (*Badger, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger database")
	}

	return &Badger{db: db, logger: logger}, nil
}

// Get returns the value stored under key
func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrapf(err, "failed to read key %q from badger", key)
	}

	return value, nil
}

// Set replaces the value stored under key
func (b *Badger) Set(ctx context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), value)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write key %q to badger", key)
	}

	b.logger.WithFields(logrus.Fields{
		"key":   key,
		"bytes": len(value),
	}).Debug("badger value written")
	return nil
}

// Close closes the database
func (b *Badger) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// badgerLogger adapts logrus to BadgerDB's logger interface
type badgerLogger struct {
	logger *logrus.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
