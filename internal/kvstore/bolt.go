package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var boltBucket = []byte("taskboard")

// Bolt implements Store using BoltDB (bbolt). The whole database lives in a
// single file, which keeps it far smaller than a Badger directory.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the bolt database file at path
func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create parent directory for bolt db")
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create bucket")
	}

	return &Bolt{db: db}, nil
}

// Get returns the value stored under key
func (b *Bolt) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return errors.New("taskboard bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return ErrKeyNotFound
		}

		// data is only valid inside the transaction
		value = append([]byte(nil), data...)
		return nil
	})

	if err == ErrKeyNotFound {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key %q from bolt", key)
	}
	return value, nil
}

// Set replaces the value stored under key
func (b *Bolt) Set(ctx context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return errors.New("taskboard bucket not found")
		}
		return bucket.Put([]byte(key), value)
	})
	return errors.Wrapf(err, "failed to write key %q to bolt", key)
}

// Close closes the database file
func (b *Bolt) Close() error {
	return b.db.Close()
}
