// Package boltdb implements the ldb engine on go.etcd.io/bbolt. The record
// collection maps to a bucket and the schema version lives in a separate
// meta bucket; both are created inside the opening update transaction, so
// the collection is usable exactly when Open returns.
package boltdb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rawbytedev/ldb"
	bolt "go.etcd.io/bbolt"
)

var (
	// metaBucket holds engine bookkeeping; '!' keeps it clear of ordinary
	// collection names.
	metaBucket = []byte("!meta")
	versionKey = []byte("version")
)

// Config carries bbolt-specific tuning.
type Config struct {
	// Dir is the base directory; the database lives in Dir/<name>.db.
	Dir string
	// FileMode for the database file, 0600 when zero.
	FileMode os.FileMode
	// Bolt overrides the default bbolt options when set.
	Bolt *bolt.Options
}

type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

// Opener returns an ldb.OpenFunc backed by bbolt under cfg.Dir.
func Opener(cfg Config) ldb.OpenFunc {
	return func(name string, version uint64, collection string) (ldb.Engine, error) {
		return Open(cfg, name, version, collection)
	}
}

// Open opens or creates the named database at the given schema version and
// returns an engine scoped to the record collection.
func Open(cfg Config, name string, version uint64, collection string) (*Bolt, error) {
	mode := cfg.FileMode
	if mode == 0 {
		mode = 0600
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(cfg.Dir, name+".db"), mode, cfg.Bolt)
	if err != nil {
		return nil, err
	}
	bucket := []byte(collection)
	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if raw := meta.Get(versionKey); raw != nil {
			stored := binary.BigEndian.Uint64(raw)
			if stored > version {
				return fmt.Errorf("%w: stored %d, requested %d", ldb.ErrVersionMismatch, stored, version)
			}
		}
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
		return meta.Put(versionKey, encodeVersion(version))
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, bucket: bucket}, nil
}

func encodeVersion(version uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, version)
	return buf
}

// View runs fn inside a read-only transaction.
func (b *Bolt) View(fn func(ldb.Txn) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTxn{tx: tx, bucket: b.bucket})
	})
}

// Update runs fn inside a read-write transaction.
func (b *Bolt) Update(fn func(ldb.WriteTxn) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTxn{tx: tx, bucket: b.bucket})
	})
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

type boltTxn struct {
	tx     *bolt.Tx
	bucket []byte
}

func (t *boltTxn) Get(key []byte) ([]byte, error) {
	value := t.tx.Bucket(t.bucket).Get(key)
	if value == nil {
		return nil, nil
	}
	// bbolt slices are only valid for the life of the transaction.
	return copyBytes(value), nil
}

func (t *boltTxn) ForEach(fn func(key, value []byte) error) error {
	return t.tx.Bucket(t.bucket).ForEach(func(k, v []byte) error {
		return fn(copyBytes(k), copyBytes(v))
	})
}

func (t *boltTxn) Put(key, value []byte) error {
	return t.tx.Bucket(t.bucket).Put(key, value)
}

func (t *boltTxn) Delete(key []byte) error {
	return t.tx.Bucket(t.bucket).Delete(key)
}

// copyBytes detaches b from transaction-owned memory. The copy of an
// empty value is empty but never nil.
func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (t *boltTxn) Clear() error {
	if err := t.tx.DeleteBucket(t.bucket); err != nil {
		return err
	}
	_, err := t.tx.CreateBucket(t.bucket)
	return err
}
