// Package pebbledb implements the ldb engine on cockroachdb/pebble.
// Read-only transactions run over a snapshot; read-write transactions run
// over an indexed batch committed with pebble.Sync, so a transaction that
// fails is simply never applied.
package pebbledb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/rawbytedev/ldb"
)

var versionKey = []byte("!version")

// Config carries pebble-specific tuning.
type Config struct {
	// Dir is the base directory; the database lives in Dir/<name>.
	Dir string
	// Pebble overrides the default pebble options when set.
	Pebble *pebble.Options
}

type Pebble struct {
	db     *pebble.DB
	prefix []byte
}

// Opener returns an ldb.OpenFunc backed by pebble under cfg.Dir.
func Opener(cfg Config) ldb.OpenFunc {
	return func(name string, version uint64, collection string) (ldb.Engine, error) {
		return Open(cfg, name, version, collection)
	}
}

// Open opens or creates the named database at the given schema version and
// returns an engine scoped to the record collection.
func Open(cfg Config, name string, version uint64, collection string) (*Pebble, error) {
	opts := cfg.Pebble
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(filepath.Join(cfg.Dir, name), opts)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, version); err != nil {
		db.Close()
		return nil, err
	}
	return &Pebble{db: db, prefix: append([]byte(collection), '/')}, nil
}

func migrate(db *pebble.DB, version uint64) error {
	val, closer, err := db.Get(versionKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return db.Set(versionKey, encodeVersion(version), pebble.Sync)
	}
	if err != nil {
		return err
	}
	if len(val) != 8 {
		closer.Close()
		return fmt.Errorf("pebbledb: corrupt version record (%d bytes)", len(val))
	}
	stored := binary.BigEndian.Uint64(val)
	closer.Close()
	if stored > version {
		return fmt.Errorf("%w: stored %d, requested %d", ldb.ErrVersionMismatch, stored, version)
	}
	if stored < version {
		return db.Set(versionKey, encodeVersion(version), pebble.Sync)
	}
	return nil
}

func encodeVersion(version uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, version)
	return buf
}

// View runs fn over a snapshot of the database.
func (p *Pebble) View(fn func(ldb.Txn) error) error {
	snap := p.db.NewSnapshot()
	defer snap.Close()
	return fn(&pebbleTxn{r: snap, prefix: p.prefix})
}

// Update runs fn over an indexed batch and commits it when fn returns nil.
func (p *Pebble) Update(fn func(ldb.WriteTxn) error) error {
	batch := p.db.NewIndexedBatch()
	defer batch.Close()
	tx := &pebbleWriteTxn{pebbleTxn: pebbleTxn{r: batch, prefix: p.prefix}, batch: batch}
	if err := fn(tx); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Close closes the database and releases all resources.
func (p *Pebble) Close() error {
	return p.db.Close()
}

// reader is the read surface shared by snapshots and indexed batches.
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

type pebbleTxn struct {
	r      reader
	prefix []byte
}

func (t *pebbleTxn) key(key []byte) []byte {
	k := make([]byte, 0, len(t.prefix)+len(key))
	return append(append(k, t.prefix...), key...)
}

func (t *pebbleTxn) Get(key []byte) ([]byte, error) {
	val, closer, err := t.r.Get(t.key(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return copyBytes(val), nil
}

func (t *pebbleTxn) ForEach(fn func(key, value []byte) error) error {
	it, err := t.r.NewIter(&pebble.IterOptions{
		LowerBound: t.prefix,
		UpperBound: upperBound(t.prefix),
	})
	if err != nil {
		return err
	}
	defer it.Close()
	for valid := it.First(); valid; valid = it.Next() {
		key := copyBytes(it.Key()[len(t.prefix):])
		val, err := it.ValueAndErr()
		if err != nil {
			return err
		}
		if err := fn(key, copyBytes(val)); err != nil {
			return err
		}
	}
	return it.Error()
}

// copyBytes detaches b from iterator- or closer-owned memory. The copy of
// an empty value is empty but never nil.
func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

type pebbleWriteTxn struct {
	pebbleTxn
	batch *pebble.Batch
}

func (t *pebbleWriteTxn) Put(key, value []byte) error {
	return t.batch.Set(t.key(key), value, pebble.NoSync)
}

func (t *pebbleWriteTxn) Delete(key []byte) error {
	return t.batch.Delete(t.key(key), pebble.NoSync)
}

func (t *pebbleWriteTxn) Clear() error {
	return t.batch.DeleteRange(t.prefix, upperBound(t.prefix), pebble.NoSync)
}

// upperBound computes the smallest key greater than every key carrying the
// prefix. The prefix always ends in '/', so the bump never overflows.
func upperBound(prefix []byte) []byte {
	bound := append([]byte(nil), prefix...)
	bound[len(bound)-1]++
	return bound
}
