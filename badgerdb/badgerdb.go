// Package badgerdb implements the ldb engine on dgraph-io/badger. Records
// of a collection live under the key prefix "<collection>/"; the schema
// version lives under a reserved key outside every collection prefix.
package badgerdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rawbytedev/ldb"
	"go.uber.org/zap"
)

// versionKey sorts before every "<collection>/" prefix and never collides
// with one, collections being non-empty names.
var versionKey = []byte("!version")

type Badger struct {
	db     *badger.DB
	prefix []byte
}

// Opener returns an ldb.OpenFunc backed by BadgerDB under cfg.Dir.
func Opener(cfg Config) ldb.OpenFunc {
	return func(name string, version uint64, collection string) (ldb.Engine, error) {
		return Open(cfg, name, version, collection)
	}
}

// Open opens or creates the named database at the given schema version and
// returns an engine scoped to the record collection.
func Open(cfg Config, name string, version uint64, collection string) (*Badger, error) {
	var opts badger.Options
	if cfg.Badger != nil {
		opts = *cfg.Badger
	} else {
		opts = badger.DefaultOptions(filepath.Join(cfg.Dir, name))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.WithLogger(zapLogger{logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, version); err != nil {
		db.Close()
		return nil, err
	}
	return &Badger{db: db, prefix: append([]byte(collection), '/')}, nil
}

// migrate stamps the schema version inside a single update transaction, so
// the database is never usable before the stamp has committed.
func migrate(db *badger.DB, version uint64) error {
	return db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(versionKey, encodeVersion(version))
		}
		if err != nil {
			return err
		}
		var stored uint64
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("badgerdb: corrupt version record (%d bytes)", len(val))
			}
			stored = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return err
		}
		if stored > version {
			return fmt.Errorf("%w: stored %d, requested %d", ldb.ErrVersionMismatch, stored, version)
		}
		if stored < version {
			return txn.Set(versionKey, encodeVersion(version))
		}
		return nil
	})
}

func encodeVersion(version uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, version)
	return buf
}

// View runs fn inside a read-only transaction.
func (b *Badger) View(fn func(ldb.Txn) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn, prefix: b.prefix})
	})
}

// Update runs fn inside a read-write transaction.
func (b *Badger) Update(fn func(ldb.WriteTxn) error) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn, prefix: b.prefix})
	})
}

// Close closes the BadgerDB instance and releases all resources.
func (b *Badger) Close() error {
	return b.db.Close()
}

type badgerTxn struct {
	txn    *badger.Txn
	prefix []byte
}

func (t *badgerTxn) key(key []byte) []byte {
	k := make([]byte, 0, len(t.prefix)+len(key))
	return append(append(k, t.prefix...), key...)
}

func (t *badgerTxn) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(t.key(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	// ValueCopy yields nil for zero-length values; nil is reserved for
	// "no record".
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (t *badgerTxn) Put(key, value []byte) error {
	return t.txn.Set(t.key(key), value)
}

func (t *badgerTxn) Delete(key []byte) error {
	return t.txn.Delete(t.key(key))
}

func (t *badgerTxn) ForEach(fn func(key, value []byte) error) error {
	it := t.txn.NewIterator(badger.IteratorOptions{Prefix: t.prefix, PrefetchValues: true, PrefetchSize: 100})
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)[len(t.prefix):]
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if value == nil {
			value = []byte{}
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (t *badgerTxn) Clear() error {
	it := t.txn.NewIterator(badger.IteratorOptions{Prefix: t.prefix})
	keys := make([][]byte, 0)
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()
	for _, key := range keys {
		if err := t.txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// zapLogger routes badger's internal logging to zap.
type zapLogger struct {
	log *zap.SugaredLogger
}

func (l zapLogger) Errorf(msg string, args ...interface{}) {
	l.log.Errorf(strings.TrimSpace(msg), args...)
}

func (l zapLogger) Warningf(msg string, args ...interface{}) {
	l.log.Warnf(strings.TrimSpace(msg), args...)
}

func (l zapLogger) Infof(msg string, args ...interface{}) {
	l.log.Infof(strings.TrimSpace(msg), args...)
}

func (l zapLogger) Debugf(msg string, args ...interface{}) {
	l.log.Debugf(strings.TrimSpace(msg), args...)
}
