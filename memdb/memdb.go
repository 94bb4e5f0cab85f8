// Package memdb is an in-memory ldb engine. It backs tests and examples:
// update transactions stage their writes on a copy of the collection and
// commit by swapping it in, so rollback behaves like the disk engines, and
// FailWith injects engine failures to exercise error paths.
package memdb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rawbytedev/ldb"
)

// Engine holds every collection of one in-memory database. The zero value
// is not usable; construct with New.
type Engine struct {
	mu          sync.RWMutex
	version     uint64
	versioned   bool
	collections map[string]map[string][]byte
	err         error
}

func New() *Engine {
	return &Engine{collections: make(map[string]map[string][]byte)}
}

// Open implements ldb.OpenFunc. The name only matters to disk engines and
// is ignored here; version checking mirrors their behavior.
func (e *Engine) Open(name string, version uint64, collection string) (ldb.Engine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.versioned && e.version > version {
		return nil, fmt.Errorf("%w: stored %d, requested %d", ldb.ErrVersionMismatch, e.version, version)
	}
	e.version = version
	e.versioned = true
	if e.collections[collection] == nil {
		e.collections[collection] = make(map[string][]byte)
	}
	return &view{engine: e, collection: collection}, nil
}

// FailWith makes every following transaction fail with err. Pass nil to
// restore normal operation.
func (e *Engine) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// view is an Engine scoped to one collection.
type view struct {
	engine     *Engine
	collection string
}

func (v *view) View(fn func(ldb.Txn) error) error {
	v.engine.mu.RLock()
	defer v.engine.mu.RUnlock()
	if v.engine.err != nil {
		return v.engine.err
	}
	return fn(&memTxn{records: v.engine.collections[v.collection]})
}

func (v *view) Update(fn func(ldb.WriteTxn) error) error {
	v.engine.mu.Lock()
	defer v.engine.mu.Unlock()
	if v.engine.err != nil {
		return v.engine.err
	}
	staged := make(map[string][]byte, len(v.engine.collections[v.collection]))
	for k, val := range v.engine.collections[v.collection] {
		staged[k] = val
	}
	if err := fn(&memTxn{records: staged}); err != nil {
		return err
	}
	v.engine.collections[v.collection] = staged
	return nil
}

func (v *view) Close() error {
	return nil
}

type memTxn struct {
	records map[string][]byte
}

func (t *memTxn) Get(key []byte) ([]byte, error) {
	value, ok := t.records[string(key)]
	if !ok {
		return nil, nil
	}
	return copyBytes(value), nil
}

func (t *memTxn) ForEach(fn func(key, value []byte) error) error {
	keys := make([]string, 0, len(t.records))
	for k := range t.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), copyBytes(t.records[k])); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTxn) Put(key, value []byte) error {
	t.records[string(key)] = copyBytes(value)
	return nil
}

// copyBytes keeps stored and returned slices detached from the caller.
// The copy of an empty value is empty but never nil.
func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (t *memTxn) Delete(key []byte) error {
	delete(t.records, string(key))
	return nil
}

func (t *memTxn) Clear() error {
	for k := range t.records {
		delete(t.records, k)
	}
	return nil
}
