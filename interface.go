// Package ldb is a small persistent key-value store built on a pluggable
// transactional engine. The Store adapter exposes get/set/delete/list/clear
// and bulk-set operations over one named record collection; the engine
// behind it is chosen at construction time through an OpenFunc.
package ldb

// Engine is the host storage capability the Store runs on. An Engine is
// already scoped to a single record collection when it is opened.
type Engine interface {
	// View runs fn inside a read-only transaction.
	View(fn func(Txn) error) error
	// Update runs fn inside a read-write transaction. The transaction
	// commits when fn returns nil and rolls back when it returns an error.
	Update(fn func(WriteTxn) error) error
	// Close closes the engine and releases all resources.
	Close() error
}

// Txn is the read surface of a transaction.
type Txn interface {
	// Get retrieves the value for a given key. Returns (nil, nil) when no
	// record with that key exists.
	Get(key []byte) ([]byte, error)
	// ForEach visits every record in ascending key order.
	ForEach(fn func(key, value []byte) error) error
}

// WriteTxn is the full surface of a read-write transaction.
type WriteTxn interface {
	Txn
	// Put inserts or updates a record.
	Put(key, value []byte) error
	// Delete removes a record. Deleting an absent key is not an error.
	Delete(key []byte) error
	// Clear removes every record in the collection.
	Clear() error
}

// OpenFunc opens or creates the named database at the given schema version
// and returns an engine scoped to the record collection. Opening an
// existing database whose stored version is higher than version must fail
// with ErrVersionMismatch; creating or upgrading must not return before the
// migration transaction has committed.
type OpenFunc func(name string, version uint64, collection string) (Engine, error)
