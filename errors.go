package ldb

import "errors"

var (
	// ErrUnsupported reports that no storage engine was supplied.
	ErrUnsupported = errors.New("ldb: no storage engine available")
	// ErrConnection reports that the engine could not be opened.
	ErrConnection = errors.New("ldb: cannot open store")
	// ErrVersionMismatch reports that the database on disk carries a newer
	// schema version than the one requested.
	ErrVersionMismatch = errors.New("ldb: stored schema version is newer than requested")
	// ErrClosed reports use of a store after Close.
	ErrClosed = errors.New("ldb: store is closed")

	ErrInvalidKey   = errors.New("ldb: key must be a non-empty string")
	ErrInvalidValue = errors.New("ldb: value must not be nil")

	ErrRead      = errors.New("ldb: read failed")
	ErrWrite     = errors.New("ldb: write failed")
	ErrDelete    = errors.New("ldb: delete failed")
	ErrClear     = errors.New("ldb: clear failed")
	ErrBulkWrite = errors.New("ldb: bulk write failed")
)
