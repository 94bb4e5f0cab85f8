package ldb

import (
	"context"
	"fmt"
	"sync"

	"github.com/rawbytedev/ldb/helpers"
	"go.uber.org/zap"
)

// Entry is one key-value pair in a bulk write.
type Entry struct {
	Key   string
	Value []byte
}

// Store exposes an asynchronous CRUD/bulk API over one record collection.
// Construct it with New, open it with Init, and share it freely between
// goroutines afterwards: every operation opens its own engine transaction
// and the store itself never mutates the engine handle after Init.
//
// Values are raw bytes. A nil slice is the "absent" marker and can never
// be stored, so Get returning nil always means the record does not exist;
// an empty non-nil slice is an ordinary storable value.
type Store struct {
	opts Options
	open OpenFunc
	log  *zap.Logger

	mu     sync.Mutex // guards engine during Init/Close
	engine Engine

	ready     chan struct{} // closed once Init has succeeded
	closed    chan struct{} // closed by Close
	closeOnce sync.Once
}

// New records the configuration and the engine opener. It performs no I/O;
// nothing is opened until Init. A nil open marks the store unsupported.
func New(opts Options, open OpenFunc) *Store {
	opts = opts.withDefaults()
	return &Store{
		opts:   opts,
		open:   open,
		log:    opts.Logger,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// IsSupported reports whether a storage engine is available to this store.
func (s *Store) IsSupported() bool {
	return s.open != nil
}

// Init opens or creates the database and makes the store ready. Calling it
// again after success is a no-op; after a failure it may be retried.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	if s.engine != nil {
		return nil
	}
	if s.open == nil {
		return ErrUnsupported
	}

	var eng Engine
	err := helpers.IgnoreContext(ctx, func() error {
		var err error
		eng, err = s.open(s.opts.Name, s.opts.SchemaVersion, s.opts.Collection)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	s.engine = eng
	close(s.ready)
	s.log.Info("store ready",
		zap.String("name", s.opts.Name),
		zap.Uint64("schema_version", s.opts.SchemaVersion),
		zap.String("collection", s.opts.Collection))
	return nil
}

// Close tears the store down. Operations blocked at the readiness gate are
// released with ErrClosed, as is every later call. Closing twice is a no-op.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.engine != nil {
			err = s.engine.Close()
		}
		s.log.Info("store closed", zap.String("name", s.opts.Name))
	})
	return err
}

// gate suspends until the store is ready, closed, or ctx ends.
func (s *Store) gate(ctx context.Context) (Engine, error) {
	select {
	case <-s.ready:
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// Ready and closed may both be signaled; closed wins.
	select {
	case <-s.closed:
		return nil, ErrClosed
	default:
	}
	return s.engine, nil
}

// Get retrieves the value stored under key, or nil when no record exists.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	eng, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	var value []byte
	err = helpers.Await(ctx, func() error {
		return eng.View(func(tx Txn) error {
			v, err := tx.Get([]byte(key))
			if err != nil {
				return err
			}
			value = v
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return value, nil
}

// Set upserts value under key. It returns only once the transaction as a
// whole has committed, so a following Get observes the write.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := validate(key, value); err != nil {
		return err
	}
	eng, err := s.gate(ctx)
	if err != nil {
		return err
	}
	err = helpers.Await(ctx, func() error {
		return eng.Update(func(tx WriteTxn) error {
			return tx.Put([]byte(key), value)
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Delete removes the record stored under key. Deleting an absent key is
// not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	eng, err := s.gate(ctx)
	if err != nil {
		return err
	}
	err = helpers.Await(ctx, func() error {
		return eng.Update(func(tx WriteTxn) error {
			return tx.Delete([]byte(key))
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	return nil
}

// List returns every key in the collection in ascending order. An empty
// collection yields an empty, non-nil slice.
func (s *Store) List(ctx context.Context) ([]string, error) {
	eng, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	err = helpers.Await(ctx, func() error {
		return eng.View(func(tx Txn) error {
			return tx.ForEach(func(key, _ []byte) error {
				keys = append(keys, string(key))
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return keys, nil
}

// Values returns every value in the collection, in the same order List
// returns the keys. An empty collection yields an empty, non-nil slice.
func (s *Store) Values(ctx context.Context) ([][]byte, error) {
	eng, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, 0)
	err = helpers.Await(ctx, func() error {
		return eng.View(func(tx Txn) error {
			return tx.ForEach(func(_, value []byte) error {
				values = append(values, value)
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return values, nil
}

// Clear removes every record in the collection.
func (s *Store) Clear(ctx context.Context) error {
	eng, err := s.gate(ctx)
	if err != nil {
		return err
	}
	err = helpers.Await(ctx, func() error {
		return eng.Update(func(tx WriteTxn) error {
			return tx.Clear()
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClear, err)
	}
	return nil
}

// SetAll upserts all entries inside one transaction: either every entry is
// persisted or none is. Every entry is validated with the same rules as
// Set before the engine is touched, so one bad entry rejects the batch.
func (s *Store) SetAll(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := validate(e.Key, e.Value); err != nil {
			return err
		}
	}
	eng, err := s.gate(ctx)
	if err != nil {
		return err
	}
	err = helpers.Await(ctx, func() error {
		return eng.Update(func(tx WriteTxn) error {
			for _, e := range entries {
				if err := tx.Put([]byte(e.Key), e.Value); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBulkWrite, err)
	}
	return nil
}

func validate(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if value == nil {
		return ErrInvalidValue
	}
	return nil
}
