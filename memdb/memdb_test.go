package memdb_test

import (
	"errors"
	"testing"

	"github.com/rawbytedev/ldb"
	"github.com/rawbytedev/ldb/memdb"
	"github.com/stretchr/testify/require"
)

func TestMemRollback(t *testing.T) {
	eng, err := memdb.New().Open("ldb", 1, "s")
	require.NoError(t, err)

	boom := errors.New("abort")
	err = eng.Update(func(tx ldb.WriteTxn) error {
		if err := tx.Put([]byte("a"), []byte("1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = eng.View(func(tx ldb.Txn) error {
		value, err := tx.Get([]byte("a"))
		require.NoError(t, err)
		require.Nil(t, value, "staged writes must be discarded on error")
		return nil
	})
	require.NoError(t, err)
}

func TestMemFailWith(t *testing.T) {
	e := memdb.New()
	eng, err := e.Open("ldb", 1, "s")
	require.NoError(t, err)

	boom := errors.New("injected")
	e.FailWith(boom)
	require.ErrorIs(t, eng.View(func(ldb.Txn) error { return nil }), boom)
	require.ErrorIs(t, eng.Update(func(ldb.WriteTxn) error { return nil }), boom)

	e.FailWith(nil)
	require.NoError(t, eng.View(func(ldb.Txn) error { return nil }))
}

func TestMemVersionMismatch(t *testing.T) {
	e := memdb.New()
	_, err := e.Open("ldb", 3, "s")
	require.NoError(t, err)
	_, err = e.Open("ldb", 2, "s")
	require.ErrorIs(t, err, ldb.ErrVersionMismatch)
	_, err = e.Open("ldb", 4, "s")
	require.NoError(t, err, "upgrades are allowed")
}

func TestMemCollectionScoping(t *testing.T) {
	e := memdb.New()
	alpha, err := e.Open("ldb", 1, "alpha")
	require.NoError(t, err)
	beta, err := e.Open("ldb", 1, "beta")
	require.NoError(t, err)

	err = alpha.Update(func(tx ldb.WriteTxn) error {
		return tx.Put([]byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	err = beta.View(func(tx ldb.Txn) error {
		value, err := tx.Get([]byte("k"))
		require.NoError(t, err)
		require.Nil(t, value)
		return nil
	})
	require.NoError(t, err)
}

func TestMemForEachOrder(t *testing.T) {
	eng, err := memdb.New().Open("ldb", 1, "s")
	require.NoError(t, err)

	err = eng.Update(func(tx ldb.WriteTxn) error {
		for _, k := range []string{"c", "a", "b"} {
			if err := tx.Put([]byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	keys := make([]string, 0)
	err = eng.View(func(tx ldb.Txn) error {
		return tx.ForEach(func(key, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keys)
}
