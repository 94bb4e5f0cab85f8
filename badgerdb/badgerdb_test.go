package badgerdb_test

import (
	"errors"
	"testing"

	"github.com/rawbytedev/ldb"
	"github.com/rawbytedev/ldb/badgerdb"
	"github.com/stretchr/testify/require"
)

func openEngine(t *testing.T, dir, collection string, version uint64) ldb.Engine {
	eng, err := badgerdb.Open(badgerdb.Config{Dir: dir}, "testdb", version, collection)
	require.NoError(t, err, "Error opening badger engine")
	return eng
}

func put(t *testing.T, eng ldb.Engine, key, value string) {
	err := eng.Update(func(tx ldb.WriteTxn) error {
		return tx.Put([]byte(key), []byte(value))
	})
	require.NoError(t, err)
}

func get(t *testing.T, eng ldb.Engine, key string) []byte {
	var value []byte
	err := eng.View(func(tx ldb.Txn) error {
		v, err := tx.Get([]byte(key))
		value = v
		return err
	})
	require.NoError(t, err)
	return value
}

func TestBadgerPutGetDelete(t *testing.T) {
	eng := openEngine(t, t.TempDir(), "s", 1)
	defer eng.Close()

	put(t, eng, "k", "v")
	require.Equal(t, []byte("v"), get(t, eng, "k"))

	require.Nil(t, get(t, eng, "missing"), "missing keys read as nil without error")

	err := eng.Update(func(tx ldb.WriteTxn) error {
		return tx.Delete([]byte("k"))
	})
	require.NoError(t, err)
	require.Nil(t, get(t, eng, "k"))

	err = eng.Update(func(tx ldb.WriteTxn) error {
		return tx.Delete([]byte("k"))
	})
	require.NoError(t, err, "deleting an absent key is not an error")
}

func TestBadgerForEachOrder(t *testing.T) {
	eng := openEngine(t, t.TempDir(), "s", 1)
	defer eng.Close()

	put(t, eng, "c", "3")
	put(t, eng, "a", "1")
	put(t, eng, "b", "2")

	keys := make([]string, 0)
	err := eng.View(func(tx ldb.Txn) error {
		return tx.ForEach(func(key, value []byte) error {
			keys = append(keys, string(key))
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestBadgerClear(t *testing.T) {
	eng := openEngine(t, t.TempDir(), "s", 1)
	defer eng.Close()

	put(t, eng, "a", "1")
	put(t, eng, "b", "2")
	err := eng.Update(func(tx ldb.WriteTxn) error {
		return tx.Clear()
	})
	require.NoError(t, err)

	count := 0
	err = eng.View(func(tx ldb.Txn) error {
		return tx.ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
	})
	require.NoError(t, err)
	require.Zero(t, count)

	// Clearing records must not clear the schema stamp.
	put(t, eng, "c", "3")
	require.Equal(t, []byte("3"), get(t, eng, "c"))
}

func TestBadgerRollback(t *testing.T) {
	eng := openEngine(t, t.TempDir(), "s", 1)
	defer eng.Close()

	boom := errors.New("abort")
	err := eng.Update(func(tx ldb.WriteTxn) error {
		if err := tx.Put([]byte("a"), []byte("1")); err != nil {
			return err
		}
		if err := tx.Put([]byte("b"), []byte("2")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Nil(t, get(t, eng, "a"), "a failed transaction must persist nothing")
	require.Nil(t, get(t, eng, "b"))
}

func TestBadgerSchemaVersion(t *testing.T) {
	dir := t.TempDir()

	eng := openEngine(t, dir, "s", 2)
	put(t, eng, "kept", "v")
	require.NoError(t, eng.Close())

	// Same version reopens cleanly and keeps records.
	eng = openEngine(t, dir, "s", 2)
	require.Equal(t, []byte("v"), get(t, eng, "kept"))
	require.NoError(t, eng.Close())

	// A lower version must be refused.
	_, err := badgerdb.Open(badgerdb.Config{Dir: dir}, "testdb", 1, "s")
	require.ErrorIs(t, err, ldb.ErrVersionMismatch)
}

func TestBadgerCollectionScoping(t *testing.T) {
	dir := t.TempDir()

	alpha := openEngine(t, dir, "alpha", 1)
	put(t, alpha, "k", "alpha-value")
	require.NoError(t, alpha.Close())

	beta := openEngine(t, dir, "beta", 1)
	require.Nil(t, get(t, beta, "k"), "records must not cross collections")
	put(t, beta, "k", "beta-value")
	require.NoError(t, beta.Close())

	alpha = openEngine(t, dir, "alpha", 1)
	require.Equal(t, []byte("alpha-value"), get(t, alpha, "k"))
	require.NoError(t, alpha.Close())
}
