package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Database {
	t.Helper()
	dir := t.TempDir()
	level, err := Open(BackendLevelDB, filepath.Join(dir, "level"))
	require.NoError(t, err)
	bolt, err := Open(BackendBolt, filepath.Join(dir, "bolt", "launchpad.db"))
	require.NoError(t, err)
	backends := map[string]Database{
		BackendMemory:  NewMemDB(),
		BackendLevelDB: level,
		BackendBolt:    bolt,
	}
	t.Cleanup(func() {
		for _, db := range backends {
			_ = db.Close()
		}
	})
	return backends
}

func TestDatabaseBasicOperations(t *testing.T) {
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := db.Get([]byte("missing"))
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, db.Put([]byte("a"), []byte("1")))
			value, err := db.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("1"), value)

			ok, err := db.Has([]byte("a"))
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, db.Delete([]byte("a")))
			ok, err = db.Has([]byte("a"))
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestDatabaseBatchAndIterate(t *testing.T) {
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Put([]byte("sale/stale"), []byte("x")))

			batch := NewBatch()
			batch.Put([]byte("sale/b"), []byte("2"))
			batch.Put([]byte("sale/a"), []byte("1"))
			batch.Put([]byte("vesting/a"), []byte("v"))
			batch.Delete([]byte("sale/stale"))
			require.Equal(t, 4, batch.Len())
			require.NoError(t, db.Write(batch))

			var keys, values []string
			err := db.Iterate([]byte("sale/"), func(key, value []byte) error {
				keys = append(keys, string(key))
				values = append(values, string(value))
				return nil
			})
			require.NoError(t, err)
			require.Equal(t, []string{"sale/a", "sale/b"}, keys)
			require.Equal(t, []string{"1", "2"}, values)

			stop := errors.New("stop")
			visited := 0
			err = db.Iterate([]byte("sale/"), func(key, value []byte) error {
				visited++
				return stop
			})
			require.ErrorIs(t, err, stop)
			require.Equal(t, 1, visited)
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open("postgres", "")
	require.Error(t, err)

	_, err = Open(BackendBolt, "")
	require.Error(t, err)

	db, err := Open("", "")
	require.NoError(t, err)
	require.IsType(t, &MemDB{}, db)
}

func TestPersistentBackendsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendLevelDB, BackendBolt} {
		path := filepath.Join(dir, backend)
		db, err := Open(backend, path)
		require.NoError(t, err)
		require.NoError(t, db.Put([]byte("k"), []byte("v")))
		require.NoError(t, db.Close())

		reopened, err := Open(backend, path)
		require.NoError(t, err)
		value, err := reopened.Get([]byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("v"), value)
		require.NoError(t, reopened.Close())
	}
}
