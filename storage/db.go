package storage

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store.
// This allows the engines to persist through any backend (in-memory or on disk).
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	// Write applies every operation in the batch or none of them.
	Write(batch *Batch) error
	// Iterate visits keys with the given prefix in ascending byte order.
	Iterate(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemDB() *MemDB {
	return &MemDB{
		data: make(map[string][]byte),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = bytes.Clone(value)
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (db *MemDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.data, string(key))
	return nil
}

func (db *MemDB) Write(batch *Batch) error {
	if batch == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, op := range batch.ops {
		if op.delete {
			delete(db.data, string(op.key))
			continue
		}
		db.data[string(op.key)] = bytes.Clone(op.value)
	}
	return nil
}

func (db *MemDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	db.mu.RLock()
	keys := make([]string, 0, len(db.data))
	for key := range db.data {
		if bytes.HasPrefix([]byte(key), prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	snapshot := make([][]byte, len(keys))
	for i, key := range keys {
		snapshot[i] = bytes.Clone(db.data[key])
	}
	db.mu.RUnlock()
	for i, key := range keys {
		if err := fn([]byte(key), snapshot[i]); err != nil {
			return err
		}
	}
	return nil
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() error {
	// Nothing to close for an in-memory database.
	return nil
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

// Write commits the batch through a single LevelDB write batch.
func (ldb *LevelDB) Write(batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	wb := new(leveldb.Batch)
	for _, op := range batch.ops {
		if op.delete {
			wb.Delete(op.key)
			continue
		}
		wb.Put(op.key, op.value)
	}
	return ldb.db.Write(wb, nil)
}

func (ldb *LevelDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	iter := ldb.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(bytes.Clone(iter.Key()), bytes.Clone(iter.Value())); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close closes the database connection.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}
