package storage

import (
	"bytes"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("launchpad")

// BoltDB is a persistent key-value store backed by a single bbolt bucket.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (creating if needed) a bbolt file at path.
func NewBoltDB(path string, options *bolt.Options) (*BoltDB, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Put(key []byte, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(boltBucket).Get(key)
		if value == nil {
			return ErrNotFound
		}
		out = bytes.Clone(value)
		return nil
	})
	return out, err
}

func (b *BoltDB) Has(key []byte) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(boltBucket).Get(key) != nil
		return nil
	})
	return found, err
}

func (b *BoltDB) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

// Write applies the batch inside one bbolt read-write transaction.
func (b *BoltDB) Write(batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, op := range batch.ops {
			if op.delete {
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(boltBucket).Cursor()
		for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
			if err := fn(bytes.Clone(k), bytes.Clone(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}
