package storage

import "bytes"

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch collects writes that a Database applies atomically.
type Batch struct {
	ops []batchOp
}

// NewBatch returns an empty batch.
func NewBatch() *Batch { return &Batch{} }

// Put queues a write of value under key.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: bytes.Clone(key), value: bytes.Clone(value)})
}

// Delete queues removal of key.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: bytes.Clone(key), delete: true})
}

// Len reports the number of queued operations.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.ops)
}

// Reset empties the batch for reuse.
func (b *Batch) Reset() { b.ops = b.ops[:0] }
