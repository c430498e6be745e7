package store

import (
	"fmt"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

// SliceIterator iterates over a preloaded list of models.
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice.
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{
		data: data,
	}
}

// Next returns the next model or ErrIteratorDone.
func (s *SliceIterator) Next() (key, value []byte, err error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.ErrIteratorDone
	}
	m := s.data[s.idx]
	s.idx++
	return m.Key, m.Value, nil
}

// Release drops the references to the data.
func (s *SliceIterator) Release() {
	s.data = nil
}

// EmptyKVStore never holds any data, used as a base layer to test caching.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

// Get always returns nil
func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }

// Has always returns false
func (EmptyKVStore) Has(key []byte) (bool, error) { return false, nil }

// Set is a noop
func (EmptyKVStore) Set(key, value []byte) error { return nil }

// Delete is a noop
func (EmptyKVStore) Delete(key []byte) error { return nil }

// Iterator is always empty
func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

// ReverseIterator is always empty
func (EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

type opKind int32

const (
	setKind opKind = iota + 1
	delKind
)

// Op is either set or delete.
type Op struct {
	kind  opKind
	key   []byte
	value []byte // only for set
}

// Apply executes the operation on given store.
func (o Op) Apply(out SetDeleter) error {
	switch o.kind {
	case setKind:
		return out.Set(o.key, o.value)
	case delKind:
		return out.Delete(o.key)
	default:
		return errors.Wrap(errors.ErrHuman, fmt.Sprintf("unknown op kind: %d", o.kind))
	}
}

// SetOp is a helper to create a set operation.
func SetOp(key, value []byte) Op {
	return Op{kind: setKind, key: key, value: value}
}

// DelOp is a helper to create a del operation.
func DelOp(key []byte) Op {
	return Op{kind: delKind, key: key}
}

// NonAtomicBatch just piles up ops and executes them later
// on the underlying store. Can be used when there is no better
// option (for in-memory stores).
//
// NOTE: Never use this for KVStores that are persistent.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

// NewNonAtomicBatch creates an empty batch to be later written
// to the KVStore.
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{
		out: out,
	}
}

// Set adds a set operation to the batch.
func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

// Delete adds a delete operation to the batch.
func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// Write writes all the ops to the underlying store and resets.
func (b *NonAtomicBatch) Write() error {
	for _, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

// ShowOps returns all pending operations in the order they were added.
func (b *NonAtomicBatch) ShowOps() []Op {
	return b.ops
}
