package orm

import (
	"bytes"
	"encoding/binary"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

const indexPrefix = "_i."

// Indexer calculates the secondary index value for a given model. Returning
// a nil value excludes the model from the index.
type Indexer func(Model) ([]byte, error)

// Index represents a secondary index on the models of a bucket. Many models
// may share the same index value.
//
// Every reference is stored under its own key:
//    _i.<bucket>_<name>:<uvarint len(value)><value><primary key>
// so that references of one value can be listed with a prefix scan and
// adding a reference never rewrites the others.
type Index struct {
	name    string
	id      []byte
	indexer Indexer
}

func newIndex(bucket, name string, indexer Indexer) Index {
	return Index{
		name:    name,
		id:      []byte(indexPrefix + bucket + "_" + name + ":"),
		indexer: indexer,
	}
}

// Name returns the name of this index.
func (i Index) Name() string {
	return i.name
}

func (i Index) valuePrefix(value []byte) []byte {
	var lenbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenbuf[:], uint64(len(value)))

	out := make([]byte, 0, len(i.id)+n+len(value))
	out = append(out, i.id...)
	out = append(out, lenbuf[:n]...)
	return append(out, value...)
}

func (i Index) refKey(value, pk []byte) []byte {
	return append(i.valuePrefix(value), pk...)
}

// Update handles updating the reference to the model in the index.
//
// prev == nil means insert
// next == nil means delete
// both == nil is error
func (i Index) Update(db weave.KVStore, pk []byte, prev, next Model) error {
	if prev == nil && next == nil {
		return errors.Wrap(errors.ErrHuman, "update requires at least one model")
	}

	var prevVal, nextVal []byte
	var err error
	if prev != nil {
		if prevVal, err = i.indexer(prev); err != nil {
			return errors.Wrapf(err, "index %s", i.name)
		}
	}
	if next != nil {
		if nextVal, err = i.indexer(next); err != nil {
			return errors.Wrapf(err, "index %s", i.name)
		}
	}

	if prev != nil && next != nil && bytes.Equal(prevVal, nextVal) {
		return nil
	}
	if prevVal != nil {
		if err := db.Delete(i.refKey(prevVal, pk)); err != nil {
			return errors.Wrap(err, "cannot remove index reference")
		}
	}
	if nextVal != nil {
		if err := db.Set(i.refKey(nextVal, pk), []byte{1}); err != nil {
			return errors.Wrap(err, "cannot store index reference")
		}
	}
	return nil
}

// Keys returns the primary keys of all models indexed under given value, in
// ascending order.
func (i Index) Keys(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	prefix := i.valuePrefix(value)
	start, end := prefixRange(prefix)
	it, err := db.Iterator(start, end)
	if err != nil {
		return nil, errors.Wrap(err, "cannot iterate index")
	}
	defer it.Release()

	var keys [][]byte
	for {
		key, _, err := it.Next()
		switch {
		case errors.ErrIteratorDone.Is(err):
			return keys, nil
		case err != nil:
			return nil, err
		}
		keys = append(keys, append([]byte{}, key[len(prefix):]...))
	}
}

// prefixRange turns a prefix into a (start, end) range. The end can be used
// with Iterator(start, end) to get all values that start with prefix.
func prefixRange(prefix []byte) ([]byte, []byte) {
	if prefix == nil {
		return nil, nil
	}
	start := append([]byte{}, prefix...)
	end := append([]byte{}, prefix...)

	// increment the last byte that is not 0xFF and drop the rest
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return start, end[:i+1]
		}
	}
	// all bytes were 0xFF, there is no upper bound
	return start, nil
}
