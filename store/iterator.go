package store

import (
	"bytes"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

// mergedIterator combines a snapshot of the cached items with the iterator
// of the parent store. Cached items shadow parent items with the same key,
// and deleted items hide them.
type mergedIterator struct {
	local   []keyer
	parent  Iterator
	reverse bool

	parentKey   []byte
	parentValue []byte
	parentDone  bool
}

var _ Iterator = (*mergedIterator)(nil)

func newMergedIterator(local []keyer, parent Iterator, reverse bool) (*mergedIterator, error) {
	it := &mergedIterator{
		local:   local,
		parent:  parent,
		reverse: reverse,
	}
	if err := it.advanceParent(); err != nil {
		parent.Release()
		return nil, err
	}
	return it, nil
}

func (it *mergedIterator) advanceParent() error {
	k, v, err := it.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		it.parentKey, it.parentValue, it.parentDone = nil, nil, true
		return nil
	case err != nil:
		return err
	}
	it.parentKey, it.parentValue = k, v
	return nil
}

// Next returns the next visible key value pair or ErrIteratorDone.
func (it *mergedIterator) Next() (key, value []byte, err error) {
	for {
		if len(it.local) == 0 && it.parentDone {
			return nil, nil, errors.ErrIteratorDone
		}

		// cmp > 0 means the parent item comes first.
		var cmp int
		switch {
		case len(it.local) == 0:
			cmp = 1
		case it.parentDone:
			cmp = -1
		default:
			cmp = bytes.Compare(it.local[0].Key(), it.parentKey)
			if it.reverse {
				cmp = -cmp
			}
		}

		if cmp > 0 {
			key, value = it.parentKey, it.parentValue
			if err := it.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		}

		item := it.local[0]
		it.local = it.local[1:]
		if cmp == 0 {
			if err := it.advanceParent(); err != nil {
				return nil, nil, err
			}
		}
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
	}
}

// Release releases the parent iterator.
func (it *mergedIterator) Release() {
	it.local = nil
	it.parent.Release()
}
