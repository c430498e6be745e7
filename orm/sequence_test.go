package orm

import (
	"testing"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store"
	"github.com/michaelwinczuk/agent-contracts/weavetest/assert"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()
	seq := NewSequence("deals", "id")

	cur, err := seq.Current(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), cur)

	v, err := seq.NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), v)

	raw, err := seq.NextVal(db)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2}, raw)

	// another instance with the same name shares the state
	other := NewSequence("deals", "id")
	v, err = other.NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), v)

	// a sequence with a different name does not
	v, err = NewSequence("deals", "other").NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), v)

	assert.Nil(t, seq.Set(db, 10))
	v, err = seq.NextInt(db)
	assert.Nil(t, err)
	assert.Equal(t, uint64(11), v)

	assert.IsErr(t, errors.ErrState, seq.Set(db, 5))
}

func TestSequenceEncodingOrder(t *testing.T) {
	a, b := EncodeSequence(255), EncodeSequence(256)
	if string(a) >= string(b) {
		t.Fatal("encoded values must keep numeric order")
	}
	got, err := DecodeSequence(b)
	assert.Nil(t, err)
	assert.Equal(t, uint64(256), got)

	_, err = DecodeSequence([]byte{1, 2})
	assert.IsErr(t, errors.ErrInput, err)
}

func TestPrefixRange(t *testing.T) {
	cases := map[string]struct {
		prefix, start, end []byte
	}{
		"nil":           {nil, nil, nil},
		"simple":        {[]byte("ab"), []byte("ab"), []byte("ac")},
		"trailing 0xFF": {[]byte{1, 0xFF}, []byte{1, 0xFF}, []byte{2}},
		"all 0xFF":      {[]byte{0xFF, 0xFF}, []byte{0xFF, 0xFF}, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			start, end := prefixRange(tc.prefix)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}
