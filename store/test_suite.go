package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/weavetest/assert"
)

// TestSuite runs the same KVStore conformance checks against any store
// implementation. Only the constructor of the base store differs between the
// in memory btree and the iavl backed store.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function that releases
// all resources used by it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

// NewTestSuite returns a suite running against stores created by given
// constructor.
func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that writes are only visible in the cache wrap until the
// wrap is written, and are dropped when the wrap is discarded.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("deal:1"), []byte("active")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("deal:2"), []byte("confirmed")
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k2, v2, true)

	k3, v3 := []byte("deal:3"), []byte("refunded")
	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(k3, v3))
	assert.Nil(t, discarded.Delete(k))
	s.AssertGetHas(t, discarded, k, nil, false)
	discarded.Discard()

	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k3, nil, false)
}

// CacheConflicts checks that nested cache wraps shadow and delete values of
// their parents.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v, v2 := []byte("balance"), []byte("100"), []byte("40")
	assert.Nil(t, base.Set(k, v))

	outer := base.CacheWrap()
	assert.Nil(t, outer.Set(k, v2))
	inner := outer.CacheWrap()
	s.AssertGetHas(t, inner, k, v2, true)
	assert.Nil(t, inner.Delete(k))
	s.AssertGetHas(t, inner, k, nil, false)
	s.AssertGetHas(t, outer, k, v2, true)

	assert.Nil(t, inner.Write())
	s.AssertGetHas(t, outer, k, nil, false)
	s.AssertGetHas(t, base, k, v, true)

	assert.Nil(t, outer.Write())
	s.AssertGetHas(t, base, k, nil, false)
}

// IteratorWithConflicts checks that an iterator over a cache wrap merges
// cached writes and deletes with the parent data, in both directions.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	for _, k := range []string{"a", "c", "e", "g"} {
		assert.Nil(t, base.Set([]byte(k), []byte("base-"+k)))
	}

	cache := base.CacheWrap()
	assert.Nil(t, cache.Set([]byte("b"), []byte("cache-b")))
	assert.Nil(t, cache.Set([]byte("c"), []byte("cache-c")))
	assert.Nil(t, cache.Delete([]byte("e")))
	assert.Nil(t, cache.Set([]byte("h"), []byte("cache-h")))

	want := []Model{
		{Key: []byte("a"), Value: []byte("base-a")},
		{Key: []byte("b"), Value: []byte("cache-b")},
		{Key: []byte("c"), Value: []byte("cache-c")},
		{Key: []byte("g"), Value: []byte("base-g")},
		{Key: []byte("h"), Value: []byte("cache-h")},
	}

	it, err := cache.Iterator(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, want, ReadAll(t, it))

	it, err = cache.ReverseIterator(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, reverse(want), ReadAll(t, it))

	it, err = cache.Iterator([]byte("b"), []byte("h"))
	assert.Nil(t, err)
	assert.Equal(t, want[1:4], ReadAll(t, it))

	it, err = cache.ReverseIterator([]byte("b"), []byte("h"))
	assert.Nil(t, err)
	assert.Equal(t, reverse(want[1:4]), ReadAll(t, it))
}

// FuzzIterator writes random data to the base and to a cache wrap and
// compares the iteration result with a sorted expectation.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	all := randModels(60, 8, 16)
	for _, m := range all[:30] {
		assert.Nil(t, base.Set(m.Key, m.Value))
	}
	cache := base.CacheWrap()
	for _, m := range all[30:] {
		assert.Nil(t, cache.Set(m.Key, m.Value))
	}
	// drop a few from both layers
	for _, m := range all[25:35] {
		assert.Nil(t, cache.Delete(m.Key))
	}
	want := sortModels(append(append([]Model{}, all[:25]...), all[35:]...))

	it, err := cache.Iterator(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, want, ReadAll(t, it))

	it, err = cache.ReverseIterator(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, reverse(want), ReadAll(t, it))
}

// AssertGetHas makes sure Get and Has return the expected values.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	if !bytes.Equal(val, got) {
		t.Fatalf("want %q value for %q, got %q", val, key, got)
	}
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	if exists != has {
		t.Fatalf("want has=%v for %q", has, key)
	}
}

// ReadAll consumes and releases the iterator.
func ReadAll(t testing.TB, it Iterator) []Model {
	t.Helper()
	defer it.Release()

	var res []Model
	for {
		k, v, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res
		}
		assert.Nil(t, err)
		res = append(res, Model{Key: k, Value: v})
	}
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	res := make([]Model, count)
	for i := range res {
		res[i] = Model{Key: randBytes(keySize), Value: randBytes(valueSize)}
	}
	return res
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	sort.Slice(models, func(i, j int) bool {
		return bytes.Compare(models[i].Key, models[j].Key) < 0
	})
	return models
}
