package orm

import (
	"testing"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store"
	"github.com/michaelwinczuk/agent-contracts/weavetest/assert"
)

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("notes", &note{})

	alice := weave.NewCondition("test", "user", []byte("alice")).Address()
	assert.Nil(t, b.Put(db, []byte("a"), newNote(alice, "hello")))

	var got note
	assert.Nil(t, b.One(db, []byte("a"), &got))
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, alice, got.Owner)

	ok, err := b.Exists(db, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, true, ok)

	err = b.One(db, []byte("missing"), &got)
	assert.IsErr(t, errors.ErrNotFound, err)

	type other struct{ note }
	err = b.One(db, []byte("a"), &other{})
	assert.IsErr(t, errors.ErrType, err)

	err = b.Put(db, []byte("b"), &note{Metadata: &weave.Metadata{Schema: 1}})
	assert.IsErr(t, errors.ErrEmpty, err)

	err = b.Put(db, nil, newNote(alice, "no key"))
	assert.IsErr(t, errors.ErrEmpty, err)
}

func TestModelBucketDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("notes", &note{})

	assert.Nil(t, b.Put(db, []byte("a"), newNote(nil, "x")))
	assert.Nil(t, b.Delete(db, []byte("a")))
	assert.IsErr(t, errors.ErrNotFound, b.Delete(db, []byte("a")))
	assert.IsErr(t, errors.ErrNotFound, b.One(db, []byte("a"), &note{}))
}

func TestModelBucketIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("notes", &note{}, WithIndex("owner", ownerIndexer))

	alice := weave.NewCondition("test", "user", []byte("alice")).Address()
	bob := weave.NewCondition("test", "user", []byte("bob")).Address()

	assert.Nil(t, b.Put(db, []byte{0, 2}, newNote(alice, "second")))
	assert.Nil(t, b.Put(db, []byte{0, 1}, newNote(alice, "first")))
	assert.Nil(t, b.Put(db, []byte{0, 3}, newNote(bob, "bob's")))

	var notes []note
	keys, err := b.ByIndex(db, "owner", alice, &notes)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{{0, 1}, {0, 2}}, keys)
	assert.Equal(t, 2, len(notes))
	assert.Equal(t, "first", notes[0].Text)

	// moving a note to another owner updates the index
	assert.Nil(t, b.Put(db, []byte{0, 2}, newNote(bob, "moved")))
	var ptrs []*note
	keys, err = b.ByIndex(db, "owner", bob, &ptrs)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{{0, 2}, {0, 3}}, keys)
	assert.Equal(t, "moved", ptrs[0].Text)

	// deleting removes the reference
	assert.Nil(t, b.Delete(db, []byte{0, 1}))
	keys, err = b.ByIndex(db, "owner", alice, &notes)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keys))

	_, err = b.ByIndex(db, "unknown", alice, &notes)
	assert.IsErr(t, errors.ErrInput, err)
	_, err = b.ByIndex(db, "owner", alice, notes)
	assert.IsErr(t, errors.ErrType, err)
}

func TestModelBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("notes", &note{}, WithIndex("owner", ownerIndexer))
	router := weave.NewQueryRouter()
	b.Register("", router)

	alice := weave.NewCondition("test", "user", []byte("alice")).Address()
	assert.Nil(t, b.Put(db, []byte("aa"), newNote(alice, "one")))
	assert.Nil(t, b.Put(db, []byte("ab"), newNote(alice, "two")))
	assert.Nil(t, b.Put(db, []byte("b"), newNote(nil, "three")))

	res, err := router.Handler("/notes").Query(db, weave.KeyQueryMod, []byte("aa"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res))
	assert.Equal(t, []byte("aa"), res[0].Key)

	res, err = router.Handler("/notes").Query(db, weave.PrefixQueryMod, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))

	res, err = router.Handler("/notes/owner").Query(db, weave.KeyQueryMod, alice)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))

	var n note
	assert.Nil(t, n.Unmarshal(res[1].Value))
	assert.Equal(t, "two", n.Text)

	res, err = router.Handler("/notes").Query(db, weave.KeyQueryMod, []byte("zz"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(res))
}

func TestBucketNameValidation(t *testing.T) {
	assert.Panics(t, func() { NewModelBucket("No", &note{}) })
	assert.Panics(t, func() { NewModelBucket("labels", label("x")) })
	assert.Panics(t, func() {
		NewModelBucket("notes", &note{}, WithIndex("owner", ownerIndexer), WithIndex("owner", ownerIndexer))
	})
}
