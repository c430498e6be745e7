package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/michaelwinczuk/agent-contracts/store"
	"github.com/michaelwinczuk/agent-contracts/weavetest/assert"
)

func makeBase() (store.CacheableKVStore, func()) {
	commit := NewMemCommitStore()
	return commit.Adapter(), commit.Close
}

func TestIavlAdapter(t *testing.T) {
	suite := store.NewTestSuite(makeBase)

	t.Run("get and set", suite.GetSet)
	t.Run("cache conflicts", suite.CacheConflicts)
	t.Run("iterator with conflicts", suite.IteratorWithConflicts)
	t.Run("fuzz iterator", suite.FuzzIterator)
}

func TestCommitAndReload(t *testing.T) {
	dir, err := ioutil.TempDir("", "iavl-commit-")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	commit, err := NewCommitStore(dir, "state")
	assert.Nil(t, err)
	assert.Nil(t, commit.LoadLatestVersion())

	k, v := []byte("deal:0"), []byte("active")

	wrap := commit.CacheWrap()
	assert.Nil(t, wrap.Set(k, v))
	assert.Nil(t, wrap.Write())

	// written but not committed
	got, err := commit.Get(k)
	assert.Nil(t, err)
	assert.Equal(t, []byte(nil), got)

	id, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)
	if len(id.Hash) == 0 {
		t.Fatal("empty root hash")
	}

	got, err = commit.Get(k)
	assert.Nil(t, err)
	assert.Equal(t, v, got)
	commit.Close()

	reopened, err := NewCommitStore(dir, "state")
	assert.Nil(t, err)
	defer reopened.Close()
	assert.Nil(t, reopened.LoadLatestVersion())

	latest, err := reopened.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, id, latest)

	got, err = reopened.Get(k)
	assert.Nil(t, err)
	assert.Equal(t, v, got)
}
