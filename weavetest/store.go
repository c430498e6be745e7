package weavetest

import (
	"os"
	"testing"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/store/iavl"
)

// CommitKVStore returns a store instance that is using a filesystem backend
// engine to store the data. Use it instead of store.MemStore when the test
// needs the exact storage used in production.
func CommitKVStore(t testing.TB) weave.CommitKVStore {
	t.Helper()

	dir, err := os.MkdirTemp("", "weavetest")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	db, err := iavl.NewCommitStore(dir, "db")
	if err != nil {
		t.Fatalf("cannot create commit store: %s", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(dir)
	})
	return db
}
