package store

import (
	weave "github.com/michaelwinczuk/agent-contracts"
)

// Aliases for all storage types so that this package can be used with short
// names everywhere.
type (
	ReadOnlyKVStore  = weave.ReadOnlyKVStore
	SetDeleter       = weave.SetDeleter
	KVStore          = weave.KVStore
	Iterator         = weave.Iterator
	CacheableKVStore = weave.CacheableKVStore
	KVCacheWrap      = weave.KVCacheWrap
	CommitKVStore    = weave.CommitKVStore
	CommitID         = weave.CommitID
	Model            = weave.Model
)

// Batch collects writes that are applied together on Write.
type Batch interface {
	SetDeleter
	Write() error
}
