package orm

import (
	"fmt"
	"reflect"
	"regexp"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	weave.Persistent
	Validate() error
}

// ModelBucket stores models of a single type.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db weave.ReadOnlyKVStore, key []byte, dest Model) error

	// Exists returns true if a model with given primary key is stored.
	Exists(db weave.ReadOnlyKVStore, key []byte) (bool, error)

	// Put validates and saves given model in the database, updating all
	// indexes.
	Put(db weave.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weave.KVStore, key []byte) error

	// ByIndex loads all models indexed under given value into the
	// destination, which must be a pointer to a slice of models. Primary
	// keys of the loaded models are returned in the same order.
	ByIndex(db weave.ReadOnlyKVStore, indexName string, value []byte, dest interface{}) ([][]byte, error)

	// Register registers the bucket and all its indexes in the query
	// router under "/<name>". The bucket name is used if name is empty.
	Register(name string, r weave.QueryRouter)
}

// ModelBucketOption configures a ModelBucket.
type ModelBucketOption func(*modelBucket)

// WithIndex adds a secondary index to the bucket.
func WithIndex(name string, indexer Indexer) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("index %q already registered", name))
		}
		mb.indexes[name] = newIndex(mb.name, name, indexer)
	}
}

var isBucketName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString

// NewModelBucket returns a bucket storing models of the same type as proto.
// Name must be unique for the KVStore and is used as the key prefix.
func NewModelBucket(name string, proto Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket name: %q", name))
	}
	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("model must be a pointer to a struct, got %T", proto))
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   t.Elem(),
		indexes: make(map[string]Index),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]Index
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	out := make([]byte, 0, len(mb.prefix)+len(key))
	out = append(out, mb.prefix...)
	return append(out, key...)
}

func (mb *modelBucket) newModel() Model {
	return reflect.New(mb.model).Interface().(Model)
}

func (mb *modelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != reflect.PtrTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %s", dest, mb.model)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot load from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "%s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Exists(db weave.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot query the database")
	}
	return ok, nil
}

func (mb *modelBucket) Put(db weave.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if reflect.TypeOf(m) != reflect.PtrTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%T cannot be stored in %s", m, mb.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}

	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, m); err != nil {
			return err
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db weave.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, nil); err != nil {
			return err
		}
	}
	return db.Delete(mb.dbKey(key))
}

// load returns the stored model or nil if it does not exist.
func (mb *modelBucket) load(db weave.ReadOnlyKVStore, key []byte) (Model, error) {
	m := mb.newModel()
	switch err := mb.One(db, key, m); {
	case err == nil:
		return m, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

func (mb *modelBucket) ByIndex(db weave.ReadOnlyKVStore, indexName string, value []byte, dest interface{}) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "unknown index %q", indexName)
	}

	slice := reflect.ValueOf(dest)
	if slice.Kind() != reflect.Ptr || slice.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "destination must be a pointer to a slice, got %T", dest)
	}
	slice = slice.Elem()
	elem := slice.Type().Elem()
	if elem != mb.model && elem != reflect.PtrTo(mb.model) {
		return nil, errors.Wrapf(errors.ErrType, "cannot load %s into %T", mb.model, dest)
	}

	keys, err := idx.Keys(db, value)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		m := mb.newModel()
		if err := mb.One(db, key, m); err != nil {
			return nil, errors.Wrapf(err, "index %s refers to a missing model", indexName)
		}
		v := reflect.ValueOf(m)
		if elem == mb.model {
			v = v.Elem()
		}
		slice.Set(reflect.Append(slice, v))
	}
	return keys, nil
}

func (mb *modelBucket) Register(name string, r weave.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	r.Register(root, bucketQuery{mb: mb})
	for idxName, idx := range mb.indexes {
		r.Register(root+"/"+idxName, indexQuery{mb: mb, idx: idx})
	}
}

// bucketQuery returns models by their primary key, or all models which
// primary key starts with the given prefix.
type bucketQuery struct {
	mb *modelBucket
}

func (q bucketQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	switch mod {
	case weave.KeyQueryMod:
		raw, err := db.Get(q.mb.dbKey(data))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		return []weave.Model{weave.Pair(data, raw)}, nil
	case weave.PrefixQueryMod:
		start, end := prefixRange(q.mb.dbKey(data))
		it, err := db.Iterator(start, end)
		if err != nil {
			return nil, err
		}
		defer it.Release()

		var res []weave.Model
		for {
			key, value, err := it.Next()
			switch {
			case errors.ErrIteratorDone.Is(err):
				return res, nil
			case err != nil:
				return nil, err
			}
			res = append(res, weave.Pair(key[len(q.mb.prefix):], value))
		}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %q", mod)
	}
}

// indexQuery returns all models referenced by the index value.
type indexQuery struct {
	mb  *modelBucket
	idx Index
}

func (q indexQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %q", mod)
	}
	keys, err := q.idx.Keys(db, data)
	if err != nil {
		return nil, err
	}
	res := make([]weave.Model, 0, len(keys))
	for _, key := range keys {
		raw, err := db.Get(q.mb.dbKey(key))
		if err != nil {
			return nil, err
		}
		res = append(res, weave.Pair(key, raw))
	}
	return res, nil
}
