/*
Package orm provides an easy to use db wrapper.

Models are kept in buckets. A bucket prefixes the key of every model it
stores with its name, so that many buckets can share one KVStore. Secondary
indexes map a value calculated from a model, for example its owner, to the
primary keys of all models that produce this value. Sequences generate
monotonically increasing keys.

Buckets can register themselves with a query router so that the stored
models are available to clients.
*/
package orm
