/*
Package weave defines the common interfaces that tie the application
subpackages together, along with the simple types shared by all of them:
conditions and addresses, block time, persisted metadata and the results of
processing a transaction.

Request scoped information, such as the block height, the block time, the
chain id or the logger, is passed between the application, decorators and
handlers through a context.Context. For every value of type T there is a pair
of functions

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ panics when a value that must be set only once is overwritten.
*/
package weave
