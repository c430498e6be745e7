/*
Package x contains the extensions of the deal ledger application.

Extensions implement common functionality (Handler, Decorator,
Initializer) and are combined together to construct an application.
This package holds the authentication glue shared by all of them: an
extension never inspects signatures itself, it asks an Authenticator
which conditions signed the current transaction.
*/
package x
