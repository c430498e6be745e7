/*
Package errors implements the error handling used across the application.

Every error returned to a client should wrap one of the root errors declared
with Register. Each root error carries an ABCI code that allows a client to
distinguish failure kinds. Use ErrXyz.New, ErrXyz.Newf or Wrap at the point of
creation so that a stack trace is attached. Only the innermost wrap records
the stack.

Once you have an error, format it with fmt:
	%s is just the error message
	%+v is the message followed by the stack trace
*/
package errors
