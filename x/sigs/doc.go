/*
Package sigs provides basic authentication
middleware to verify the signatures on the transaction,
and maintain nonces for replay protection.

Every signature carries the sequence number of the signing account. A
signature is only valid for the current sequence, which is incremented
after each successful verification.
*/
package sigs
