package weavetest

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/crypto"
)

// NewKey returns a freshly generated signing key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signature condition of a new key.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}
