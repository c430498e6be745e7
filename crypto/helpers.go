package crypto

import (
	weave "github.com/michaelwinczuk/agent-contracts"
)

// ExtensionName is used for the conditions we get from signatures.
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use.
type PubKey interface {
	Verify(message []byte, sig *Signature) bool
	Condition() weave.Condition
}

// Signer is the functionality we use from a private key.
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// Address is a shortcut for the address of the condition created by this key.
func (p *PublicKey) Address() weave.Address {
	return p.Condition().Address()
}
