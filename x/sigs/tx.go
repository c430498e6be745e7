package sigs

import (
	"github.com/michaelwinczuk/agent-contracts/crypto"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the
	// transaction without the signatures.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signatures of all signers.
	GetSignatures() []*StdSignature
}

// StdSignature is a signature of the sign bytes of a transaction together
// with the public key and the nonce used.
type StdSignature struct {
	Sequence  int64             `json:"sequence"`
	Pubkey    *crypto.PublicKey `json:"pubkey"`
	Signature *crypto.Signature `json:"signature"`
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}
