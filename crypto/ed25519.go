package crypto

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"golang.org/x/crypto/ed25519"
)

// PublicKey is the serialized form of a public key.
type PublicKey struct {
	Ed25519 []byte
}

// PrivateKey is the serialized form of a private key.
type PrivateKey struct {
	Ed25519 []byte
}

// Signature is the serialized form of a signature.
type Signature struct {
	Ed25519 []byte
}

var _ PubKey = (*PublicKey)(nil)

// Verify verifies the signature was created with this message and public key
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	if p == nil || sig == nil {
		return false
	}
	if len(p.Ed25519) != ed25519.PublicKeySize || len(sig.Ed25519) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig.Ed25519)
}

// Condition encodes the public key into a weave condition.
func (p *PublicKey) Condition() weave.Condition {
	if p == nil || len(p.Ed25519) == 0 {
		return nil
	}
	return weave.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Validate returns an error if the key cannot be used for verification.
func (p *PublicKey) Validate() error {
	if p == nil {
		return errors.Wrap(errors.ErrEmpty, "public key")
	}
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInput, "public key length %d", len(p.Ed25519))
	}
	return nil
}

var _ Signer = (*PrivateKey)(nil)

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "private key length %d", len(p.Ed25519))
	}
	return &Signature{Ed25519: ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message)}, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(p.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 returns a random new private key.
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}
