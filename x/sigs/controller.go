package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/crypto"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures checks all the signatures on the tx.
//
// It returns the list of signer conditions (possibly empty),
// or an error if any signature is invalid. The nonce of every signer is
// incremented.
func VerifyTxSignatures(db weave.KVStore, tx SignedTx, chainID string) ([]weave.Condition, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()

	signers := make([]weave.Condition, 0, len(sigs))
	for _, sig := range sigs {
		signer, err := VerifySignature(db, sig, bz, chainID)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature checks one signature against signbytes,
// check chain and updates state in the store
func VerifySignature(db weave.KVStore, sig *StdSignature, signBytes []byte, chainID string) (weave.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	bucket := NewBucket()
	user, err := loadUser(db, bucket, sig.Pubkey)
	if err != nil {
		return nil, err
	}

	toSign, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	if !user.Pubkey.Verify(toSign, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := bucket.Put(db, user.Pubkey.Address(), user); err != nil {
		return nil, err
	}
	return user.Pubkey.Condition(), nil
}

// NextSequence returns the sequence the next signature of given key must use.
func NextSequence(db weave.ReadOnlyKVStore, pubkey *crypto.PublicKey) (int64, error) {
	user, err := loadUser(db, NewBucket(), pubkey)
	if err != nil {
		return 0, err
	}
	return user.Sequence, nil
}

/*
BuildSignBytes combines all info on the actual tx before signing

	version | len(chainID) | chainID      | nonce             | signBytes
	4bytes  | uint8        | ascii string | int64 (bigendian) | serialized transaction

This is then prehashed with sha512 before fed into
the public key signing/verification step
*/
func BuildSignBytes(signBytes []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !weave.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, uint64(seq))

	output := make([]byte, 0, 4+1+len(chainID)+8+len(signBytes))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, []byte(chainID)...)
	output = append(output, nonce...)
	output = append(output, signBytes...)

	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// SignTx creates a signature for the given tx
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	toSign, err := BuildSignBytes(signBytes, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(toSign)
	if err != nil {
		return nil, err
	}
	return &StdSignature{
		Pubkey:    signer.PublicKey(),
		Signature: sig,
		Sequence:  seq,
	}, nil
}
