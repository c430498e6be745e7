package app

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
	"github.com/michaelwinczuk/agent-contracts/x/sigs"
	amino "github.com/tendermint/go-amino"
)

// cdc encodes transactions. Every message handled by the application must be
// registered here.
var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*weave.Msg)(nil), nil)
	cdc.RegisterConcrete(&cash.SendMsg{}, "cash/send", nil)
	cdc.RegisterConcrete(&deal.CreateMsg{}, "deal/create", nil)
	cdc.RegisterConcrete(&deal.ConfirmMsg{}, "deal/confirm", nil)
	cdc.RegisterConcrete(&deal.ClaimRefundMsg{}, "deal/claim_refund", nil)
}

// Tx carries a single message together with the signatures of all signers.
type Tx struct {
	Msg        weave.Msg
	Signatures []*sigs.StdSignature
}

// make sure tx fulfills all interfaces
var _ weave.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weave.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Tx) GetMsg() (weave.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "transaction without a message")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are not part of the
// signed data.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

func (tx *Tx) Marshal() ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(tx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "marshal tx: %s", err)
	}
	return bz, nil
}

func (tx *Tx) Unmarshal(raw []byte) error {
	if err := cdc.UnmarshalBinaryBare(raw, tx); err != nil {
		return errors.Wrapf(errors.ErrInput, "unmarshal tx: %s", err)
	}
	return nil
}
