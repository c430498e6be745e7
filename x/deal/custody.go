package deal

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
)

// Custody is the value ledger that holds the deposits. It never creates or
// destroys value.
type Custody interface {
	// Lock moves amount from the buyer to the deal address.
	Lock(db weave.KVStore, from, dealAddr weave.Address, amount coin.Coin) error
	// Release moves amount from the deal address to the recipient.
	Release(db weave.KVStore, dealAddr, to weave.Address, amount coin.Coin) error
	// CurrentTime returns the clock shared by all deals.
	CurrentTime(ctx weave.Context) (weave.UnixTime, error)
}

// CashCustody keeps the deposits in x/cash wallets.
type CashCustody struct {
	bank cash.Controller
}

var _ Custody = CashCustody{}

// NewCashCustody returns a custody ledger backed by given cash controller.
func NewCashCustody(bank cash.Controller) CashCustody {
	return CashCustody{bank: bank}
}

func (c CashCustody) Lock(db weave.KVStore, from, dealAddr weave.Address, amount coin.Coin) error {
	if err := c.bank.MoveCoins(db, from, dealAddr, amount); err != nil {
		return custodyErr("lock deposit", err)
	}
	return nil
}

func (c CashCustody) Release(db weave.KVStore, dealAddr, to weave.Address, amount coin.Coin) error {
	if err := c.bank.MoveCoins(db, dealAddr, to, amount); err != nil {
		return custodyErr("release deposit", err)
	}
	return nil
}

// CurrentTime returns the block time.
func (CashCustody) CurrentTime(ctx weave.Context) (weave.UnixTime, error) {
	now, err := weave.BlockTime(ctx)
	if err != nil {
		return 0, err
	}
	return weave.AsUnixTime(now), nil
}

// custodyErr marks err as a custody failure while keeping the original
// cause testable, for example errors.ErrInsufficientAmount.
func custodyErr(action string, err error) error {
	return errors.Append(errors.Wrap(ErrCustody, action), err)
}
