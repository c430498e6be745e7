package cash

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/orm"
)

// Controller is the functionality needed by other extensions to move value
// between accounts.
type Controller interface {
	// Balance returns the coins owned by given address. An unknown address
	// owns nothing.
	Balance(weave.ReadOnlyKVStore, weave.Address) (coin.Coins, error)

	// MoveCoins transfers amount from src to dest. It fails if src does
	// not own at least amount.
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Coin) error

	// IssueCoins adds amount to the balance of dest. The amount may be
	// negative, but the resulting balance may not.
	IssueCoins(db weave.KVStore, dest weave.Address, amount coin.Coin) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on given wallet bucket.
func NewController(bucket orm.ModelBucket) BaseController {
	return BaseController{bucket: bucket}
}

func (c BaseController) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (coin.Coins, error) {
	w, err := c.wallet(db, addr)
	if err != nil {
		return nil, err
	}
	return w.Coins, nil
}

func (c BaseController) MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non positive amount %v", amount)
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}

	ok, err := c.bucket.Exists(db, src)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	sender, err := c.wallet(db, src)
	if err != nil {
		return err
	}
	if !sender.Coins.Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "account %s has %v", src, sender.Coins.Get(amount.Ticker))
	}
	if sender.Coins, err = sender.Coins.Subtract(amount); err != nil {
		return err
	}
	if err := c.bucket.Put(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}

	// Load the recipient after the sender is saved so that moving coins
	// to self is a no-op.
	recipient, err := c.wallet(db, dest)
	if err != nil {
		return err
	}
	if recipient.Coins, err = recipient.Coins.Add(amount); err != nil {
		return err
	}
	return errors.Wrap(c.bucket.Put(db, dest, recipient), "save recipient")
}

func (c BaseController) IssueCoins(db weave.KVStore, dest weave.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	w, err := c.wallet(db, dest)
	if err != nil {
		return err
	}
	if w.Coins, err = w.Coins.Add(amount); err != nil {
		return err
	}
	if !w.Coins.IsNonNegative() {
		return errors.Wrapf(errors.ErrInsufficientAmount, "account %s cannot go below zero", dest)
	}
	return c.bucket.Put(db, dest, w)
}

// wallet returns the wallet of given address or an empty one.
func (c BaseController) wallet(db weave.ReadOnlyKVStore, addr weave.Address) (*Wallet, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	var w Wallet
	switch err := c.bucket.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return NewWallet(), nil
	default:
		return nil, err
	}
}
