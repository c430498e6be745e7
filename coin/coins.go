package coin

import (
	"sort"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Coins represents a set of coins of different currencies. A normalized set
// is sorted by ticker, has no duplicated tickers and no zero values. All
// methods keep the set normalized.
type Coins []*Coin

// Clone returns a copy that can be safely modified
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return res
}

// Add returns a new set with the holdings increased by c.
func (cs Coins) Add(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs.Clone(), nil
	}
	res := cs.Clone()
	i := sort.Search(len(res), func(i int) bool { return res[i].Ticker >= c.Ticker })
	if i < len(res) && res[i].Ticker == c.Ticker {
		sum, err := res[i].Add(c)
		if err != nil {
			return nil, err
		}
		if sum.IsZero() {
			return append(res[:i], res[i+1:]...), nil
		}
		res[i] = &sum
		return res, nil
	}

	cpy := c
	res = append(res, nil)
	copy(res[i+1:], res[i:])
	res[i] = &cpy
	return res, nil
}

// Subtract returns a new set with the holdings decreased by c. The result
// may contain negative values, use IsNonNegative to detect them.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	return cs.Add(c.Negative())
}

// Get returns the amount held of given currency. A zero coin is returned when
// the currency is not present.
func (cs Coins) Get(ticker string) Coin {
	for _, c := range cs {
		if c.Ticker == ticker {
			return *c
		}
	}
	return Coin{Ticker: ticker}
}

// Contains returns true if there is at least that much
// coin in the set.
func (cs Coins) Contains(c Coin) bool {
	return cs.Get(c.Ticker).Compare(c) >= 0
}

// IsEmpty returns true if there is no value in the set.
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// IsNonNegative returns true if no coin holds a negative value.
func (cs Coins) IsNonNegative() bool {
	for _, c := range cs {
		if !c.IsNonNegative() {
			return false
		}
	}
	return true
}

// Equals returns true if both sets hold exactly the same amounts.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate returns an error if the set is not normalized or holds an invalid
// coin.
func (cs Coins) Validate() error {
	var err error
	last := ""
	for _, c := range cs {
		if c == nil {
			return errors.Wrap(errors.ErrEmpty, "nil coin")
		}
		err = errors.Append(err, c.Validate())
		if c.IsZero() {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "zero coins"))
		}
		if c.Ticker <= last {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "not sorted or duplicated"))
		}
		last = c.Ticker
	}
	return err
}
