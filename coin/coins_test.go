package coin

import (
	"testing"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/weavetest/assert"
)

func TestCoinsAddSubtract(t *testing.T) {
	var cs Coins
	cs, err := cs.Add(NewCoin(5, 0, "IOV"))
	assert.Nil(t, err)
	cs, err = cs.Add(NewCoin(1, 0, "ETH"))
	assert.Nil(t, err)
	cs, err = cs.Add(NewCoin(0, 0, "BTC"))
	assert.Nil(t, err)

	assert.Nil(t, cs.Validate())
	assert.Equal(t, 2, len(cs))
	assert.Equal(t, "ETH", cs[0].Ticker)
	assert.Equal(t, true, cs.Contains(NewCoin(4, 999999999, "IOV")))
	assert.Equal(t, false, cs.Contains(NewCoin(5, 1, "IOV")))
	assert.Equal(t, false, cs.Contains(NewCoin(0, 1, "BTC")))

	// subtracting everything removes the entry
	after, err := cs.Subtract(NewCoin(1, 0, "ETH"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(after))
	assert.Equal(t, NewCoin(0, 0, "ETH"), after.Get("ETH"))

	// the original set is untouched
	assert.Equal(t, NewCoin(1, 0, "ETH"), cs.Get("ETH"))

	overdrawn, err := after.Subtract(NewCoin(6, 0, "IOV"))
	assert.Nil(t, err)
	assert.Equal(t, false, overdrawn.IsNonNegative())

	_, err = cs.Add(NewCoin(MaxInt, 0, "IOV"))
	assert.IsErr(t, errors.ErrOverflow, err)
}

func TestCoinsValidate(t *testing.T) {
	unsorted := Coins{NewCoinp(1, 0, "IOV"), NewCoinp(1, 0, "ETH")}
	assert.IsErr(t, errors.ErrState, unsorted.Validate())

	zero := Coins{NewCoinp(0, 0, "ETH")}
	assert.IsErr(t, errors.ErrState, zero.Validate())

	assert.Equal(t, true, Coins{NewCoinp(1, 0, "ETH")}.Equals(Coins{NewCoinp(1, 0, "ETH")}))
	assert.Equal(t, false, Coins{NewCoinp(1, 0, "ETH")}.Equals(nil))
}
