package deal

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store"
	"github.com/michaelwinczuk/agent-contracts/weavetest/assert"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
)

const genesisCommitment = "6AB0A4D3A0F6B6E6A1C8F5E1D2B3C4A5968778695A4B3C2D1E0F1A2B3C4D5E6F"

func TestGenesis(t *testing.T) {
	genesis := `{
		"deal": {
			"deals": [
				{
					"buyer": "hex:B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0",
					"provider": "hex:C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0",
					"task_commitment": "` + genesisCommitment + `",
					"amount": "0.1 ETH",
					"created_at": "2024-03-01T12:00:00Z",
					"deadline": "2024-03-01T13:00:00Z"
				},
				{
					"buyer": "hex:B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0",
					"provider": "hex:C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0",
					"task_commitment": "` + genesisCommitment + `",
					"amount": "3 ETH",
					"created_at": 1700000000,
					"deadline": 1700003600,
					"state": "confirmed",
					"settled_at": 1700000100
				}
			]
		}
	}`
	var opts weave.Options
	assert.Nil(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	bank := cash.NewController(cash.NewBucket())
	assert.Nil(t, Initializer{Minter: bank}.FromGenesis(opts, db))

	ctrl := NewController(NewCashCustody(bank))
	first, err := ctrl.Deal(db, 0)
	assert.Nil(t, err)
	assert.Equal(t, StateActive, first.State)
	assert.Equal(t, weave.AsUnixTime(t0.Add(time.Hour)), first.Deadline)
	assert.Equal(t, Condition(0).Address(), first.Address)

	// Only the active deal is funded.
	balance, err := bank.Balance(db, first.Address)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(0, 100000000, "ETH"), balance.Get("ETH"))

	second, err := ctrl.Deal(db, 1)
	assert.Nil(t, err)
	assert.Equal(t, StateConfirmed, second.State)
	balance, err = bank.Balance(db, second.Address)
	assert.Nil(t, err)
	assert.Equal(t, true, balance.IsEmpty())

	// The sequence continues after the genesis deals.
	buyer := first.Buyer
	assert.Nil(t, bank.IssueCoins(db, buyer, coin.NewCoin(1, 0, "ETH")))
	d, err := ctrl.Create(at(t0), db, buyer, first.Provider, commitment, time.Hour, deposit)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), d.ID)

	// The genesis deposit can be released.
	_, err = ctrl.Confirm(at(t0), db, buyer, 0)
	assert.Nil(t, err)
	balance, err = bank.Balance(db, first.Provider)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(0, 100000000, "ETH"), balance.Get("ETH"))
}

func TestGenesisFailures(t *testing.T) {
	const deal = `{
		"buyer": "hex:B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0B0",
		"provider": "hex:C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0C0",
		"task_commitment": "` + genesisCommitment + `",
		"amount": "1 ETH",
		"created_at": 1700000000,
		"deadline": %s
	}`

	cases := map[string]struct {
		genesis string
		minter  Minter
		wantErr *errors.Error
	}{
		"no deals": {
			genesis: `{}`,
		},
		"deadline before creation": {
			genesis: `{"deal": {"deals": [` + fmt.Sprintf(deal, "1600000000") + `]}}`,
			minter:  cash.NewController(cash.NewBucket()),
			wantErr: ErrInvalidDuration,
		},
		"active deal without minter": {
			genesis: `{"deal": {"deals": [` + fmt.Sprintf(deal, "1700003600") + `]}}`,
			wantErr: errors.ErrHuman,
		},
		"malformed": {
			genesis: `{"deal": {"deals": {}}}`,
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts weave.Options
			assert.Nil(t, json.Unmarshal([]byte(tc.genesis), &opts))
			err := Initializer{Minter: tc.minter}.FromGenesis(opts, store.MemStore())
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}
