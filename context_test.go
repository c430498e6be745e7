package weave

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestContext(t *testing.T) {
	bg := context.Background()

	newLogger := log.NewTMLogger(os.Stdout)
	ctx := WithLogger(bg, newLogger)
	assert.Equal(t, DefaultLogger, GetLogger(bg))
	assert.Equal(t, newLogger, GetLogger(ctx))

	val, ok := GetHeight(ctx)
	assert.Equal(t, int64(0), val)
	assert.False(t, ok)
	ctx = WithHeight(ctx, 7)
	val, ok = GetHeight(ctx)
	assert.Equal(t, int64(7), val)
	assert.True(t, ok)

	// changing the info, should modify the logger, but not the height
	ctx2 := WithLogInfo(ctx, "deal", 1)
	assert.NotEqual(t, GetLogger(ctx), GetLogger(ctx2))
	val, _ = GetHeight(ctx2)
	assert.Equal(t, int64(7), val)

	// chain id MUST be set exactly once
	assert.Panics(t, func() { GetChainID(ctx) })
	ctx2 = WithChainID(ctx, "my-chain")
	assert.Equal(t, "my-chain", GetChainID(ctx2))
	assert.Panics(t, func() { WithChainID(ctx2, "my-chain") })
}

func TestBlockTime(t *testing.T) {
	ctx := context.Background()

	_, err := BlockTime(ctx)
	assert.True(t, errors.ErrHuman.Is(err))

	_, err = BlockTime(WithBlockTime(ctx, time.Time{}))
	assert.True(t, errors.ErrHuman.Is(err))

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	got, err := BlockTime(WithBlockTime(ctx, now))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, now.Equal(got))
}

func TestChainID(t *testing.T) {
	cases := []struct {
		chainID string
		valid   bool
	}{
		{"", false},
		{"foo", false},
		{"special", true},
		{"deal-ledger-1", true},
		{"invalid;;chars", false},
		{"this-chain-id-is-way-too-long", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.valid, IsValidChainID(tc.chainID), tc.chainID)
	}
}
