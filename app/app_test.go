package app

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store/iavl"
	"github.com/michaelwinczuk/agent-contracts/weavetest"
	"github.com/michaelwinczuk/agent-contracts/x/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
)

// kvQuery returns the value stored under the requested key.
type kvQuery struct{}

func (kvQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	val, err := db.Get(data)
	if err != nil || val == nil {
		return nil, err
	}
	return []weave.Model{weave.Pair(data, val)}, nil
}

// genesisWriter stores every option as a key value pair.
type genesisWriter struct{}

func (genesisWriter) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var v string
	if err := opts.ReadOptions("greeting", &v); err != nil {
		return err
	}
	return db.Set([]byte("greeting"), []byte(v))
}

// blockTimeHandler records the block time of the context it is called with.
type blockTimeHandler struct {
	weavetest.Handler
	seen time.Time
}

func (h *blockTimeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.seen, _ = weave.BlockTime(ctx)
	return h.Handler.Deliver(ctx, db, tx)
}

func newTestApp(t *testing.T, store weave.CommitKVStore) (BaseApp, *blockTimeHandler) {
	t.Helper()

	qr := weave.NewQueryRouter()
	qr.Register("/kv", kvQuery{})

	rt := NewRouter()
	rt.Handle("test/write", &weavetest.WriteHandler{Key: []byte("written"), Value: []byte("yes")})
	rt.Handle("test/fail", &weavetest.Handler{DeliverErr: errors.ErrState, CheckErr: errors.ErrState})
	timer := &blockTimeHandler{}
	rt.Handle("test/time", timer)

	sapp, err := NewStoreApp("test-app", store, qr, context.Background())
	require.NoError(t, err)
	sapp.WithInit(ChainInitializers(genesisWriter{}))

	decoder := func(raw []byte) (weave.Tx, error) {
		if string(raw) == "panic" {
			panic("cannot decode")
		}
		return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: string(raw)}}, nil
	}
	handler := ChainDecorators(utils.NewSavepoint().OnCheck().OnDeliver()).WithHandler(rt)
	return NewBaseApp(sapp, decoder, handler, false), timer
}

func queryKey(t *testing.T, a BaseApp, key string) []byte {
	t.Helper()
	res := a.Query(abci.RequestQuery{Path: "/kv", Data: []byte(key)})
	require.Equal(t, uint32(0), res.Code, res.Log)
	var values ResultSet
	require.NoError(t, values.Unmarshal(res.Value))
	if len(values.Results) == 0 {
		return nil
	}
	return values.Results[0]
}

func TestBaseAppLifecycle(t *testing.T) {
	store := weavetest.CommitKVStore(t)
	a, timer := newTestApp(t, store)

	genesis, err := json.Marshal(map[string]string{"greeting": "hello"})
	require.NoError(t, err)
	a.InitChain(abci.RequestInitChain{ChainId: "test-chain-1", AppStateBytes: genesis})
	assert.Equal(t, "test-chain-1", a.GetChainID())

	blockTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 1, Time: blockTime}})

	check := a.CheckTx([]byte("test/write"))
	assert.Equal(t, uint32(0), check.Code, check.Log)
	res := a.DeliverTx([]byte("test/write"))
	assert.Equal(t, uint32(0), res.Code, res.Log)
	res = a.DeliverTx([]byte("test/time"))
	assert.Equal(t, uint32(0), res.Code, res.Log)
	assert.Equal(t, blockTime, timer.seen)

	res = a.DeliverTx([]byte("test/fail"))
	assert.Equal(t, errors.ErrState.ABCICode(), res.Code)
	res = a.DeliverTx([]byte("test/unknown"))
	assert.Equal(t, errors.ErrNotFound.ABCICode(), res.Code)
	res = a.DeliverTx([]byte("panic"))
	assert.Equal(t, errors.ErrPanic.ABCICode(), res.Code)
	check = a.CheckTx([]byte("panic"))
	assert.Equal(t, errors.ErrPanic.ABCICode(), check.Code)

	// nothing is visible before the commit
	assert.Nil(t, queryKey(t, a, "written"))

	a.EndBlock(abci.RequestEndBlock{})
	commit := a.Commit()
	assert.NotEmpty(t, commit.Data)

	assert.Equal(t, []byte("yes"), queryKey(t, a, "written"))
	assert.Equal(t, []byte("hello"), queryKey(t, a, "greeting"))

	info := a.Info(abci.RequestInfo{})
	assert.Equal(t, int64(1), info.LastBlockHeight)
	assert.Equal(t, commit.Data, info.LastBlockAppHash)
	assert.Equal(t, "test-app", info.Data)

	unknown := a.Query(abci.RequestQuery{Path: "/nothing"})
	assert.Equal(t, errors.ErrNotFound.ABCICode(), unknown.Code)

	// the chain id survives a restart
	restarted, err := NewStoreApp("test-app", store, weave.NewQueryRouter(), context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-chain-1", restarted.GetChainID())
	assert.Panics(t, func() {
		restarted.InitChain(abci.RequestInitChain{ChainId: "test-chain-2", AppStateBytes: genesis})
	})
}

func TestInitChainFailures(t *testing.T) {
	cases := map[string]abci.RequestInitChain{
		"missing app state": {ChainId: "test-chain-1"},
		"invalid chain id":  {ChainId: "x", AppStateBytes: []byte(`{}`)},
		"malformed state":   {ChainId: "test-chain-1", AppStateBytes: []byte(`[1, 2]`)},
	}
	for testName, req := range cases {
		t.Run(testName, func(t *testing.T) {
			a, _ := newTestApp(t, iavl.NewMemCommitStore())
			assert.Panics(t, func() { a.InitChain(req) })
		})
	}
}

func TestResultSets(t *testing.T) {
	models := []weave.Model{
		weave.Pair([]byte("a"), []byte("1")),
		weave.Pair([]byte("b"), []byte("2")),
	}
	joined, err := JoinResults(ResultsFromKeys(models), ResultsFromValues(models))
	require.NoError(t, err)
	assert.Equal(t, models, joined)

	_, err = JoinResults(ResultsFromKeys(models), &ResultSet{})
	assert.True(t, errors.ErrState.Is(err))

	raw, err := ResultsFromValues(models).Marshal()
	require.NoError(t, err)
	var got weavetest.Msg
	require.NoError(t, UnmarshalOneResult(raw, &got))
	assert.Equal(t, []byte("1"), got.Serialized)

	empty, err := (&ResultSet{}).Marshal()
	require.NoError(t, err)
	assert.True(t, errors.ErrNotFound.Is(UnmarshalOneResult(empty, &got)))
}

func TestLoadGenesis(t *testing.T) {
	path := t.TempDir() + "/genesis.json"
	genesis := `{"chain_id": "test-chain-1", "app_state": {"greeting": "hi"}}`
	require.NoError(t, os.WriteFile(path, []byte(genesis), 0o600))

	gen, err := LoadGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "test-chain-1", gen.ChainID)
	assert.Contains(t, gen.AppState, "greeting")

	_, err = LoadGenesis(t.TempDir() + "/missing.json")
	assert.True(t, errors.ErrInput.Is(err))
}
