package gateway

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/app"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/weavetest"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGateway struct {
	t        *testing.T
	srv      *httptest.Server
	now      time.Time
	buyer    weave.Address
	provider weave.Address
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	g := &testGateway{
		t:        t,
		now:      time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		buyer:    weavetest.NewCondition().Address(),
		provider: weavetest.NewCondition().Address(),
	}

	state, err := json.Marshal(map[string]interface{}{
		"cash": []interface{}{
			map[string]interface{}{"address": g.buyer, "coins": []string{"1 ETH"}},
		},
	})
	require.NoError(t, err)
	var genesis app.Genesis
	require.NoError(t, json.Unmarshal([]byte(`{"chain_id":"gateway-test","app_state":`+string(state)+`}`), &genesis))

	bank := cash.NewController(cash.NewBucket())
	ledger, err := NewMemLedger(genesis, cash.Initializer{}, deal.NewCashCustody(bank), func() time.Time { return g.now })
	require.NoError(t, err)

	g.srv = httptest.NewServer(NewServer(ledger, bank, nil).Handler())
	t.Cleanup(g.srv.Close)
	return g
}

func (g *testGateway) do(method, path string, caller weave.Address, body interface{}, out interface{}) int {
	g.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(g.t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, g.srv.URL+path, &payload)
	require.NoError(g.t, err)
	if caller != nil {
		req.Header.Set(CallerHeader, caller.String())
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(g.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(g.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (g *testGateway) create(amount string, duration int64) (uint64, int) {
	task := sha256.Sum256([]byte("translate the user manual"))
	body := map[string]interface{}{
		"provider":        g.provider,
		"task_commitment": deal.Digest(task[:]),
		"duration":        duration,
		"amount":          amount,
	}
	var res CreateResponse
	status := g.do(http.MethodPost, "/deals", g.buyer, body, &res)
	return res.ID, status
}

func (g *testGateway) eth(addr weave.Address) coin.Coin {
	var res BalanceResponse
	require.Equal(g.t, http.StatusOK, g.do(http.MethodGet, "/accounts/"+addr.String(), nil, nil, &res))
	return res.Coins.Get("ETH")
}

func TestGatewayConfirm(t *testing.T) {
	g := newTestGateway(t)

	id, status := g.create("0.25 ETH", 3600)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, coin.NewCoin(0, 750000000, "ETH"), g.eth(g.buyer))

	var d deal.Deal
	require.Equal(t, http.StatusOK, g.do(http.MethodGet, "/deals/0", nil, nil, &d))
	assert.Equal(t, deal.StateActive, d.State)
	assert.Equal(t, g.buyer, d.Buyer)

	var fail ErrorResponse
	assert.Equal(t, http.StatusForbidden, g.do(http.MethodPost, "/deals/0/confirm", g.provider, nil, &fail))
	assert.NotEmpty(t, fail.Error.Message)

	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/deals/0/confirm", g.buyer, nil, &d))
	assert.Equal(t, deal.StateConfirmed, d.State)
	assert.Equal(t, coin.NewCoin(0, 250000000, "ETH"), g.eth(g.provider))

	// a settled deal cannot be settled again
	assert.Equal(t, http.StatusConflict, g.do(http.MethodPost, "/deals/0/confirm", g.buyer, nil, nil))
	assert.Equal(t, http.StatusConflict, g.do(http.MethodPost, "/deals/0/refund", g.buyer, nil, nil))
}

func TestGatewayRefund(t *testing.T) {
	g := newTestGateway(t)

	_, status := g.create("1 ETH", 60)
	require.Equal(t, http.StatusCreated, status)

	var fail ErrorResponse
	assert.Equal(t, http.StatusConflict, g.do(http.MethodPost, "/deals/0/refund", g.buyer, nil, &fail))
	assert.Equal(t, deal.ErrDeadlineNotReached.ABCICode(), fail.Error.Code)

	g.now = g.now.Add(time.Minute)
	stranger := weavetest.RandomAddr(t)
	assert.Equal(t, http.StatusForbidden, g.do(http.MethodPost, "/deals/0/refund", stranger, nil, nil))

	var d deal.Deal
	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/deals/0/refund", g.buyer, nil, &d))
	assert.Equal(t, deal.StateRefunded, d.State)
	assert.Equal(t, coin.NewCoin(1, 0, "ETH"), g.eth(g.buyer))
}

func TestGatewayFailures(t *testing.T) {
	g := newTestGateway(t)

	cases := map[string]struct {
		method string
		path   string
		caller weave.Address
		body   interface{}
		want   int
	}{
		"missing caller": {
			method: http.MethodPost, path: "/deals/0/confirm",
			want: http.StatusForbidden,
		},
		"unknown deal": {
			method: http.MethodGet, path: "/deals/42",
			want: http.StatusNotFound,
		},
		"invalid deal id": {
			method: http.MethodGet, path: "/deals/first",
			want: http.StatusBadRequest,
		},
		"list without a filter": {
			method: http.MethodGet, path: "/deals",
			want: http.StatusBadRequest,
		},
		"invalid account": {
			method: http.MethodGet, path: "/accounts/nothex",
			want: http.StatusBadRequest,
		},
		"malformed body": {
			method: http.MethodPost, path: "/deals", caller: g.buyer, body: "not an object",
			want: http.StatusBadRequest,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, g.do(tc.method, tc.path, tc.caller, tc.body, nil))
		})
	}
}

func TestGatewayCreateValidation(t *testing.T) {
	g := newTestGateway(t)

	_, status := g.create("1 ETH", 0)
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = g.create("0 ETH", 60)
	assert.Equal(t, http.StatusBadRequest, status)

	// would wrap around to a one second deadline if converted blindly
	_, status = g.create("1 ETH", 18446744075)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, coin.NewCoin(1, 0, "ETH"), g.eth(g.buyer))

	// more than the buyer holds
	_, status = g.create("2 ETH", 60)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, coin.NewCoin(1, 0, "ETH"), g.eth(g.buyer))

	// the failed attempts did not consume an id
	id, status := g.create("1 ETH", 60)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, uint64(0), id)
}

func TestGatewayListDeals(t *testing.T) {
	g := newTestGateway(t)
	for i := 0; i < 3; i++ {
		_, status := g.create("0.1 ETH", 60)
		require.Equal(t, http.StatusCreated, status)
	}

	var deals []deal.Deal
	require.Equal(t, http.StatusOK, g.do(http.MethodGet, "/deals?buyer="+g.buyer.String(), nil, nil, &deals))
	assert.Len(t, deals, 3)

	require.Equal(t, http.StatusOK, g.do(http.MethodGet, "/deals?provider="+g.provider.String(), nil, nil, &deals))
	assert.Len(t, deals, 3)

	require.Equal(t, http.StatusOK, g.do(http.MethodGet, "/deals?provider="+g.buyer.String(), nil, nil, &deals))
	assert.Len(t, deals, 0)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
	assert.Equal(t, http.StatusConflict, statusOf(deal.ErrDeadlineNotReached))
}
