package binance

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fapidemo/pkg/core"
	"fapidemo/pkg/exchange"
	"fapidemo/pkg/signer"
)

var _ exchange.Exchange = (*FuturesExchange)(nil)

const (
	testAPIKey    = "demo-api-key-123456789"
	testSecretKey = "demo-secret-key"
	testTimestamp = int64(1703012345678)
)

func fixedClock() time.Time {
	return time.UnixMilli(testTimestamp)
}

var testCreds = core.Credentials{APIKey: testAPIKey, SecretKey: testSecretKey}

// fakeServer answers every futures endpoint and records the last request.
type fakeServer struct {
	*httptest.Server

	hits      atomic.Int32
	lastQuery atomic.Value
	lastKey   atomic.Value
	lastPath  atomic.Value
	lastVerb  atomic.Value

	mu     sync.Mutex
	status int
	body   string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: http.StatusOK}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) respondWith(status int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.status = status
	fs.body = body
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	fs.hits.Add(1)
	fs.lastQuery.Store(r.URL.RawQuery)
	fs.lastKey.Store(r.Header.Get(signer.HeaderAPIKey))
	fs.lastPath.Store(r.URL.Path)
	fs.lastVerb.Store(r.Method)

	if msg, sig, ok := strings.Cut(r.URL.RawQuery, "&signature="); ok {
		if !signer.Verify(msg, sig, testSecretKey) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1022,"msg":"Signature for this request is not valid."}`))
			return
		}
	}

	fs.mu.Lock()
	status, body := fs.status, fs.body
	fs.mu.Unlock()
	if body == "" {
		body = fixtureFor(r.URL.Path)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (fs *fakeServer) query() string {
	v, _ := fs.lastQuery.Load().(string)
	return v
}

func (fs *fakeServer) apiKey() string {
	v, _ := fs.lastKey.Load().(string)
	return v
}

func (fs *fakeServer) path() string {
	v, _ := fs.lastPath.Load().(string)
	return v
}

func (fs *fakeServer) method() string {
	v, _ := fs.lastVerb.Load().(string)
	return v
}

const positionsFixture = `[
	{"symbol":"BTCUSDT","positionAmt":"-0.500","entryPrice":"42000.0","markPrice":"41900.0","unRealizedProfit":"50.0","liquidationPrice":"60000","leverage":"20","marginType":"cross","positionSide":"BOTH","updateTime":1703012345678},
	{"symbol":"ETHUSDT","positionAmt":"0.000","entryPrice":"0.0","markPrice":"2200.0","unRealizedProfit":"0.0","liquidationPrice":"0","leverage":"10","marginType":"cross","positionSide":"BOTH","updateTime":0}
]`

const marketsFixture = `{"serverTime":1703012345678,"symbols":[
	{"symbol":"BTCUSDT","pair":"BTCUSDT","contractType":"PERPETUAL","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT","marginAsset":"USDT","pricePrecision":2,"quantityPrecision":3}
]}`

func fixtureFor(path string) string {
	switch path {
	case pathAccount:
		return accountFixture
	case pathTicker24h:
		return tickerFixture
	case pathPositionRisk:
		return positionsFixture
	case pathOrder:
		return orderFixture
	case pathExchangeInfo:
		return marketsFixture
	}
	return `{}`
}

func newTestExchange(t *testing.T, fs *fakeServer, opts ...Option) *FuturesExchange {
	t.Helper()
	config := core.DefaultConfig().
		WithBaseURL(fs.URL).
		WithCredentials(testCreds)

	ex, err := New(config, append([]Option{WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ex.Close() })
	return ex
}

func limitOrder() *exchange.OrderRequest {
	return &exchange.OrderRequest{
		Symbol:      "BTCUSDT",
		Side:        core.SideBuy,
		Type:        core.TypeLimit,
		Quantity:    *apd.New(1, -2),
		Price:       *apd.New(420005, -1),
		TimeInForce: core.GTC,
	}
}

func TestNew_DefaultsToDemoHost(t *testing.T) {
	ex, err := New(core.DefaultConfig())
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, "binance", ex.Name())
	assert.Equal(t, "https://testnet.binancefuture.com", ex.BaseURL())
}

func TestNew_ProductionHostWithoutTestnet(t *testing.T) {
	ex, err := New(core.DefaultConfig().WithTestnet(false).WithBaseURL(""))
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, ProductionURL, ex.BaseURL())
}

func TestNew_ExplicitBaseURLWins(t *testing.T) {
	ex, err := New(core.DefaultConfig().WithTestnet(false).WithBaseURL("http://localhost:9999"))
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, "http://localhost:9999", ex.BaseURL())
}

func TestNew_InsecureTLSRequiresTestnet(t *testing.T) {
	config := core.DefaultConfig().WithTestnet(false).WithInsecureSkipVerify(true)

	_, err := New(config)
	assert.Error(t, err)
}

func TestNew_InsecureTLSLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ex, err := New(core.DefaultConfig().WithInsecureSkipVerify(true), WithLogger(logger))
	require.NoError(t, err)
	defer ex.Close()

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "TLS certificate verification is disabled")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(core.DefaultConfig().WithRecvWindow(2 * time.Minute))
	assert.Error(t, err)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_ConfigCopied(t *testing.T) {
	fs := newFakeServer(t)
	config := core.DefaultConfig().
		WithBaseURL(fs.URL).
		WithCredentials(testCreds)

	ex, err := New(config, WithClock(fixedClock))
	require.NoError(t, err)
	defer ex.Close()

	config.WithCredentials(core.Credentials{APIKey: "swapped-key-after-new", SecretKey: "other"}).
		WithRecvWindow(time.Second).
		WithBaseURL("http://127.0.0.1:1")

	_, err = ex.FetchBalance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testAPIKey, fs.apiKey())
	assert.Equal(t,
		"timestamp=1703012345678&recvWindow=60000"+
			"&signature=ac38a6999da22eb6f7e993ab2f1944f54853dcc38b634453c74788d12469dc69",
		fs.query())
}

func TestCreateOrder_SignedLimitOrder(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	order, err := ex.CreateOrder(context.Background(), limitOrder())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, fs.method())
	assert.Equal(t, "/fapi/v1/order", fs.path())
	assert.Equal(t, testAPIKey, fs.apiKey())
	assert.Equal(t,
		"symbol=BTCUSDT&side=BUY&type=LIMIT&quantity=0.01&price=42000.5&timeInForce=GTC"+
			"&timestamp=1703012345678&recvWindow=60000"+
			"&signature=450605b0c8ec10e6b8c18b415ee2050bb97941be799e80bd9b5c665548757131",
		fs.query())

	assert.Equal(t, "22542179", order.ID)
	assert.Equal(t, core.StatusPartiallyFilled, order.Status)
	assert.NotEmpty(t, order.Info)
}

func TestCreateOrder_MarketOrderOmitsPrice(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	req := &exchange.OrderRequest{
		Symbol:   "BTC/USDT:USDT",
		Side:     core.SideSell,
		Type:     core.TypeMarket,
		Quantity: *apd.New(5, -1),
		Price:    *apd.New(2000, 0),
	}

	_, err := ex.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t,
		"symbol=BTCUSDT&side=SELL&type=MARKET&quantity=0.5"+
			"&timestamp=1703012345678&recvWindow=60000"+
			"&signature=32f725fbdac5acbd7c0ff9973e05c9603dd009d97ec15420638056651b647027",
		fs.query())
}

func TestCreateOrder_ClientOrderIDIsEscaped(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	req := &exchange.OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          core.SideBuy,
		Type:          core.TypeMarket,
		Quantity:      *apd.New(1, -2),
		ClientOrderID: "demo order/1&x=y",
	}

	_, err := ex.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, fs.query(), "&newClientOrderId=demo+order%2F1%26x%3Dy&timestamp=")
}

func TestCreateOrder_ExtrasCannotOverrideFields(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	_, err := ex.CreateOrder(context.Background(), limitOrder(),
		exchange.WithParam("side", "SELL"),
		exchange.WithParam("positionSide", "LONG"),
		exchange.WithRecvWindow(5*time.Second),
	)
	require.NoError(t, err)

	q := fs.query()
	assert.True(t, strings.HasPrefix(q, "symbol=BTCUSDT&side=BUY&type=LIMIT"), q)
	assert.Contains(t, q, "&timeInForce=GTC&positionSide=LONG&timestamp=1703012345678&recvWindow=5000&signature=")
}

func TestCreateOrder_InvalidRequestNeverSent(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	req := limitOrder()
	req.Price = apd.Decimal{}

	_, err := ex.CreateOrder(context.Background(), req)

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, core.ErrorTypeBadRequest, exErr.Type)
	assert.Zero(t, fs.hits.Load())
}

func TestCreateOrder_ExchangeRejection(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantType  core.ErrorType
		wantCode  string
		checkKind func(error) bool
	}{
		{
			name:      "insufficient_margin",
			body:      `{"code":-2019,"msg":"Margin is insufficient."}`,
			wantType:  core.ErrorTypeInsufficientFunds,
			wantCode:  "-2019",
			checkKind: core.IsTerminalError,
		},
		{
			name:      "stale_timestamp",
			body:      `{"code":-1021,"msg":"Timestamp for this request is outside of the recvWindow."}`,
			wantType:  core.ErrorTypeAuthentication,
			wantCode:  "-1021",
			checkKind: core.IsAuthenticationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.respondWith(http.StatusBadRequest, tt.body)
			ex := newTestExchange(t, fs)

			_, err := ex.CreateOrder(context.Background(), limitOrder())

			var exErr *core.ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, tt.wantType, exErr.Type)
			assert.Equal(t, tt.wantCode, exErr.Code)
			assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
			assert.JSONEq(t, tt.body, string(exErr.Body))
			assert.True(t, tt.checkKind(err))
		})
	}
}

func TestFetchBalance(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	balances, err := ex.FetchBalance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, fs.method())
	assert.Equal(t, "/fapi/v2/account", fs.path())
	assert.Equal(t, testAPIKey, fs.apiKey())
	assert.Equal(t,
		"timestamp=1703012345678&recvWindow=60000"+
			"&signature=ac38a6999da22eb6f7e993ab2f1944f54853dcc38b634453c74788d12469dc69",
		fs.query())

	assertDecimal(t, "100", balances.Total["USDT"])
	assertDecimal(t, "80", balances.Free["USDT"])
	assertDecimal(t, "20", balances.Used["USDT"])
}

func TestFetchBalance_NoCredentials(t *testing.T) {
	fs := newFakeServer(t)
	ex, err := New(core.DefaultConfig().WithBaseURL(fs.URL))
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.FetchBalance(context.Background())

	assert.ErrorIs(t, err, core.ErrNoCredentials)
	assert.Zero(t, fs.hits.Load())
}

func TestFetchBalance_ServerError(t *testing.T) {
	fs := newFakeServer(t)
	fs.respondWith(http.StatusServiceUnavailable, `<html>maintenance</html>`)
	ex := newTestExchange(t, fs)

	_, err := ex.FetchBalance(context.Background())

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, core.ErrorTypeServerError, exErr.Type)
	assert.Equal(t, "<html>maintenance</html>", string(exErr.Body))
	assert.Equal(t, "FETCH_BALANCE", exErr.Operation)
}

func TestFetchTicker_Unsigned(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	ticker, err := ex.FetchTicker(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)

	assert.Equal(t, "/fapi/v1/ticker/24hr", fs.path())
	assert.Equal(t, "symbol=BTCUSDT", fs.query())
	assert.Empty(t, fs.apiKey())

	assert.Equal(t, "BTC/USDT:USDT", ticker.Symbol)
	assertDecimal(t, "4.000002", ticker.Last)
}

func TestFetchTicker_WorksWithoutCredentials(t *testing.T) {
	fs := newFakeServer(t)
	ex, err := New(core.DefaultConfig().WithBaseURL(fs.URL))
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.FetchTicker(context.Background(), "BTCUSDT")
	assert.NoError(t, err)
}

func TestFetchPositions(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	t.Run("all", func(t *testing.T) {
		positions, err := ex.FetchPositions(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, positions, 2)

		assert.Equal(t, "/fapi/v2/positionRisk", fs.path())
		assert.Equal(t, core.DirectionShort, positions[0].Side)
		assertDecimal(t, "-0.5", positions[0].Contracts)
		assert.Equal(t, core.DirectionFlat, positions[1].Side)
	})

	t.Run("filtered_by_symbol", func(t *testing.T) {
		positions, err := ex.FetchPositions(context.Background(), []string{"ETH/USDT:USDT"})
		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, "ETH/USDT:USDT", positions[0].Symbol)
	})

	t.Run("unknown_symbol", func(t *testing.T) {
		positions, err := ex.FetchPositions(context.Background(), []string{"SOLUSDT"})
		require.NoError(t, err)
		assert.Empty(t, positions)
	})
}

func TestLoadMarkets(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	markets, err := ex.LoadMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 1)

	assert.Equal(t, "/fapi/v1/exchangeInfo", fs.path())
	assert.Empty(t, fs.query())
	assert.Equal(t, "BTC/USDT:USDT", markets[0].Symbol)
	assert.True(t, markets[0].Active())
}

func TestClose(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	require.NoError(t, ex.Close())
	require.NoError(t, ex.Close())

	_, err := ex.FetchTicker(context.Background(), "BTCUSDT")
	assert.True(t, errors.Is(err, core.ErrClientClosed))

	_, err = ex.CreateOrder(context.Background(), limitOrder())
	assert.ErrorIs(t, err, core.ErrClientClosed)
	assert.Zero(t, fs.hits.Load())
}

func TestCanceledContext(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.FetchBalance(ctx)
	require.Error(t, err)

	var exErr *core.ExchangeError
	assert.False(t, errors.As(err, &exErr))
}

func TestMetrics(t *testing.T) {
	fs := newFakeServer(t)
	reg := prometheus.NewRegistry()
	ex := newTestExchange(t, fs, WithMetrics(reg))

	_, err := ex.FetchTicker(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	fs.respondWith(http.StatusBadRequest, `{"code":-2019,"msg":"Margin is insufficient."}`)
	_, err = ex.CreateOrder(context.Background(), limitOrder())
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "fapidemo_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSecretNeverLogged(t *testing.T) {
	fs := newFakeServer(t)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ex := newTestExchange(t, fs, WithLogger(logger))

	_, err := ex.FetchBalance(context.Background())
	require.NoError(t, err)
	_, err = ex.CreateOrder(context.Background(), limitOrder())
	require.NoError(t, err)

	out := buf.String()
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, testSecretKey)
	assert.NotContains(t, out, testAPIKey)
	assert.NotContains(t, out, "450605b0c8ec10e6b8c18b415ee2050bb97941be799e80bd9b5c665548757131")
	assert.Contains(t, out, "order created")
}

func TestReservedParamsIgnored(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	extras := exchange.WithParams(core.NewParams().
		Set("signature", "x").
		Set("timestamp", "1").
		Set("recvWindow", "1"))

	_, err := ex.FetchBalance(context.Background(), extras)
	require.NoError(t, err)
	assert.Equal(t,
		"timestamp=1703012345678&recvWindow=60000"+
			"&signature=ac38a6999da22eb6f7e993ab2f1944f54853dcc38b634453c74788d12469dc69",
		fs.query())

	_, err = ex.CreateOrder(context.Background(), limitOrder(), extras)
	require.NoError(t, err)
	assert.Equal(t,
		"symbol=BTCUSDT&side=BUY&type=LIMIT&quantity=0.01&price=42000.5&timeInForce=GTC"+
			"&timestamp=1703012345678&recvWindow=60000"+
			"&signature=450605b0c8ec10e6b8c18b415ee2050bb97941be799e80bd9b5c665548757131",
		fs.query())

	_, err = ex.FetchTicker(context.Background(), "BTCUSDT", exchange.WithParam("signature", "x"))
	require.NoError(t, err)
	assert.Equal(t, "symbol=BTCUSDT", fs.query())
}

func TestRecvWindowOverrideTooLarge(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	_, err := ex.FetchBalance(context.Background(), exchange.WithRecvWindow(2*time.Minute))

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, core.ErrorTypeBadRequest, exErr.Type)
	assert.Equal(t, string(core.ErrCodeBadRequest), exErr.Code)
	assert.Equal(t, "FETCH_BALANCE", exErr.Operation)
	assert.Zero(t, fs.hits.Load())

	_, err = ex.FetchBalance(context.Background(), exchange.WithRecvWindow(core.MaxRecvWindow))
	require.NoError(t, err)
	assert.Contains(t, fs.query(), "&recvWindow=60000&")
}

func TestMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(ex *FuturesExchange) error
		op   core.Operation
	}{
		{
			name: "balance",
			body: `not json`,
			op:   core.OpFetchBalance,
			call: func(ex *FuturesExchange) error {
				_, err := ex.FetchBalance(context.Background())
				return err
			},
		},
		{
			name: "ticker",
			body: `[1,2`,
			op:   core.OpFetchTicker,
			call: func(ex *FuturesExchange) error {
				_, err := ex.FetchTicker(context.Background(), "BTCUSDT")
				return err
			},
		},
		{
			name: "positions_not_array",
			body: `{"symbol":"BTCUSDT"}`,
			op:   core.OpFetchPositions,
			call: func(ex *FuturesExchange) error {
				_, err := ex.FetchPositions(context.Background(), nil)
				return err
			},
		},
		{
			name: "position_entry",
			body: `[{"symbol":1}]`,
			op:   core.OpFetchPositions,
			call: func(ex *FuturesExchange) error {
				_, err := ex.FetchPositions(context.Background(), nil)
				return err
			},
		},
		{
			name: "order",
			body: `<html></html>`,
			op:   core.OpCreateOrder,
			call: func(ex *FuturesExchange) error {
				_, err := ex.CreateOrder(context.Background(), limitOrder())
				return err
			},
		},
		{
			name: "markets",
			body: `{"symbols":"nope"}`,
			op:   core.OpLoadMarkets,
			call: func(ex *FuturesExchange) error {
				_, err := ex.LoadMarkets(context.Background())
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.respondWith(http.StatusOK, tt.body)
			ex := newTestExchange(t, fs)

			err := tt.call(ex)

			var exErr *core.ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, string(core.ErrCodeMalformedResponse), exErr.Code)
			assert.Equal(t, core.ErrorTypeUnknown, exErr.Type)
			assert.Equal(t, http.StatusOK, exErr.StatusCode)
			assert.Equal(t, tt.body, string(exErr.Body))
			assert.Equal(t, tt.op.String(), exErr.Operation)
			assert.Contains(t, exErr.Message, "decode")
		})
	}
}

func TestUnsupportedOperation(t *testing.T) {
	fs := newFakeServer(t)
	ex := newTestExchange(t, fs)

	_, err := ex.execute(context.Background(), core.Operation(42), core.NewParams(), exchange.ApplyOptions())

	assert.ErrorIs(t, err, core.ErrUnsupportedOperation)
	assert.Zero(t, fs.hits.Load())
}

func TestMetrics_Outcomes(t *testing.T) {
	fs := newFakeServer(t)
	reg := prometheus.NewRegistry()
	ex := newTestExchange(t, fs, WithMetrics(reg))

	_, err := ex.FetchBalance(context.Background(), exchange.WithRecvWindow(2*time.Minute))
	require.Error(t, err)

	fs.respondWith(http.StatusOK, `not json`)
	_, err = ex.FetchBalance(context.Background())
	require.Error(t, err)

	require.NoError(t, ex.Close())
	_, err = ex.FetchTicker(context.Background(), "BTCUSDT")
	require.ErrorIs(t, err, core.ErrClientClosed)

	expected := `
# HELP fapidemo_requests_total REST calls by operation and outcome
# TYPE fapidemo_requests_total counter
fapidemo_requests_total{operation="FETCH_BALANCE",outcome="client_error"} 1
fapidemo_requests_total{operation="FETCH_BALANCE",outcome="exchange_error"} 1
fapidemo_requests_total{operation="FETCH_TICKER",outcome="client_error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fapidemo_requests_total"))
}

func TestMetrics_NoCredentialsIsClientError(t *testing.T) {
	fs := newFakeServer(t)
	reg := prometheus.NewRegistry()
	ex, err := New(core.DefaultConfig().WithBaseURL(fs.URL), WithMetrics(reg))
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.FetchPositions(context.Background(), nil)
	require.ErrorIs(t, err, core.ErrNoCredentials)

	expected := `
# HELP fapidemo_requests_total REST calls by operation and outcome
# TYPE fapidemo_requests_total counter
fapidemo_requests_total{operation="FETCH_POSITIONS",outcome="client_error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fapidemo_requests_total"))
}
