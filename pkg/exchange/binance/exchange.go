package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	httpClient "fapidemo/internal/http"
	"fapidemo/internal/metrics"
	"fapidemo/pkg/core"
	"fapidemo/pkg/exchange"
	"fapidemo/pkg/signer"
)

// FuturesExchange implements the Exchange interface for Binance USDⓈ-M Futures.
// It sends authenticated calls straight to the configured host, which defaults
// to the demo trading environment.
type FuturesExchange struct {
	config     *core.Config
	baseURL    string
	httpClient *httpClient.Client
	signer     *signer.Builder
	metrics    *metrics.Collector
	logger     zerolog.Logger
	protocol   *Protocol
}

// Option is a functional option for configuring the FuturesExchange.
type Option func(*Options)

// Options holds configuration options for the FuturesExchange.
type Options struct {
	Logger   zerolog.Logger
	Registry prometheus.Registerer
	Clock    signer.Clock
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics registers request metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Registry = reg
	}
}

// WithClock overrides the time source used for request timestamps.
func WithClock(c signer.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// New creates a FuturesExchange with the given configuration and options.
// The config is copied, so later changes to it do not affect the exchange.
// The returned exchange owns a transport handle; release it with Close.
func New(config *core.Config, opts ...Option) (*FuturesExchange, error) {
	if config == nil {
		return nil, fmt.Errorf("validate config: config is nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	cfg := *config

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger.With().Str("exchange", "binance").Logger()
	protocol := NewProtocol()

	base := cfg.BaseURL
	if base == "" {
		base = protocol.BaseURL(cfg.Testnet)
	}

	if cfg.InsecureSkipVerify {
		logger.Warn().Str("base_url", base).Msg("TLS certificate verification is disabled")
	}

	var collector *metrics.Collector
	if options.Registry != nil {
		c, err := metrics.New(options.Registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		collector = c
	}

	var signerOpts []signer.Option
	if options.Clock != nil {
		signerOpts = append(signerOpts, signer.WithClock(options.Clock))
	}

	hc, err := httpClient.NewClient(&httpClient.Config{
		Timeout:            cfg.Timeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}, httpClient.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	logger.Debug().
		Str("base_url", base).
		Object("credentials", cfg.Credentials).
		Dur("recv_window", cfg.RecvWindow).
		Msg("futures exchange created")

	return &FuturesExchange{
		config:     &cfg,
		baseURL:    base,
		httpClient: hc,
		signer:     signer.New(signerOpts...),
		metrics:    collector,
		logger:     logger,
		protocol:   protocol,
	}, nil
}

// Name returns the exchange identifier "binance".
func (e *FuturesExchange) Name() string {
	return "binance"
}

// BaseURL returns the host every call is sent to.
func (e *FuturesExchange) BaseURL() string {
	return e.baseURL
}

// Close releases the transport handle. It is safe to call more than once.
func (e *FuturesExchange) Close() error {
	if e.httpClient != nil {
		return e.httpClient.Close()
	}
	return nil
}

// FetchBalance retrieves the futures account balances.
func (e *FuturesExchange) FetchBalance(ctx context.Context, opts ...exchange.Option) (*core.Balances, error) {
	options := exchange.ApplyOptions(opts...)

	result, err := e.execute(ctx, core.OpFetchBalance, options.Params, options)
	if err != nil {
		return nil, err
	}

	balances, ok := result.(*core.Balances)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	return balances, nil
}

// FetchTicker retrieves 24h statistics for symbol, given in unified or exchange form.
func (e *FuturesExchange) FetchTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.NewParams().Set("symbol", symbol)
	params.Merge(options.Params)

	result, err := e.execute(ctx, core.OpFetchTicker, params, options)
	if err != nil {
		return nil, err
	}

	ticker, ok := result.(*core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	return ticker, nil
}

// FetchPositions retrieves position risk for every contract. When symbols is not
// empty only matching positions are returned.
func (e *FuturesExchange) FetchPositions(ctx context.Context, symbols []string, opts ...exchange.Option) ([]core.Position, error) {
	options := exchange.ApplyOptions(opts...)

	result, err := e.execute(ctx, core.OpFetchPositions, options.Params, options)
	if err != nil {
		return nil, err
	}

	positions, ok := result.([]core.Position)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	return filterPositions(positions, symbols), nil
}

func filterPositions(positions []core.Position, symbols []string) []core.Position {
	if len(symbols) == 0 {
		return positions
	}

	wanted := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		wanted[MarketID(s)] = struct{}{}
	}

	filtered := positions[:0]
	for _, p := range positions {
		if _, ok := wanted[MarketID(p.Symbol)]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// CreateOrder submits a new order. Extra parameters given through options are
// appended after the order fields and never replace them.
func (e *FuturesExchange) CreateOrder(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	options := exchange.ApplyOptions(opts...)

	params := core.NewParams().
		Set("symbol", req.Symbol).
		Set("side", req.Side.String()).
		Set("type", req.Type.String()).
		Set("quantity", req.Quantity.Text('f'))

	if req.Type == core.TypeLimit {
		params.Set("price", req.Price.Text('f'))
		params.Set("timeInForce", req.TimeInForce.String())
	}
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	params.Merge(options.Params)

	result, err := e.execute(ctx, core.OpCreateOrder, params, options)
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	e.logger.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Stringer("side", order.Side).
		Stringer("type", order.Type).
		Stringer("status", order.Status).
		Msg("order created")

	return order, nil
}

// LoadMarkets retrieves the list of futures contracts.
func (e *FuturesExchange) LoadMarkets(ctx context.Context, opts ...exchange.Option) ([]core.Market, error) {
	options := exchange.ApplyOptions(opts...)

	result, err := e.execute(ctx, core.OpLoadMarkets, options.Params, options)
	if err != nil {
		return nil, err
	}

	markets, ok := result.([]core.Market)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	return markets, nil
}

func (e *FuturesExchange) execute(ctx context.Context, op core.Operation, params *core.Params, options *exchange.Options) (any, error) {
	start := time.Now()
	result, err := e.roundTrip(ctx, op, params, options)
	e.metrics.Observe(op, start, err)

	if err != nil {
		e.logger.Debug().Err(err).Stringer("operation", op).Msg("call failed")
	}
	return result, err
}

func (e *FuturesExchange) roundTrip(ctx context.Context, op core.Operation, params *core.Params, options *exchange.Options) (any, error) {
	if e.httpClient.Closed() {
		return nil, core.ErrClientClosed
	}
	if !core.Supports(e.protocol, op) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedOperation, op)
	}

	req, err := e.protocol.BuildRequest(ctx, op, e.dropReserved(op, params))
	if err != nil {
		return nil, err
	}

	var resp *resty.Response
	if req.RequireAuth {
		resp, err = e.doSignedRequest(ctx, req, options.RecvWindow)
	} else {
		resp, err = e.doRequest(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	return e.protocol.ParseResponse(op, resp)
}

// reservedParams are set by the signer and never taken from the caller.
var reservedParams = []string{"timestamp", "recvWindow", "signature"}

func (e *FuturesExchange) dropReserved(op core.Operation, params *core.Params) *core.Params {
	var out *core.Params
	for _, key := range reservedParams {
		if !params.Has(key) {
			continue
		}
		if out == nil {
			out = params.Clone()
		}
		out.Del(key)
		e.logger.Warn().Stringer("operation", op).Str("param", key).Msg("ignoring reserved parameter")
	}
	if out == nil {
		return params
	}
	return out
}

func (e *FuturesExchange) doRequest(ctx context.Context, req *core.Request) (*resty.Response, error) {
	resp, err := e.httpClient.Do(ctx, req.Method, req.URL(e.baseURL), req.Headers)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return resp, nil
}

func (e *FuturesExchange) doSignedRequest(ctx context.Context, req *core.Request, recvWindow time.Duration) (*resty.Response, error) {
	creds := e.config.Credentials
	if creds.Empty() {
		return nil, core.ErrNoCredentials
	}

	if recvWindow <= 0 {
		recvWindow = e.config.RecvWindow
	}
	if recvWindow > core.MaxRecvWindow {
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeBadRequest, 0,
			fmt.Sprintf("recvWindow %s exceeds %s", recvWindow, core.MaxRecvWindow)).
			WithCode(core.ErrCodeBadRequest).
			WithOperation(req.Operation)
	}

	signed := e.signer.Build(e.baseURL+req.Path, req.Method, req.Query, creds, recvWindow)

	headers := make(map[string]string, len(req.Headers)+len(signed.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}
	for k, v := range signed.Headers {
		headers[k] = v
	}

	resp, err := e.httpClient.Do(ctx, signed.Method, signed.URL, headers)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return resp, nil
}
