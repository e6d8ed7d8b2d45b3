package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"fapidemo/pkg/core"
)

const (
	ProductionURL = "https://fapi.binance.com"
	DemoURL       = core.DemoBaseURL
)

const (
	pathAccount      = "/fapi/v2/account"
	pathTicker24h    = "/fapi/v1/ticker/24hr"
	pathPositionRisk = "/fapi/v2/positionRisk"
	pathOrder        = "/fapi/v1/order"
	pathExchangeInfo = "/fapi/v1/exchangeInfo"
)

// Protocol implements the core.Protocol interface for Binance USDⓈ-M Futures.
// It builds unsigned requests and parses responses; signing is done by the caller.
type Protocol struct{}

// NewProtocol creates a new Binance futures protocol instance.
func NewProtocol() *Protocol {
	return &Protocol{}
}

// Name returns the protocol identifier "binance".
func (p *Protocol) Name() string {
	return "binance"
}

// Version returns the futures API family.
func (p *Protocol) Version() string {
	return "fapi"
}

// BaseURL returns the demo host when testnet is true and the production host otherwise.
func (p *Protocol) BaseURL(testnet bool) string {
	if testnet {
		return DemoURL
	}
	return ProductionURL
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpFetchBalance,
		core.OpFetchTicker,
		core.OpFetchPositions,
		core.OpCreateOrder,
		core.OpLoadMarkets,
	}
}

// BuildRequest constructs the request for op. Parameters the operation does not
// consume itself are appended to the query in the order given.
func (p *Protocol) BuildRequest(_ context.Context, op core.Operation, params *core.Params) (*core.Request, error) {
	switch op {
	case core.OpFetchBalance:
		return p.buildSignedGet(op, pathAccount, params), nil
	case core.OpFetchTicker:
		return p.buildFetchTickerRequest(params)
	case core.OpFetchPositions:
		return p.buildSignedGet(op, pathPositionRisk, params), nil
	case core.OpCreateOrder:
		return p.buildCreateOrderRequest(params)
	case core.OpLoadMarkets:
		return core.NewRequest(op, http.MethodGet, pathExchangeInfo).SetQueryParams(params), nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedOperation, op)
	}
}

func (p *Protocol) buildSignedGet(op core.Operation, path string, params *core.Params) *core.Request {
	return core.NewRequest(op, http.MethodGet, path).
		SetRequireAuth(true).
		SetQueryParams(params)
}

func (p *Protocol) buildFetchTickerRequest(params *core.Params) (*core.Request, error) {
	symbol, err := p.requiredParam(core.OpFetchTicker, params, "symbol")
	if err != nil {
		return nil, err
	}

	id := MarketID(symbol)
	if id == "" {
		return nil, p.badRequest(core.OpFetchTicker, core.ErrCodeInvalidSymbol, "invalid symbol: "+symbol)
	}

	req := core.NewRequest(core.OpFetchTicker, http.MethodGet, pathTicker24h)
	req.SetQuery("symbol", id)
	req.SetQueryParams(params)

	return req, nil
}

// buildCreateOrderRequest lays out the order parameters as
// symbol, side, type, quantity, [price, timeInForce], extras.
// price and timeInForce are only sent for LIMIT orders.
func (p *Protocol) buildCreateOrderRequest(params *core.Params) (*core.Request, error) {
	values := make(map[string]string, 4)
	for _, key := range []string{"symbol", "side", "type", "quantity"} {
		v, err := p.requiredParam(core.OpCreateOrder, params, key)
		if err != nil {
			return nil, err
		}
		values[key] = v
	}

	id := MarketID(values["symbol"])
	if id == "" {
		return nil, p.badRequest(core.OpCreateOrder, core.ErrCodeInvalidSymbol, "invalid symbol: "+values["symbol"])
	}

	req := core.NewRequest(core.OpCreateOrder, http.MethodPost, pathOrder)
	req.SetRequireAuth(true)
	req.SetQuery("symbol", id)
	req.SetQuery("side", strings.ToUpper(values["side"]))
	req.SetQuery("type", strings.ToUpper(values["type"]))
	req.SetQuery("quantity", values["quantity"])

	limit := strings.EqualFold(values["type"], core.TypeLimit.String())
	if limit {
		price, _ := params.Get("price")
		if price == "" {
			return nil, p.badRequest(core.OpCreateOrder, core.ErrCodeInvalidOrder, "price is required for LIMIT orders")
		}
		req.SetQuery("price", price)

		tif := core.GTC.String()
		if v, ok := params.Get("timeInForce"); ok && v != "" {
			tif = strings.ToUpper(v)
		}
		req.SetQuery("timeInForce", tif)
	}

	for _, k := range params.Keys() {
		if !limit && (k == "price" || k == "timeInForce") {
			continue
		}
		v, _ := params.Get(k)
		req.Query.SetIfAbsent(k, v)
	}

	return req, nil
}

func (p *Protocol) requiredParam(op core.Operation, params *core.Params, key string) (string, error) {
	v, ok := params.Get(key)
	if !ok || v == "" {
		return "", p.badRequest(op, core.ErrCodeBadRequest, "missing required parameter: "+key)
	}
	return v, nil
}

func (p *Protocol) badRequest(op core.Operation, code core.ErrorCode, msg string) error {
	return core.NewExchangeError(p.Name(), core.ErrorTypeBadRequest, 0, msg).
		WithCode(code).
		WithOperation(op)
}

// ParseResponse parses an HTTP response and normalizes it to canonical types.
// Any non-2xx status, and any success body that does not decode, becomes a
// *core.ExchangeError carrying the raw body.
func (p *Protocol) ParseResponse(op core.Operation, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	body := resp.Bytes()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, p.parseError(op, resp.StatusCode(), resp.Status(), body)
	}

	n := NewNormalizer()

	switch op {
	case core.OpFetchBalance:
		var data binanceAccount
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, p.malformed(op, resp.StatusCode(), body, "account", err)
		}
		return n.NormalizeBalances(&data, body)

	case core.OpFetchTicker:
		var data binanceTicker
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, p.malformed(op, resp.StatusCode(), body, "ticker", err)
		}
		return n.NormalizeTicker(&data, body), nil

	case core.OpFetchPositions:
		var raws []json.RawMessage
		if err := sonic.Unmarshal(body, &raws); err != nil {
			return nil, p.malformed(op, resp.StatusCode(), body, "positions", err)
		}
		positions := make([]binancePosition, len(raws))
		for i, raw := range raws {
			if err := sonic.Unmarshal(raw, &positions[i]); err != nil {
				return nil, p.malformed(op, resp.StatusCode(), body, fmt.Sprintf("position %d", i), err)
			}
		}
		return n.NormalizePositions(positions, raws), nil

	case core.OpCreateOrder:
		var data binanceOrder
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, p.malformed(op, resp.StatusCode(), body, "order", err)
		}
		return n.NormalizeOrder(&data, body)

	case core.OpLoadMarkets:
		var data binanceExchangeInfo
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, p.malformed(op, resp.StatusCode(), body, "exchange info", err)
		}
		return n.NormalizeMarkets(&data), nil

	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedOperation, op)
	}
}

func (p *Protocol) parseError(op core.Operation, status int, statusText string, body []byte) *core.ExchangeError {
	var apiErr binanceAPIError
	if err := sonic.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return core.NewExchangeErrorWithCode(
			p.Name(),
			mapBinanceErrorCode(apiErr.Code),
			status,
			strconv.Itoa(apiErr.Code),
			apiErr.Msg,
		).WithBody(body).WithOperation(op)
	}
	errType := mapHTTPStatus(status)
	exErr := core.NewExchangeError(
		p.Name(),
		errType,
		status,
		fmt.Sprintf("HTTP error: %s", statusText),
	).WithBody(body).WithOperation(op)
	if code := core.CodeForType(errType); code != "" {
		exErr.WithCode(code)
	}
	return exErr
}

// malformed reports a success response whose body does not decode.
func (p *Protocol) malformed(op core.Operation, status int, body []byte, what string, err error) *core.ExchangeError {
	return core.NewExchangeError(
		p.Name(),
		core.ErrorTypeUnknown,
		status,
		fmt.Sprintf("decode %s: %v", what, err),
	).WithCode(core.ErrCodeMalformedResponse).WithBody(body).WithOperation(op)
}

// MarketID converts a unified symbol ("BTC/USDT:USDT" or "BTC/USDT") to the
// exchange id ("BTCUSDT"). Exchange ids are returned unchanged.
func MarketID(symbol string) string {
	if i := strings.IndexByte(symbol, ':'); i >= 0 {
		settle := symbol[i+1:]
		symbol = symbol[:i]
		// Delivery contracts carry their expiry after the settle asset.
		if j := strings.IndexByte(settle, '-'); j >= 0 {
			symbol += "_" + settle[j+1:]
		}
	}
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

var settleAssets = []string{"USDT", "USDC", "BUSD", "FDUSD"}

// UnifiedSymbol converts an exchange id ("BTCUSDT") to the unified form
// ("BTC/USDT:USDT"). Ids with an unknown quote asset are returned unchanged.
func UnifiedSymbol(id string) string {
	pair, expiry, _ := strings.Cut(id, "_")
	for _, quote := range settleAssets {
		if base, ok := strings.CutSuffix(pair, quote); ok && base != "" {
			unified := base + "/" + quote + ":" + quote
			if expiry != "" {
				unified += "-" + expiry
			}
			return unified
		}
	}
	return id
}

type binanceAPIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func mapBinanceErrorCode(code int) core.ErrorType {
	switch code {
	case -1003, -1015:
		return core.ErrorTypeRateLimit
	case -1021, -1022, -2014, -2015:
		return core.ErrorTypeAuthentication
	case -2018, -2019:
		return core.ErrorTypeInsufficientFunds
	case -1121:
		return core.ErrorTypeNotFound
	case -1000, -1001:
		return core.ErrorTypeServerError
	case -1007:
		return core.ErrorTypeTimeout
	default:
		if code <= -1100 && code >= -1199 {
			return core.ErrorTypeBadRequest
		}
		if code <= -2000 && code >= -2999 {
			return core.ErrorTypeInvalidOrder
		}
		if code <= -4000 && code >= -4999 {
			return core.ErrorTypeInvalidOrder
		}
		return core.ErrorTypeUnknown
	}
}

func mapHTTPStatus(status int) core.ErrorType {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusTeapot:
		return core.ErrorTypeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrorTypeAuthentication
	case status == http.StatusNotFound:
		return core.ErrorTypeNotFound
	case status >= 500:
		return core.ErrorTypeServerError
	case status >= 400:
		return core.ErrorTypeBadRequest
	default:
		return core.ErrorTypeUnknown
	}
}
