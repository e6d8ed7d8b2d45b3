package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"fapidemo/pkg/core"
)

// binanceAccountAsset is one entry of assets[] in /fapi/v2/account.
type binanceAccountAsset struct {
	Asset                  string      `json:"asset"`
	WalletBalance          apd.Decimal `json:"walletBalance"`
	UnrealizedProfit       apd.Decimal `json:"unrealizedProfit"`
	MarginBalance          apd.Decimal `json:"marginBalance"`
	MaintMargin            apd.Decimal `json:"maintMargin"`
	InitialMargin          apd.Decimal `json:"initialMargin"`
	PositionInitialMargin  apd.Decimal `json:"positionInitialMargin"`
	OpenOrderInitialMargin apd.Decimal `json:"openOrderInitialMargin"`
	AvailableBalance       apd.Decimal `json:"availableBalance"`
	MaxWithdrawAmount      apd.Decimal `json:"maxWithdrawAmount"`
	UpdateTime             int64       `json:"updateTime"`
}

// binanceAccount represents the futures account response.
type binanceAccount struct {
	CanTrade   bool                  `json:"canTrade"`
	UpdateTime int64                 `json:"updateTime"`
	Assets     []binanceAccountAsset `json:"assets"`
}

// binanceTicker represents the raw 24hr ticker response.
type binanceTicker struct {
	Symbol             string      `json:"symbol"`
	PriceChange        apd.Decimal `json:"priceChange"`
	PriceChangePercent apd.Decimal `json:"priceChangePercent"`
	WeightedAvgPrice   apd.Decimal `json:"weightedAvgPrice"`
	LastPrice          apd.Decimal `json:"lastPrice"`
	OpenPrice          apd.Decimal `json:"openPrice"`
	HighPrice          apd.Decimal `json:"highPrice"`
	LowPrice           apd.Decimal `json:"lowPrice"`
	Volume             apd.Decimal `json:"volume"`
	QuoteVolume        apd.Decimal `json:"quoteVolume"`
	OpenTime           int64       `json:"openTime"`
	CloseTime          int64       `json:"closeTime"`
}

// binancePosition is one entry of /fapi/v2/positionRisk.
type binancePosition struct {
	Symbol           string      `json:"symbol"`
	PositionAmt      apd.Decimal `json:"positionAmt"`
	EntryPrice       apd.Decimal `json:"entryPrice"`
	MarkPrice        apd.Decimal `json:"markPrice"`
	UnRealizedProfit apd.Decimal `json:"unRealizedProfit"`
	LiquidationPrice apd.Decimal `json:"liquidationPrice"`
	Leverage         apd.Decimal `json:"leverage"`
	MarginType       string      `json:"marginType"`
	PositionSide     string      `json:"positionSide"`
	UpdateTime       int64       `json:"updateTime"`
}

// binanceOrder represents the raw order response.
type binanceOrder struct {
	Symbol        string      `json:"symbol"`
	OrderID       int64       `json:"orderId"`
	ClientOrderID string      `json:"clientOrderId"`
	Price         apd.Decimal `json:"price"`
	AvgPrice      apd.Decimal `json:"avgPrice"`
	OrigQty       apd.Decimal `json:"origQty"`
	ExecutedQty   apd.Decimal `json:"executedQty"`
	CumQuote      apd.Decimal `json:"cumQuote"`
	Status        string      `json:"status"`
	Type          string      `json:"type"`
	Side          string      `json:"side"`
	TimeInForce   string      `json:"timeInForce"`
	ReduceOnly    bool        `json:"reduceOnly"`
	PositionSide  string      `json:"positionSide"`
	Time          int64       `json:"time"`
	UpdateTime    int64       `json:"updateTime"`
}

// binanceSymbol is one contract of /fapi/v1/exchangeInfo.
type binanceSymbol struct {
	Symbol            string `json:"symbol"`
	Pair              string `json:"pair"`
	ContractType      string `json:"contractType"`
	Status            string `json:"status"`
	BaseAsset         string `json:"baseAsset"`
	QuoteAsset        string `json:"quoteAsset"`
	MarginAsset       string `json:"marginAsset"`
	PricePrecision    int    `json:"pricePrecision"`
	QuantityPrecision int    `json:"quantityPrecision"`
}

type binanceExchangeInfo struct {
	ServerTime int64           `json:"serverTime"`
	Symbols    []binanceSymbol `json:"symbols"`
}

// Normalizer converts Binance-specific data structures to canonical core types.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeBalances maps every named asset to free = availableBalance,
// total = walletBalance and used = total - free.
func (n *Normalizer) NormalizeBalances(account *binanceAccount, raw []byte) (*core.Balances, error) {
	balances := core.NewBalances()
	balances.Info = json.RawMessage(raw)
	if account.UpdateTime > 0 {
		balances.Timestamp = time.UnixMilli(account.UpdateTime)
	}

	for i := range account.Assets {
		a := &account.Assets[i]
		if a.Asset == "" {
			continue
		}

		bal := core.Balance{
			Free:  a.AvailableBalance,
			Total: a.WalletBalance,
		}
		if _, err := apd.BaseContext.Sub(&bal.Used, &bal.Total, &bal.Free); err != nil {
			return nil, fmt.Errorf("calculate used %s: %w", a.Asset, err)
		}
		balances.Set(a.Asset, bal)
	}

	return balances, nil
}

// NormalizeTicker converts a Binance 24hr ticker to a canonical Ticker.
func (n *Normalizer) NormalizeTicker(data *binanceTicker, raw []byte) *core.Ticker {
	ticker := &core.Ticker{
		Symbol:      UnifiedSymbol(data.Symbol),
		High:        data.HighPrice,
		Low:         data.LowPrice,
		Open:        data.OpenPrice,
		Close:       data.LastPrice,
		Last:        data.LastPrice,
		VWAP:        data.WeightedAvgPrice,
		Change:      data.PriceChange,
		Percentage:  data.PriceChangePercent,
		BaseVolume:  data.Volume,
		QuoteVolume: data.QuoteVolume,
		Info:        json.RawMessage(raw),
	}

	if data.CloseTime > 0 {
		ticker.Timestamp = time.UnixMilli(data.CloseTime)
	}

	return ticker
}

// NormalizePosition converts one positionRisk entry. The side follows the sign of
// positionAmt unless the account is in hedge mode, where positionSide decides
// for legs that hold contracts. An empty leg stays flat.
func (n *Normalizer) NormalizePosition(data *binancePosition, raw json.RawMessage) core.Position {
	pos := core.Position{
		Symbol:           UnifiedSymbol(data.Symbol),
		Contracts:        data.PositionAmt,
		Side:             positionDirection(&data.PositionAmt),
		EntryPrice:       data.EntryPrice,
		MarkPrice:        data.MarkPrice,
		LiquidationPrice: data.LiquidationPrice,
		UnrealizedPnl:    data.UnRealizedProfit,
		Leverage:         data.Leverage,
		MarginType:       data.MarginType,
		Info:             raw,
	}

	if ps, ok := core.ParsePositionSide(data.PositionSide); ok {
		pos.PositionSide = ps
		if pos.Side != core.DirectionFlat {
			switch ps {
			case core.PositionSideLong:
				pos.Side = core.DirectionLong
			case core.PositionSideShort:
				pos.Side = core.DirectionShort
			}
		}
	}

	if data.UpdateTime > 0 {
		pos.Timestamp = time.UnixMilli(data.UpdateTime)
	}

	return pos
}

// NormalizePositions converts positionRisk entries; raws holds the matching raw JSON.
func (n *Normalizer) NormalizePositions(data []binancePosition, raws []json.RawMessage) []core.Position {
	positions := make([]core.Position, 0, len(data))
	for i := range data {
		var raw json.RawMessage
		if i < len(raws) {
			raw = raws[i]
		}
		positions = append(positions, n.NormalizePosition(&data[i], raw))
	}
	return positions
}

func positionDirection(amt *apd.Decimal) core.Direction {
	switch amt.Sign() {
	case 1:
		return core.DirectionLong
	case -1:
		return core.DirectionShort
	default:
		return core.DirectionFlat
	}
}

// NormalizeOrder converts a Binance order response to a canonical Order.
// It calculates the remaining quantity from total and filled quantities.
func (n *Normalizer) NormalizeOrder(data *binanceOrder, raw []byte) (*core.Order, error) {
	order := &core.Order{
		ID:             strconv.FormatInt(data.OrderID, 10),
		ClientOrderID:  data.ClientOrderID,
		Symbol:         UnifiedSymbol(data.Symbol),
		Price:          data.Price,
		AvgPrice:       data.AvgPrice,
		Quantity:       data.OrigQty,
		FilledQuantity: data.ExecutedQty,
		Cost:           data.CumQuote,
		ReduceOnly:     data.ReduceOnly,
		Info:           json.RawMessage(raw),
	}
	order.Side, _ = core.ParseOrderSide(data.Side)
	order.Type, _ = core.ParseOrderType(data.Type)
	order.Status, _ = core.ParseOrderStatus(data.Status)
	order.TimeInForce, _ = core.ParseTimeInForce(data.TimeInForce)
	order.PositionSide, _ = core.ParsePositionSide(data.PositionSide)

	if data.UpdateTime > 0 {
		order.UpdatedAt = time.UnixMilli(data.UpdateTime)
	}
	switch {
	case data.Time > 0:
		order.CreatedAt = time.UnixMilli(data.Time)
	case data.UpdateTime > 0:
		order.CreatedAt = order.UpdatedAt
	}

	var remaining apd.Decimal
	_, err := apd.BaseContext.Sub(&remaining, &order.Quantity, &order.FilledQuantity)
	if err != nil {
		return nil, fmt.Errorf("calculate remaining: %w", err)
	}
	order.RemainingQty = remaining

	return order, nil
}

// NormalizeMarket converts an exchangeInfo symbol to a canonical Market.
func (n *Normalizer) NormalizeMarket(data *binanceSymbol) core.Market {
	m := core.Market{
		ID:                data.Symbol,
		Base:              data.BaseAsset,
		Quote:             data.QuoteAsset,
		Settle:            data.MarginAsset,
		Status:            data.Status,
		ContractType:      data.ContractType,
		PricePrecision:    data.PricePrecision,
		QuantityPrecision: data.QuantityPrecision,
	}
	if m.Settle == "" {
		m.Settle = m.Quote
	}

	m.Symbol = m.Base + "/" + m.Quote + ":" + m.Settle
	if _, expiry, ok := strings.Cut(data.Symbol, "_"); ok {
		m.Symbol += "-" + expiry
	}
	return m
}

// NormalizeMarkets converts every contract of an exchangeInfo response.
func (n *Normalizer) NormalizeMarkets(info *binanceExchangeInfo) []core.Market {
	markets := make([]core.Market, 0, len(info.Symbols))
	for i := range info.Symbols {
		markets = append(markets, n.NormalizeMarket(&info.Symbols[i]))
	}
	return markets
}
