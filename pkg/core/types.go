package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase a contract.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell a contract.
	SideSell
)

// String returns the string representation of the order side ("BUY" or "SELL").
func (s OrderSide) String() string {
	return [...]string{"BUY", "SELL"}[s]
}

// ParseOrderSide converts an exchange side string, in either case, to an OrderSide.
func ParseOrderSide(str string) (OrderSide, bool) {
	switch strings.ToUpper(str) {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	}
	return SideBuy, false
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	if v, ok := ParseOrderSide(strings.Trim(string(data), `"`)); ok {
		*s = v
	}
	return nil
}

// OrderType represents the type of futures order to place.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = iota
	// TypeLimit executes at a specified price or better.
	TypeLimit
	// TypeStop places a limit order once the stop price is reached.
	TypeStop
	// TypeStopMarket places a market order once the stop price is reached.
	TypeStopMarket
	// TypeTakeProfit places a limit order once the take-profit price is reached.
	TypeTakeProfit
	// TypeTakeProfitMarket places a market order once the take-profit price is reached.
	TypeTakeProfitMarket
	// TypeTrailingStopMarket follows the price by a callback rate.
	TypeTrailingStopMarket
)

var orderTypeNames = [...]string{
	"MARKET",
	"LIMIT",
	"STOP",
	"STOP_MARKET",
	"TAKE_PROFIT",
	"TAKE_PROFIT_MARKET",
	"TRAILING_STOP_MARKET",
}

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return orderTypeNames[t]
}

// ParseOrderType converts an exchange order type string to an OrderType.
func ParseOrderType(str string) (OrderType, bool) {
	upper := strings.ToUpper(str)
	for i, name := range orderTypeNames {
		if name == upper {
			return OrderType(i), true
		}
	}
	return TypeMarket, false
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	if v, ok := ParseOrderType(strings.Trim(string(data), `"`)); ok {
		*t = v
	}
	return nil
}

// OrderStatus represents the current state of an order.
type OrderStatus int

// Order status constants define the lifecycle state of an order.
const (
	// StatusNew indicates the order has been accepted by the exchange.
	StatusNew OrderStatus = iota
	// StatusPartiallyFilled indicates the order has been partially filled.
	StatusPartiallyFilled
	// StatusFilled indicates the order has been completely filled.
	StatusFilled
	// StatusCanceled indicates the order has been canceled.
	StatusCanceled
	// StatusRejected indicates the order was rejected by the exchange.
	StatusRejected
	// StatusExpired indicates the order has expired.
	StatusExpired
	// StatusExpiredInMatch indicates the order expired due to self-trade prevention.
	StatusExpiredInMatch
)

var orderStatusNames = [...]string{
	"NEW",
	"PARTIALLY_FILLED",
	"FILLED",
	"CANCELED",
	"REJECTED",
	"EXPIRED",
	"EXPIRED_IN_MATCH",
}

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return orderStatusNames[s]
}

// ParseOrderStatus converts an exchange status string to an OrderStatus.
func ParseOrderStatus(str string) (OrderStatus, bool) {
	upper := strings.ToUpper(str)
	for i, name := range orderStatusNames {
		if name == upper {
			return OrderStatus(i), true
		}
	}
	return StatusNew, false
}

// IsTerminal returns true if the order is in a terminal state (no further changes possible).
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected ||
		s == StatusExpired || s == StatusExpiredInMatch
}

// MarshalJSON implements json.Marshaler for OrderStatus.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderStatus.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	if v, ok := ParseOrderStatus(strings.Trim(string(data), `"`)); ok {
		*s = v
	}
	return nil
}

// TimeInForce defines how long an order remains active.
type TimeInForce int

// Time in force constants define order lifetime behavior.
const (
	// GTC (Good Till Canceled) keeps the order active until filled or canceled.
	GTC TimeInForce = iota
	// IOC (Immediate Or Cancel) requires immediate execution; unfilled portion is canceled.
	IOC
	// FOK (Fill Or Kill) requires complete immediate execution or cancellation.
	FOK
	// GTX (Good Till Crossing) is post-only.
	GTX
)

var timeInForceNames = [...]string{"GTC", "IOC", "FOK", "GTX"}

// String returns the string representation of time in force.
func (t TimeInForce) String() string {
	return timeInForceNames[t]
}

// ParseTimeInForce converts an exchange time-in-force string to a TimeInForce.
func ParseTimeInForce(str string) (TimeInForce, bool) {
	upper := strings.ToUpper(str)
	for i, name := range timeInForceNames {
		if name == upper {
			return TimeInForce(i), true
		}
	}
	return GTC, false
}

// MarshalJSON implements json.Marshaler for TimeInForce.
func (t TimeInForce) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for TimeInForce.
func (t *TimeInForce) UnmarshalJSON(data []byte) error {
	if v, ok := ParseTimeInForce(strings.Trim(string(data), `"`)); ok {
		*t = v
	}
	return nil
}

// PositionSide is the hedge-mode leg a position or order belongs to.
// One-way mode accounts always report PositionSideBoth.
type PositionSide int

const (
	PositionSideBoth PositionSide = iota
	PositionSideLong
	PositionSideShort
)

var positionSideNames = [...]string{"BOTH", "LONG", "SHORT"}

func (p PositionSide) String() string {
	return positionSideNames[p]
}

// ParsePositionSide converts an exchange positionSide string to a PositionSide.
func ParsePositionSide(str string) (PositionSide, bool) {
	upper := strings.ToUpper(str)
	for i, name := range positionSideNames {
		if name == upper {
			return PositionSide(i), true
		}
	}
	return PositionSideBoth, false
}

// MarshalJSON implements json.Marshaler for PositionSide.
func (p PositionSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for PositionSide.
func (p *PositionSide) UnmarshalJSON(data []byte) error {
	if v, ok := ParsePositionSide(strings.Trim(string(data), `"`)); ok {
		*p = v
	}
	return nil
}

// Direction is the net exposure of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	// DirectionFlat is reported for a zero-size position.
	DirectionFlat Direction = ""
)

// Balance holds the amounts of a single asset.
type Balance struct {
	// Free is the amount available for new positions.
	Free apd.Decimal `json:"free"`
	// Used is the amount committed to margin and open orders.
	Used apd.Decimal `json:"used"`
	// Total is the wallet balance.
	Total apd.Decimal `json:"total"`
}

// Balances is the account balance snapshot across all assets.
// Assets, Free, Used and Total are keyed by asset code (e.g. "USDT")
// and always hold the same set of keys.
type Balances struct {
	// Info is the raw account payload.
	Info json.RawMessage `json:"info,omitempty"`
	// Assets groups the free/used/total amounts per asset.
	Assets map[string]Balance `json:"assets"`
	// Free is the available amount per asset.
	Free map[string]apd.Decimal `json:"free"`
	// Used is Total minus Free per asset.
	Used map[string]apd.Decimal `json:"used"`
	// Total is the wallet balance per asset.
	Total map[string]apd.Decimal `json:"total"`
	// Timestamp is the account update time, zero when the exchange omits it.
	Timestamp time.Time `json:"timestamp"`
}

// NewBalances returns an empty Balances with initialized maps.
func NewBalances() *Balances {
	return &Balances{
		Assets: make(map[string]Balance),
		Free:   make(map[string]apd.Decimal),
		Used:   make(map[string]apd.Decimal),
		Total:  make(map[string]apd.Decimal),
	}
}

// Set records the amounts for asset across every view of the snapshot.
func (b *Balances) Set(asset string, bal Balance) {
	b.Assets[asset] = bal
	b.Free[asset] = bal.Free
	b.Used[asset] = bal.Used
	b.Total[asset] = bal.Total
}

// Ticker represents 24-hour rolling statistics for a contract.
type Ticker struct {
	// Symbol is the unified symbol (e.g., "BTC/USDT:USDT").
	Symbol string `json:"symbol"`
	// Timestamp is the close time of the statistics window.
	Timestamp time.Time `json:"timestamp"`
	// High is the highest price in the window.
	High apd.Decimal `json:"high"`
	// Low is the lowest price in the window.
	Low apd.Decimal `json:"low"`
	// Open is the first price in the window.
	Open apd.Decimal `json:"open"`
	// Close equals Last.
	Close apd.Decimal `json:"close"`
	// Last is the price of the most recent trade.
	Last apd.Decimal `json:"last"`
	// VWAP is the volume weighted average price.
	VWAP apd.Decimal `json:"vwap"`
	// Change is the absolute price change.
	Change apd.Decimal `json:"change"`
	// Percentage is the relative price change in percent.
	Percentage apd.Decimal `json:"percentage"`
	// BaseVolume is the traded volume in contracts of the base asset.
	BaseVolume apd.Decimal `json:"base_volume"`
	// QuoteVolume is the traded volume in the quote asset.
	QuoteVolume apd.Decimal `json:"quote_volume"`
	// Info is the raw ticker payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Position is an open (or flat) futures position.
type Position struct {
	Symbol string `json:"symbol"`
	// Contracts is signed: negative for a short position.
	Contracts        apd.Decimal     `json:"contracts"`
	Side             Direction       `json:"side"`
	EntryPrice       apd.Decimal     `json:"entry_price"`
	MarkPrice        apd.Decimal     `json:"mark_price"`
	LiquidationPrice apd.Decimal     `json:"liquidation_price"`
	UnrealizedPnl    apd.Decimal     `json:"unrealized_pnl"`
	Leverage         apd.Decimal     `json:"leverage"`
	MarginType       string          `json:"margin_type"`
	PositionSide     PositionSide    `json:"position_side"`
	Timestamp        time.Time       `json:"timestamp"`
	Info             json.RawMessage `json:"info,omitempty"`
}

// Order represents an exchange order with all its details.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID string `json:"id"`
	// ClientOrderID is the client-assigned order identifier.
	ClientOrderID string `json:"client_order_id"`
	// Symbol is the unified symbol for this order.
	Symbol string `json:"symbol"`
	// Side indicates whether this is a buy or sell order.
	Side OrderSide `json:"side"`
	// Type defines how the order executes.
	Type OrderType `json:"type"`
	// Status is the current state of the order.
	Status OrderStatus `json:"status"`
	// TimeInForce defines how long the order remains active.
	TimeInForce TimeInForce `json:"time_in_force"`
	// Price is the limit price, zero for market orders.
	Price apd.Decimal `json:"price"`
	// AvgPrice is the average fill price.
	AvgPrice apd.Decimal `json:"avg_price"`
	// Quantity is the total order quantity.
	Quantity apd.Decimal `json:"quantity"`
	// FilledQuantity is the amount that has been executed.
	FilledQuantity apd.Decimal `json:"filled_quantity"`
	// RemainingQty is Quantity minus FilledQuantity.
	RemainingQty apd.Decimal `json:"remaining_quantity"`
	// Cost is the cumulative quote amount filled.
	Cost         apd.Decimal  `json:"cost"`
	ReduceOnly   bool         `json:"reduce_only"`
	PositionSide PositionSide `json:"position_side"`
	// CreatedAt is when the order was submitted.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the order was last modified.
	UpdatedAt time.Time `json:"updated_at"`
	// Info is the raw order payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Market describes a tradable contract.
type Market struct {
	// ID is the exchange symbol (e.g., "BTCUSDT").
	ID string `json:"id"`
	// Symbol is the unified symbol (e.g., "BTC/USDT:USDT").
	Symbol            string `json:"symbol"`
	Base              string `json:"base"`
	Quote             string `json:"quote"`
	Settle            string `json:"settle"`
	Status            string `json:"status"`
	ContractType      string `json:"contract_type"`
	PricePrecision    int    `json:"price_precision"`
	QuantityPrecision int    `json:"quantity_precision"`
}

// Active reports whether the contract is currently trading.
func (m Market) Active() bool {
	return m.Status == "TRADING"
}
