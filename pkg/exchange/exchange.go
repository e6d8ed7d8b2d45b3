package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"fapidemo/pkg/core"
)

// Exchange defines the futures account interface: balances, 24h ticker statistics,
// open positions and order placement, plus market discovery.
// Every call is an independent round trip; implementations are safe for concurrent use.
type Exchange interface {
	Name() string

	FetchBalance(ctx context.Context, opts ...Option) (*core.Balances, error)
	FetchTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	// FetchPositions returns all positions, or only those for symbols when given.
	FetchPositions(ctx context.Context, symbols []string, opts ...Option) ([]core.Position, error)
	CreateOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	LoadMarkets(ctx context.Context, opts ...Option) ([]core.Market, error)

	// Close releases the transport. Calls made after Close fail with core.ErrClientClosed.
	Close() error
}

// OrderRequest contains the parameters required to place a new order.
// Price and TimeInForce are only sent for LIMIT orders.
type OrderRequest struct {
	Symbol        string
	Side          core.OrderSide
	Type          core.OrderType
	Quantity      apd.Decimal
	Price         apd.Decimal
	TimeInForce   core.TimeInForce
	ClientOrderID string
	ReduceOnly    bool
}

// Validate checks the request before anything is sent to the exchange.
func (r *OrderRequest) Validate() error {
	switch {
	case r.Symbol == "":
		return orderError("symbol is required")
	case r.Quantity.Sign() <= 0:
		return orderError("quantity must be positive")
	case r.Type == core.TypeLimit && r.Price.Sign() <= 0:
		return orderError("price is required for LIMIT orders")
	}
	return nil
}

func orderError(msg string) error {
	return core.NewExchangeError("", core.ErrorTypeBadRequest, 0, msg).
		WithCode(core.ErrCodeInvalidOrder).
		WithOperation(core.OpCreateOrder)
}
