package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpFetchBalance retrieves account balances.
	OpFetchBalance Operation = iota
	// OpFetchTicker retrieves 24h ticker statistics for a symbol.
	OpFetchTicker
	// OpFetchPositions retrieves open futures positions.
	OpFetchPositions
	// OpCreateOrder submits a new order.
	OpCreateOrder
	// OpLoadMarkets retrieves the list of tradable contracts.
	OpLoadMarkets
)

var operationNames = [...]string{
	"FETCH_BALANCE",
	"FETCH_TICKER",
	"FETCH_POSITIONS",
	"CREATE_ORDER",
	"LOAD_MARKETS",
}

// String returns the string representation of the operation.
func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return "UNKNOWN"
	}
	return operationNames[o]
}
