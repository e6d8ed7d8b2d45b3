package core

import (
	"context"
	"slices"

	"resty.dev/v3"
)

// Protocol defines the interface for exchange-specific protocol implementations.
// Each exchange implements it to turn operations into requests and responses
// into canonical types. Signing is handled separately so that protocols stay pure.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "binance").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the API base URL for the given environment.
	BaseURL(testnet bool) string

	// BuildRequest constructs an HTTP request for the specified operation.
	// Parameters are added to the request query in the order they appear in params.
	BuildRequest(ctx context.Context, op Operation, params *Params) (*Request, error)

	// ParseResponse deserializes the HTTP response and normalizes it to canonical types.
	// Non-success statuses are returned as *ExchangeError.
	ParseResponse(op Operation, resp *resty.Response) (any, error)

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation
}

// Supports reports whether p can build requests for op.
func Supports(p Protocol, op Operation) bool {
	return slices.Contains(p.SupportedOperations(), op)
}
