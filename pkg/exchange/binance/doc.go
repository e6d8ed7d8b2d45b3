// Package binance implements the Binance USDⓈ-M Futures REST protocol.
// By default every call goes to the demo trading host.
//
// The package includes:
//   - Protocol: request building, response parsing and error mapping
//   - Normalizer: conversion of futures payloads to canonical core types
//   - FuturesExchange: the exchange.Exchange implementation that signs and sends calls
//
// Example usage:
//
//	cfg := core.DefaultConfig().WithCredentials(core.Credentials{APIKey: key, SecretKey: secret})
//	ex, err := binance.New(cfg, binance.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer ex.Close()
//	balances, err := ex.FetchBalance(ctx)
package binance
