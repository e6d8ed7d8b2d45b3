// Package signer builds authenticated Binance Futures REST requests.
//
// A signed request carries a millisecond timestamp, a recvWindow tolerance and an
// HMAC-SHA256 signature computed over the canonical, insertion-ordered query
// string. The API key travels in the X-MBX-APIKEY header.
//
//	b := signer.New()
//	req := b.Build("https://testnet.binancefuture.com/fapi/v2/account", http.MethodGet,
//		core.NewParams(), creds, 0)
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"fapidemo/pkg/core"
)

const (
	// HeaderAPIKey carries the public API key on signed requests.
	HeaderAPIKey = "X-MBX-APIKEY"

	// DefaultRecvWindow is the tolerance applied when the caller passes zero.
	DefaultRecvWindow = 60 * time.Second

	paramTimestamp  = "timestamp"
	paramRecvWindow = "recvWindow"
	paramSignature  = "signature"
)

// SignedRequest is a fully authenticated request ready to be dispatched.
// It is derived per call and must not be reused: the embedded timestamp goes stale.
type SignedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
}

// Clock returns the current time. It exists so tests can pin the timestamp.
type Clock func() time.Time

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(b *Builder) {
		b.now = c
	}
}

// Builder produces SignedRequests. It holds no per-request state and is safe for
// concurrent use.
type Builder struct {
	now Clock
}

// New creates a Builder using the wall clock unless overridden.
func New(opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build signs params for endpoint. The caller's params are not modified.
// A zero recvWindow falls back to DefaultRecvWindow. Any timestamp, recvWindow
// or signature already present in params is replaced, and the three always
// come last in that order.
func (b *Builder) Build(endpoint, method string, params *core.Params, creds core.Credentials, recvWindow time.Duration) *SignedRequest {
	if recvWindow <= 0 {
		recvWindow = DefaultRecvWindow
	}

	p := params.Clone().
		Del(paramTimestamp).
		Del(paramRecvWindow).
		Del(paramSignature)
	p.Set(paramTimestamp, strconv.FormatInt(b.now().UnixMilli(), 10))
	p.Set(paramRecvWindow, strconv.FormatInt(recvWindow.Milliseconds(), 10))

	query := p.Encode()
	query += "&" + paramSignature + "=" + Sign(query, creds.SecretKey)

	return &SignedRequest{
		Method: method,
		URL:    endpoint + "?" + query,
		Headers: map[string]string{
			HeaderAPIKey: creds.APIKey,
		},
	}
}

// Sign returns the lowercase hex HMAC-SHA256 of message keyed by secret.
func Sign(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature is the valid signature of message under secret.
func Verify(message, signature, secret string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hmac.Equal(h.Sum(nil), want)
}
