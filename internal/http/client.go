package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"fapidemo/pkg/core"
)

// Client is a scoped transport handle. It is created per exchange instance,
// shared by concurrent calls, and released with Close.
type Client struct {
	client *resty.Client
	logger zerolog.Logger
	mu     sync.RWMutex
	closed bool
}

type Config struct {
	Timeout time.Duration `validate:"min=1ms"`
	// InsecureSkipVerify disables certificate verification. The exchange layer
	// only allows it for testnet hosts.
	InsecureSkipVerify bool
	Headers            map[string]string `validate:"omitempty"`
}

type Option func(*Client)

// WithLogger sets the logger used for request and response debug lines.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	client := resty.New()
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(0)
	if config.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	client.AddContentTypeDecoder("application/json", func(r io.Reader, v any) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return sonic.Unmarshal(data, v)
	})

	for k, v := range config.Headers {
		client.SetHeader(k, v)
	}

	logger := c.logger
	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", RedactSignature(req.URL)).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", RedactSignature(resp.Request.URL)).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	c.client = client
	return c, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Do sends a request to the absolute rawURL. The query string of rawURL is sent
// exactly as given so that a signed query reaches the server byte for byte.
// Transport failures are returned as is; non-2xx statuses are not errors here.
func (c *Client) Do(ctx context.Context, method, rawURL string, headers map[string]string) (*resty.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	req := c.client.R().SetContext(ctx)
	for k, v := range headers {
		req.SetHeader(k, v)
	}

	switch method {
	case http.MethodGet:
		return req.Get(rawURL)
	case http.MethodPost:
		return req.Post(rawURL)
	case http.MethodDelete:
		return req.Delete(rawURL)
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}
}

const signatureParam = "signature="

// RedactSignature masks the value of the signature query parameter in rawURL.
func RedactSignature(rawURL string) string {
	i := strings.Index(rawURL, signatureParam)
	for i > 0 && rawURL[i-1] != '?' && rawURL[i-1] != '&' {
		next := strings.Index(rawURL[i+1:], signatureParam)
		if next < 0 {
			return rawURL
		}
		i += 1 + next
	}
	if i < 0 {
		return rawURL
	}
	start := i + len(signatureParam)
	end := strings.IndexByte(rawURL[start:], '&')
	if end < 0 {
		return rawURL[:start] + "REDACTED"
	}
	return rawURL[:start] + "REDACTED" + rawURL[start+end:]
}
