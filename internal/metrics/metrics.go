// Package metrics records per-operation request counts and latency.
//
// Collectors are registered on a caller-supplied registry so that two clients
// in one process never share counters unless the caller wants them to.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fapidemo/pkg/core"
)

const namespace = "fapidemo"

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeClient    = "client_error"
	OutcomeExchange  = "exchange_error"
	OutcomeTransport = "transport_error"
)

// Collector holds the request metrics of one client. A nil *Collector is valid
// and records nothing.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "REST calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "REST call latency including response decoding",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	var registered []prometheus.Collector
	for _, col := range []prometheus.Collector{c.requests, c.duration} {
		if err := reg.Register(col); err != nil {
			for _, r := range registered {
				reg.Unregister(r)
			}
			return nil, err
		}
		registered = append(registered, col)
	}
	return c, nil
}

// Observe records one finished call of op that started at start.
func (c *Collector) Observe(op core.Operation, start time.Time, err error) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(op.String(), Outcome(err)).Inc()
	c.duration.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
}

// Outcome classifies err for the outcome label. Errors raised before anything
// was sent count as client errors. An ExchangeError without a status code is
// one of those.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, core.ErrNoCredentials) ||
		errors.Is(err, core.ErrClientClosed) ||
		errors.Is(err, core.ErrUnsupportedOperation) {
		return OutcomeClient
	}
	var exErr *core.ExchangeError
	if errors.As(err, &exErr) {
		if exErr.StatusCode == 0 {
			return OutcomeClient
		}
		return OutcomeExchange
	}
	return OutcomeTransport
}
