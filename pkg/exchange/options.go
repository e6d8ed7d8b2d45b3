package exchange

import (
	"time"

	"fapidemo/pkg/core"
)

type Option func(*Options)

type Options struct {
	// Params are extra exchange parameters appended after the ones the call sets itself.
	Params *core.Params
	// RecvWindow overrides the configured window for signed calls.
	RecvWindow time.Duration
}

// WithParam adds a single extra exchange parameter.
func WithParam(key, value string) Option {
	return func(o *Options) {
		if o.Params == nil {
			o.Params = core.NewParams()
		}
		o.Params.Set(key, value)
	}
}

// WithParams adds every parameter from p, in order.
func WithParams(p *core.Params) Option {
	return func(o *Options) {
		if o.Params == nil {
			o.Params = core.NewParams()
		}
		for _, k := range p.Keys() {
			v, _ := p.Get(k)
			o.Params.Set(k, v)
		}
	}
}

func WithRecvWindow(d time.Duration) Option {
	return func(o *Options) {
		o.RecvWindow = d
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{Params: core.NewParams()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
