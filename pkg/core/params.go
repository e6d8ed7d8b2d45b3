package core

import (
	"net/url"
	"strings"
)

// Params is an insertion-ordered set of request parameters.
// Keys are unique; the order in which keys are first set is the order in which
// they appear in the encoded query string and therefore in the signed message.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set stores value under key. Setting an existing key replaces the value
// without moving the key.
func (p *Params) Set(key, value string) *Params {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// SetIfAbsent stores value under key only if key has not been set yet.
func (p *Params) SetIfAbsent(key, value string) *Params {
	if p.Has(key) {
		return p
	}
	return p.Set(key, value)
}

// Merge appends every key of other that p does not have yet, in other's order.
func (p *Params) Merge(other *Params) *Params {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		p.SetIfAbsent(k, v)
	}
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (string, bool) {
	if p == nil || p.values == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key has been set.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Del removes key.
func (p *Params) Del(key string) *Params {
	if !p.Has(key) {
		return p
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return p
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the parameter names in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Clone returns an independent copy of p.
func (p *Params) Clone() *Params {
	c := NewParams()
	if p == nil {
		return c
	}
	for _, k := range p.keys {
		c.Set(k, p.values[k])
	}
	return c
}

// Encode form-encodes the parameters in insertion order.
// Spaces become '+' and reserved characters are percent-encoded.
func (p *Params) Encode() string {
	if p.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[k]))
	}
	return b.String()
}
