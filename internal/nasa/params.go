package nasa

import (
	"net/url"
	"strconv"
)

// Params is an ordered set of query parameters. Setters skip absent values,
// so an unset option never appears as a key in the outgoing request.
//
// Example output: "date-min=now&date-max=%2B60&dist-max=0.05"
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams creates an empty Params.
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set adds key=value unconditionally, replacing a previous value.
func (p *Params) Set(key, value string) *Params {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// SetString adds key=value when value is non-empty.
func (p *Params) SetString(key, value string) *Params {
	if value == "" {
		return p
	}
	return p.Set(key, value)
}

// SetDate adds the normalized date when d is set. An empty calendar string
// counts as unset.
func (p *Params) SetDate(key string, d DateSpec) *Params {
	if d.IsZero() {
		return p
	}
	return p.SetString(key, d.String())
}

// SetFloat adds key=value when v is non-nil.
func (p *Params) SetFloat(key string, v *float64) *Params {
	if v == nil {
		return p
	}
	return p.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
}

// SetInt adds key=value when v is non-nil.
func (p *Params) SetInt(key string, v *int) *Params {
	if v == nil {
		return p
	}
	return p.Set(key, strconv.Itoa(*v))
}

// SetFlag adds key=true when v is true. false is the service default and is
// left out.
func (p *Params) SetFlag(key string, v bool) *Params {
	if !v {
		return p
	}
	return p.Set(key, "true")
}

// Get returns the value for key and whether it is present.
func (p *Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of parameters.
func (p *Params) Len() int { return len(p.keys) }

// Values converts to url.Values.
func (p *Params) Values() url.Values {
	v := make(url.Values, len(p.keys))
	for _, k := range p.keys {
		v.Set(k, p.values[k])
	}
	return v
}

// Encode returns the URL-encoded query string, keys sorted.
func (p *Params) Encode() string {
	return p.Values().Encode()
}
