// Package pincode tracks the current delivery pincode for a storefront
// session.
package pincode

import (
	"quickbasket/internal/state"
)

// DefaultPincode is used when no pincode has been stored yet.
const DefaultPincode = "332211"

const storageKey = "pincode"

type Resolver struct {
	state state.Store
}

func New(st state.Store) *Resolver {
	return &Resolver{state: st}
}

// Current returns the stored pincode, falling back to DefaultPincode.
func (r *Resolver) Current() string {
	if v, ok := r.state.Get(storageKey); ok && v != "" {
		return v
	}
	return DefaultPincode
}

// Set persists p as the current pincode and notifies subscribers. Setting
// the already-current value performs no write and emits no notification.
func (r *Resolver) Set(p string) error {
	if p == r.Current() {
		return nil
	}
	return r.state.Set(storageKey, p)
}

// Subscribe registers fn for pincode changes and returns an unsubscribe
// function. Changes to other keys in the underlying store are filtered out.
func (r *Resolver) Subscribe(fn func(pincode string)) func() {
	return r.state.Subscribe(func(key, value string) {
		if key == storageKey {
			fn(value)
		}
	})
}

// Valid reports whether p is a well-formed pincode: exactly six digits.
func Valid(p string) bool {
	if len(p) != 6 {
		return false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
