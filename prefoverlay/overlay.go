package prefoverlay

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// A Store is the mutable key-value configuration that overlays are applied
// to. Usually the store belongs to a host application; Prefs is a simple
// in-memory implementation.
type Store interface {
	// SetPref records the given value for the given key, replacing any
	// value already present for that key.
	SetPref(key string, val cty.Value)
}

// An Overlay is an object that can be applied to a store using the
// ApplyOverlays function, in which case it assigns each of the preferences
// it represents, in its own order.
type Overlay interface {
	// ApplyOverlay writes the overlay's assignments into the given store.
	//
	// Implementations must apply their assignments in source order so that
	// the last assignment to a particular key is the one that remains in
	// the store afterwards.
	ApplyOverlay(store Store)
}

// ApplyOverlays applies the given overlays to the given store.
//
// If multiple overlays are given, they will be applied in the given order,
// so a key assigned by a later overlay replaces the value assigned to that
// same key by any earlier overlay.
func ApplyOverlays(store Store, overlays ...Overlay) {
	for _, ov := range overlays {
		if ov == nil {
			continue
		}
		ov.ApplyOverlay(store)
	}
}

// Merge is like ApplyOverlays but applies the overlays to a new, empty
// Prefs and returns it.
func Merge(overlays ...Overlay) Prefs {
	ret := make(Prefs)
	ApplyOverlays(ret, overlays...)
	return ret
}

// Prefs is a Store implementation backed by a map from preference key to
// value.
type Prefs map[string]cty.Value

var _ Store = Prefs(nil)

// SetPref implements Store.
func (p Prefs) SetPref(key string, val cty.Value) {
	p[key] = val
}

// Get returns the value for the given key, or cty.NilVal if the key has not
// been set.
func (p Prefs) Get(key string) cty.Value {
	if val, ok := p[key]; ok {
		return val
	}
	return cty.NilVal
}

// Keys returns all of the keys in the receiver in lexical order.
func (p Prefs) Keys() []string {
	ret := make([]string, 0, len(p))
	for k := range p {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Equal returns true if both maps have the same set of keys and each key
// has an equal value of the same type in both.
func (p Prefs) Equal(other Prefs) bool {
	if len(p) != len(other) {
		return false
	}
	for k, val := range p {
		otherVal, ok := other[k]
		if !ok {
			return false
		}
		if !val.Type().Equals(otherVal.Type()) || !val.RawEquals(otherVal) {
			return false
		}
	}
	return true
}

// Object returns the receiver as a cty object value whose attributes are the
// preference keys, which is convenient for passing the whole set of
// preferences to other cty-based functionality, such as the JSON encoder.
func (p Prefs) Object() cty.Value {
	if len(p) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(p))
	for k, val := range p {
		attrs[k] = val
	}
	return cty.ObjectVal(attrs)
}
