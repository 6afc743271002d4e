package domain

import (
	"encoding/json"
	"fmt"
)

// Value holds the current state of one draft field. Exactly one of the
// typed members is meaningful, selected by Kind.
type Value struct {
	Kind FieldKind
	Bool bool
	Int  int
	Pair map[string]bool
}

// BoolValue builds a toggle value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue builds a bounded-integer value.
func IntValue(n int) Value { return Value{Kind: KindBoundedInt, Int: n} }

// PairValue builds a nested-toggle value from its subfield states.
func PairValue(pair map[string]bool) Value {
	return Value{Kind: KindNestedBool, Pair: pair}
}

// Clone returns a value sharing no mutable state with the receiver.
func (v Value) Clone() Value {
	if v.Kind != KindNestedBool {
		return v
	}
	pair := make(map[string]bool, len(v.Pair))
	for k, b := range v.Pair {
		pair[k] = b
	}
	return Value{Kind: KindNestedBool, Pair: pair}
}

// MarshalJSON encodes the value in the exchange-channel shape: plain
// booleans and numbers, nested toggles as objects of booleans.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindBoundedInt:
		return json.Marshal(v.Int)
	case KindNestedBool:
		return json.Marshal(v.Pair)
	default:
		return nil, fmt.Errorf("unknown field kind %d", v.Kind)
	}
}

// UnmarshalJSON decodes any of the three wire shapes back into a typed value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = IntValue(n)
		return nil
	}
	var pair map[string]bool
	if err := json.Unmarshal(data, &pair); err == nil {
		*v = PairValue(pair)
		return nil
	}
	return fmt.Errorf("value %q matches no field kind", string(data))
}

// Draft is the current, possibly uncommitted, value set of a session.
// It always contains one entry per field declared by the feature's specs.
type Draft map[string]Value

// Clone returns a deep copy. Drafts are never aliased between a session
// and its default snapshot, or between a session and a caller.
func (d Draft) Clone() Draft {
	if d == nil {
		return nil
	}
	out := make(Draft, len(d))
	for name, v := range d {
		out[name] = v.Clone()
	}
	return out
}

// Equal reports whether two drafts hold identical values.
func (d Draft) Equal(other Draft) bool {
	if len(d) != len(other) {
		return false
	}
	for name, v := range d {
		ov, ok := other[name]
		if !ok || v.Kind != ov.Kind {
			return false
		}
		switch v.Kind {
		case KindBool:
			if v.Bool != ov.Bool {
				return false
			}
		case KindBoundedInt:
			if v.Int != ov.Int {
				return false
			}
		case KindNestedBool:
			if len(v.Pair) != len(ov.Pair) {
				return false
			}
			for k, b := range v.Pair {
				if ov.Pair[k] != b {
					return false
				}
			}
		}
	}
	return true
}
