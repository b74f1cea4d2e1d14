package canonical

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the types allowed in canonical forms.
// Only Str, Int, Bool, List and Map implement it. There is deliberately no
// float variant: fractional values must be encoded as fixed-precision
// strings by the caller before they participate in a digest.
type Value interface {
	canonicalValue() // sealed
}

// Str is a string value. NFC normalization happens at marshal time.
type Str string

func (Str) canonicalValue() {}

// Int is an integer value. Always int64; callers must not round floats
// into it.
type Int int64

func (Int) canonicalValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) canonicalValue() {}

// List is an ordered sequence of values. Order is significant and is
// preserved in the canonical form; callers that need order-independence
// must sort before constructing the List.
type List []Value

func (List) canonicalValue() {}

// Map is a string-keyed collection of values. Iteration order is
// irrelevant; marshaling always emits keys in UTF-16 code unit order.
type Map map[string]Value

func (Map) canonicalValue() {}

// SortedKeys returns the map's keys ordered by UTF-16 code units,
// the ordering RFC 8785 requires for canonical JSON objects.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by their UTF-16 code unit sequences.
// This differs from byte ordering for code points above the BMP.
func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	n := len(ua)
	if len(ub) < n {
		n = len(ub)
	}
	for i := 0; i < n; i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ua) < len(ub):
		return -1
	case len(ua) > len(ub):
		return 1
	default:
		return 0
	}
}

// FromAny converts plain Go values (as produced by json.Unmarshal with
// UseNumber, or hand-built maps) into canonical Values. Floats and nils
// are rejected rather than silently coerced.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return Str(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q is forbidden in canonical forms", val.String())
		}
		return Int(n), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			cv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = cv
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			cv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			m[k] = cv
		}
		return m, nil
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical forms")
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical forms: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical form: %T", v)
	}
}
