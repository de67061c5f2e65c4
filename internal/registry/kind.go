package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind is the declared type of a tool parameter
type Kind string

const (
	KindInteger     Kind = "integer"
	KindNumber      Kind = "number"
	KindString      Kind = "string"
	KindBoolean     Kind = "boolean"
	KindEnum        Kind = "enum"
	KindIntegerList Kind = "integer_list"
)

// Valid reports whether k is one of the supported kinds
func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindNumber, KindString, KindBoolean, KindEnum, KindIntegerList:
		return true
	}
	return false
}

// Numeric reports whether values of k may carry a unit
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindNumber || k == KindIntegerList
}

// Unit is the measurement unit of a numeric parameter
type Unit string

const (
	UnitNone       Unit = ""
	UnitCentimeter Unit = "cm"
	UnitDegree     Unit = "deg"
)

// Valid reports whether u is a supported unit
func (u Unit) Valid() bool {
	return u == UnitNone || u == UnitCentimeter || u == UnitDegree
}

// Mismatch describes a value rejected by Coerce
type Mismatch struct {
	Expected string
	Received string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("expected %s, got %s", m.Expected, m.Received)
}

// Coerce checks v against the parameter's declared type and returns its canonical
// Go representation: int64, float64, string, bool, or []int64. Numeric strings are
// never parsed; integral numbers are accepted where a number is declared.
func (p *ParameterSpec) Coerce(v interface{}) (interface{}, error) {
	switch p.Type {
	case KindInteger:
		i, ok := asInteger(v)
		if !ok {
			break
		}
		if p.Minimum != nil && i < *p.Minimum {
			return nil, &Mismatch{Expected: p.expected(), Received: fmt.Sprintf("integer %d", i)}
		}
		return i, nil
	case KindNumber:
		if f, ok := asNumber(v); ok {
			return f, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			break
		}
		for _, allowed := range p.Values {
			if strings.EqualFold(s, allowed) {
				return allowed, nil
			}
		}
		return nil, &Mismatch{Expected: p.expected(), Received: fmt.Sprintf("string %q", s)}
	case KindIntegerList:
		list, ok := asIntegerList(v)
		if !ok {
			break
		}
		if len(list) < p.MinItems {
			return nil, &Mismatch{Expected: p.expected(), Received: fmt.Sprintf("list of %d", len(list))}
		}
		return list, nil
	}
	return nil, &Mismatch{Expected: p.expected(), Received: KindOfValue(v)}
}

func (p *ParameterSpec) expected() string {
	switch {
	case p.Type == KindEnum:
		return fmt.Sprintf("enum (one of %s)", strings.Join(p.Values, ", "))
	case p.Type == KindInteger && p.Minimum != nil:
		return fmt.Sprintf("integer >= %d", *p.Minimum)
	case p.Type == KindIntegerList && p.MinItems > 0:
		return fmt.Sprintf("integer_list of at least %d", p.MinItems)
	}
	return string(p.Type)
}

// KindOfValue names the JSON kind of a caller-supplied value
func KindOfValue(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case json.Number:
		if _, ok := asInteger(v); ok {
			return "integer"
		}
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []interface{}, []int, []int64, []float64:
		return "list"
	case map[string]interface{}:
		return "object"
	}
	if _, ok := asInteger(v); ok {
		return "integer"
	}
	if _, ok := asNumber(v); ok {
		return "number"
	}
	return "value"
}

func asNumber(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case float32:
		f = float64(val)
	case float64:
		f = val
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInteger(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func asIntegerList(v interface{}) ([]int64, bool) {
	switch val := v.(type) {
	case []int64:
		return append([]int64{}, val...), true
	case []int:
		out := make([]int64, len(val))
		for i, n := range val {
			out[i] = int64(n)
		}
		return out, true
	case []interface{}:
		out := make([]int64, len(val))
		for i, item := range val {
			n, ok := asInteger(item)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
