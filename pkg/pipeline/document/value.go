package document

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies the concrete type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is one node of a decoded document. The set of implementations is closed:
// Null, Bool, Number, String, Array and *Object.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the document null.
type Null struct{}

// Bool is a document boolean.
type Bool bool

// Number is a document number. The literal text is kept as written.
type Number string

// String is a document string.
type String string

// Array is an ordered sequence of values.
type Array []Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (Array) isValue()  {}

// Int returns a Number holding i.
func Int(i int64) Number {
	return Number(strconv.FormatInt(i, 10))
}

// Float returns a Number holding f in its shortest representation.
func Float(f float64) Number {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// Float64 parses the number literal.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", string(n))
	}

	return f, nil
}

// Int64 parses the number literal as an integer. Literals with a fraction fail.
func (n Number) Int64() (int64, error) {
	i, err := strconv.ParseInt(string(n), 10, 64)
	if err == nil {
		return i, nil
	}

	f, ferr := n.Float64()
	if ferr != nil {
		return 0, ferr
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("number %q is not an integer", string(n))
	}

	return int64(f), nil
}

// IsInteger reports whether the literal denotes an integral value.
func (n Number) IsInteger() bool {
	_, err := n.Int64()
	return err == nil
}

// AsString returns the string held by v, if v is a String.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsObject returns v as an object, if it is one.
func AsObject(v Value) (*Object, bool) {
	obj, ok := v.(*Object)
	return obj, ok && obj != nil
}

// AsArray returns v as an array, if it is one.
func AsArray(v Value) (Array, bool) {
	arr, ok := v.(Array)
	return arr, ok
}

// AsNumber returns v as a number, if it is one.
func AsNumber(v Value) (Number, bool) {
	n, ok := v.(Number)
	return n, ok
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Array:
		if val == nil {
			return Array(nil)
		}
		out := make(Array, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	case *Object:
		return val.Clone()
	default:
		return v
	}
}

// FromAny converts plain Go values (as produced by encoding/json or built in tests) into a Value.
// Map keys are sorted since Go maps carry no order.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(val, 10)), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case []any:
		out := make(Array, 0, len(val))
		for i, item := range val {
			conv, err := FromAny(item)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out = append(out, conv)
		}
		return out, nil
	case []string:
		out := make(Array, 0, len(val))
		for _, item := range val {
			out = append(out, String(item))
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			conv, err := FromAny(val[k])
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			obj.Set(k, conv)
		}
		return obj, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedValue, "%T", v)
	}
}

// MustFromAny is FromAny for literals known to be convertible.
func MustFromAny(v any) Value {
	out, err := FromAny(v)
	if err != nil {
		panic(err)
	}

	return out
}

const summaryMax = 40

// Summary returns a short single-line description of v, suitable as a display label.
func Summary(v Value) string {
	var out string

	switch val := v.(type) {
	case nil:
		out = "<missing>"
	case Null:
		out = "null"
	case Bool:
		out = strconv.FormatBool(bool(val))
	case Number:
		out = string(val)
	case String:
		out = strconv.Quote(string(val))
	case Array:
		out = "[" + strconv.Itoa(len(val)) + " items]"
	case *Object:
		out = "{" + strings.Join(val.Keys(), ", ") + "}"
	}

	if len(out) > summaryMax {
		out = out[:summaryMax-3] + "..."
	}

	return out
}
