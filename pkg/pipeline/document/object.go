package document

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Object is a mapping that remembers the order in which keys were set.
// A nil *Object behaves as an empty mapping for reads.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) isValue()   {}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v Value) *Object {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v

	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]

	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)

	return out
}

// Clone returns a deep copy. Cloning nil yields an empty object.
func (o *Object) Clone() *Object {
	out := NewObject()
	if o == nil {
		return out
	}
	for _, k := range o.keys {
		out.Set(k, Clone(o.values[k]))
	}

	return out
}

// MarshalJSON writes the object in key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}

	return EncodeJSON(o, "")
}

// UnmarshalJSON reads an object, keeping key order. JSON null yields an empty object.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}

	return o.assign(v)
}

// MarshalYAML writes the object in key order.
func (o *Object) MarshalYAML() (interface{}, error) {
	if o == nil {
		return toYAMLNode(NewObject()), nil
	}

	return toYAMLNode(o), nil
}

// UnmarshalYAML reads an object, keeping key order.
func (o *Object) UnmarshalYAML(node *yaml.Node) error {
	v, err := fromYAMLNode(node, 0)
	if err != nil {
		return err
	}

	return o.assign(v)
}

func (o *Object) assign(v Value) error {
	switch val := v.(type) {
	case Null:
		*o = Object{values: make(map[string]Value)}
	case *Object:
		*o = *val.Clone()
	default:
		return errors.Wrapf(ErrNotAnObject, "got %s", v.Kind())
	}

	return nil
}
