package document

import (
	"bytes"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const maxDepth = 512

// DecodeJSON parses a single JSON value, keeping mapping key order and number literals.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readJSON(dec, 0)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode json")
	}

	_, err = dec.Token()
	if !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return v, nil
}

func readJSON(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '{':
			return readJSONObject(dec, depth)
		case '[':
			return readJSONArray(dec, depth)
		}
		return nil, errors.Wrapf(ErrUnexpectedToken, "delimiter %q", rune(tok))
	case string:
		return String(tok), nil
	case json.Number:
		return Number(tok.String()), nil
	case bool:
		return Bool(tok), nil
	case nil:
		return Null{}, nil
	default:
		return nil, errors.Wrapf(ErrUnexpectedToken, "%T", tok)
	}
}

func readJSONObject(dec *json.Decoder, depth int) (Value, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.Wrapf(ErrUnexpectedToken, "object key %v", keyTok)
		}
		if obj.Has(key) {
			return nil, errors.Wrapf(ErrDuplicateKey, "%q", key)
		}
		val, err := readJSON(dec, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
		obj.Set(key, val)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return obj, nil
}

func readJSONArray(dec *json.Decoder, depth int) (Value, error) {
	arr := Array{}
	for dec.More() {
		val, err := readJSON(dec, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "index %d", len(arr))
		}
		arr = append(arr, val)
	}

	// closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return arr, nil
}

// EncodeJSON writes v as JSON. An empty indent produces compact output.
func EncodeJSON(v Value, indent string) ([]byte, error) {
	var buf bytes.Buffer

	err := writeJSON(&buf, v, indent, 0)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value, indent string, level int) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		if !json.Valid([]byte(val)) {
			return errors.Wrapf(ErrUnsupportedValue, "number literal %q", string(val))
		}
		buf.WriteString(string(val))
	case String:
		b, err := marshalString(string(val))
		if err != nil {
			return errors.Wrap(err, "unable to encode string")
		}
		buf.Write(b)
	case Array:
		if len(val) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, level+1)
			if err := writeJSON(buf, item, indent, level+1); err != nil {
				return err
			}
		}
		newline(buf, indent, level)
		buf.WriteByte(']')
	case *Object:
		if val.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, key := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, level+1)
			b, err := marshalString(key)
			if err != nil {
				return errors.Wrap(err, "unable to encode key")
			}
			buf.Write(b)
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			if err := writeJSON(buf, val.values[key], indent, level+1); err != nil {
				return errors.Wrapf(err, "key %q", key)
			}
		}
		newline(buf, indent, level)
		buf.WriteByte('}')
	default:
		return errors.Wrapf(ErrUnsupportedValue, "%T", v)
	}

	return nil
}

// marshalString quotes s without the HTML escaping of <, > and &, so that text is written
// back as it was read.
func marshalString(s string) ([]byte, error) {
	return json.MarshalWithOption(s, json.DisableHTMLEscape())
}

func newline(buf *bytes.Buffer, indent string, level int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, level))
}

// UnmarshalInto decodes JSON into a Go value. Struct fields typed *Object keep key order.
func UnmarshalInto(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
