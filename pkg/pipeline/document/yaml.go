package document

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// DecodeYAML parses a single YAML document, keeping mapping key order.
// An empty document decodes to Null.
func DecodeYAML(data []byte) (Value, error) {
	var root yaml.Node

	err := yaml.Unmarshal(data, &root)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode yaml")
	}

	if root.Kind == 0 {
		return Null{}, nil
	}

	return fromYAMLNode(&root, 0)
}

func fromYAMLNode(node *yaml.Node, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null{}, nil
		}
		return fromYAMLNode(node.Content[0], depth+1)
	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, errors.Wrapf(ErrUnexpectedToken, "dangling alias at line %d", node.Line)
		}
		return fromYAMLNode(node.Alias, depth+1)
	case yaml.SequenceNode:
		arr := make(Array, 0, len(node.Content))
		for i, item := range node.Content {
			v, err := fromYAMLNode(item, depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, errors.Wrapf(ErrUnexpectedToken, "non-scalar mapping key at line %d", key.Line)
			}
			if obj.Has(key.Value) {
				return nil, errors.Wrapf(ErrDuplicateKey, "%q at line %d", key.Value, key.Line)
			}
			v, err := fromYAMLNode(node.Content[i+1], depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", key.Value)
			}
			obj.Set(key.Value, v)
		}
		return obj, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(node)
	default:
		return nil, errors.Wrapf(ErrUnexpectedToken, "yaml node kind %d", node.Kind)
	}
}

func fromYAMLScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, errors.Wrapf(err, "line %d", node.Line)
		}
		return Bool(b), nil
	case "!!int":
		if jsonNumber.MatchString(node.Value) {
			return Number(node.Value), nil
		}
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, errors.Wrapf(err, "line %d", node.Line)
		}
		return Int(i), nil
	case "!!float":
		if jsonNumber.MatchString(node.Value) {
			return Number(node.Value), nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, errors.Wrapf(err, "line %d", node.Line)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			// not representable as a JSON number
			return String(node.Value), nil
		}
		return Float(f), nil
	default:
		return String(node.Value), nil
	}
}

// EncodeYAML writes v as a YAML document.
func EncodeYAML(v Value) ([]byte, error) {
	out, err := yaml.Marshal(toYAMLNode(v))
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode yaml")
	}

	return out, nil
}

func toYAMLNode(v Value) *yaml.Node {
	switch val := v.(type) {
	case nil, Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(val))}
	case Number:
		tag := "!!int"
		if strings.ContainsAny(string(val), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(val)}
	case String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}
	case Array:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			node.Content = append(node.Content, toYAMLNode(item))
		}
		return node
	case *Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range val.Keys() {
			item, _ := val.Get(key)
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				toYAMLNode(item),
			)
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
