package document

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Format is a serialisation format for documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", name)
	}
}

// DetectFormat picks a format from a file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (Value, error) {
	switch format {
	case FormatJSON, "":
		return DecodeJSON(data)
	case FormatYAML:
		return DecodeYAML(data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", string(format))
	}
}

// Encode writes v in the given format. indent only applies to JSON.
func Encode(v Value, format Format, indent string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return EncodeJSON(v, indent)
	case FormatYAML:
		return EncodeYAML(v)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", string(format))
	}
}
