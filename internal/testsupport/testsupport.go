// Package testsupport provides a small component catalog shared by the tests of several
// packages.
package testsupport

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

//go:embed components.json
var catalog []byte

// Catalog returns the raw catalog document.
func Catalog() []byte {
	out := make([]byte, len(catalog))
	copy(out, catalog)

	return out
}

// Registry loads the test catalog.
func Registry(t *testing.T, opts ...schema.Option) *schema.Registry {
	t.Helper()

	reg, err := schema.Load(bytes.NewReader(catalog), opts...)
	require.NoError(t, err)

	return reg
}

// MustDecode parses a JSON literal or fails the test.
func MustDecode(t *testing.T, input string) document.Value {
	t.Helper()

	v, err := document.DecodeJSON([]byte(input))
	require.NoError(t, err)

	return v
}

// CompactJSON encodes v as compact JSON or fails the test.
func CompactJSON(t *testing.T, v document.Value) string {
	t.Helper()

	out, err := document.EncodeJSON(v, "")
	require.NoError(t, err)

	return string(out)
}

// Snapshot renders the structure and parameters of a forest so that two states of a tree
// can be compared.
func Snapshot(nodes []*model.Node) string {
	var sb strings.Builder
	writeSnapshot(&sb, nodes)

	return sb.String()
}

func writeSnapshot(sb *strings.Builder, nodes []*model.Node) {
	sb.WriteByte('[')
	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(n.ID)
		sb.WriteByte(':')
		sb.WriteString(n.ComponentID)
		if n.Parameters != nil {
			params, err := document.EncodeJSON(n.Parameters, "")
			if err == nil {
				sb.Write(params)
			}
		}
		if len(n.Children) > 0 {
			writeSnapshot(sb, n.Children)
		}
	}
	sb.WriteByte(']')
}

// SequentialIDs returns an id generator yielding n1, n2, ...
func SequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return "n" + strconv.Itoa(next)
	}
}
