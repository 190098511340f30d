package schema

import (
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

// NodeType is the node type a component declares in the catalog.
type NodeType string

const (
	NodeTypeRegular   NodeType = "regular"
	NodeTypeContainer NodeType = "container"
	NodeTypeGenerator NodeType = "generator"
	// nodeTypeGeneration is the catalog's historical spelling of NodeTypeGenerator.
	nodeTypeGeneration NodeType = "generation"
)

// GenerationMode tells how a component produces its output.
type GenerationMode string

const (
	GenerationInPlace   GenerationMode = "in-place"
	GenerationOut       GenerationMode = "out"
	GenerationGenerator GenerationMode = "generator"
)

// ParamType is the declared type of an editable parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamEnum    ParamType = "enum"
)

func (p ParamType) valid() bool {
	switch p {
	case ParamString, ParamNumber, ParamInteger, ParamBoolean, ParamArray, ParamEnum:
		return true
	default:
		return false
	}
}

// Category groups subcategories in the component library.
type Category struct {
	ID          string
	Label       string
	Description string
	// Color is the hex colour the library uses for the category, if any.
	Color   string
	BgColor string
	Icon    string
}

// Subcategory groups components and belongs to one category.
type Subcategory struct {
	ID          string
	Label       string
	CategoryID  string
	Description string
}

// ParameterSpec describes one editable parameter of a component.
type ParameterSpec struct {
	Name        string
	Type        ParamType
	Description string
	Default     document.Value
	Options     []document.Value
}

// ComponentDefinition is one entry of the component catalog. Values are immutable once
// the registry is built.
type ComponentDefinition struct {
	ID             string
	Label          string
	ShortName      string
	Description    string
	SubcategoryID  string
	CategoryID     string
	NodeType       NodeType
	GenerationMode GenerationMode
	// AllowedChildren holds nesting rules: an exact id, "category:X", "subcategory:X" or "*".
	AllowedChildren []string
	// Reference is the fully-qualified identifier the execution backend uses.
	Reference string
	// Keyword is the mapping key that introduces the container in documents.
	Keyword string
	// SingleValued containers are written with a single step instead of a list when they
	// hold exactly one child.
	SingleValued     bool
	GeneratorVariant model.GeneratorVariant

	defaults *document.Object
	editable []ParameterSpec
}

// Kind returns the tree node kind the component produces.
func (c *ComponentDefinition) Kind() model.NodeKind {
	switch {
	case c.NodeType == NodeTypeGenerator || c.GenerationMode == GenerationGenerator:
		return model.KindGenerator
	case c.NodeType == NodeTypeContainer:
		return model.KindContainer
	default:
		return model.KindRegular
	}
}

// DefaultParameters returns a deep copy of the default parameter mapping.
func (c *ComponentDefinition) DefaultParameters() *document.Object {
	return c.defaults.Clone()
}

// EditableParameters returns the editable parameter specs.
func (c *ComponentDefinition) EditableParameters() []ParameterSpec {
	out := make([]ParameterSpec, len(c.editable))
	copy(out, c.editable)

	return out
}

// DocumentKeyword is the key used for the component when it is a container.
func (c *ComponentDefinition) DocumentKeyword() string {
	if c.Keyword != "" {
		return c.Keyword
	}

	return c.ID
}
