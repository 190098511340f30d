package schema

import (
	"io"
	"io/fs"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

type rawCatalog struct {
	Categories    []rawCategory    `json:"categories"`
	Subcategories []rawSubcategory `json:"subcategories"`
	Components    []rawComponent   `json:"components"`
}

type rawCategory struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
	BgColor     string `json:"bgColor"`
	FeatherIcon string `json:"featherIcon"`
}

type rawSubcategory struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	CategoryID  string `json:"categoryId"`
	Description string `json:"description"`
}

type rawParameter struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Default     json.RawMessage   `json:"default"`
	Options     []json.RawMessage `json:"options"`
}

type rawComponent struct {
	ID                 string           `json:"id"`
	Label              string           `json:"label"`
	ShortName          string           `json:"shortName"`
	SubcategoryID      string           `json:"subcategoryId"`
	Description        string           `json:"description"`
	NodeType           string           `json:"nodeType"`
	NodeKind           string           `json:"nodeKind"`
	AllowedChildren    []string         `json:"allowedChildren"`
	DefaultParams      *document.Object `json:"defaultParams"`
	DefaultParameters  *document.Object `json:"defaultParameters"`
	EditableParams     []rawParameter   `json:"editableParams"`
	EditableParameters []rawParameter   `json:"editableParameters"`
	GenerationMode     string           `json:"generationMode"`
	Reference          string           `json:"reference"`
	ClassPath          string           `json:"classPath"`
	FunctionPath       string           `json:"functionPath"`
	Keyword            string           `json:"keyword"`
	SingleValued       bool             `json:"singleValued"`
	GeneratorVariant   string           `json:"generatorVariant"`
}

// Load reads a JSON catalog and builds an immutable registry.
func Load(r io.Reader, opts ...Option) (*Registry, error) {
	return load("reader", r, document.FormatJSON, opts...)
}

// LoadFile reads a catalog file. YAML is accepted for .yaml and .yml files.
func LoadFile(path string, opts ...Option) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, errors.Wrap(err, "unable to open catalog"))
	}
	defer file.Close()

	return load(path, file, document.DetectFormat(path), opts...)
}

// LoadFS reads a catalog from a file system, e.g. an embedded one.
func LoadFS(fsys fs.FS, name string, opts ...Option) (*Registry, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, loadError(name, errors.Wrap(err, "unable to open catalog"))
	}
	defer file.Close()

	return load(name, file, document.DetectFormat(name), opts...)
}

func load(source string, r io.Reader, format document.Format, opts ...Option) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, loadError(source, errors.Wrap(err, "unable to read catalog"))
	}

	if format == document.FormatYAML {
		// normalise through the ordered value model so struct decoding stays JSON only
		v, err := document.DecodeYAML(data)
		if err != nil {
			return nil, loadError(source, err)
		}
		data, err = document.EncodeJSON(v, "")
		if err != nil {
			return nil, loadError(source, err)
		}
	}

	var raw rawCatalog
	err = json.Unmarshal(data, &raw)
	if err != nil {
		return nil, loadError(source, errors.Wrap(err, "malformed catalog"))
	}

	reg, err := build(&raw, opts...)
	if err != nil {
		return nil, loadError(source, err)
	}

	return reg, nil
}

func build(raw *rawCatalog, opts ...Option) (*Registry, error) {
	reg := newRegistry(opts...)

	for _, c := range raw.Categories {
		if c.ID == "" {
			return nil, errors.Wrap(ErrMissingID, "category")
		}
		if _, ok := reg.categoryByID[c.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateID, "category %q", c.ID)
		}
		cat := &Category{
			ID:          c.ID,
			Label:       c.Label,
			Description: c.Description,
			Color:       c.Color,
			BgColor:     c.BgColor,
			Icon:        c.FeatherIcon,
		}
		reg.categories = append(reg.categories, cat)
		reg.categoryByID[c.ID] = cat
	}

	for _, s := range raw.Subcategories {
		if s.ID == "" {
			return nil, errors.Wrap(ErrMissingID, "subcategory")
		}
		if _, ok := reg.subcategoryByID[s.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateID, "subcategory %q", s.ID)
		}
		if _, ok := reg.categoryByID[s.CategoryID]; !ok {
			return nil, errors.Wrapf(ErrUnknownCategory, "subcategory %q references %q", s.ID, s.CategoryID)
		}
		sub := &Subcategory{ID: s.ID, Label: s.Label, CategoryID: s.CategoryID, Description: s.Description}
		reg.subcategories = append(reg.subcategories, sub)
		reg.subcategoryByID[s.ID] = sub
	}

	for i := range raw.Components {
		def, err := buildComponent(reg, &raw.Components[i])
		if err != nil {
			return nil, err
		}
		err = reg.add(def)
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func buildComponent(reg *Registry, c *rawComponent) (*ComponentDefinition, error) {
	if c.ID == "" {
		return nil, errors.Wrap(ErrMissingID, "component")
	}

	sub, ok := reg.subcategoryByID[c.SubcategoryID]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSubcategory, "component %q references %q", c.ID, c.SubcategoryID)
	}

	nodeType, err := parseNodeType(firstNonEmpty(c.NodeType, c.NodeKind))
	if err != nil {
		return nil, errors.Wrapf(err, "component %q", c.ID)
	}

	defaults := c.DefaultParameters
	if defaults == nil {
		defaults = c.DefaultParams
	}

	rawEditable := c.EditableParameters
	if rawEditable == nil {
		rawEditable = c.EditableParams
	}
	editable, err := buildParameters(rawEditable)
	if err != nil {
		return nil, errors.Wrapf(err, "component %q", c.ID)
	}

	def := &ComponentDefinition{
		ID:              c.ID,
		Label:           firstNonEmpty(c.Label, c.ID),
		ShortName:       c.ShortName,
		Description:     c.Description,
		SubcategoryID:   sub.ID,
		CategoryID:      sub.CategoryID,
		NodeType:        nodeType,
		GenerationMode:  GenerationMode(c.GenerationMode),
		AllowedChildren: append([]string(nil), c.AllowedChildren...),
		Reference:       firstNonEmpty(c.Reference, c.ClassPath, c.FunctionPath),
		Keyword:         c.Keyword,
		SingleValued:    c.SingleValued,
		defaults:        defaults.Clone(),
		editable:        editable,
	}

	if def.Kind() == model.KindGenerator {
		def.GeneratorVariant = generatorVariant(c.GeneratorVariant, c.ID)
	}

	return def, nil
}

func buildParameters(raw []rawParameter) ([]ParameterSpec, error) {
	out := make([]ParameterSpec, 0, len(raw))
	for _, p := range raw {
		typ := ParamType(p.Type)
		if typ == "" {
			typ = ParamString
		}
		if !typ.valid() {
			return nil, errors.Wrapf(ErrInvalidParameterType, "parameter %q has type %q", p.Name, p.Type)
		}

		spec := ParameterSpec{Name: p.Name, Type: typ, Description: p.Description, Default: document.Null{}}
		if len(p.Default) > 0 {
			v, err := document.DecodeJSON(p.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %q default", p.Name)
			}
			spec.Default = v
		}
		for _, opt := range p.Options {
			v, err := document.DecodeJSON(opt)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %q option", p.Name)
			}
			spec.Options = append(spec.Options, v)
		}
		out = append(out, spec)
	}

	return out, nil
}

func parseNodeType(s string) (NodeType, error) {
	switch NodeType(s) {
	case "", NodeTypeRegular:
		return NodeTypeRegular, nil
	case NodeTypeContainer:
		return NodeTypeContainer, nil
	case NodeTypeGenerator, nodeTypeGeneration:
		return NodeTypeGenerator, nil
	default:
		return "", errors.Wrapf(ErrInvalidNodeType, "%q", s)
	}
}

func generatorVariant(explicit, id string) model.GeneratorVariant {
	switch model.GeneratorVariant(explicit) {
	case model.VariantChoice, model.VariantRange:
		return model.GeneratorVariant(explicit)
	}

	switch strings.Trim(strings.ToLower(id), "_") {
	case "range", "numeric_range":
		return model.VariantRange
	default:
		return model.VariantChoice
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
