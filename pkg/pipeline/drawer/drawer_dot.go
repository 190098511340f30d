package drawer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-pipeline-doc/internal/store"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

const (
	defaultFill    = "#e2e8f0"
	unknownColor   = "#94a3b8"
	lightFontColor = "#ffffff"
	darkFontColor  = "#0f172a"
)

// DOTDrawer renders a pipeline tree as a Graphviz digraph. Vertices and edges are written
// in insertion order, so drawing the same tree twice gives the same output.
type DOTDrawer struct {
	registry *schema.Registry
	store    *store.MemoryStore[string, *model.Node]
	graph    graph.Graph[string, *model.Node]
	title    string
}

// Option configures a DOTDrawer.
type Option func(d *DOTDrawer)

// WithTitle sets the graph label.
func WithTitle(title string) Option {
	return func(d *DOTDrawer) {
		d.title = title
	}
}

// NewDOTDrawer creates a drawer colouring nodes with the categories of registry. A nil
// registry draws every node with the default fill.
func NewDOTDrawer(registry *schema.Registry, opts ...Option) *DOTDrawer {
	if registry == nil {
		registry = schema.Empty()
	}

	st := store.NewMemoryStore[string, *model.Node]()
	d := &DOTDrawer{
		registry: registry,
		store:    st,
		graph:    graph.NewWithStore(nodeHash, st, graph.Directed(), graph.PreventCycles()),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

func nodeHash(n *model.Node) string {
	return n.ID
}

// AddTree adds nodes and their descendants.
func (d *DOTDrawer) AddTree(nodes []*model.Node) error {
	var err error

	model.WalkAll(nodes, func(node, parent *model.Node) bool {
		if err != nil {
			return false
		}
		err = d.AddNode(node, parent)

		return err == nil
	})

	return err
}

// AddNode adds node to the graph and links it to parent. The edge is labelled with the
// position of node among the children of parent.
func (d *DOTDrawer) AddNode(node, parent *model.Node) error {
	if node == nil {
		return errors.New("node must be set")
	}

	err := d.graph.AddVertex(node, d.vertexAttributes(node)...)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %q", node.ID)
	}

	if parent == nil {
		return nil
	}

	position := len(d.store.Successors(parent.ID)) + 1
	err = d.graph.AddEdge(parent.ID, node.ID, graph.EdgeAttribute("label", strconv.Itoa(position)))
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %q to %q", parent.ID, node.ID)
	}

	return nil
}

func (d *DOTDrawer) vertexAttributes(node *model.Node) []func(*graph.VertexProperties) {
	label := node.Label
	if label == "" {
		label = node.ComponentID
	}

	attrs := map[string]string{
		"label": label,
		"shape": vertexShape(node),
		"style": "filled,rounded",
	}

	switch {
	case node.IsUnknown():
		attrs["style"] = "dashed"
		attrs["color"] = unknownColor
		attrs["fontcolor"] = unknownColor
	default:
		fill := d.fill(node)
		attrs["fillcolor"] = fill
		attrs["fontcolor"] = fontColor(fill)
	}

	if node.Generator != nil {
		attrs["tooltip"] = generatorTooltip(node.Generator)
	}

	opts := make([]func(*graph.VertexProperties), 0, len(attrs))
	for k, v := range attrs {
		opts = append(opts, graph.VertexAttribute(k, v))
	}

	return opts
}

func vertexShape(node *model.Node) string {
	switch {
	case node.IsUnknown():
		return "box"
	case node.Kind == model.KindGenerator:
		return "diamond"
	case node.Kind == model.KindContainer:
		return "folder"
	case node.Shape == model.ShapeMarker:
		return "note"
	default:
		return "box"
	}
}

// fill returns the category colour of the component of node, as a normalised hex string.
func (d *DOTDrawer) fill(node *model.Node) string {
	def, ok := d.registry.FindComponent(node.ComponentID)
	if !ok {
		return defaultFill
	}

	category, ok := d.registry.Category(def.CategoryID)
	if !ok || category.Color == "" {
		return defaultFill
	}

	hex, err := colors.ParseHEX(category.Color)
	if err != nil {
		return defaultFill
	}

	return hex.String()
}

func fontColor(fill string) string {
	hex, err := colors.ParseHEX(fill)
	if err != nil || hex.IsLight() {
		return darkFontColor
	}

	return lightFontColor
}

func generatorTooltip(spec *model.GeneratorSpec) string {
	switch spec.Variant {
	case model.VariantRange:
		bounds := fmt.Sprintf("%s..%s", spec.Start, spec.End)
		if spec.HasStep {
			bounds += " step " + string(spec.Step)
		}
		if spec.Param != "" {
			bounds = spec.Param + " in " + bounds
		}
		return bounds
	default:
		if spec.Size != nil {
			return "size " + document.Summary(spec.Size)
		}
		return "choice"
	}
}

// AddMeasure sets the average decode time of each node shape as the node xlabel.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	vertices, err := d.store.ListVertices()
	if err != nil {
		return errors.Wrap(err, "unable to list vertices")
	}

	for _, hash := range vertices {
		node, _, err := d.store.Vertex(hash)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex %q", hash)
		}

		metric := msr.GetMetric(string(node.Shape))
		if metric == nil || metric.AVGDuration() == 0 {
			continue
		}

		err = d.store.UpdateVertex(hash, graph.VertexAttribute("xlabel", metric.AVGDuration().String()))
		if err != nil {
			return errors.Wrap(err, "unable to update vertex properties")
		}
	}

	return nil
}

// Draw writes the graph in DOT format.
func (d *DOTDrawer) Draw(wrt io.Writer) error {
	desc, err := d.describe()
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

// DrawFile writes the graph in DOT format to path.
func (d *DOTDrawer) DrawFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}
	defer file.Close()

	err = d.Draw(file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", path)
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
{{- range $k, $v := .Attributes}}
	{{$k}}="{{$v}}";
{{- end}}
{{- range .Statements}}
	"{{.Source}}"{{if .Target}} {{$.EdgeOperator}} "{{.Target}}" [{{range $k, $v := .EdgeAttributes}} {{$k}}="{{$v}}"{{end}} ]{{else}} [{{range $k, $v := .HTMLAttributes}} {{$k}}={{$v}}{{end}}{{range $k, $v := .SourceAttributes}} {{$k}}="{{$v}}"{{end}} ]{{end}};
{{- end}}
}
`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
}

func (d *DOTDrawer) describe() (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "TB"},
		EdgeOperator: "->",
		Statements:   make([]statement, 0),
	}
	if d.title != "" {
		desc.Attributes["label"] = escape(d.title)
	}

	vertices, err := d.store.ListVertices()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list vertices")
	}

	for _, hash := range vertices {
		_, props, err := d.store.Vertex(hash)
		if err != nil {
			return desc, errors.Wrapf(err, "unable to get vertex %q", hash)
		}

		attrs := make(map[string]string, len(props.Attributes))
		for k, v := range props.Attributes {
			attrs[k] = escape(v)
		}

		htmlAttributes := make(map[string]string)
		if xlabel, ok := props.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="10">%s</FONT>>`, html(props.Attributes["label"]), html(xlabel))
			delete(attrs, "xlabel")
			delete(attrs, "label")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           escape(hash),
			SourceAttributes: attrs,
			HTMLAttributes:   htmlAttributes,
		})

		for _, target := range d.store.Successors(hash) {
			edge, err := d.store.Edge(hash, target)
			if err != nil {
				return desc, errors.Wrapf(err, "unable to get edge from %q to %q", hash, target)
			}
			desc.Statements = append(desc.Statements, statement{
				Source:         escape(hash),
				Target:         escape(target),
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escape(s string) string {
	return dotEscaper.Replace(s)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func html(s string) string {
	return htmlEscaper.Replace(s)
}

var _ Drawer = (*DOTDrawer)(nil)
