package codec

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

// stepShape is the outcome of classifying a raw step. The order of the constants is the
// order in which shapes are tried.
type stepShape int

const (
	stepIdentifier stepShape = iota
	stepReference
	stepModel
	stepContainer
	stepChoice
	stepRange
	stepMarker
	stepUnknown
)

// Result is a decoded document.
type Result struct {
	Nodes       []*model.Node
	Diagnostics []model.Diagnostic
	// Metadata holds the top-level fields next to the step sequence of a wrapped document,
	// nil for a bare sequence.
	Metadata *document.Object
}

// Decoder turns pipeline documents into tree nodes. A Decoder holds no per-document state
// and may be shared between goroutines.
type Decoder struct {
	registry *schema.Registry
	*settings
}

// NewDecoder creates a decoder resolving components against registry. A nil registry
// behaves like schema.Empty().
func NewDecoder(registry *schema.Registry, opts ...Option) *Decoder {
	if registry == nil {
		registry = schema.Empty()
	}

	return &Decoder{registry: registry, settings: newSettings(opts...)}
}

// DecodeBytes parses data in the given format and decodes it.
func (d *Decoder) DecodeBytes(data []byte, format document.Format) (*Result, error) {
	v, err := document.Decode(data, format)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return d.Decode(v)
}

// Decode converts a parsed document. It only fails when the top-level value is neither a
// sequence, a mapping nor a string.
func (d *Decoder) Decode(v document.Value) (*Result, error) {
	start := time.Now()

	steps, metadata, err := d.topLevel(v)
	if err != nil {
		return nil, err
	}

	run := &decodeRun{Decoder: d}
	res := &Result{Metadata: metadata, Nodes: make([]*model.Node, 0, len(steps))}
	for i, step := range steps {
		res.Nodes = append(res.Nodes, run.step(step, fmt.Sprintf("[%d]", i)))
	}
	res.Diagnostics = run.diags

	if d.observer != nil {
		d.observer.OnDocument(len(steps), time.Since(start))
	}

	return res, nil
}

func (d *Decoder) topLevel(v document.Value) (document.Array, *document.Object, error) {
	switch val := v.(type) {
	case document.Array:
		return val, nil, nil
	case *document.Object:
		for _, key := range []string{d.keywords.Pipeline, d.keywords.Steps} {
			if key == "" {
				continue
			}
			inner, ok := val.Get(key)
			if !ok {
				continue
			}
			if steps, ok := document.AsArray(inner); ok {
				metadata := val.Clone()
				metadata.Delete(key)
				return steps, metadata, nil
			}
		}
		return document.Array{val}, nil, nil
	case document.String:
		return document.Array{val}, nil, nil
	default:
		kind := "nothing"
		if v != nil {
			kind = v.Kind().String()
		}
		return nil, nil, &DecodeError{Err: errors.Wrapf(ErrNotAPipeline, "got %s", kind)}
	}
}

// decodeRun carries the diagnostics of one Decode call.
type decodeRun struct {
	*Decoder
	diags []model.Diagnostic
}

// classify picks the shape of a raw step. It only looks at the structure of the step;
// resolution against the catalog happens while building the node.
func (r *decodeRun) classify(v document.Value) stepShape {
	kw := r.keywords

	switch val := v.(type) {
	case document.String:
		if _, ok := r.markers[string(val)]; ok {
			res := r.registry.ResolveIdentifier(string(val))
			if !res.Found() && !res.Ambiguous() {
				return stepMarker
			}
		}
		return stepIdentifier
	case *document.Object:
		switch {
		case val.Has(kw.Reference) && onlyKeys(val, kw.referenceKeys()):
			return stepReference
		case val.Has(kw.Model) && onlyKeys(val, kw.modelKeys()):
			return stepModel
		case val.Len() == 1 && r.isContainerKeyword(val.Keys()[0]):
			return stepContainer
		case val.Has(kw.Choice) && onlyKeys(val, kw.choiceKeys()):
			return stepChoice
		case val.Has(kw.Range) && onlyKeys(val, kw.rangeKeys()):
			return stepRange
		}
	}

	return stepUnknown
}

// stripID splits the id key off a step mapping. Mappings made of the id key alone are
// returned unchanged.
func (r *decodeRun) stripID(v document.Value) (document.Value, document.Value) {
	obj, ok := document.AsObject(v)
	if !ok || obj.Len() < 2 {
		return nil, v
	}

	id, ok := obj.Get(r.keywords.ID)
	if !ok {
		return nil, v
	}

	rest := obj.Clone()
	rest.Delete(r.keywords.ID)

	return document.Clone(id), rest
}

func (r *decodeRun) isContainerKeyword(key string) bool {
	_, ok := r.registry.ContainerByKeyword(key)
	return ok
}

func (r *decodeRun) step(v document.Value, path string) *model.Node {
	start := time.Now()

	raw := v
	sourceID, v := r.stripID(v)

	var node *model.Node
	switch r.classify(v) {
	case stepIdentifier:
		node = r.identifier(v, path)
	case stepReference:
		node = r.reference(v, path)
	case stepModel:
		node = r.model(v, path)
	case stepContainer:
		node = r.container(v, path)
	case stepChoice:
		node = r.choice(v, path)
	case stepRange:
		node = r.numericRange(v, path)
	case stepMarker:
		node = r.marker(v)
	default:
		node = r.fallback(raw, path, model.UnrecognizedStep, "step matches no known shape")
	}

	if sourceID != nil {
		if node.HasRawFallback() {
			node.RawFallback = document.Clone(raw)
		} else {
			node.Form.SourceID = sourceID
		}
	}

	if r.observer != nil {
		r.observer.OnStep(node.Shape, time.Since(start))
	}

	return node
}

func (r *decodeRun) identifier(v document.Value, path string) *model.Node {
	name, _ := document.AsString(v)

	def, diag := r.resolve(r.registry.ResolveIdentifier(name), name, v, path)
	if diag != nil {
		return r.keep(v, diag, name)
	}

	node := r.newNode(def, model.ShapeIdentifier)
	node.Reference = name
	if r.registry.IsMarker(def) {
		node.Shape = model.ShapeMarker
	}

	return node
}

func (r *decodeRun) marker(v document.Value) *model.Node {
	name, _ := document.AsString(v)

	return &model.Node{
		ID:          r.newID(),
		ComponentID: name,
		Kind:        model.KindRegular,
		Shape:       model.ShapeMarker,
		Label:       name,
		Reference:   name,
		Parameters:  document.NewObject(),
	}
}

func (r *decodeRun) reference(v document.Value, path string) *model.Node {
	obj, _ := document.AsObject(v)

	node, diag := r.referenceNode(obj, v, path)
	if diag != nil {
		return r.keep(v, diag, "")
	}

	return node
}

// referenceNode decodes a {reference, parameters} mapping. raw is the step to keep when
// the mapping cannot be resolved.
func (r *decodeRun) referenceNode(obj *document.Object, raw document.Value, path string) (*model.Node, *model.Diagnostic) {
	kw := r.keywords

	refValue, _ := obj.Get(kw.Reference)
	ref, isString := document.AsString(refValue)
	params, explicit, paramsOK := r.parameters(obj)
	if !isString || !paramsOK {
		return nil, r.unrecognized(raw, path, "reference must be a string and parameters a mapping")
	}

	def, diag := r.resolve(r.registry.ResolveReference(ref), ref, raw, path)
	if diag != nil {
		return nil, diag
	}

	node := r.newNode(def, model.ShapeReference)
	node.Reference = ref
	node.Parameters = params
	node.Form.ExplicitEmptyParameters = explicit && params.Len() == 0

	return node, nil
}

func (r *decodeRun) parameters(obj *document.Object) (params *document.Object, present, ok bool) {
	raw, present := obj.Get(r.keywords.Parameters)
	if !present {
		return document.NewObject(), false, true
	}

	params, ok = document.AsObject(raw)
	if !ok {
		return nil, true, false
	}

	return params.Clone(), true, true
}

func (r *decodeRun) model(v document.Value, path string) *model.Node {
	kw := r.keywords
	obj, _ := document.AsObject(v)

	spec := &model.ModelSpec{}
	explicitName := false
	if nameValue, ok := obj.Get(kw.Name); ok {
		name, isString := document.AsString(nameValue)
		if !isString {
			return r.fallback(v, path, model.UnrecognizedStep, "model name must be a string")
		}
		spec.Name = name
		explicitName = true
	}
	if train, ok := obj.Get(kw.TrainParameters); ok {
		spec.Train = document.Clone(train)
	}
	if finetune, ok := obj.Get(kw.FinetuneParameters); ok {
		spec.Finetune = document.Clone(finetune)
	}

	inner, _ := obj.Get(kw.Model)
	innerPath := path + "." + kw.Model

	var node *model.Node
	switch val := inner.(type) {
	case document.String:
		def, diag := r.resolve(r.registry.ResolveIdentifier(string(val)), string(val), v, innerPath)
		if diag != nil {
			return r.keep(v, diag, string(val))
		}
		node = r.newNode(def, model.ShapeModel)
		node.Reference = string(val)
		node.Form.BareModel = true
	case *document.Object:
		if !val.Has(kw.Reference) || !onlyKeys(val, kw.referenceKeys()) {
			return r.fallback(v, path, model.UnrecognizedStep, "model must be a reference or an identifier")
		}
		var diag *model.Diagnostic
		node, diag = r.referenceNode(val, v, innerPath)
		if diag != nil {
			return r.keep(v, diag, "")
		}
		node.Shape = model.ShapeModel
	default:
		return r.fallback(v, path, model.UnrecognizedStep, "model must be a reference or an identifier")
	}

	node.Model = spec
	node.Form.ExplicitName = explicitName
	if spec.Name != "" {
		node.Label = spec.Name
	}

	return node
}

func (r *decodeRun) container(v document.Value, path string) *model.Node {
	obj, _ := document.AsObject(v)
	keyword := obj.Keys()[0]
	def, _ := r.registry.ContainerByKeyword(keyword)
	value, _ := obj.Get(keyword)
	childPath := path + "." + keyword

	node := r.newNode(def, model.ShapeContainer)

	switch val := value.(type) {
	case document.Array:
		node.Children = r.steps(val, childPath)
	case *document.Object, document.String:
		node.Children = []*model.Node{r.step(val, childPath)}
		node.Form.SingleChild = true
	default:
		return r.fallback(v, path, model.UnrecognizedStep, "container value must be a step or a list of steps")
	}

	return node
}

func (r *decodeRun) choice(v document.Value, path string) *model.Node {
	kw := r.keywords
	obj, _ := document.AsObject(v)

	def, ok := r.registry.Generator(model.VariantChoice)
	if !ok {
		return r.fallback(v, path, model.UnresolvedReference, "catalog has no choice generator")
	}

	candidates, _ := obj.Get(kw.Choice)
	list, ok := document.AsArray(candidates)
	if !ok {
		return r.fallback(v, path, model.UnrecognizedStep, "choice candidates must be a list")
	}

	node := r.newNode(def, model.ShapeChoice)
	node.Generator = &model.GeneratorSpec{Variant: model.VariantChoice}
	if size, ok := obj.Get(kw.Size); ok {
		node.Generator.Size = document.Clone(size)
	}
	if count, ok := obj.Get(kw.Count); ok {
		node.Generator.Count = document.Clone(count)
	}
	node.Children = r.steps(list, path+"."+kw.Choice)

	return node
}

func (r *decodeRun) numericRange(v document.Value, path string) *model.Node {
	kw := r.keywords
	obj, _ := document.AsObject(v)

	def, ok := r.registry.Generator(model.VariantRange)
	if !ok {
		return r.fallback(v, path, model.UnresolvedReference, "catalog has no range generator")
	}

	bounds, _ := obj.Get(kw.Range)
	spec, ok := r.rangeBounds(bounds)
	if !ok {
		return r.fallback(v, path, model.UnrecognizedStep, "range bounds must be [start, end, step] or {from, to, step}")
	}

	if paramValue, ok := obj.Get(kw.Param); ok {
		param, isString := document.AsString(paramValue)
		if !isString {
			return r.fallback(v, path, model.UnrecognizedStep, "range param must be a string")
		}
		spec.Param = param
	}

	child, ok := obj.Get(kw.Model)
	if !ok {
		return r.fallback(v, path, model.UnrecognizedStep, "range has no model")
	}

	node := r.newNode(def, model.ShapeRange)
	node.Generator = spec
	node.Children = []*model.Node{r.step(child, path+"."+kw.Model)}

	return node
}

func (r *decodeRun) rangeBounds(v document.Value) (*model.GeneratorSpec, bool) {
	kw := r.keywords
	spec := &model.GeneratorSpec{Variant: model.VariantRange}

	switch val := v.(type) {
	case document.Array:
		if len(val) != 2 && len(val) != 3 {
			return nil, false
		}
		nums := make([]document.Number, 0, len(val))
		for _, item := range val {
			n, ok := document.AsNumber(item)
			if !ok {
				return nil, false
			}
			nums = append(nums, n)
		}
		spec.Bounds = model.BoundsList
		spec.Start, spec.End = nums[0], nums[1]
		if len(nums) == 3 {
			spec.Step, spec.HasStep = nums[2], true
		}
	case *document.Object:
		if !onlyKeys(val, []string{kw.From, kw.To, kw.Step}) {
			return nil, false
		}
		from, okFrom := numberAt(val, kw.From)
		to, okTo := numberAt(val, kw.To)
		if !okFrom || !okTo {
			return nil, false
		}
		spec.Bounds = model.BoundsNamed
		spec.Start, spec.End = from, to
		if val.Has(kw.Step) {
			step, ok := numberAt(val, kw.Step)
			if !ok {
				return nil, false
			}
			spec.Step, spec.HasStep = step, true
		}
	default:
		return nil, false
	}

	return spec, true
}

func (r *decodeRun) steps(list document.Array, path string) []*model.Node {
	nodes := make([]*model.Node, 0, len(list))
	for i, item := range list {
		nodes = append(nodes, r.step(item, fmt.Sprintf("%s[%d]", path, i)))
	}

	return nodes
}

// resolve turns a resolution into a definition. When the lookup failed or was ambiguous
// it returns the diagnostic to attach to the fallback node instead.
func (r *decodeRun) resolve(res schema.Resolution, name string, raw document.Value, path string) (*schema.ComponentDefinition, *model.Diagnostic) {
	if res.Found() {
		return res.Definition, nil
	}

	if res.Ambiguous() {
		candidates := res.CandidateIDs()
		r.logger.Warn("ambiguous component reference",
			slog.String("reference", name),
			slog.String("path", path),
			slog.String("candidates", strings.Join(candidates, ",")),
		)

		return nil, &model.Diagnostic{
			Code:       model.AmbiguousReference,
			Path:       path,
			Message:    fmt.Sprintf("%q matches several components", name),
			Candidates: candidates,
		}
	}

	r.logger.Debug("unresolved component reference",
		slog.String("reference", name),
		slog.String("path", path),
		slog.String("step", document.Summary(raw)),
	)

	return nil, &model.Diagnostic{
		Code:    model.UnresolvedReference,
		Path:    path,
		Message: fmt.Sprintf("%q matches no component", name),
	}
}

func (r *decodeRun) unrecognized(v document.Value, path, msg string) *model.Diagnostic {
	r.logger.Debug("keeping step verbatim",
		slog.String("path", path),
		slog.String("reason", msg),
		slog.String("step", document.Summary(v)),
	)

	return &model.Diagnostic{Code: model.UnrecognizedStep, Path: path, Message: msg}
}

func (r *decodeRun) newNode(def *schema.ComponentDefinition, shape model.Shape) *model.Node {
	return &model.Node{
		ID:          r.newID(),
		ComponentID: def.ID,
		Kind:        def.Kind(),
		Shape:       shape,
		Label:       def.Label,
		Parameters:  document.NewObject(),
	}
}

// fallback keeps a step verbatim and records why.
func (r *decodeRun) fallback(v document.Value, path string, code model.DiagnosticCode, msg string) *model.Node {
	diag := r.unrecognized(v, path, msg)
	diag.Code = code

	return r.keep(v, diag, "")
}

// keep builds the unknown node of a step and attaches diag to it.
func (r *decodeRun) keep(v document.Value, diag *model.Diagnostic, label string) *model.Node {
	node := r.unknownNode(v)
	if label != "" {
		node.Label = label
	}

	diag.NodeID = node.ID
	r.diags = append(r.diags, *diag)

	return node
}

func (r *decodeRun) unknownNode(v document.Value) *model.Node {
	var raw document.Value = document.Null{}
	if v != nil {
		raw = document.Clone(v)
	}

	return &model.Node{
		ID:          r.newID(),
		ComponentID: model.UnknownComponentID,
		Kind:        model.KindRegular,
		Shape:       model.ShapeUnknown,
		Label:       document.Summary(raw),
		Parameters:  document.NewObject(),
		RawFallback: raw,
	}
}

func onlyKeys(obj *document.Object, allowed []string) bool {
	for _, key := range obj.Keys() {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func numberAt(obj *document.Object, key string) (document.Number, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return "", false
	}

	return document.AsNumber(v)
}
