package schema

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

const (
	// RuleAny allows every component.
	RuleAny = "*"
	// RuleCategoryPrefix introduces a category wildcard rule.
	RuleCategoryPrefix = "category:"
	// RuleSubcategoryPrefix introduces a subcategory wildcard rule.
	RuleSubcategoryPrefix = "subcategory:"
)

// Option configures a registry at load time.
type Option func(r *Registry)

// WithMarkerSubcategories sets the subcategories whose components are bare marker keywords.
func WithMarkerSubcategories(ids ...string) Option {
	return func(r *Registry) {
		r.markerSubcategories = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			r.markerSubcategories[id] = struct{}{}
		}
	}
}

// WithModelCategoryPrefix sets the category id prefix that marks model components.
func WithModelCategoryPrefix(prefix string) Option {
	return func(r *Registry) {
		r.modelPrefix = prefix
	}
}

// Registry is the read-only component catalog of a session.
type Registry struct {
	categories      []*Category
	categoryByID    map[string]*Category
	subcategories   []*Subcategory
	subcategoryByID map[string]*Subcategory
	components      []*ComponentDefinition
	byID            map[string]*ComponentDefinition
	byReference     map[string]*ComponentDefinition
	// bySegment indexes short names and last reference segments.
	bySegment  map[string][]*ComponentDefinition
	aliases    map[string][]*ComponentDefinition
	containers map[string]*ComponentDefinition
	generators map[model.GeneratorVariant]*ComponentDefinition

	markerSubcategories map[string]struct{}
	modelPrefix         string
}

func newRegistry(opts ...Option) *Registry {
	reg := &Registry{
		categoryByID:        make(map[string]*Category),
		subcategoryByID:     make(map[string]*Subcategory),
		byID:                make(map[string]*ComponentDefinition),
		byReference:         make(map[string]*ComponentDefinition),
		bySegment:           make(map[string][]*ComponentDefinition),
		aliases:             make(map[string][]*ComponentDefinition),
		containers:          make(map[string]*ComponentDefinition),
		generators:          make(map[model.GeneratorVariant]*ComponentDefinition),
		markerSubcategories: map[string]struct{}{"visualization": {}},
		modelPrefix:         "models",
	}
	for _, opt := range opts {
		opt(reg)
	}

	return reg
}

// Empty returns a registry without components. Every step decodes to an unknown node
// against it.
func Empty() *Registry {
	return newRegistry()
}

func (r *Registry) add(def *ComponentDefinition) error {
	if _, ok := r.byID[def.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "component %q", def.ID)
	}

	switch def.Kind() {
	case model.KindContainer:
		kw := def.DocumentKeyword()
		if other, ok := r.containers[kw]; ok {
			return errors.Wrapf(ErrDuplicateKeyword, "%q used by %q and %q", kw, other.ID, def.ID)
		}
		r.containers[kw] = def
	case model.KindGenerator:
		if _, ok := r.generators[def.GeneratorVariant]; !ok {
			r.generators[def.GeneratorVariant] = def
		}
	}

	r.components = append(r.components, def)
	r.byID[def.ID] = def

	if def.Reference != "" {
		if _, ok := r.byReference[def.Reference]; !ok {
			r.byReference[def.Reference] = def
		}
		r.index(r.bySegment, lastSegment(def.Reference), def)
		r.index(r.aliases, def.Reference, def)
		r.index(r.aliases, lastSegment(def.Reference), def)
	}
	if def.ShortName != "" {
		r.index(r.bySegment, def.ShortName, def)
		r.index(r.aliases, def.ShortName, def)
	}
	r.index(r.aliases, def.ID, def)

	return nil
}

func (r *Registry) index(idx map[string][]*ComponentDefinition, key string, def *ComponentDefinition) {
	if key == "" {
		return
	}
	for _, existing := range idx[key] {
		if existing == def {
			return
		}
	}
	idx[key] = append(idx[key], def)
}

// FindComponent returns the component with the given id.
func (r *Registry) FindComponent(id string) (*ComponentDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// Components returns all components in catalog order.
func (r *Registry) Components() []*ComponentDefinition {
	out := make([]*ComponentDefinition, len(r.components))
	copy(out, r.components)

	return out
}

// Categories returns all categories in catalog order.
func (r *Registry) Categories() []*Category {
	out := make([]*Category, len(r.categories))
	copy(out, r.categories)

	return out
}

// Subcategories returns all subcategories in catalog order.
func (r *Registry) Subcategories() []*Subcategory {
	out := make([]*Subcategory, len(r.subcategories))
	copy(out, r.subcategories)

	return out
}

// Category returns the category with the given id.
func (r *Registry) Category(id string) (*Category, bool) {
	c, ok := r.categoryByID[id]
	return c, ok
}

// Subcategory returns the subcategory with the given id.
func (r *Registry) Subcategory(id string) (*Subcategory, bool) {
	s, ok := r.subcategoryByID[id]
	return s, ok
}

// ContainerByKeyword returns the container component introduced by kw in documents.
func (r *Registry) ContainerByKeyword(kw string) (*ComponentDefinition, bool) {
	def, ok := r.containers[kw]
	return def, ok
}

// Generator returns the generator component of the given variant.
func (r *Registry) Generator(variant model.GeneratorVariant) (*ComponentDefinition, bool) {
	def, ok := r.generators[variant]
	return def, ok
}

// IsMarker reports whether def is a bare marker keyword such as a chart step.
func (r *Registry) IsMarker(def *ComponentDefinition) bool {
	if def == nil {
		return false
	}
	_, ok := r.markerSubcategories[def.SubcategoryID]

	return ok
}

// IsModel reports whether def is a model component.
func (r *Registry) IsModel(def *ComponentDefinition) bool {
	return def != nil && r.modelPrefix != "" && strings.HasPrefix(def.CategoryID, r.modelPrefix)
}

// IsChildAllowed reports whether a childID component may be nested under a parentID
// component. Unknown parents or children are never allowed.
func (r *Registry) IsChildAllowed(parentID, childID string) bool {
	parent, ok := r.byID[parentID]
	if !ok {
		return false
	}
	child, ok := r.byID[childID]
	if !ok {
		return false
	}

	return matchesAny(parent.AllowedChildren, child)
}

func matchesAny(rules []string, child *ComponentDefinition) bool {
	for _, rule := range rules {
		switch {
		case rule == RuleAny:
			return true
		case strings.HasPrefix(rule, RuleCategoryPrefix):
			if child.CategoryID == strings.TrimPrefix(rule, RuleCategoryPrefix) {
				return true
			}
		case strings.HasPrefix(rule, RuleSubcategoryPrefix):
			if child.SubcategoryID == strings.TrimPrefix(rule, RuleSubcategoryPrefix) {
				return true
			}
		case rule == child.ID:
			return true
		}
	}

	return false
}

// Resolution is the outcome of resolving a reference or identifier.
type Resolution struct {
	Definition *ComponentDefinition
	// Candidates lists every match when the lookup is ambiguous.
	Candidates []*ComponentDefinition
}

// Found reports whether exactly one component matched.
func (r Resolution) Found() bool {
	return r.Definition != nil
}

// Ambiguous reports whether several components matched and none was picked.
func (r Resolution) Ambiguous() bool {
	return r.Definition == nil && len(r.Candidates) > 1
}

// CandidateIDs returns the ids of the candidates.
func (r Resolution) CandidateIDs() []string {
	ids := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		ids = append(ids, c.ID)
	}

	return ids
}

// ResolveReference maps a fully-qualified reference to a component. An exact reference
// match wins; otherwise the reference is matched by qualified suffix, then by its last
// segment against short names and reference names. Several matches at the same stage are
// reported as ambiguous.
func (r *Registry) ResolveReference(ref string) Resolution {
	if ref == "" {
		return Resolution{}
	}
	if def, ok := r.byReference[ref]; ok {
		return Resolution{Definition: def}
	}

	if strings.Contains(ref, ".") {
		var suffixed []*ComponentDefinition
		for _, def := range r.components {
			if def.Reference != "" && strings.HasSuffix(def.Reference, "."+ref) {
				suffixed = append(suffixed, def)
			}
		}
		if res, ok := pick(suffixed); ok {
			return res
		}
	}

	res, _ := pick(r.bySegment[lastSegment(ref)])

	return res
}

// ResolveIdentifier maps a bare identifier to a component through the alias table: ids,
// short names, references and last reference segments. An exact id always wins.
func (r *Registry) ResolveIdentifier(name string) Resolution {
	if def, ok := r.byID[name]; ok {
		return Resolution{Definition: def}
	}
	res, _ := pick(r.aliases[name])

	return res
}

func pick(candidates []*ComponentDefinition) (Resolution, bool) {
	switch len(candidates) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{Definition: candidates[0], Candidates: candidates}, true
	default:
		out := make([]*ComponentDefinition, len(candidates))
		copy(out, candidates)
		return Resolution{Candidates: out}, true
	}
}

func lastSegment(ref string) string {
	if i := strings.LastIndex(ref, "."); i >= 0 {
		return ref[i+1:]
	}

	return ref
}
