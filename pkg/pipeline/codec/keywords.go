package codec

import "github.com/pkg/errors"

// Dialect names a set of document keywords.
type Dialect string

const (
	DialectDefault  Dialect = "default"
	DialectNirs4all Dialect = "nirs4all"
)

var ErrUnknownDialect = errors.New("unknown dialect")

// Keywords are the mapping keys that identify step shapes in a document.
type Keywords struct {
	Reference          string
	Parameters         string
	Model              string
	Name               string
	TrainParameters    string
	FinetuneParameters string

	Choice string
	Size   string
	Count  string

	Range string
	Param string
	From  string
	To    string
	Step  string

	// ID is a step key that is kept but never used as node identity.
	ID string

	// Pipeline and Steps are the top-level keys that may wrap the step sequence.
	Pipeline string
	Steps    string
}

// DefaultKeywords returns the keywords of the canonical document format.
func DefaultKeywords() Keywords {
	return Keywords{
		Reference:          "reference",
		Parameters:         "parameters",
		Model:              "model",
		Name:               "name",
		TrainParameters:    "train_parameters",
		FinetuneParameters: "finetune_parameters",
		Choice:             "choice-set",
		Size:               "size",
		Count:              "count",
		Range:              "numeric-range",
		Param:              "param",
		From:               "from",
		To:                 "to",
		Step:               "step",
		ID:                 "id",
		Pipeline:           "pipeline",
		Steps:              "steps",
	}
}

// Nirs4allKeywords returns the keywords written by the nirs4all backend.
func Nirs4allKeywords() Keywords {
	kw := DefaultKeywords()
	kw.Reference = "class"
	kw.Parameters = "params"
	kw.TrainParameters = "train_params"
	kw.FinetuneParameters = "finetune_params"
	kw.Choice = "_or_"
	kw.Range = "_range_"

	return kw
}

// KeywordsFor returns the keywords of a dialect. An empty dialect is the default one.
func KeywordsFor(d Dialect) (Keywords, error) {
	switch d {
	case "", DialectDefault:
		return DefaultKeywords(), nil
	case DialectNirs4all:
		return Nirs4allKeywords(), nil
	default:
		return Keywords{}, errors.Wrapf(ErrUnknownDialect, "%q", d)
	}
}

func (k Keywords) referenceKeys() []string {
	return []string{k.Reference, k.Parameters}
}

func (k Keywords) modelKeys() []string {
	return []string{k.Model, k.Name, k.TrainParameters, k.FinetuneParameters}
}

func (k Keywords) choiceKeys() []string {
	return []string{k.Choice, k.Size, k.Count}
}

func (k Keywords) rangeKeys() []string {
	return []string{k.Range, k.Param, k.Model}
}
