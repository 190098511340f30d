package measure

import (
	"time"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

// DocumentMetric is the metric that accumulates whole-document decode times.
const DocumentMetric = "document"

type decodeMeasure struct {
	Measure
}

func (dm *decodeMeasure) OnStep(shape model.Shape, elapsed time.Duration) {
	dm.AddMetric(string(shape)).AddDuration(elapsed)
}

func (dm *decodeMeasure) OnDocument(_ int, elapsed time.Duration) {
	dm.AddMetric(DocumentMetric).AddDuration(elapsed)
}

// Observer reports decoded steps to m, one metric per node shape.
func Observer(m Measure) model.Observer {
	return &decodeMeasure{m}
}
