package drawer

import (
	"io"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

// Drawer is an interface that defines the methods for drawing a pipeline tree.
type Drawer interface {
	// AddNode adds a node below parent. A nil parent adds a top-level node.
	AddNode(node, parent *model.Node) error
	// AddTree adds a forest of nodes with all their descendants.
	AddTree(nodes []*model.Node) error
	// AddMeasure annotates nodes with the decode statistics of their shape.
	AddMeasure(m measure.Measure) error
	// Draw writes the graph in DOT format.
	Draw(w io.Writer) error
	// DrawFile writes the graph in DOT format to a file.
	DrawFile(path string) error
}
