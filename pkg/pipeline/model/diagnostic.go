package model

import "fmt"

// DiagnosticCode classifies a diagnostic.
type DiagnosticCode string

const (
	// UnresolvedReference is a step whose reference or identifier matched no component.
	UnresolvedReference DiagnosticCode = "unresolved_reference"
	// AmbiguousReference is a step whose reference matched several components.
	AmbiguousReference DiagnosticCode = "ambiguous_reference"
	// UnrecognizedStep is a step whose shape matched no known form.
	UnrecognizedStep DiagnosticCode = "unrecognized_step"
	// NestingViolation is a loaded child its parent's rules do not allow.
	NestingViolation DiagnosticCode = "nesting_violation"
)

// Diagnostic is a non-fatal finding about a document or a loaded tree.
type Diagnostic struct {
	Code     DiagnosticCode
	NodeID   string
	ParentID string
	// Path locates the step in the document, e.g. "[2].feature_augmentation[0]".
	Path       string
	Message    string
	Candidates []string
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s at %s: %s", d.Code, d.Path, d.Message)
	}

	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}
