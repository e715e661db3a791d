package mesh

import "fmt"

// MeshLoadError reports malformed initial geometry: duplicate or
// degenerate vertices, collinear vertex sets, non-positive Jacobians.
type MeshLoadError struct {
	msg string
}

func (e *MeshLoadError) Error() string { return e.msg }

func loadErrorf(format string, args ...interface{}) *MeshLoadError {
	return &MeshLoadError{msg: fmt.Sprintf(format, args...)}
}

// InvalidElementIDError reports an element id outside the store or one
// referring to a logically deleted element.
type InvalidElementIDError struct {
	ID  int
	Max int
}

func (e *InvalidElementIDError) Error() string {
	return fmt.Sprintf("invalid element id %d, current range: [0; %d]", e.ID, e.Max)
}

// ValueError reports an out-of-range configuration parameter.
type ValueError struct {
	Name  string
	Value float64
	Min   float64
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("variable %s cannot have value %g, allowed minimum is %g", e.Name, e.Value, e.Min)
}

// CurvedError reports an operation that does not support curved elements.
type CurvedError struct {
	ElementID int
}

func (e *CurvedError) Error() string {
	return fmt.Sprintf("element id %d is curved, this is not supported in this method", e.ElementID)
}
