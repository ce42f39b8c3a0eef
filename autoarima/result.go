package autoarima

import "fmt"

// ProcessingResult is the outcome of one identification step.
type ProcessingResult int

const (
	// Unprocessed means the preconditions of the step were not met.
	Unprocessed ProcessingResult = iota
	// Unchanged means the step ran and kept the specification.
	Unchanged
	// Changed means the specification was modified and must be re-estimated.
	Changed
	// Failed means the estimation needed by the step could not complete.
	Failed
)

var resultNames = [...]string{"unprocessed", "unchanged", "changed", "failed"}

func (r ProcessingResult) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return fmt.Sprintf("ProcessingResult(%d)", int(r))
	}
	return resultNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r ProcessingResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// StepResult is one entry of a context trace.
type StepResult struct {
	Step   string           `json:"step" yaml:"step"`
	Result ProcessingResult `json:"result" yaml:"result"`
}

// Step is one stage of the identification pipeline. A step reads and
// mutates the context it is given and reports what it did.
type Step interface {
	Name() string
	Process(ctx *Context) ProcessingResult
}
