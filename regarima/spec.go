package regarima

import (
	"fmt"

	"github.com/sartorproj/goami/outliers"
	"github.com/sartorproj/goami/sarima"
)

// Transformation applied to the raw series before modelling.
type Transformation int

const (
	TransformNone Transformation = iota
	TransformLog
)

func (t Transformation) String() string {
	if t == TransformLog {
		return "log"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (t Transformation) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ModelSpec is the specification of a regression model with SARIMA errors.
type ModelSpec struct {
	Order          sarima.Order
	Mean           bool
	Transformation Transformation
	Variables      []Variable
}

// NewModelSpec returns a specification with the given order and no regressors.
func NewModelSpec(order sarima.Order, mean bool) *ModelSpec {
	return &ModelSpec{Order: order, Mean: mean}
}

// Copy returns a copy of s. Variable columns are shared.
func (s *ModelSpec) Copy() *ModelSpec {
	c := *s
	c.Variables = append([]Variable(nil), s.Variables...)
	return &c
}

// Active returns the variables entering the regression, in order.
func (s *ModelSpec) Active() []Variable {
	out := make([]Variable, 0, len(s.Variables))
	for _, v := range s.Variables {
		if v.Status.IsActive() {
			out = append(out, v)
		}
	}
	return out
}

// Columns returns the active regression columns in variable order.
func (s *ModelSpec) Columns() [][]float64 {
	var cols [][]float64
	for _, v := range s.Variables {
		if v.Status.IsActive() {
			cols = append(cols, v.Columns...)
		}
	}
	return cols
}

// NumRegressors returns the number of regression coefficients, mean included.
func (s *ModelSpec) NumRegressors() int {
	k := 0
	if s.Mean {
		k++
	}
	for _, v := range s.Variables {
		if v.Status.IsActive() {
			k += v.Dim()
		}
	}
	return k
}

// Index returns the position of the variable called name, or -1.
func (s *ModelSpec) Index(name string) int {
	for i := range s.Variables {
		if s.Variables[i].Name == name {
			return i
		}
	}
	return -1
}

// OfKind returns the positions of the variables of kind k.
func (s *ModelSpec) OfKind(k Kind) []int {
	var idx []int
	for i := range s.Variables {
		if s.Variables[i].Kind == k {
			idx = append(idx, i)
		}
	}
	return idx
}

// SetStatus changes the status of the variable called name. It reports
// whether the status actually changed.
func (s *ModelSpec) SetStatus(name string, status Status) bool {
	i := s.Index(name)
	if i < 0 || s.Variables[i].Status == status {
		return false
	}
	s.Variables[i].Status = status
	return true
}

// Add appends v. It returns an error if a variable with the same name exists.
func (s *ModelSpec) Add(v Variable) error {
	if s.Index(v.Name) >= 0 {
		return fmt.Errorf("duplicate regression variable %s", v.Name)
	}
	s.Variables = append(s.Variables, v)
	return nil
}

// Remove deletes the variable called name and reports whether it existed.
func (s *ModelSpec) Remove(name string) bool {
	i := s.Index(name)
	if i < 0 {
		return false
	}
	s.Variables = append(s.Variables[:i], s.Variables[i+1:]...)
	return true
}

// Outliers returns the active outliers.
func (s *ModelSpec) Outliers() []outliers.Outlier {
	var out []outliers.Outlier
	for _, v := range s.Variables {
		if v.Kind == KindOutlier && v.Status.IsActive() {
			out = append(out, v.Outlier)
		}
	}
	return out
}

// DetectedOutliers returns the active outliers that were not prespecified.
func (s *ModelSpec) DetectedOutliers() []outliers.Outlier {
	var out []outliers.Outlier
	for _, v := range s.Variables {
		if v.Kind == KindOutlier && v.Status.IsActive() && v.Status != Prespecified {
			out = append(out, v.Outlier)
		}
	}
	return out
}

// HasOutlier reports whether o is an active regressor of s.
func (s *ModelSpec) HasOutlier(o outliers.Outlier) bool {
	i := s.Index(o.Name())
	return i >= 0 && s.Variables[i].Status.IsActive()
}

// RemoveDetectedOutliers drops every outlier that was not prespecified.
func (s *ModelSpec) RemoveDetectedOutliers() int {
	kept := s.Variables[:0]
	removed := 0
	for _, v := range s.Variables {
		if v.Kind == KindOutlier && v.Status != Prespecified {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	s.Variables = kept
	return removed
}

func (s *ModelSpec) String() string {
	mean := ""
	if s.Mean {
		mean = " + mean"
	}
	return fmt.Sprintf("%s%s [%s] %d regressors", s.Order, mean, s.Transformation, s.NumRegressors())
}
