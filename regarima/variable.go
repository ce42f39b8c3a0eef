// Package regarima holds the data model of a regression model with SARIMA
// errors: its specification, its estimation and derived statistics.
package regarima

import (
	"fmt"

	"github.com/sartorproj/goami/outliers"
)

// Kind classifies regression variables.
type Kind int

const (
	KindOutlier Kind = iota
	KindTradingDays
	KindLeapYear
	KindEaster
	KindUser
	KindRamp
)

var kindNames = [...]string{"outlier", "trading_days", "leap_year", "easter", "user", "ramp"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Status is the life-cycle state of a regression variable.
type Status int

const (
	// Prespecified variables were given by the user and are always estimated.
	Prespecified Status = iota
	// ToRemove variables are still estimated but scheduled for removal.
	ToRemove
	// Accepted variables passed their significance test.
	Accepted
	// Rejected variables are kept in the specification but not estimated.
	Rejected
)

var statusNames = [...]string{"prespecified", "to_remove", "accepted", "rejected"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// IsActive reports whether variables with this status enter the regression.
func (s Status) IsActive() bool {
	return s != Rejected
}

// Variable is a group of regression columns tested together.
// Columns are shared between copies of a specification and never mutated.
type Variable struct {
	Name    string
	Kind    Kind
	Status  Status
	Columns [][]float64
	// Outlier is set for KindOutlier variables.
	Outlier outliers.Outlier
}

// Dim returns the number of columns of v.
func (v *Variable) Dim() int { return len(v.Columns) }

// NewOutlierVariable builds the regressor of o on a series of length n.
func NewOutlierVariable(o outliers.Outlier, n, period int, tcRate float64, status Status) (Variable, error) {
	col, err := outliers.Column(o, n, period, tcRate)
	if err != nil {
		return Variable{}, err
	}
	return Variable{
		Name:    o.Name(),
		Kind:    KindOutlier,
		Status:  status,
		Columns: [][]float64{col},
		Outlier: o,
	}, nil
}

// NewRampVariable builds a ramp going from -1 at start to 0 at end, constant
// outside the interval.
func NewRampVariable(start, end, n int) Variable {
	col := make([]float64, n)
	for t := range col {
		switch {
		case t <= start:
			col[t] = -1
		case t >= end:
			col[t] = 0
		default:
			col[t] = float64(t-start)/float64(end-start) - 1
		}
	}
	return Variable{
		Name:    fmt.Sprintf("rp(%d-%d)", start, end),
		Kind:    KindRamp,
		Status:  Prespecified,
		Columns: [][]float64{col},
	}
}
