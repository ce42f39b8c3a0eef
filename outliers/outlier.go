// Package outliers defines the outlier regressors used by automatic model
// identification and the search for the most significant one.
package outliers

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sartorproj/goami/sarima"
)

// ErrUnknownType is returned when parsing an unrecognised outlier code.
var ErrUnknownType = errors.New("unknown outlier type")

// Type identifies an outlier pattern.
type Type int

const (
	AO Type = iota // Additive outlier: a single spike
	LS             // Level shift: permanent step from the position on
	TC             // Transitory change: spike decaying geometrically
	SO             // Seasonal outlier: shift of the seasonal pattern
	numTypes
)

var typeNames = [...]string{"AO", "LS", "TC", "SO"}

func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseType converts "AO", "LS", "TC" or "SO" (case insensitive) to a Type.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Outlier is a typed regressor anchored at a position of the series.
type Outlier struct {
	Type     Type `json:"type" yaml:"type"`
	Position int  `json:"position" yaml:"position"`
}

// Name returns a stable identifier such as "LS(60)".
func (o Outlier) Name() string {
	return fmt.Sprintf("%s(%d)", o.Type, o.Position)
}

func (o Outlier) String() string { return o.Name() }

// Factory builds outliers of one type. Implementations are obtained from
// NewFactory; the set of types is closed.
type Factory interface {
	Type() Type
	// DefinitionDomain returns the admissible positions [start, end) for a
	// series of length n whose differencing operator has degree nd.
	DefinitionDomain(n, nd int) (start, end int)
	// Pattern returns the raw regressor from the outlier position on.
	Pattern(length int) []float64
	// FilterRepresentation returns the response of the regressor, starting
	// at the outlier position, through the residual filter
	// AR(B)·δ(B)/MA(B) of m.
	FilterRepresentation(m *sarima.Model, length int) []float64
	Instantiate(pos int) Outlier
}

type factory struct {
	kind    Type
	pattern func(k int) float64
	domain  func(n, nd int) (int, int)
}

func (f *factory) Type() Type { return f.kind }

func (f *factory) DefinitionDomain(n, nd int) (int, int) {
	start, end := f.domain(n, nd)
	if start < nd {
		start = nd
	}
	if end > n {
		end = n
	}
	return start, end
}

func (f *factory) Pattern(length int) []float64 {
	out := make([]float64, length)
	for k := range out {
		out[k] = f.pattern(k)
	}
	return out
}

func (f *factory) FilterRepresentation(m *sarima.Model, length int) []float64 {
	num := m.ARPolynomial().Times(m.DifferencingPolynomial())
	return sarima.Filter(f.Pattern(length), num, m.MAPolynomial())
}

func (f *factory) Instantiate(pos int) Outlier {
	return Outlier{Type: f.kind, Position: pos}
}

// NewFactory returns the factory for t. period is the series frequency and
// tcRate the decay rate of transitory changes. SO requires period > 1.
func NewFactory(t Type, period int, tcRate float64) (Factory, error) {
	switch t {
	case AO:
		return &factory{
			kind: AO,
			pattern: func(k int) float64 {
				if k == 0 {
					return 1
				}
				return 0
			},
			domain: func(n, _ int) (int, int) { return 0, n },
		}, nil
	case LS:
		return &factory{
			kind:    LS,
			pattern: func(int) float64 { return 1 },
			// A shift at the first or last observation is not identifiable
			domain: func(n, _ int) (int, int) { return 1, n - 1 },
		}, nil
	case TC:
		return &factory{
			kind: TC,
			pattern: func(k int) float64 {
				v := math.Pow(tcRate, float64(k))
				if v < 1e-12 {
					return 0
				}
				return v
			},
			domain: func(n, _ int) (int, int) { return 0, n },
		}, nil
	case SO:
		if period <= 1 {
			return nil, fmt.Errorf("%w: SO needs a seasonal period", ErrUnknownType)
		}
		other := -1 / float64(period-1)
		return &factory{
			kind: SO,
			pattern: func(k int) float64 {
				if k%period == 0 {
					return 1
				}
				return other
			},
			domain: func(n, _ int) (int, int) { return 1, n - 1 },
		}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
}

// Factories builds the factory table for the requested types. SO is
// skipped silently for non-seasonal series.
func Factories(types []Type, period int, tcRate float64) ([]Factory, error) {
	out := make([]Factory, 0, len(types))
	for _, t := range types {
		if t == SO && period <= 1 {
			continue
		}
		f, err := NewFactory(t, period, tcRate)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Column returns the regressor of o on a series of length n.
func Column(o Outlier, n, period int, tcRate float64) ([]float64, error) {
	f, err := NewFactory(o.Type, period, tcRate)
	if err != nil {
		return nil, err
	}
	col := make([]float64, n)
	if o.Position < 0 || o.Position >= n {
		return col, nil
	}
	copy(col[o.Position:], f.Pattern(n-o.Position))
	return col, nil
}
