package autoarima

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sartorproj/goami/regarima"
	"github.com/sartorproj/goami/sarima"
)

// ErrNoStableModel is returned when no candidate order is both stationary
// and invertible.
var ErrNoStableModel = errors.New("no stable ARMA candidate")

// Candidate is one ARMA order scored during the search.
type Candidate struct {
	Order sarima.Order
	Model *sarima.Model
	BIC   float64
}

// ArmaSearch chooses the ARMA orders of the stationary series by
// Hannan-Rissanen estimation and fast BIC.
type ArmaSearch struct {
	MaxP, MaxQ   int
	MaxBP, MaxBQ int
	VC11         float64
	VC2          float64
	VC22         float64
	MaxSurvivors int
	// AcceptWhiteNoise allows a model without ARMA parameters.
	AcceptWhiteNoise bool
}

// ArmaResult is the outcome of ArmaSearch.Search.
type ArmaResult struct {
	Best Candidate
	// Survivors are the best candidates in ascending BIC order.
	Survivors       []Candidate
	ModelsEvaluated int
}

// seasonalPreOrder is the regular AR order used while the seasonal orders
// are searched first.
const seasonalPreOrder = 3

// spreadScale is the BIC spread at which the selection tolerances are used
// unscaled.
const spreadScale = 0.05

// NewArmaSearch builds the search from the options.
func NewArmaSearch(opts Options) *ArmaSearch {
	return &ArmaSearch{
		MaxP:             opts.MaxP,
		MaxQ:             opts.MaxQ,
		MaxBP:            opts.MaxBP,
		MaxBQ:            opts.MaxBQ,
		VC11:             opts.VC11,
		VC2:              opts.VC2,
		VC22:             opts.VC22,
		MaxSurvivors:     opts.MaxSurvivors,
		AcceptWhiteNoise: opts.AcceptWhiteNoise,
	}
}

func (s *ArmaSearch) Name() string { return "arma" }

func (s *ArmaSearch) Process(ctx *Context) ProcessingResult {
	if !ctx.AutomaticModeling {
		return Unprocessed
	}
	log := ctx.Logger(s.Name())
	o := ctx.Spec.Order
	w := ctx.Stationary()

	seasonal := ctx.HasSeasonalComponent && ctx.Period > 1
	res, err := s.Search(ctx.Estimator, w, o.D, o.SD, o.M, seasonal)
	if err != nil {
		log.Warn().Err(err).Msg("arma search failed")
		return Failed
	}
	best := res.Best.Order
	ctx.Note(s.Name(), "order", best)
	log.Debug().Str("order", best.String()).Float64("bic", res.Best.BIC).
		Int("evaluated", res.ModelsEvaluated).Int("survivors", len(res.Survivors)).Msg("arma orders selected")

	if o.SameARMA(best) {
		return Unchanged
	}
	ctx.Modify(func(spec *regarima.ModelSpec) {
		spec.Order = best
	})
	return Changed
}

// Search runs the three search stages on the stationary series w and
// selects the final order among the survivors. d and bd are copied into
// the returned orders.
func (s *ArmaSearch) Search(est regarima.Estimator, w []float64, d, bd, period int, seasonal bool) (ArmaResult, error) {
	var res ArmaResult
	if period <= 1 {
		seasonal = false
	}
	base := sarima.Order{D: d, SD: bd, M: period}
	if !seasonal {
		base.SD = 0
	}

	var all []Candidate
	sp, sq := 0, 0
	if seasonal {
		stage := s.grid(est, w, base, []int{seasonalPreOrder}, []int{0}, rangeTo(s.MaxBP), rangeTo(s.MaxBQ), &res)
		all = merge(all, stage, 0)
		if len(stage) > 0 {
			sp, sq = stage[0].Order.SP, stage[0].Order.SQ
		}
	}

	stage := s.grid(est, w, base, rangeTo(s.MaxP), rangeTo(s.MaxQ), []int{sp}, []int{sq}, &res)
	all = merge(all, stage, 0)
	p, q := 0, 0
	if len(stage) > 0 {
		p, q = stage[0].Order.P, stage[0].Order.Q
	}

	if seasonal {
		stage = s.grid(est, w, base, []int{p}, []int{q}, rangeTo(s.MaxBP), rangeTo(s.MaxBQ), &res)
		all = merge(all, stage, 0)
	}

	res.Survivors = truncate(all, s.MaxSurvivors)
	if len(res.Survivors) == 0 {
		return res, ErrNoStableModel
	}
	res.Best = s.selectBest(res.Survivors)
	return res, nil
}

// grid scores every order of the cartesian product.
func (s *ArmaSearch) grid(est regarima.Estimator, w []float64, base sarima.Order, ps, qs, sps, sqs []int, res *ArmaResult) []Candidate {
	var out []Candidate
	for _, p := range ps {
		for _, q := range qs {
			for _, sp := range sps {
				for _, sq := range sqs {
					o := base
					o.P, o.Q, o.SP, o.SQ = p, q, sp, sq
					res.ModelsEvaluated++
					if c, ok := s.score(est, w, o); ok {
						out = merge(out, []Candidate{c}, 0)
					}
				}
			}
		}
	}
	return out
}

// score estimates o by Hannan-Rissanen and returns its fast BIC. Orders
// that are not stationary after the MA roots are reflected are discarded.
func (s *ArmaSearch) score(est regarima.Estimator, w []float64, o sarima.Order) (Candidate, bool) {
	arma := o
	arma.D, arma.SD = 0, 0
	m, err := est.HannanRissanen(arma, w)
	if err != nil {
		return Candidate{}, false
	}
	m.MakeInvertible()
	if !m.IsStable() || !m.IsInvertible() {
		return Candidate{}, false
	}
	bic, err := est.FastBIC(m, w)
	if err != nil || math.IsNaN(bic) {
		return Candidate{}, false
	}
	m.Order = o
	return Candidate{Order: o, Model: m, BIC: bic}, true
}

// merge adds cands to list, keeping ascending BIC order and one entry per
// order. On equal orders the entry already in list wins. A positive limit
// truncates the result.
func merge(list, cands []Candidate, limit int) []Candidate {
	out := append([]Candidate(nil), list...)
	for _, c := range cands {
		dup := false
		for _, e := range out {
			if e.Order == c.Order {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BIC < out[j].BIC })
	return truncate(out, limit)
}

func truncate(list []Candidate, limit int) []Candidate {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// selectBest walks the survivors from the best BIC and moves to a more
// parsimonious model when its BIC loss is within a tolerance that grows
// with the number of parameters saved. Tolerances are scaled by the BIC
// spread of the survivors.
func (s *ArmaSearch) selectBest(survivors []Candidate) Candidate {
	spread := survivors[len(survivors)-1].BIC - survivors[0].BIC
	scale := math.Min(math.Max(spread/spreadScale, 0.5), 2)

	best := survivors[0]
	for _, c := range survivors[1:] {
		saved := best.Order.NumParams() - c.Order.NumParams()
		var tol float64
		switch {
		case saved < 0:
			continue
		case saved == 0:
			if c.Order.P >= best.Order.P {
				continue
			}
			tol = s.VC2
		case saved == 1:
			tol = s.VC22
		default:
			tol = s.VC11
		}
		if c.BIC-best.BIC <= tol*scale {
			best = c
		}
	}

	if best.Order.NumParams() == 0 && !s.AcceptWhiteNoise {
		for _, c := range survivors {
			if c.Order.NumParams() > 0 {
				return c
			}
		}
	}
	return best
}

func rangeTo(n int) []int {
	out := make([]int, n+1)
	for i := range out {
		out[i] = i
	}
	return out
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s bic=%.5f", c.Order, c.BIC)
}
