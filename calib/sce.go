// Package calib searches a bounded parameter space for the best-fitting model
// parameter set using the Shuffled Complex Evolution (SCE-UA) algorithm.
// Duan, Q., S. Sorooshian and V.K. Gupta, 1993. Shuffled complex evolution
// approach for effective and efficient global minimization. Journal of
// Optimization Theory and Applications 76(3): 501-521.
//
// The engine is an explicit state machine: New configures it, Init draws and
// scores the initial population, and every Step call runs exactly one shuffle
// loop (partition, evolve each complex, merge, convergence check) so a caller
// can interleave progress reporting or stop at any loop boundary. Each
// instance owns its seeded generator and population; instances share nothing.
package calib

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/maseology/mmaths"
	"github.com/maseology/montecarlo/smpln"
	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"

	"github.com/antoinelb/hydro"
	"github.com/antoinelb/hydro/metrics"
	"github.com/antoinelb/hydro/model"
)

// Config fully determines a calibration run; two runs with equal Configs and
// inputs produce identical evaluation sequences and results.
type Config struct {
	ClimateModel string
	SnowModel    string // "" disables the snow module
	Objective    metrics.Objective
	Transform    metrics.Transform
	NComplexes   int     // p
	KStop        int     // loops in the criteria-change window
	Pcento       float64 // relative criteria-change threshold [%]
	Peps         float64 // normalized geometric range threshold
	MaxEval      int     // evaluation budget
	Seed         int64
}

// State tracks the engine through its lifecycle.
type State int

const (
	Created State = iota
	Initialized
	Evolving
	Converged
	BudgetExhausted
)

// Done reports whether the state is terminal.
func (s State) Done() bool { return s == Converged || s == BudgetExhausted }

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case Evolving:
		return "evolving"
	case Converged:
		return "converged"
	case BudgetExhausted:
		return "budget exhausted"
	default:
		return "unknown"
	}
}

// Progress reports the outcome of one shuffle loop.
type Progress struct {
	Done       bool
	Params     []float64
	Simulation []float64
	Metrics    metrics.Result
	NEval      int
	Loop       int
	State      State
}

// point pairs a parameter vector with its minimization score and the cached
// simulation that produced it; immutable once evaluated.
type point struct {
	u     []float64
	score float64
	res   metrics.Result
	sim   []float64
}

// SCE is one self-contained, single-threaded calibration run.
type SCE struct {
	cfg          Config
	sim          model.SimulateFn
	lower, upper []float64

	nParam, nPerComplex, nSimplex, nEvolve, nPop int

	rng      *rand.Rand
	pop      []*point
	criteria []float64 // best score after init and after every loop
	nEval    int
	loop     int
	state    State
	last     *Progress
}

// New builds an engine for the named climate model and optional snow module.
func New(cfg Config) (*SCE, error) {
	_, bounds, sim, err := model.Compose(cfg.ClimateModel, cfg.SnowModel)
	if err != nil {
		return nil, err
	}
	return NewWithModel(cfg, sim, bounds)
}

// NewWithModel builds an engine around an arbitrary simulation function and
// its parameter bounds; New is the registry-backed convenience over it.
func NewWithModel(cfg Config, sim model.SimulateFn, bounds [][2]float64) (*SCE, error) {
	if _, err := metrics.ParseObjective(string(cfg.Objective)); err != nil {
		return nil, err
	}
	if cfg.Transform == "" {
		cfg.Transform = metrics.None
	}
	if _, err := metrics.ParseTransform(string(cfg.Transform)); err != nil {
		return nil, err
	}
	switch {
	case cfg.NComplexes < 1:
		return nil, hydro.Configf(" calib.New: n_complexes = %d must be positive", cfg.NComplexes)
	case cfg.KStop < 1:
		return nil, hydro.Configf(" calib.New: k_stop = %d must be positive", cfg.KStop)
	case cfg.MaxEval < 1:
		return nil, hydro.Configf(" calib.New: max_evaluations = %d must be positive", cfg.MaxEval)
	case cfg.Pcento < 0. || cfg.Peps < 0.:
		return nil, hydro.Configf(" calib.New: convergence thresholds must not be negative")
	case len(bounds) == 0:
		return nil, hydro.Configf(" calib.New: empty parameter bounds")
	}
	lower, upper := make([]float64, len(bounds)), make([]float64, len(bounds))
	for j, b := range bounds {
		if b[0] >= b[1] {
			return nil, hydro.Configf(" calib.New: bounds[%d] = [%f,%f] must satisfy min < max", j, b[0], b[1])
		}
		lower[j], upper[j] = b[0], b[1]
	}

	np := len(bounds)
	rng := rand.New(mrg63k3a.New())
	rng.Seed(cfg.Seed)

	return &SCE{
		cfg:         cfg,
		sim:         sim,
		lower:       lower,
		upper:       upper,
		nParam:      np,
		nPerComplex: 2*np + 1,
		nSimplex:    np + 1,
		nEvolve:     2*np + 1,
		nPop:        cfg.NComplexes * (2*np + 1),
		rng:         rng,
		state:       Created,
	}, nil
}

// NParams returns the arity of the calibrated parameter vector.
func (s *SCE) NParams() int { return s.nParam }

// NEval returns the cumulative evaluation count.
func (s *SCE) NEval() int { return s.nEval }

// State returns the engine's lifecycle state.
func (s *SCE) State() State { return s.state }

// Init draws the initial population on a Latin hypercube plan over the bounds
// (the midpoint seeded as the first point), scores every point and sorts the
// population ascending. It may be called again to restart a run.
func (s *SCE) Init(d *hydro.Data, md *hydro.Metadata, obs []float64) error {
	if len(obs) != d.Nt() {
		return hydro.Shapef(" calib.Init: observations and forcing must have the same length (got %d and %d)",
			len(obs), d.Nt())
	}
	if s.cfg.SnowModel != "" && len(md.ElevationBands) == 0 {
		return hydro.Configf(" calib.Init: snow model '%s' needs elevation bands in the metadata", s.cfg.SnowModel)
	}
	if err := metrics.Check(obs, s.cfg.Transform, s.cfg.Objective); err != nil {
		return err
	}

	s.nEval, s.loop, s.last = 0, 0, nil

	sp := smpln.NewLHC(s.rng, s.nPop, s.nParam, false)
	s.pop = make([]*point, s.nPop)
	for k := 0; k < s.nPop; k++ {
		u := make([]float64, s.nParam)
		for j := 0; j < s.nParam; j++ {
			if k == 0 {
				u[j] = (s.lower[j] + s.upper[j]) / 2.
			} else {
				u[j] = mmaths.LinearTransform(s.lower[j], s.upper[j], sp.U[j][k])
			}
		}
		pt, err := s.evaluate(u, d, md, obs)
		if err != nil {
			return err
		}
		s.pop[k] = pt
	}
	s.sortPop()

	s.criteria = []float64{s.pop[0].score}
	s.state = Initialized
	return nil
}

// evaluate simulates and scores one candidate. Numerical instability yields
// the worst possible score so a single degenerate candidate cannot halt the
// search; every other failure propagates.
func (s *SCE) evaluate(u []float64, d *hydro.Data, md *hydro.Metadata, obs []float64) (*point, error) {
	sim, err := s.sim(u, d, md)
	s.nEval++
	if err != nil {
		var ie *hydro.InstabilityError
		if errors.As(err, &ie) {
			return &point{u: u, score: math.Inf(1)}, nil
		}
		return nil, err
	}
	res, err := metrics.Evaluate(obs, sim, s.cfg.Transform)
	if err != nil {
		return nil, err
	}
	score := res.Score(s.cfg.Objective)
	if math.IsNaN(score) {
		score = math.Inf(1)
	}
	return &point{u: u, score: score, res: res, sim: sim}, nil
}

// sortPop orders the population ascending by score; the sort is stable so
// equal scores keep their prior order and runs stay reproducible.
func (s *SCE) sortPop() {
	sort.SliceStable(s.pop, func(a, b int) bool { return s.pop[a].score < s.pop[b].score })
}
