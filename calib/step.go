package calib

import (
	"math"
	"slices"
	"sort"

	"github.com/maseology/mmaths"
	"gonum.org/v1/gonum/floats"

	"github.com/antoinelb/hydro"
	"github.com/antoinelb/hydro/metrics"
)

// Step runs one shuffle loop: partition the sorted population into complexes
// by rank, evolve each complex competitively, merge and re-sort, then check
// the convergence criteria. Once a terminal state is reached further calls
// return the last Progress untouched.
func (s *SCE) Step(d *hydro.Data, md *hydro.Metadata, obs []float64) (*Progress, error) {
	if s.state.Done() && s.last != nil {
		return s.last, nil
	}
	if s.state == Created {
		return nil, hydro.Configf(" calib.Step: Init must be called first")
	}

	if !s.state.Done() { // a reloaded terminal run only rebuilds its report
		// interleave sorted ranks across complexes so every complex holds a
		// spread of good and bad points
		p := s.cfg.NComplexes
		for ig := 0; ig < p; ig++ {
			cx := make([]*point, s.nPerComplex)
			for k := 0; k < s.nPerComplex; k++ {
				cx[k] = s.pop[k*p+ig]
			}
			if err := s.evolveComplex(cx, d, md, obs); err != nil {
				return nil, err
			}
			for k := 0; k < s.nPerComplex; k++ {
				s.pop[k*p+ig] = cx[k]
			}
		}
		s.sortPop()
		s.loop++

		s.criteria = append(s.criteria, s.pop[0].score)

		switch {
		case s.nEval >= s.cfg.MaxEval:
			s.state = BudgetExhausted
		case s.gnrng() < s.cfg.Peps || s.criteriaChange() < s.cfg.Pcento:
			s.state = Converged
		default:
			s.state = Evolving
		}
	}

	best := s.pop[0]
	if best.sim == nil {
		// the cached simulation is only missing for candidates that failed or
		// for snapshots reloaded without their series; a best point that
		// cannot be simulated signals a bug, not a bad candidate
		sim, err := s.sim(best.u, d, md)
		if err != nil {
			return nil, hydro.Instabilityf(" calib.Step: best parameter set failed to simulate: %v", err)
		}
		res, err := metrics.Evaluate(obs, sim, s.cfg.Transform)
		if err != nil {
			return nil, err
		}
		best.sim, best.res = sim, res
	}

	s.last = &Progress{
		Done:       s.state.Done(),
		Params:     append([]float64{}, best.u...),
		Simulation: append([]float64{}, best.sim...),
		Metrics:    best.res,
		NEval:      s.nEval,
		Loop:       s.loop,
		State:      s.state,
	}
	return s.last, nil
}

// evolveComplex runs the Competitive Complex Evolution loop: draw a simplex
// favouring better ranks, reflect its worst point through the centroid, fall
// back to a contraction and then to a random point inside the complex's
// bounding box, re-sorting after every replacement.
func (s *SCE) evolveComplex(cx []*point, d *hydro.Data, md *hydro.Metadata, obs []float64) error {
	for it := 0; it < s.nEvolve; it++ {
		idx := s.simplexIndices(len(cx))
		wi := idx[len(idx)-1]
		if wi == 0 {
			continue // never displace the complex best
		}
		worst := cx[wi]

		// centroid excluding the worst point
		ce := make([]float64, s.nParam)
		for _, i := range idx[:len(idx)-1] {
			floats.Add(ce, cx[i].u)
		}
		floats.Scale(1./float64(len(idx)-1), ce)

		var next *point

		// reflection through the centroid
		refl := make([]float64, s.nParam)
		for j := range refl {
			refl[j] = 2.*ce[j] - worst.u[j]
		}
		if s.inBounds(refl) {
			pt, err := s.evaluate(refl, d, md, obs)
			if err != nil {
				return err
			}
			if pt.score < worst.score {
				next = pt
			}
		}

		// contraction halfway back to the centroid
		if next == nil {
			ctr := make([]float64, s.nParam)
			for j := range ctr {
				ctr[j] = (ce[j] + worst.u[j]) / 2.
			}
			pt, err := s.evaluate(ctr, d, md, obs)
			if err != nil {
				return err
			}
			if pt.score < worst.score {
				next = pt
			}
		}

		// random reassignment within the complex's bounding box
		if next == nil {
			lo, hi := complexBox(cx)
			u := make([]float64, s.nParam)
			for j := range u {
				u[j] = mmaths.LinearTransform(lo[j], hi[j], s.rng.Float64())
			}
			pt, err := s.evaluate(u, d, md, obs)
			if err != nil {
				return err
			}
			next = pt
		}

		cx[wi] = next
		sort.SliceStable(cx, func(a, b int) bool { return cx[a].score < cx[b].score })
	}
	return nil
}

// simplexIndices draws nSimplex distinct ranks from a triangular distribution
// biased toward better-ranked points; the complex best is always included.
func (s *SCE) simplexIndices(m int) []int {
	idx := []int{0}
	fm := float64(m)
	for len(idx) < s.nSimplex {
		lpos := 0
		for try := 0; try < 1000; try++ {
			lpos = int(math.Floor(fm + 0.5 - math.Sqrt((fm+0.5)*(fm+0.5)-fm*(fm+1.)*s.rng.Float64())))
			if !slices.Contains(idx, lpos) {
				break
			}
		}
		idx = append(idx, lpos)
	}
	sort.Ints(idx)
	return idx
}

func (s *SCE) inBounds(u []float64) bool {
	for j, v := range u {
		if v < s.lower[j] || v > s.upper[j] {
			return false
		}
	}
	return true
}

// complexBox returns the per-dimension extent of the complex's points.
func complexBox(cx []*point) ([]float64, []float64) {
	n := len(cx[0].u)
	lo, hi := make([]float64, n), make([]float64, n)
	for j := 0; j < n; j++ {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
		for _, pt := range cx {
			lo[j] = math.Min(lo[j], pt.u[j])
			hi[j] = math.Max(hi[j], pt.u[j])
		}
	}
	return lo, hi
}

// gnrng is the normalized geometric mean of the population's per-dimension
// parameter ranges; it collapses toward 0 as the population concentrates.
func (s *SCE) gnrng() float64 {
	sum := 0.
	for j := 0; j < s.nParam; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, pt := range s.pop {
			lo = math.Min(lo, pt.u[j])
			hi = math.Max(hi, pt.u[j])
		}
		r := (hi - lo) / (s.upper[j] - s.lower[j])
		sum += math.Log(math.Max(r, 1e-10))
	}
	return math.Exp(sum / float64(s.nParam))
}

// criteriaChange is the relative change [%] of the best score across the last
// KStop shuffle loops, or +Inf while the window is still filling.
func (s *SCE) criteriaChange() float64 {
	k := s.cfg.KStop
	n := len(s.criteria)
	if n < k {
		return math.Inf(1)
	}
	mean := 0.
	for _, c := range s.criteria[n-k:] {
		mean += math.Abs(c)
	}
	mean /= float64(k)
	if mean <= 0. {
		return math.Inf(1)
	}
	return math.Abs(s.criteria[n-1]-s.criteria[n-k]) * 100. / mean
}
