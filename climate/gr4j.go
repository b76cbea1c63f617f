// Package climate implements the lumped daily rainfall-runoff models.
package climate

import (
	"math"

	"github.com/antoinelb/hydro"
)

// GR4JInit returns the default parameter set {x1, x2, x3, x4} and its
// calibration bounds: production store capacity x1 [mm], groundwater exchange
// coefficient x2 [mm/d], routing store capacity x3 [mm] and unit-hydrograph
// time base x4 [d]. Defaults follow the median set of Perrin, C., C. Michel
// and V. Andréassian, 2003. Improvement of a parsimonious model for streamflow
// simulation. Journal of Hydrology 279(1-4): 275-289.
func GR4JInit() ([]float64, [][2]float64) {
	return []float64{350., 0., 90., 1.7},
		[][2]float64{{1., 1500.}, {-10., 5.}, {1., 500.}, {0.5, 10.}}
}

// GR4J runs the four-parameter daily rainfall-runoff model over the forcing,
// returning discharge [mm/d]. Stores start half full. A production or routing
// store leaving its physical range, or any non-finite intermediate, aborts the
// simulation with an InstabilityError.
func GR4J(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error) {
	if len(params) != 4 {
		return nil, hydro.Configf(" climate.GR4J: expected 4 params, got %d", len(params))
	}
	x1, x2, x3, x4 := params[0], params[1], params[2], params[3]
	switch {
	case x1 <= 0.:
		return nil, hydro.Configf(" climate.GR4J: production store capacity x1 = %f must be positive", x1)
	case x3 <= 0.:
		return nil, hydro.Configf(" climate.GR4J: routing store capacity x3 = %f must be positive", x3)
	case x4 < 0.5:
		return nil, hydro.Configf(" climate.GR4J: unit-hydrograph time base x4 = %f must be at least 0.5", x4)
	}

	uh1, uh2 := unitHydrographs(x4)
	h1, h2 := make([]float64, len(uh1)), make([]float64, len(uh2))

	s, r := x1/2., x3/2. // production and routing stores [mm]
	q := make([]float64, d.Nt())

	for t := 0; t < d.Nt(); t++ {
		var pr float64
		s, pr = updateProduction(s, d.Precipitation[t], d.PET[t], x1)

		// convolve 90% of effective rainfall through the slow hydrograph into
		// the routing store, 10% through the fast hydrograph to the outlet
		shift(h1, uh1, 0.9*pr)
		shift(h2, uh2, 0.1*pr)
		q9, q1 := h1[0], h2[0]

		f := x2 * math.Pow(r/x3, 3.5) // groundwater exchange [mm/d]

		r = math.Max(r+q9+f, 1e-3*x3)
		qr := r * (1. - math.Pow(1.+pow4(r/x3), -0.25))
		r -= qr

		qd := math.Max(q1+f, 0.)
		q[t] = math.Max(qr+qd, 0.)

		const tol = 1e-9 // roundoff allowance on the store invariants
		if s < -tol || s > x1+tol || math.IsNaN(s) ||
			r < -tol || r > x3+tol || math.IsNaN(r) || math.IsInf(q[t], 0) || math.IsNaN(q[t]) {
			return nil, hydro.Instabilityf(" climate.GR4J: store invariant violated at step %d (S = %f of %f, R = %f of %f, Q = %f)",
				t, s, x1, r, x3, q[t])
		}
	}

	return q, nil
}

// updateProduction applies interception, store recharge or store evaporation,
// then percolation, returning the new store level and the water routed onward.
func updateProduction(s, p, pet, x1 float64) (float64, float64) {
	var ps, pn float64 // store recharge, net rainfall
	switch {
	case p > pet:
		pn = p - pet
		sr, tw := s/x1, math.Tanh(pn/x1)
		ps = x1 * (1. - sr*sr) * tw / (1. + sr*tw)
		s += ps
	case p < pet:
		en := pet - p
		sr, tw := s/x1, math.Tanh(en/x1)
		es := s * (2. - sr) * tw / (1. + (1.-sr)*tw)
		s -= es
	}

	var perc float64
	if s > 0. {
		perc = s * (1. - math.Pow(1.+pow4(4./21.*s/x1), -0.25))
		s -= perc
	}

	return s, pn - ps + perc
}

// unitHydrographs returns the ordinates of the twin S-curve hydrographs, the
// first spanning x4 days, the second 2·x4.
func unitHydrographs(x4 float64) ([]float64, []float64) {
	s1 := func(i float64) float64 {
		switch {
		case i <= 0.:
			return 0.
		case i >= x4:
			return 1.
		default:
			return math.Pow(i/x4, 1.25)
		}
	}
	s2 := func(i float64) float64 {
		switch {
		case i <= 0.:
			return 0.
		case i >= 2.*x4:
			return 1.
		case i < x4:
			return 0.5 * math.Pow(i/x4, 1.25)
		default:
			return 1. - 0.5*math.Pow(2.-i/x4, 1.25)
		}
	}

	n1, n2 := int(math.Ceil(x4)), int(math.Ceil(2.*x4))
	uh1, uh2 := make([]float64, n1), make([]float64, n2)
	for i := 1; i <= n1; i++ {
		uh1[i-1] = s1(float64(i)) - s1(float64(i)-1.)
	}
	for i := 1; i <= n2; i++ {
		uh2[i-1] = s2(float64(i)) - s2(float64(i)-1.)
	}
	return uh1, uh2
}

// shift moves the convolution buffer one step forward in time and spreads the
// day's input over the hydrograph ordinates.
func shift(h, uh []float64, v float64) {
	for i := 0; i < len(h)-1; i++ {
		h[i] = h[i+1] + v*uh[i]
	}
	h[len(h)-1] = v * uh[len(h)-1]
}

func pow4(x float64) float64 { x *= x; return x * x }
