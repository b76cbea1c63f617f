package climate

import (
	"math"

	"github.com/antoinelb/hydro"
)

// BucketInit returns the default parameter set {capacity, k} and its
// calibration bounds: storage capacity [mm] and linear recession
// coefficient [1/d].
func BucketInit() ([]float64, [][2]float64) {
	return []float64{200., 0.1},
		[][2]float64{{10., 2000.}, {0.001, 1.}}
}

// Bucket runs a single linear-reservoir model: precipitation fills the store,
// evaporation draws it down at the potential rate while water remains, spill
// above capacity and a linear drainage term leave as discharge [mm/d].
func Bucket(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error) {
	if len(params) != 2 {
		return nil, hydro.Configf(" climate.Bucket: expected 2 params, got %d", len(params))
	}
	cap_, k := params[0], params[1]
	switch {
	case cap_ <= 0.:
		return nil, hydro.Configf(" climate.Bucket: capacity = %f must be positive", cap_)
	case k <= 0. || k > 1.:
		return nil, hydro.Configf(" climate.Bucket: recession coefficient = %f outside (0,1]", k)
	}

	s := cap_ / 2.
	q := make([]float64, d.Nt())
	for t := 0; t < d.Nt(); t++ {
		s += d.Precipitation[t]
		s -= math.Min(d.PET[t], s)

		var spill float64
		if s > cap_ {
			spill = s - cap_
			s = cap_
		}
		drain := k * s
		s -= drain
		q[t] = math.Max(spill+drain, 0.)

		if s < 0. || s > cap_ || math.IsNaN(s) || math.IsNaN(q[t]) {
			return nil, hydro.Instabilityf(" climate.Bucket: store invariant violated at step %d (S = %f of %f)", t, s, cap_)
		}
	}
	return q, nil
}
