package calib

import (
	"math"
	"math/rand"

	"github.com/maseology/glbopt"
	"github.com/maseology/mmaths"
	mrg63k3a "github.com/maseology/goRNG/MRG63k3a"

	"github.com/antoinelb/hydro"
	"github.com/antoinelb/hydro/metrics"
	"github.com/antoinelb/hydro/model"
)

// Quick runs one blocking Dynamically Dimensioned Search over the composed
// model's bounds and returns the best parameter set and its metrics, for
// one-shot calibrations that need neither per-loop reporting nor resumption.
// Tolson, B.A. and C.A. Shoemaker, 2007. Dynamically dimensioned search
// algorithm for computationally efficient watershed model calibration. Water
// Resources Research 43(1): 16pp.
func Quick(cfg Config, nSample int, d *hydro.Data, md *hydro.Metadata, obs []float64) ([]float64, metrics.Result, error) {
	defaults, bounds, sim, err := model.Compose(cfg.ClimateModel, cfg.SnowModel)
	if err != nil {
		return nil, metrics.Result{}, err
	}
	if _, err := metrics.ParseObjective(string(cfg.Objective)); err != nil {
		return nil, metrics.Result{}, err
	}
	if cfg.Transform == "" {
		cfg.Transform = metrics.None
	}
	if len(obs) != d.Nt() {
		return nil, metrics.Result{}, hydro.Shapef(" calib.Quick: observations and forcing must have the same length (got %d and %d)",
			len(obs), d.Nt())
	}
	if err := metrics.Check(obs, cfg.Transform, cfg.Objective); err != nil {
		return nil, metrics.Result{}, err
	}
	if nSample < 1 {
		return nil, metrics.Result{}, hydro.Configf(" calib.Quick: n_sample = %d must be positive", nSample)
	}

	toParams := func(u []float64) []float64 {
		x := make([]float64, len(bounds))
		for j, b := range bounds {
			x[j] = mmaths.LinearTransform(b[0], b[1], u[j])
		}
		return x
	}
	gen := func(u []float64) float64 {
		qsim, err := sim(toParams(u), d, md)
		if err != nil {
			return math.Inf(1)
		}
		res, err := metrics.Evaluate(obs, qsim, cfg.Transform)
		if err != nil {
			return math.Inf(1)
		}
		sc := res.Score(cfg.Objective)
		if math.IsNaN(sc) {
			return math.Inf(1)
		}
		return sc
	}

	rng := rand.New(mrg63k3a.New())
	rng.Seed(cfg.Seed)
	uFinal, _, _ := glbopt.DDS(len(defaults), nSample, rng, gen, true)

	params := toParams(uFinal)
	qsim, err := sim(params, d, md)
	if err != nil {
		return nil, metrics.Result{}, hydro.Instabilityf(" calib.Quick: best parameter set failed to simulate: %v", err)
	}
	res, err := metrics.Evaluate(obs, qsim, cfg.Transform)
	if err != nil {
		return nil, metrics.Result{}, err
	}
	return params, res, nil
}
