// Package metrics scores a simulated discharge series against observations
// under a chosen flow transform, and normalizes every metric to a
// minimization objective for the optimizer.
package metrics

import (
	"math"

	"github.com/maseology/objfunc"
	"gonum.org/v1/gonum/stat"

	"github.com/antoinelb/hydro"
)

// Objective selects the goodness-of-fit metric driving a calibration.
type Objective string

const (
	Rmse Objective = "rmse"
	Nse  Objective = "nse"
	Kge  Objective = "kge"
)

// ParseObjective maps a configuration string to an Objective.
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case Rmse, Nse, Kge:
		return Objective(s), nil
	default:
		return "", hydro.Configf(" metrics.ParseObjective: unknown objective '%s'. Valid options: rmse, nse, kge", s)
	}
}

// Transform is applied to both series before scoring to re-weight the flow
// regime: sqrt tempers peaks, log (log1p, so zero flows stay finite)
// emphasizes low flows.
type Transform string

const (
	None Transform = "none"
	Sqrt Transform = "sqrt"
	Log  Transform = "log"
)

// ParseTransform maps a configuration string to a Transform.
func ParseTransform(s string) (Transform, error) {
	switch Transform(s) {
	case None, Sqrt, Log:
		return Transform(s), nil
	default:
		return "", hydro.Configf(" metrics.ParseTransform: unknown transformation '%s'. Valid options: none, sqrt, log", s)
	}
}

// Apply returns the transformed copy of q.
func (tr Transform) Apply(q []float64) []float64 {
	out := make([]float64, len(q))
	switch tr {
	case Sqrt:
		for i, v := range q {
			out[i] = math.Sqrt(v)
		}
	case Log:
		for i, v := range q {
			out[i] = math.Log1p(v)
		}
	default:
		copy(out, q)
	}
	return out
}

// Result holds every reported metric for one simulation.
type Result struct{ RMSE, NSE, KGE, Bias float64 }

// Score returns the value the optimizer minimizes: RMSE as-is, NSE and KGE
// negated.
func (r Result) Score(o Objective) float64 {
	switch o {
	case Nse:
		return -r.NSE
	case Kge:
		return -r.KGE
	default:
		return r.RMSE
	}
}

// Check validates observations against the chosen objective and transform
// before any optimization starts: NSE needs observed variance, KGE observed
// variance and a non-zero observed mean.
func Check(obs []float64, tr Transform, o Objective) error {
	if len(obs) == 0 {
		return hydro.Shapef(" metrics.Check: empty observation series")
	}
	tobs := tr.Apply(obs)
	mean := stat.Mean(tobs, nil)
	sd := stat.PopStdDev(tobs, nil)
	switch o {
	case Nse:
		if sd == 0. {
			return hydro.Degeneratef(" metrics.Check: observed variance is zero, NSE is undefined")
		}
	case Kge:
		if sd == 0. {
			return hydro.Degeneratef(" metrics.Check: observed variance is zero, KGE is undefined")
		}
		if mean == 0. {
			return hydro.Degeneratef(" metrics.Check: observed mean is zero, KGE is undefined")
		}
	}
	return nil
}

// Evaluate computes all reported metrics of sim against obs under tr. Metrics
// undefined for the observation set come back NaN; use RMSE, NSE or KGE for
// the per-metric error behaviour.
func Evaluate(obs, sim []float64, tr Transform) (Result, error) {
	if len(obs) != len(sim) {
		return Result{}, hydro.Shapef(" metrics.Evaluate: observations and simulations must have the same length (got %d and %d)",
			len(obs), len(sim))
	}
	tobs, tsim := tr.Apply(obs), tr.Apply(sim)
	return Result{
		RMSE: objfunc.RMSE(tobs, tsim),
		NSE:  objfunc.NSE(tobs, tsim),
		KGE:  objfunc.KGE(tobs, tsim),
		Bias: objfunc.Bias(tobs, tsim),
	}, nil
}

// RMSE is the root-mean-square error of sim against obs under tr; lower is
// better.
func RMSE(obs, sim []float64, tr Transform) (float64, error) {
	if err := checkPair(obs, sim); err != nil {
		return 0., err
	}
	return objfunc.RMSE(tr.Apply(obs), tr.Apply(sim)), nil
}

// NSE is the Nash-Sutcliffe efficiency; higher is better, 1 is a perfect fit.
func NSE(obs, sim []float64, tr Transform) (float64, error) {
	if err := checkPair(obs, sim); err != nil {
		return 0., err
	}
	if err := Check(obs, tr, Nse); err != nil {
		return 0., err
	}
	return objfunc.NSE(tr.Apply(obs), tr.Apply(sim)), nil
}

// KGE is the Kling-Gupta efficiency; higher is better, 1 is a perfect fit.
func KGE(obs, sim []float64, tr Transform) (float64, error) {
	if err := checkPair(obs, sim); err != nil {
		return 0., err
	}
	if err := Check(obs, tr, Kge); err != nil {
		return 0., err
	}
	return objfunc.KGE(tr.Apply(obs), tr.Apply(sim)), nil
}

func checkPair(obs, sim []float64) error {
	if len(obs) != len(sim) {
		return hydro.Shapef(" metrics: observations and simulations must have the same length (got %d and %d)",
			len(obs), len(sim))
	}
	return nil
}
