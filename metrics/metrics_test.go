package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoinelb/hydro"
)

func TestPerfectFit(t *testing.T) {
	obs := []float64{1., 4., 2., 8., 3., 0.5}
	for _, tr := range []Transform{None, Sqrt, Log} {
		t.Run(string(tr), func(t *testing.T) {
			rmse, err := RMSE(obs, obs, tr)
			require.NoError(t, err)
			assert.InDelta(t, 0., rmse, 1e-12)

			nse, err := NSE(obs, obs, tr)
			require.NoError(t, err)
			assert.InDelta(t, 1., nse, 1e-12)

			kge, err := KGE(obs, obs, tr)
			require.NoError(t, err)
			assert.InDelta(t, 1., kge, 1e-12)
		})
	}
}

func TestDegenerateObservations(t *testing.T) {
	constant := []float64{2., 2., 2., 2.}
	sim := []float64{1., 2., 3., 2.}

	rmse, err := RMSE(constant, sim, None)
	require.NoError(t, err, "RMSE stays defined on constant observations")
	assert.Greater(t, rmse, 0.)

	var de *hydro.DegenerateError
	_, err = NSE(constant, sim, None)
	assert.ErrorAs(t, err, &de)
	_, err = KGE(constant, sim, None)
	assert.ErrorAs(t, err, &de)

	zeros := []float64{0., 0., 0., 0.}
	assert.NoError(t, Check(sim, None, Kge))
	assert.Error(t, Check(zeros, None, Kge), "zero mean leaves the KGE bias ratio undefined")
	assert.Error(t, Check(nil, None, Rmse))
}

func TestTransforms(t *testing.T) {
	q := []float64{0., 1., 4.}
	assert.Equal(t, q, None.Apply(q))
	assert.Equal(t, []float64{0., 1., 2.}, Sqrt.Apply(q))
	lg := Log.Apply(q)
	assert.InDelta(t, 0., lg[0], 1e-15)
	assert.InDelta(t, math.Log(2.), lg[1], 1e-12)
	assert.InDelta(t, math.Log(5.), lg[2], 1e-12)

	// zero flows must survive the log transform
	for _, v := range Log.Apply([]float64{0., 0.}) {
		assert.False(t, math.IsInf(v, -1))
	}
}

func TestScoreNormalization(t *testing.T) {
	r := Result{RMSE: 0.7, NSE: 0.9, KGE: 0.8}
	assert.Equal(t, 0.7, r.Score(Rmse))
	assert.Equal(t, -0.9, r.Score(Nse), "higher-is-better metrics are negated for minimization")
	assert.Equal(t, -0.8, r.Score(Kge))
}

func TestEvaluate(t *testing.T) {
	obs := []float64{1., 3., 2., 5.}
	sim := []float64{1.2, 2.8, 2.1, 4.6}

	res, err := Evaluate(obs, sim, None)
	require.NoError(t, err)
	assert.Greater(t, res.RMSE, 0.)
	assert.Less(t, res.NSE, 1.)
	assert.Less(t, res.KGE, 1.)

	_, err = Evaluate(obs, sim[:3], None)
	var se *hydro.ShapeError
	assert.ErrorAs(t, err, &se)
}

func TestParse(t *testing.T) {
	o, err := ParseObjective("kge")
	require.NoError(t, err)
	assert.Equal(t, Kge, o)
	_, err = ParseObjective("mse")
	var ce *hydro.ConfigError
	assert.ErrorAs(t, err, &ce)

	tr, err := ParseTransform("sqrt")
	require.NoError(t, err)
	assert.Equal(t, Sqrt, tr)
	_, err = ParseTransform("boxcox")
	assert.ErrorAs(t, err, &ce)
}
