package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoinelb/hydro"
	"github.com/antoinelb/hydro/metrics"
)

// bowl is a smooth two-dimensional test objective with its minimum at (3, 5);
// returning the residual as a one-step "simulation" against a zero observation
// makes the RMSE score the bowl value itself.
func bowl(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error) {
	a, b := params[0]-3., params[1]-5.
	return []float64{a*a + b*b}, nil
}

var bowlBounds = [][2]float64{{0., 10.}, {0., 10.}}

func bowlInputs() (*hydro.Data, *hydro.Metadata, []float64) {
	d := &hydro.Data{
		Precipitation: []float64{0.},
		Temperature:   []float64{0.},
		PET:           []float64{0.},
		DayOfYear:     []int{1},
	}
	return d, &hydro.Metadata{Area: 1.}, []float64{0.}
}

func bowlConfig() Config {
	return Config{
		Objective:  metrics.Rmse,
		NComplexes: 3,
		KStop:      5,
		Pcento:     0.001,
		Peps:       1e-5,
		MaxEval:    2000,
		Seed:       42,
	}
}

func runToDone(t *testing.T, s *SCE, d *hydro.Data, md *hydro.Metadata, obs []float64) *Progress {
	t.Helper()
	for i := 0; i < 1000; i++ {
		prog, err := s.Step(d, md, obs)
		require.NoError(t, err)
		if prog.Done {
			return prog
		}
	}
	t.Fatal("run did not reach a terminal state")
	return nil
}

func TestSCEFindsBowlMinimum(t *testing.T) {
	d, md, obs := bowlInputs()
	s, err := NewWithModel(bowlConfig(), bowl, bowlBounds)
	require.NoError(t, err)
	require.NoError(t, s.Init(d, md, obs))

	prog := runToDone(t, s, d, md, obs)
	assert.True(t, prog.Done)
	assert.True(t, prog.State.Done())
	assert.LessOrEqual(t, prog.NEval, 3*bowlConfig().MaxEval, "budget overrun is bounded by one loop")
	assert.InDelta(t, 3., prog.Params[0], 0.1)
	assert.InDelta(t, 5., prog.Params[1], 0.1)
	assert.InDelta(t, 0., prog.Metrics.RMSE, 0.05)
}

func TestSCEReproducible(t *testing.T) {
	d, md, obs := bowlInputs()

	run := func() []*Progress {
		s, err := NewWithModel(bowlConfig(), bowl, bowlBounds)
		require.NoError(t, err)
		require.NoError(t, s.Init(d, md, obs))
		out := make([]*Progress, 5)
		for i := range out {
			out[i], err = s.Step(d, md, obs)
			require.NoError(t, err)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		assert.Equal(t, a[i].Params, b[i].Params, "loop %d", i)
		assert.Equal(t, a[i].NEval, b[i].NEval, "loop %d", i)
		assert.Equal(t, a[i].Metrics, b[i].Metrics, "loop %d", i)
	}
}

func TestSCEBestNeverWorsens(t *testing.T) {
	d, md, obs := bowlInputs()
	s, err := NewWithModel(bowlConfig(), bowl, bowlBounds)
	require.NoError(t, err)
	require.NoError(t, s.Init(d, md, obs))

	prev := math.Inf(1)
	for i := 0; i < 30; i++ {
		prog, err := s.Step(d, md, obs)
		require.NoError(t, err)
		score := prog.Metrics.Score(metrics.Rmse)
		assert.LessOrEqual(t, score, prev, "loop %d", i)
		prev = score
		if prog.Done {
			break
		}
	}
}

func TestSCETerminalStepIsIdempotent(t *testing.T) {
	d, md, obs := bowlInputs()
	s, err := NewWithModel(bowlConfig(), bowl, bowlBounds)
	require.NoError(t, err)
	require.NoError(t, s.Init(d, md, obs))

	final := runToDone(t, s, d, md, obs)
	nEval, loop := s.NEval(), final.Loop
	for i := 0; i < 3; i++ {
		again, err := s.Step(d, md, obs)
		require.NoError(t, err)
		assert.Equal(t, final.Params, again.Params)
		assert.Equal(t, nEval, again.NEval, "terminal steps must not evaluate")
		assert.Equal(t, loop, again.Loop)
		assert.Equal(t, nEval, s.NEval())
	}
}

func TestSCEToleratesUnstableCandidates(t *testing.T) {
	// candidates in the upper-right of the domain blow up; the optimum at
	// (3, 5) stays reachable
	unstable := func(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error) {
		if params[0] > 8. {
			return nil, hydro.Instabilityf(" store overflow at x = %f", params[0])
		}
		return bowl(params, d, md)
	}

	d, md, obs := bowlInputs()
	s, err := NewWithModel(bowlConfig(), unstable, bowlBounds)
	require.NoError(t, err)
	require.NoError(t, s.Init(d, md, obs))

	prog := runToDone(t, s, d, md, obs)
	assert.InDelta(t, 3., prog.Params[0], 0.1)
	assert.InDelta(t, 5., prog.Params[1], 0.1)
}

func TestSCEConfigValidation(t *testing.T) {
	var ce *hydro.ConfigError

	cfg := bowlConfig()
	cfg.Objective = "mse"
	_, err := NewWithModel(cfg, bowl, bowlBounds)
	assert.ErrorAs(t, err, &ce)

	cfg = bowlConfig()
	cfg.NComplexes = 0
	_, err = NewWithModel(cfg, bowl, bowlBounds)
	assert.ErrorAs(t, err, &ce)

	cfg = bowlConfig()
	_, err = NewWithModel(cfg, bowl, [][2]float64{{1., 1.}})
	assert.ErrorAs(t, err, &ce)

	_, err = NewWithModel(bowlConfig(), bowl, nil)
	assert.ErrorAs(t, err, &ce)
}

func TestSCEInitValidation(t *testing.T) {
	d, md, _ := bowlInputs()

	t.Run("step before init", func(t *testing.T) {
		s, err := NewWithModel(bowlConfig(), bowl, bowlBounds)
		require.NoError(t, err)
		_, err = s.Step(d, md, []float64{0.})
		var ce *hydro.ConfigError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("observation length mismatch", func(t *testing.T) {
		s, err := NewWithModel(bowlConfig(), bowl, bowlBounds)
		require.NoError(t, err)
		err = s.Init(d, md, []float64{0., 1.})
		var se *hydro.ShapeError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("degenerate observations", func(t *testing.T) {
		cfg := bowlConfig()
		cfg.Objective = metrics.Nse
		s, err := NewWithModel(cfg, bowl, bowlBounds)
		require.NoError(t, err)
		err = s.Init(d, md, []float64{0.}) // a single constant observation has no variance
		var de *hydro.DegenerateError
		assert.ErrorAs(t, err, &de)
	})
}
