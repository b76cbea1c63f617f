package snow

import (
	"testing"

	"github.com/antoinelb/hydro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta() *hydro.Metadata {
	return &hydro.Metadata{Area: 100., ElevationBands: []float64{300.}, MedianElevation: 300.}
}

func TestCemaNeige(t *testing.T) {
	params, bounds := CemaNeigeInit()
	require.Len(t, params, 3)
	require.Len(t, bounds, 3)

	t.Run("warm rain passes through", func(t *testing.T) {
		n := 10
		d := &hydro.Data{
			Precipitation: make([]float64, n),
			Temperature:   make([]float64, n),
			PET:           make([]float64, n),
			DayOfYear:     make([]int, n),
		}
		for i := 0; i < n; i++ {
			d.Precipitation[i] = 5.
			d.Temperature[i] = 15.
			d.DayOfYear[i] = 180 + i
		}
		eff, err := CemaNeige(params, d, testMeta())
		require.NoError(t, err)
		for i, v := range eff {
			assert.InDelta(t, 5., v, 1e-9, "step %d", i)
		}
	})

	t.Run("cold snowfall is stored then melted", func(t *testing.T) {
		n := 40
		d := &hydro.Data{
			Precipitation: make([]float64, n),
			Temperature:   make([]float64, n),
			PET:           make([]float64, n),
			DayOfYear:     make([]int, n),
		}
		for i := 0; i < n; i++ {
			d.DayOfYear[i] = 1 + i
			if i < 10 { // cold snowfall
				d.Precipitation[i] = 10.
				d.Temperature[i] = -10.
			} else { // dry thaw
				d.Temperature[i] = 10.
			}
		}
		eff, err := CemaNeige(params, d, testMeta())
		require.NoError(t, err)

		accumulated, released := 0., 0.
		for i, v := range eff {
			assert.GreaterOrEqual(t, v, 0., "step %d", i)
			if i < 10 {
				assert.Less(t, v, 1., "cold-period output should be near zero at step %d", i)
			}
			released += v
		}
		for _, p := range d.Precipitation {
			accumulated += p
		}
		assert.Greater(t, released, 0., "thaw should release melt water")
		assert.LessOrEqual(t, released, accumulated+1e-9, "melt cannot exceed stored snow")
	})

	t.Run("deterministic", func(t *testing.T) {
		d := &hydro.Data{
			Precipitation: []float64{4., 0., 8.},
			Temperature:   []float64{-3., 2., 6.},
			PET:           []float64{0., 0., 0.},
			DayOfYear:     []int{30, 31, 32},
		}
		a, err := CemaNeige(params, d, testMeta())
		require.NoError(t, err)
		b, err := CemaNeige(params, d, testMeta())
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("negative precipitation", func(t *testing.T) {
		d := &hydro.Data{
			Precipitation: []float64{-1.},
			Temperature:   []float64{0.},
			PET:           []float64{0.},
			DayOfYear:     []int{1},
		}
		_, err := CemaNeige(params, d, testMeta())
		var se *hydro.ShapeError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("wrong parameter count", func(t *testing.T) {
		d := &hydro.Data{
			Precipitation: []float64{1.},
			Temperature:   []float64{0.},
			PET:           []float64{0.},
			DayOfYear:     []int{1},
		}
		_, err := CemaNeige([]float64{0.25}, d, testMeta())
		var ce *hydro.ConfigError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("missing elevation bands", func(t *testing.T) {
		d := &hydro.Data{
			Precipitation: []float64{1.},
			Temperature:   []float64{0.},
			PET:           []float64{0.},
			DayOfYear:     []int{1},
		}
		_, err := CemaNeige(params, d, &hydro.Metadata{Area: 100.})
		var ce *hydro.ConfigError
		assert.ErrorAs(t, err, &ce)
	})
}
