package hydro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewData(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := NewData([]float64{0., 3.}, []float64{1., 2.}, []float64{0.5, 0.6}, []int{1, 2})
		require.NoError(t, err)
		assert.Equal(t, 2, d.Nt())
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewData([]float64{0., 3.}, []float64{1.}, []float64{0.5, 0.6}, []int{1, 2})
		require.Error(t, err)
		var se *ShapeError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("negative precipitation", func(t *testing.T) {
		_, err := NewData([]float64{-1., 3.}, []float64{1., 2.}, []float64{0.5, 0.6}, []int{1, 2})
		var se *ShapeError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("day of year out of range", func(t *testing.T) {
		_, err := NewData([]float64{0., 3.}, []float64{1., 2.}, []float64{0.5, 0.6}, []int{0, 2})
		var se *ShapeError
		assert.ErrorAs(t, err, &se)
	})
}
