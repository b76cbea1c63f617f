// Package snow implements the CemaNeige elevation-band snow accumulation and
// melt module.
// Valery, A., V. Andreassian and C. Perrin, 2014. 'As simple as possible but
// not simpler': what is useful in a temperature-based snow-accounting routine?
// Part 2. Journal of Hydrology 517: 1176-1187.
package snow

import (
	"math"

	"github.com/antoinelb/hydro"
)

const (
	vmin = 0.1 // residual melt fraction under sparse cover
	tf   = 0.  // melt threshold temperature [deg C]
)

// CemaNeigeInit returns the default parameter set {ctg, kf, qnbv} and its
// calibration bounds: thermal-state weighting ctg [-], degree-day melt factor
// kf [mm/degC/d] and mean annual solid precipitation qnbv [mm/yr].
func CemaNeigeInit() ([]float64, [][2]float64) {
	return []float64{0.25, 3.74, 350.},
		[][2]float64{{0., 1.}, {0., 20.}, {50., 800.}}
}

// CemaNeige distributes basin-mean precipitation and temperature over the
// metadata's elevation bands, tracks per-band snowpack and thermal state, and
// returns the effective liquid water input (rainfall plus melt) [mm/d].
func CemaNeige(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error) {
	if len(params) != 3 {
		return nil, hydro.Configf(" snow.CemaNeige: expected 3 params, got %d", len(params))
	}
	ctg, kf, qnbv := params[0], params[1], params[2]
	if len(md.ElevationBands) == 0 {
		return nil, hydro.Configf(" snow.CemaNeige: metadata holds no elevation bands")
	}
	for t, p := range d.Precipitation {
		if p < 0. {
			return nil, hydro.Shapef(" snow.CemaNeige: negative precipitation %f at step %d", p, t)
		}
	}

	nl := len(md.ElevationBands)
	gThreshold := qnbv * 0.9 // snowpack depth of complete areal cover

	// elevation offsets and orographic precipitation weights (beta = 0 leaves
	// precipitation uniform across bands)
	const beta = 0.
	offsets, weights := make([]float64, nl), make([]float64, nl)
	wsum := 0.
	for i, z := range md.ElevationBands {
		offsets[i] = (z - md.MedianElevation) / 100.
		weights[i] = math.Exp(beta * (z - md.MedianElevation))
		wsum += weights[i]
	}

	snowpack := make([]float64, nl)  // water equivalent [mm], >= 0
	thermal := make([]float64, nl)   // smoothed cold content [deg C], <= 0
	layerTemp := make([]float64, nl) // per-band temperature [deg C]
	eff := make([]float64, d.Nt())

	for t := 0; t < d.Nt(); t++ {
		theta := temperatureGradient[(d.DayOfYear[t]-1)%365]
		totLiquid, totMelt := 0., 0.

		for i := 0; i < nl; i++ {
			tl := offsets[i]*theta + d.Temperature[t]
			layerTemp[i] = tl

			pl := d.Precipitation[t] * weights[i] / wsum

			// solid/liquid partition, linear between -1 and 3 deg C
			var fsolid float64
			switch {
			case tl > 3.:
				fsolid = 0.
			case tl < -1.:
				fsolid = 1.
			default:
				fsolid = 1. - (tl+1.)/4.
			}
			psolid := fsolid * pl
			totLiquid += pl - psolid
			snowpack[i] += psolid

			thermal[i] = math.Min(thermal[i]*ctg+tl*(1.-ctg), 0.)
		}

		for i := 0; i < nl; i++ {
			tl := layerTemp[i]

			potential := 0.
			if thermal[i] >= tf && tl > 0. {
				potential = math.Min(snowpack[i], (tl-tf)*kf)
			}

			// areal snow-cover fraction scales actual melt
			fnts := math.Min(snowpack[i]/gThreshold, 1.)
			melt := potential * (fnts*(1.-vmin) + vmin)
			snowpack[i] -= melt
			totMelt += melt
		}

		eff[t] = totLiquid + totMelt
	}

	return eff, nil
}

// daily temperature lapse rate applied to band elevation offsets [deg C/100m]
var temperatureGradient = [365]float64{
	-0.376, -0.374, -0.371, -0.368, -0.366, -0.363, -0.361, -0.358, -0.355,
	-0.353, -0.350, -0.348, -0.345, -0.343, -0.340, -0.337, -0.335, -0.332,
	-0.329, -0.327, -0.324, -0.321, -0.319, -0.316, -0.313, -0.311, -0.308,
	-0.305, -0.303, -0.300, -0.297, -0.295, -0.292, -0.289, -0.287, -0.284,
	-0.281, -0.279, -0.276, -0.273, -0.271, -0.268, -0.265, -0.263, -0.260,
	-0.262, -0.264, -0.266, -0.268, -0.270, -0.272, -0.274, -0.277, -0.279,
	-0.281, -0.283, -0.285, -0.287, -0.289, -0.291, -0.293, -0.295, -0.297,
	-0.299, -0.301, -0.303, -0.306, -0.308, -0.310, -0.312, -0.314, -0.316,
	-0.318, -0.320, -0.323, -0.326, -0.330, -0.333, -0.336, -0.339, -0.343,
	-0.346, -0.349, -0.352, -0.355, -0.359, -0.362, -0.365, -0.368, -0.372,
	-0.375, -0.378, -0.381, -0.385, -0.388, -0.391, -0.394, -0.397, -0.401,
	-0.404, -0.407, -0.410, -0.414, -0.417, -0.420, -0.420, -0.421, -0.421,
	-0.421, -0.422, -0.422, -0.422, -0.423, -0.423, -0.423, -0.424, -0.424,
	-0.424, -0.425, -0.425, -0.425, -0.426, -0.426, -0.426, -0.427, -0.427,
	-0.427, -0.428, -0.428, -0.428, -0.429, -0.429, -0.429, -0.430, -0.430,
	-0.428, -0.425, -0.423, -0.421, -0.419, -0.416, -0.414, -0.412, -0.410,
	-0.407, -0.405, -0.403, -0.401, -0.398, -0.396, -0.394, -0.392, -0.389,
	-0.387, -0.385, -0.383, -0.380, -0.378, -0.376, -0.374, -0.371, -0.369,
	-0.367, -0.365, -0.362, -0.360, -0.362, -0.365, -0.367, -0.369, -0.372,
	-0.374, -0.376, -0.379, -0.381, -0.383, -0.386, -0.388, -0.390, -0.393,
	-0.395, -0.397, -0.400, -0.402, -0.404, -0.407, -0.409, -0.411, -0.414,
	-0.416, -0.418, -0.421, -0.423, -0.425, -0.428, -0.430, -0.431, -0.431,
	-0.432, -0.433, -0.433, -0.434, -0.435, -0.435, -0.436, -0.436, -0.437,
	-0.438, -0.438, -0.439, -0.440, -0.440, -0.441, -0.442, -0.442, -0.443,
	-0.444, -0.444, -0.445, -0.445, -0.446, -0.447, -0.447, -0.448, -0.449,
	-0.449, -0.450, -0.448, -0.447, -0.445, -0.444, -0.442, -0.440, -0.439,
	-0.437, -0.435, -0.434, -0.432, -0.431, -0.429, -0.427, -0.426, -0.424,
	-0.423, -0.421, -0.419, -0.418, -0.416, -0.415, -0.413, -0.411, -0.410,
	-0.408, -0.406, -0.405, -0.403, -0.402, -0.400, -0.403, -0.405, -0.408,
	-0.411, -0.413, -0.416, -0.419, -0.421, -0.424, -0.427, -0.429, -0.432,
	-0.435, -0.437, -0.440, -0.443, -0.445, -0.448, -0.451, -0.453, -0.456,
	-0.459, -0.461, -0.464, -0.467, -0.469, -0.472, -0.475, -0.477, -0.480,
	-0.482, -0.483, -0.485, -0.486, -0.488, -0.490, -0.491, -0.493, -0.495,
	-0.496, -0.498, -0.499, -0.501, -0.503, -0.504, -0.506, -0.507, -0.509,
	-0.511, -0.512, -0.514, -0.515, -0.517, -0.519, -0.520, -0.522, -0.524,
	-0.525, -0.527, -0.528, -0.530, -0.526, -0.523, -0.519, -0.515, -0.512,
	-0.508, -0.504, -0.501, -0.497, -0.493, -0.490, -0.486, -0.482, -0.479,
	-0.475, -0.471, -0.468, -0.464, -0.460, -0.457, -0.453, -0.449, -0.446,
	-0.442, -0.438, -0.435, -0.431, -0.427, -0.424, -0.420, -0.417, -0.415,
	-0.412, -0.410, -0.407, -0.405, -0.402, -0.399, -0.397, -0.394, -0.392,
	-0.389, -0.386, -0.384, -0.381, -0.379,
}
