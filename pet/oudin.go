// Package pet estimates potential evapotranspiration from temperature.
package pet

import (
	"math"

	"github.com/antoinelb/hydro"
)

const (
	gsc = 0.082 // solar constant [MJ m⁻² min⁻¹]
	rho = 1000. // water mass density [kg/m³]
)

// Oudin returns daily potential evapotranspiration [mm/d] from daily mean
// temperature [°C], day of year and latitude [°].
// Oudin, L. et al., 2005. Which potential evapotranspiration input for a lumped
// rainfall-runoff model? Journal of Hydrology 303(1-4): 290-306.
func Oudin(temperature []float64, dayOfYear []int, latitudeDeg float64) ([]float64, error) {
	if len(temperature) != len(dayOfYear) {
		return nil, hydro.Shapef(" pet.Oudin: temperature and day_of_year must have the same length (got %d and %d)",
			len(temperature), len(dayOfYear))
	}

	latRad := math.Pi * latitudeDeg / 180.
	ep := make([]float64, len(temperature))
	for t, tc := range temperature {
		lambda := 2.501 - 0.002361*tc // latent heat of vaporization [MJ/kg]
		doy := float64(dayOfYear[t])
		ds := 0.409 * math.Sin(2.*math.Pi/365.*doy-1.39)  // solar declination [rad]
		dr := 1. + 0.033*math.Cos(2.*math.Pi/365.*doy)    // inverse relative earth-sun distance
		omega := math.Acos(clamp(-math.Tan(latRad) * math.Tan(ds))) // sunset hour angle [rad]
		re := 24. * 60. / math.Pi * gsc * dr *
			(omega*math.Sin(latRad)*math.Sin(ds) + math.Cos(latRad)*math.Cos(ds)*math.Sin(omega)) // extraterrestrial radiation [MJ m⁻² d⁻¹]
		ep[t] = math.Max(re/(lambda*rho)*(tc+5.)/100.*1000., 0.)
	}
	return ep, nil
}

func clamp(x float64) float64 {
	if x < -1. {
		return -1.
	}
	if x > 1. {
		return 1.
	}
	return x
}
