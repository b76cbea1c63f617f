// Package model names the available climate and snow models and composes them
// into a single simulation function over one parameter vector.
package model

import (
	"github.com/antoinelb/hydro"
	"github.com/antoinelb/hydro/climate"
	"github.com/antoinelb/hydro/snow"
)

// SimulateFn maps a parameter vector and forcing to a discharge (or, for snow
// models, effective liquid input) series.
type SimulateFn func(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error)

// InitFn returns a model's default parameters and calibration bounds.
type InitFn func() ([]float64, [][2]float64)

// ClimateModels lists the registered rainfall-runoff models.
var ClimateModels = []string{"gr4j", "bucket"}

// SnowModels lists the registered snow modules.
var SnowModels = []string{"cemaneige"}

// Climate resolves a rainfall-runoff model by name.
func Climate(name string) (InitFn, SimulateFn, error) {
	switch name {
	case "gr4j":
		return climate.GR4JInit, climate.GR4J, nil
	case "bucket":
		return climate.BucketInit, climate.Bucket, nil
	default:
		return nil, nil, hydro.Configf(" model.Climate: unknown model '%s'. Valid options: gr4j, bucket", name)
	}
}

// Snow resolves a snow module by name.
func Snow(name string) (InitFn, SimulateFn, error) {
	switch name {
	case "cemaneige":
		return snow.CemaNeigeInit, snow.CemaNeige, nil
	default:
		return nil, nil, hydro.Configf(" model.Snow: unknown model '%s'. Valid options: cemaneige", name)
	}
}

// Compose resolves climateModel and the optional snowModel ("" for none) and
// returns the joint defaults, bounds and simulation function. With a snow
// module enabled, its parameters lead the vector and its effective liquid
// water output replaces precipitation in the climate model's forcing.
func Compose(climateModel, snowModel string) ([]float64, [][2]float64, SimulateFn, error) {
	cInit, cSim, err := Climate(climateModel)
	if err != nil {
		return nil, nil, nil, err
	}
	if snowModel == "" {
		defaults, bounds := cInit()
		return defaults, bounds, cSim, nil
	}

	sInit, sSim, err := Snow(snowModel)
	if err != nil {
		return nil, nil, nil, err
	}
	sDefaults, sBounds := sInit()
	cDefaults, cBounds := cInit()
	ns := len(sDefaults)

	defaults := append(append([]float64{}, sDefaults...), cDefaults...)
	bounds := append(append([][2]float64{}, sBounds...), cBounds...)

	sim := func(params []float64, d *hydro.Data, md *hydro.Metadata) ([]float64, error) {
		if len(params) != len(defaults) {
			return nil, hydro.Configf(" model.Compose: expected %d params, got %d", len(defaults), len(params))
		}
		eff, err := sSim(params[:ns], d, md)
		if err != nil {
			return nil, err
		}
		dd := &hydro.Data{
			Precipitation: eff,
			Temperature:   d.Temperature,
			PET:           d.PET,
			DayOfYear:     d.DayOfYear,
		}
		return cSim(params[ns:], dd, md)
	}
	return defaults, bounds, sim, nil
}
