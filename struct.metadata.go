package hydro

// Metadata describes the basin. Elevation bands are only consulted when a snow
// module redistributes basin-mean temperature and precipitation; Area is used
// by callers to convert discharge volumes to specific discharge.
type Metadata struct {
	Area            float64   // [km²]
	ElevationBands  []float64 // band mean elevations [m]
	MedianElevation float64   // [m]
}
