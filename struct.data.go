package hydro

// Data holds aligned basin-mean daily forcing series.
type Data struct {
	Precipitation []float64 // [mm/d]
	Temperature   []float64 // [°C]
	PET           []float64 // [mm/d]
	DayOfYear     []int     // [1,366]
}

// NewData validates that all series share one length and that precipitation is
// physically plausible.
func NewData(precipitation, temperature, pet []float64, dayOfYear []int) (*Data, error) {
	n := len(precipitation)
	if len(temperature) != n || len(pet) != n || len(dayOfYear) != n {
		return nil, Shapef(" hydro.NewData: precipitation, temperature, pet and day_of_year must have the same length (got %d, %d, %d and %d)",
			n, len(temperature), len(pet), len(dayOfYear))
	}
	for t, p := range precipitation {
		if p < 0. {
			return nil, Shapef(" hydro.NewData: negative precipitation %f at step %d", p, t)
		}
	}
	for t, d := range dayOfYear {
		if d < 1 || d > 366 {
			return nil, Shapef(" hydro.NewData: day_of_year %d at step %d outside [1,366]", d, t)
		}
	}
	return &Data{precipitation, temperature, pet, dayOfYear}, nil
}

// Nt returns the number of time steps.
func (d *Data) Nt() int { return len(d.Precipitation) }
