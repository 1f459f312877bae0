package domain

import "github.com/rotisserie/eris"

// ErrMissingColumn is returned when a required attribute or CSV column is absent.
var ErrMissingColumn = eris.New("missing required column")

// Sources is the outcome of loading the three input files. On failure every
// structure is empty but non-nil, Status is StatusDegraded, and Err/Failed
// describe the first failure.
type Sources struct {
	Provinces *ProvinceSet
	Faults    *FaultSet
	Events    *EventTable

	Status Status
	Failed string
	Err    error
}

// EmptySources returns the degraded result used when any source fails.
func EmptySources(keyProperty string, failed string, err error) Sources {
	return Sources{
		Provinces: EmptyProvinceSet(keyProperty),
		Faults:    EmptyFaultSet(),
		Events:    EmptyEventTable(),
		Status:    StatusDegraded,
		Failed:    failed,
		Err:       err,
	}
}
