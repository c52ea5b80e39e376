package propagation

import "github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"

// TEMEState is an SGP4 position (km) and velocity (km/s) in the True
// Equator Mean Equinox frame.
type TEMEState struct {
	Position [3]float64
	Velocity [3]float64
}

// Result is the outcome of propagating to one instant.
type Result struct {
	Instant timesys.JulianDate
	State   TEMEState
	Err     error
}

// Propagator is anything that yields a TEME state for an instant.
type Propagator interface {
	PropagateAt(timesys.JulianDate) (TEMEState, error)
}
