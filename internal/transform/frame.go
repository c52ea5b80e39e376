package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

// ErrUnsupportedFrame is returned for any frame tag or value outside the
// supported set.
var ErrUnsupportedFrame = errors.New("coordinate system is not supported")

// Frame identifies the reference frame of a StateVector.
type Frame int

const (
	// Inertial is Earth-centred inertial (ECI). Positions from SGP4 are
	// reported in TEME and treated as this frame.
	Inertial Frame = iota + 1
	// EarthFixed is Earth-centred Earth-fixed (ECEF), rotating with the Earth.
	EarthFixed
)

// ParseFrame maps the textual tags "ECI" and "ECEF" to a Frame.
func ParseFrame(tag string) (Frame, error) {
	switch tag {
	case "ECI":
		return Inertial, nil
	case "ECEF":
		return EarthFixed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFrame, tag)
}

// Valid reports whether f is one of the defined frames.
func (f Frame) Valid() bool {
	return f == Inertial || f == EarthFixed
}

func (f Frame) String() string {
	switch f {
	case Inertial:
		return "ECI"
	case EarthFixed:
		return "ECEF"
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

// StateVector is a position (m) and optional velocity (m/s) in a frame at
// an instant.
type StateVector struct {
	Frame       Frame
	Instant     timesys.JulianDate
	Position    [3]float64
	Velocity    [3]float64
	HasVelocity bool
}

// Radius returns the position magnitude in meters.
func (s StateVector) Radius() float64 {
	return math.Sqrt(s.Position[0]*s.Position[0] + s.Position[1]*s.Position[1] + s.Position[2]*s.Position[2])
}

const (
	minValidRadius = 6200.0 * 1000.0
	maxValidRadius = 50000.0 * 1000.0
)

// ValidateState checks that a state is plausible for an Earth-orbiting
// satellite: finite components and a radius between 6200 km and 50000 km.
func ValidateState(s StateVector) bool {
	for _, c := range s.Position {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	if s.HasVelocity {
		for _, c := range s.Velocity {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	r := s.Radius()
	return r >= minValidRadius && r <= maxValidRadius
}
