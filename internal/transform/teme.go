// Package transform converts SGP4 output from the TEME (True Equator Mean
// Equinox) frame into the inertial or Earth-fixed frame a caller asked for.
//
// The Earth-fixed transform is a Vallado-style rotation by GMST only
// (TEME → PEF ≈ ECEF). Polar motion and the equation of the equinoxes are
// ignored, which costs tens of meters at most. TEME itself is reported as
// ECI without the precession-nutation correction.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"fmt"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

const kmToM = 1000.0

// FromTEME converts a TEME state into frame f.
func FromTEME(f Frame, teme propagation.TEMEState, instant timesys.JulianDate) (StateVector, error) {
	switch f {
	case Inertial:
		return TEMEToECI(teme, instant), nil
	case EarthFixed:
		return TEMEToECEF(teme, instant), nil
	}
	return StateVector{}, fmt.Errorf("%w: %v", ErrUnsupportedFrame, f)
}

// TEMEToECI reports a TEME state as ECI, converting km to meters.
func TEMEToECI(teme propagation.TEMEState, instant timesys.JulianDate) StateVector {
	s := StateVector{Frame: Inertial, Instant: instant, HasVelocity: true}
	for i := 0; i < 3; i++ {
		s.Position[i] = teme.Position[i] * kmToM
		s.Velocity[i] = teme.Velocity[i] * kmToM
	}
	return s
}

// TEMEToECEF rotates a TEME state into ECEF at the given instant.
func TEMEToECEF(teme propagation.TEMEState, instant timesys.JulianDate) StateVector {
	s := TEMEToECEFWithGMST(teme, timesys.GMST(instant))
	s.Instant = instant
	return s
}

// TEMEToECEFWithGMST is TEMEToECEF with a precomputed GMST angle in
// radians, for callers converting many states at one instant.
//
// Position: r_ECEF = R3(θ)·r_TEME
// Velocity: v_ECEF = R3(θ)·v_TEME − ω × r_ECEF, with ω = [0, 0, ω⊕]
func TEMEToECEFWithGMST(teme propagation.TEMEState, gmst float64) StateVector {
	rot := R3(gmst)
	r := MulVec(rot, teme.Position)
	v := MulVec(rot, teme.Velocity)

	const omega = timesys.EarthRotationRate
	v[0] += omega * r[1]
	v[1] -= omega * r[0]

	s := StateVector{Frame: EarthFixed, HasVelocity: true}
	for i := 0; i < 3; i++ {
		s.Position[i] = r[i] * kmToM
		s.Velocity[i] = v[i] * kmToM
	}
	return s
}
