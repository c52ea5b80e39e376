// Package kepler converts between mean, eccentric and true anomaly and
// turns classical orbital elements into Cartesian state vectors.
//
// Everything here is a pure function of its arguments.
package kepler

import (
	"errors"
	"fmt"
	"math"
)

// EarthMu is Earth's gravitational parameter in m³/s².
const EarthMu = 3.986004419e14

const (
	maxIterations = 100
	tolerance     = 1e-14
	// maxStep bounds a single Newton correction. Without it the iteration
	// can cycle for e close to 1.
	maxStep = 1.0
)

// ErrConvergence is matched by ConvergenceError.
var ErrConvergence = errors.New("kepler equation did not converge")

// ConvergenceError reports a failed eccentric anomaly solve.
type ConvergenceError struct {
	MeanAnomaly  float64
	Eccentricity float64
	Iterations   int
	Reason       string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("kepler: M=%g e=%g: %s after %d iterations",
		e.MeanAnomaly, e.Eccentricity, e.Reason, e.Iterations)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrConvergence }

// SolveEccentricAnomaly solves M = E - e·sin(E) for E by Newton-Raphson.
// The result is in [0, 2π).
func SolveEccentricAnomaly(M, e float64) (float64, error) {
	if math.IsNaN(M) || math.IsInf(M, 0) || math.IsNaN(e) {
		return 0, &ConvergenceError{MeanAnomaly: M, Eccentricity: e, Reason: "non-finite input"}
	}
	if e < 0 || e >= 1 {
		return 0, &ConvergenceError{MeanAnomaly: M, Eccentricity: e, Reason: "eccentricity out of [0, 1)"}
	}
	if e == 0 {
		return normalizeAngle(M), nil
	}

	m := math.Remainder(M, 2*math.Pi)
	E := m
	for i := 1; i <= maxIterations; i++ {
		sinE, cosE := math.Sincos(E)
		dE := (E - e*sinE - m) / (1 - e*cosE)
		dE = math.Max(-maxStep, math.Min(maxStep, dE))
		E -= dE
		if math.Abs(dE) < tolerance {
			return normalizeAngle(E), nil
		}
	}
	return 0, &ConvergenceError{MeanAnomaly: M, Eccentricity: e, Iterations: maxIterations, Reason: "iteration cap reached"}
}

// EccentricToTrueAnomaly converts E to the true anomaly in [0, 2π).
func EccentricToTrueAnomaly(E, e float64) float64 {
	sinHalf, cosHalf := math.Sincos(E / 2)
	return normalizeAngle(2 * math.Atan2(math.Sqrt(1+e)*sinHalf, math.Sqrt(1-e)*cosHalf))
}

// TrueAnomaly returns the true anomaly for mean anomaly M.
func TrueAnomaly(M, e float64) (float64, error) {
	if e == 0 && !math.IsNaN(M) && !math.IsInf(M, 0) {
		return normalizeAngle(M), nil
	}
	E, err := SolveEccentricAnomaly(M, e)
	if err != nil {
		return 0, err
	}
	return EccentricToTrueAnomaly(E, e), nil
}

// SemiMajorAxis applies Kepler's third law to a mean motion in rev/day.
// The result is in meters when mu is in m³/s².
func SemiMajorAxis(meanMotionRevPerDay, mu float64) float64 {
	n := meanMotionRevPerDay * 2 * math.Pi / 86400.0
	return math.Cbrt(mu / (n * n))
}

func normalizeAngle(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	if x >= 2*math.Pi {
		x = 0
	}
	return x
}
