// Package tle parses and formats NORAD two-line element sets and manages
// catalogs of them.
package tle

import (
	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

// LineLength is the fixed width of both TLE lines.
const LineLength = 69

// MeanElements are the SGP4 mean orbital elements encoded in a TLE, in the
// units the format uses. Values are immutable once parsed.
type MeanElements struct {
	CatalogNumber    int
	Classification   byte   // 'U', 'C' or 'S'
	Designator       string // international designator, e.g. "90068A"
	Epoch            timesys.JulianDate
	MeanMotionDot    float64 // first derivative of mean motion / 2, rev/day²
	MeanMotionDDot   float64 // second derivative of mean motion / 6, rev/day³
	BStar            float64 // drag term, 1/earth radii
	EphemerisType    int
	ElementSetNumber int

	Inclination   float64 // degrees, [0, 180]
	RAAN          float64 // degrees, [0, 360)
	Eccentricity  float64 // [0, 1)
	ArgPerigee    float64 // degrees, [0, 360)
	MeanAnomaly   float64 // degrees, [0, 360)
	MeanMotion    float64 // rev/day, > 0
	RevolutionNum int
}

// PeriodMinutes returns the orbital period implied by the mean motion.
func (m MeanElements) PeriodMinutes() float64 {
	return 1440.0 / m.MeanMotion
}
