package timesys

import "math"

// EarthRotationRate is Earth's mean angular velocity in rad/s.
const EarthRotationRate = 7.292115146706979e-5

// GMST returns Greenwich Mean Sidereal Time in radians, in [0, 2π).
// Uses the IAU-82 model as described in Vallado "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0 and the result is in
// seconds of time. UT1 is taken equal to UTC.
func GMST(j JulianDate) float64 {
	tUT1 := j.DaysSince(J2000) / 36525.0

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	gmstSec = math.Mod(gmstSec, secondsPerDay)
	if gmstSec < 0 {
		gmstSec += secondsPerDay
	}
	rad := gmstSec / secondsPerDay * 2.0 * math.Pi
	if rad >= 2*math.Pi {
		rad = 0
	}
	return rad
}
