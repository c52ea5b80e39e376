package propagation

import "math"

// WGS-72 gravity model, the constant set SGP4 element sets are fitted with.
const (
	earthRadiusKm = 6378.135 // km
	muKm3s2       = 398600.8 // km³/s²
	j2            = 0.001082616
	j3            = -0.00000253881
	j4            = -0.00000165597
	j3oj2         = j3 / j2
)

var (
	// xke is sqrt(μ) in earth radii^1.5 per minute.
	xke = 60.0 / math.Sqrt(earthRadiusKm*earthRadiusKm*earthRadiusKm/muKm3s2)
	// vkmpersec converts earth radii per minute to km/s.
	vkmpersec = earthRadiusKm * xke / 60.0
)

const (
	twoPi = 2 * math.Pi
	x2o3  = 2.0 / 3.0

	deg2rad = math.Pi / 180.0
	// minutesPerDay converts rev/day to rad/min together with 2π.
	minutesPerDay = 1440.0

	// deepSpacePeriod is the orbital period, in minutes, at or above which
	// the lunar-solar deep-space terms are applied.
	deepSpacePeriod = 225.0

	// jd1950 is the reference Julian Date for the lunar-solar theory.
	jd1950 = 2433281.5
)
