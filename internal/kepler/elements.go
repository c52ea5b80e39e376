package kepler

import (
	"math"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/transform"
)

// Below these thresholds an orbit is treated as circular or equatorial and
// the undefined angles are folded into their neighbours.
const (
	circularEccentricity  = 5e-5
	equatorialInclination = 1e-6
)

// Elements is a set of classical orbital elements. Angles are in radians,
// the semi-major axis in meters.
type Elements struct {
	SemiMajorAxis    float64 `json:"semi_major_axis" yaml:"semi_major_axis"`
	Eccentricity     float64 `json:"eccentricity" yaml:"eccentricity"`
	Inclination      float64 `json:"inclination" yaml:"inclination"`
	ArgPerigee       float64 `json:"arg_perigee" yaml:"arg_perigee"`
	RAAN             float64 `json:"raan" yaml:"raan"`
	TrueAnomaly      float64 `json:"true_anomaly" yaml:"true_anomaly"`
	EccentricAnomaly float64 `json:"eccentric_anomaly" yaml:"eccentric_anomaly"`
	MeanAnomaly      float64 `json:"mean_anomaly" yaml:"mean_anomaly"`
	Mu               float64 `json:"mu" yaml:"mu"`

	Epoch timesys.JulianDate `json:"epoch" yaml:"epoch"`
}

// FromMeanElements builds Keplerian elements at the element set epoch. The
// semi-major axis comes from the mean motion by Kepler's third law.
func FromMeanElements(el tle.MeanElements, mu float64) (Elements, error) {
	const deg = math.Pi / 180

	M := normalizeAngle(el.MeanAnomaly * deg)
	E, err := SolveEccentricAnomaly(M, el.Eccentricity)
	if err != nil {
		return Elements{}, err
	}
	return Elements{
		SemiMajorAxis:    SemiMajorAxis(el.MeanMotion, mu),
		Eccentricity:     el.Eccentricity,
		Inclination:      el.Inclination * deg,
		ArgPerigee:       el.ArgPerigee * deg,
		RAAN:             el.RAAN * deg,
		TrueAnomaly:      EccentricToTrueAnomaly(E, el.Eccentricity),
		EccentricAnomaly: E,
		MeanAnomaly:      M,
		Mu:               mu,
		Epoch:            el.Epoch,
	}, nil
}

// SemiParameter returns p = a(1 - e²).
func (k Elements) SemiParameter() float64 {
	return k.SemiMajorAxis * (1 - k.Eccentricity*k.Eccentricity)
}

// Period returns the orbital period.
func (k Elements) Period() timesys.Duration {
	return timesys.Duration(2 * math.Pi * math.Sqrt(k.SemiMajorAxis*k.SemiMajorAxis*k.SemiMajorAxis/k.Mu))
}

// ArgLatitude returns u = ω + ν.
func (k Elements) ArgLatitude() float64 {
	return normalizeAngle(k.ArgPerigee + k.TrueAnomaly)
}

// TrueLongitude returns λ = Ω + ω + ν.
func (k Elements) TrueLongitude() float64 {
	return normalizeAngle(k.RAAN + k.ArgPerigee + k.TrueAnomaly)
}

// LongitudeOfPerigee returns ϖ = Ω + ω.
func (k Elements) LongitudeOfPerigee() float64 {
	return normalizeAngle(k.RAAN + k.ArgPerigee)
}

// Position returns the inertial position in meters.
func (k Elements) Position() [3]float64 {
	r, _ := k.StateVectors()
	return r
}

// StateVectors returns the inertial position (m) and velocity (m/s).
func (k Elements) StateVectors() (r, v [3]float64) {
	nu, argp, raan := k.TrueAnomaly, k.ArgPerigee, k.RAAN
	if k.Eccentricity < circularEccentricity {
		argp = 0
		if k.Inclination < equatorialInclination {
			raan = 0
			nu = k.TrueLongitude()
		} else {
			nu = k.ArgLatitude()
		}
	} else if k.Inclination < equatorialInclination {
		raan = 0
		argp = k.LongitudeOfPerigee()
	}

	p := k.SemiParameter()
	sinNu, cosNu := math.Sincos(nu)
	radius := p / (1 + k.Eccentricity*cosNu)
	speed := math.Sqrt(k.Mu / p)

	rot := transform.PerifocalToInertial(raan, k.Inclination, argp)
	r = transform.MulVec(rot, [3]float64{radius * cosNu, radius * sinNu, 0})
	v = transform.MulVec(rot, [3]float64{-speed * sinNu, speed * (k.Eccentricity + cosNu), 0})
	return r, v
}
