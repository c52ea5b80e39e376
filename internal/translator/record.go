package translator

import (
	"time"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/kepler"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/transform"
)

// Reference frame names used in serialized records.
const (
	ReferenceFixed    = "FIXED"
	ReferenceInertial = "INERTIAL"
)

// TimeForm selects how sample times are written in a PropagationRecord.
type TimeForm int

const (
	// CartesianISO writes each time as an ISO-8601 UTC string.
	CartesianISO TimeForm = iota
	// CartesianEpoch writes each time as seconds since the record epoch.
	CartesianEpoch
)

// PropagationRecord is the serialized form of a propagation run. Cartesian
// is a flat list of [t, x, y, z, t, x, y, z, ...] with positions in meters.
type PropagationRecord struct {
	ReferenceFrame string `json:"referenceFrame" yaml:"referenceFrame"`
	Epoch          string `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	Cartesian      []any  `json:"cartesian" yaml:"cartesian"`
}

// ReferenceFrameName maps a frame to its record name.
func ReferenceFrameName(f transform.Frame) string {
	if f == transform.EarthFixed {
		return ReferenceFixed
	}
	return ReferenceInertial
}

const isoLayout = "2006-01-02T15:04:05.000Z"

// NewPropagationRecord flattens samples. With CartesianEpoch the record
// epoch is the first sample's instant.
func NewPropagationRecord(f transform.Frame, samples []Sample, form TimeForm) PropagationRecord {
	rec := PropagationRecord{
		ReferenceFrame: ReferenceFrameName(f),
		Cartesian:      make([]any, 0, 4*len(samples)),
	}
	if form == CartesianEpoch && len(samples) > 0 {
		rec.Epoch = samples[0].Instant.Time().Format(isoLayout)
	}
	for _, s := range samples {
		if form == CartesianEpoch {
			rec.Cartesian = append(rec.Cartesian, s.Instant.Sub(samples[0].Instant).Seconds())
		} else {
			rec.Cartesian = append(rec.Cartesian, s.Instant.Time().UTC().Format(isoLayout))
		}
		rec.Cartesian = append(rec.Cartesian, s.Position[0], s.Position[1], s.Position[2])
	}
	return rec
}

// KeplerianRecord is the serialized form of Keplerian elements. Angles are
// in radians, the semi-major axis in meters and mu in m³/s².
type KeplerianRecord struct {
	Epoch                         time.Time `json:"epoch" yaml:"epoch"`
	SemiMajorAxis                 float64   `json:"semiMajorAxis" yaml:"semiMajorAxis"`
	Eccentricity                  float64   `json:"eccentricity" yaml:"eccentricity"`
	Inclination                   float64   `json:"inclination" yaml:"inclination"`
	ArgumentOfPeriapsis           float64   `json:"argumentOfPeriapsis" yaml:"argumentOfPeriapsis"`
	RightAscensionOfAscendingNode float64   `json:"rightAscensionOfAscendingNode" yaml:"rightAscensionOfAscendingNode"`
	TrueAnomaly                   float64   `json:"trueAnomaly" yaml:"trueAnomaly"`
	GravitationalParameter        float64   `json:"gravitationalParameter" yaml:"gravitationalParameter"`
}

// NewKeplerianRecord copies k into its serialized form.
func NewKeplerianRecord(k kepler.Elements) KeplerianRecord {
	return KeplerianRecord{
		Epoch:                         k.Epoch.Time(),
		SemiMajorAxis:                 k.SemiMajorAxis,
		Eccentricity:                  k.Eccentricity,
		Inclination:                   k.Inclination,
		ArgumentOfPeriapsis:           k.ArgPerigee,
		RightAscensionOfAscendingNode: k.RAAN,
		TrueAnomaly:                   k.TrueAnomaly,
		GravitationalParameter:        k.Mu,
	}
}
