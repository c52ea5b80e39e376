package propagation

import (
	"math"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
)

// SGP4 propagates one element set with the SGP4 theory, switching to the
// SDP4 lunar-solar and resonance terms for periods of 225 minutes or more.
// It follows Vallado's 2006 revision ("improved" mode) with WGS-72.
//
// An SGP4 is immutable after NewSGP4 and safe for concurrent use.
type SGP4 struct {
	elements tle.MeanElements
	epoch    timesys.JulianDate

	// Mean elements at epoch in radians and rad/min; no is un-Kozai'd.
	bstar, ecco, inclo, nodeo, argpo, mo, no float64

	isimp bool // simplified drag, set for low perigee and all deep-space orbits

	a, eta                         float64
	cc1, cc4, cc5                  float64
	d2, d3, d4                     float64
	t2cof, t3cof, t4cof, t5cof     float64
	delmo, sinmao                  float64
	mdot, argpdot, nodedot, nodecf float64
	omgcof, xmcof                  float64
	con41, x1mth2, x7thm1          float64
	aycof, xlcof                   float64
	gsto                           float64

	deep *deepSpace
}

// NewSGP4 initializes the model for el. It fails with a *ModelError when
// the elements are outside the theory's domain, or a *DecayedError when
// the orbit is already below the surface at epoch.
func NewSGP4(el tle.MeanElements) (*SGP4, error) {
	s := &SGP4{
		elements: el,
		epoch:    el.Epoch,
		bstar:    el.BStar,
		ecco:     el.Eccentricity,
		inclo:    el.Inclination * deg2rad,
		nodeo:    el.RAAN * deg2rad,
		argpo:    el.ArgPerigee * deg2rad,
		mo:       el.MeanAnomaly * deg2rad,
		no:       el.MeanMotion * twoPi / minutesPerDay,
	}
	if s.ecco < 0 || s.ecco >= 1 {
		return nil, &ModelError{Code: CodeEccentricity}
	}
	if s.no <= 0 {
		return nil, &ModelError{Code: CodeMeanMotion}
	}

	s.init()
	if s.a*(1-s.ecco) < 1 {
		return nil, &ModelError{Code: CodeSubOrbital}
	}

	if _, err := s.Propagate(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SGP4) init() {
	const (
		ss     = 78.0/earthRadiusKm + 1.0
		qzms2t = (120.0 - 78.0) / earthRadiusKm
	)

	// Days since 1950 Jan 0.0 for the lunar-solar terms.
	epoch := s.epoch.DaysSince(jd1950)

	// Recover the original mean motion and semi-major axis from the
	// Kozai mean motion in the element set.
	eccsq := s.ecco * s.ecco
	omeosq := 1 - eccsq
	rteosq := math.Sqrt(omeosq)
	cosio := math.Cos(s.inclo)
	cosio2 := cosio * cosio

	ak := math.Pow(xke/s.no, x2o3)
	d1 := 0.75 * j2 * (3*cosio2 - 1) / (rteosq * omeosq)
	del := d1 / (ak * ak)
	adel := ak * (1 - del*del - del*(1.0/3.0+134*del*del/81.0))
	del = d1 / (adel * adel)
	s.no /= 1 + del

	ao := math.Pow(xke/s.no, x2o3)
	sinio := math.Sin(s.inclo)
	po := ao * omeosq
	con42 := 1 - 5*cosio2
	s.con41 = -con42 - cosio2 - cosio2
	posq := po * po
	rp := ao * (1 - s.ecco)

	s.gsto = timesys.GMST(s.epoch)
	s.a = ao
	s.isimp = rp < 220.0/earthRadiusKm+1.0

	// Atmospheric density parameter s and q0 adjusted for low perigee.
	sfour := ss
	qzms24 := math.Pow(qzms2t, 4)
	perige := (rp - 1) * earthRadiusKm
	if perige < 156 {
		sfour = perige - 78
		if perige < 98 {
			sfour = 20
		}
		qzms24 = math.Pow((120-sfour)/earthRadiusKm, 4)
		sfour = sfour/earthRadiusKm + 1
	}

	pinvsq := 1 / posq
	tsi := 1 / (ao - sfour)
	s.eta = ao * s.ecco * tsi
	etasq := s.eta * s.eta
	eeta := s.ecco * s.eta
	psisq := math.Abs(1 - etasq)
	coef := qzms24 * math.Pow(tsi, 4)
	coef1 := coef / math.Pow(psisq, 3.5)
	cc2 := coef1 * s.no * (ao*(1+1.5*etasq+eeta*(4+etasq)) +
		0.375*j2*tsi/psisq*s.con41*(8+3*etasq*(8+etasq)))
	s.cc1 = s.bstar * cc2
	cc3 := 0.0
	if s.ecco > 1e-4 {
		cc3 = -2 * coef * tsi * j3oj2 * s.no * sinio / s.ecco
	}
	s.x1mth2 = 1 - cosio2
	s.cc4 = 2 * s.no * coef1 * ao * omeosq *
		(s.eta*(2+0.5*etasq) + s.ecco*(0.5+2*etasq) -
			j2*tsi/(ao*psisq)*(-3*s.con41*(1-2*eeta+etasq*(1.5-0.5*eeta))+
				0.75*s.x1mth2*(2*etasq-eeta*(1+etasq))*math.Cos(2*s.argpo)))
	s.cc5 = 2 * coef1 * ao * omeosq * (1 + 2.75*(etasq+eeta) + eeta*etasq)

	// Secular rates from J2 and J4.
	cosio4 := cosio2 * cosio2
	temp1 := 1.5 * j2 * pinvsq * s.no
	temp2 := 0.5 * temp1 * j2 * pinvsq
	temp3 := -0.46875 * j4 * pinvsq * pinvsq * s.no
	s.mdot = s.no + 0.5*temp1*rteosq*s.con41 + 0.0625*temp2*rteosq*(13-78*cosio2+137*cosio4)
	s.argpdot = -0.5*temp1*con42 + 0.0625*temp2*(7-114*cosio2+395*cosio4) + temp3*(3-36*cosio2+49*cosio4)
	xhdot1 := -temp1 * cosio
	s.nodedot = xhdot1 + (0.5*temp2*(4-19*cosio2)+2*temp3*(3-7*cosio2))*cosio
	xpidot := s.argpdot + s.nodedot

	s.omgcof = s.bstar * cc3 * math.Cos(s.argpo)
	if s.ecco > 1e-4 {
		s.xmcof = -x2o3 * coef * s.bstar / eeta
	}
	s.nodecf = 3.5 * omeosq * xhdot1 * s.cc1
	s.t2cof = 1.5 * s.cc1
	s.aycof, s.xlcof = longPeriodCoefficients(sinio, cosio)
	cube := 1 + s.eta*math.Cos(s.mo)
	s.delmo = cube * cube * cube
	s.sinmao = math.Sin(s.mo)
	s.x7thm1 = 7*cosio2 - 1

	if twoPi/s.no >= deepSpacePeriod {
		s.isimp = true
		s.deep = newDeepSpace(s, epoch, xpidot, eccsq)
	}

	if !s.isimp {
		cc1sq := s.cc1 * s.cc1
		s.d2 = 4 * ao * tsi * cc1sq
		temp := s.d2 * tsi * s.cc1 / 3
		s.d3 = (17*ao + sfour) * temp
		s.d4 = 0.5 * temp * ao * tsi * (221*ao + 31*sfour) * s.cc1
		s.t3cof = s.d2 + 2*cc1sq
		s.t4cof = 0.25 * (3*s.d3 + s.cc1*(12*s.d2+10*cc1sq))
		s.t5cof = 0.2 * (3*s.d4 + 12*s.cc1*s.d3 + 6*s.d2*s.d2 + 15*cc1sq*(2*s.d2+cc1sq))
	}
}

// longPeriodCoefficients returns the J3 long-period coefficients. The
// 1 + cos i divisor is floored so retrograde equatorial orbits stay finite.
func longPeriodCoefficients(sini, cosi float64) (aycof, xlcof float64) {
	aycof = -0.5 * j3oj2 * sini
	den := 1 + cosi
	if math.Abs(den) <= 1.5e-12 {
		den = 1.5e-12
	}
	xlcof = -0.25 * j3oj2 * sini * (3 + 5*cosi) / den
	return aycof, xlcof
}

// Epoch returns the element set epoch.
func (s *SGP4) Epoch() timesys.JulianDate { return s.epoch }

// Elements returns the element set the model was built from.
func (s *SGP4) Elements() tle.MeanElements { return s.elements }

// DeepSpace reports whether the SDP4 lunar-solar terms are in use.
func (s *SGP4) DeepSpace() bool { return s.deep != nil }

// Resonance returns 0 for no resonance, 1 for one-day (geosynchronous)
// and 2 for half-day (Molniya-type) resonance.
func (s *SGP4) Resonance() int {
	if s.deep == nil {
		return 0
	}
	return s.deep.irez
}

// PropagateAt propagates to an absolute instant.
func (s *SGP4) PropagateAt(instant timesys.JulianDate) (TEMEState, error) {
	return s.Propagate(instant.Sub(s.epoch).Minutes())
}

// Propagate returns the TEME state tsince minutes after epoch.
func (s *SGP4) Propagate(tsince float64) (TEMEState, error) {
	state, mrt, code := s.propagate(tsince)
	switch code {
	case 0:
		return state, nil
	case codeDecayed:
		return TEMEState{}, &DecayedError{Minutes: tsince, Radius: mrt * earthRadiusKm}
	}
	return TEMEState{}, &ModelError{Code: code, Minutes: tsince}
}

func (s *SGP4) propagate(t float64) (TEMEState, float64, int) {
	// Secular gravity and atmospheric drag.
	xmdf := s.mo + s.mdot*t
	argpdf := s.argpo + s.argpdot*t
	nodedf := s.nodeo + s.nodedot*t
	argpm := argpdf
	mm := xmdf
	t2 := t * t
	nodem := nodedf + s.nodecf*t2
	tempa := 1 - s.cc1*t
	tempe := s.bstar * s.cc4 * t
	templ := s.t2cof * t2

	if !s.isimp {
		delomg := s.omgcof * t
		cube := 1 + s.eta*math.Cos(xmdf)
		delm := s.xmcof * (cube*cube*cube - s.delmo)
		temp := delomg + delm
		mm = xmdf + temp
		argpm = argpdf - temp
		t3 := t2 * t
		t4 := t3 * t
		tempa = tempa - s.d2*t2 - s.d3*t3 - s.d4*t4
		tempe += s.bstar * s.cc5 * (math.Sin(mm) - s.sinmao)
		templ += s.t3cof*t3 + t4*(s.t4cof+t*s.t5cof)
	}

	nm := s.no
	em := s.ecco
	inclm := s.inclo
	if s.deep != nil {
		em, argpm, inclm, mm, nodem, nm = s.deep.secular(s, t, em, argpm, inclm, mm, nodem)
	}

	if nm <= 0 {
		return TEMEState{}, 0, CodeMeanMotion
	}
	am := math.Pow(xke/nm, x2o3) * tempa * tempa
	nm = xke / math.Pow(am, 1.5)
	em -= tempe

	if em >= 1 || em < -0.001 {
		return TEMEState{}, 0, CodeEccentricity
	}
	if em < 1e-6 {
		em = 1e-6
	}
	mm += s.no * templ
	xlm := mm + argpm + nodem
	nodem = math.Mod(nodem, twoPi)
	argpm = math.Mod(argpm, twoPi)
	xlm = math.Mod(xlm, twoPi)
	mm = math.Mod(xlm-argpm-nodem, twoPi)

	// Lunar-solar periodics.
	ep, xincp, argpp, nodep, mp := em, inclm, argpm, nodem, mm
	sinip, cosip := math.Sincos(inclm)
	aycof, xlcof := s.aycof, s.xlcof
	con41, x1mth2, x7thm1 := s.con41, s.x1mth2, s.x7thm1
	if s.deep != nil {
		ep, xincp, nodep, argpp, mp = s.deep.periodics(t, ep, xincp, nodep, argpp, mp)
		if xincp < 0 {
			xincp = -xincp
			nodep += math.Pi
			argpp -= math.Pi
		}
		if ep < 0 || ep > 1 {
			return TEMEState{}, 0, CodePerturbedEcc
		}
		sinip, cosip = math.Sincos(xincp)
		aycof, xlcof = longPeriodCoefficients(sinip, cosip)
	}

	// Long-period periodics.
	axnl := ep * math.Cos(argpp)
	temp := 1 / (am * (1 - ep*ep))
	aynl := ep*math.Sin(argpp) + temp*aycof
	xl := mp + argpp + nodep + temp*xlcof*axnl

	// Kepler's equation in equinoctial form.
	u := math.Mod(xl-nodep, twoPi)
	eo1 := u
	tem5 := 9999.9
	var sineo1, coseo1 float64
	for ktr := 1; math.Abs(tem5) >= 1e-12 && ktr <= 10; ktr++ {
		sineo1, coseo1 = math.Sincos(eo1)
		tem5 = 1 - coseo1*axnl - sineo1*aynl
		tem5 = (u - aynl*coseo1 + axnl*sineo1 - eo1) / tem5
		if math.Abs(tem5) >= 0.95 {
			tem5 = math.Copysign(0.95, tem5)
		}
		eo1 += tem5
	}

	// Short-period preliminary quantities.
	ecose := axnl*coseo1 + aynl*sineo1
	esine := axnl*sineo1 - aynl*coseo1
	el2 := axnl*axnl + aynl*aynl
	pl := am * (1 - el2)
	if pl < 0 {
		return TEMEState{}, 0, CodeSemiLatus
	}
	rl := am * (1 - ecose)
	rdotl := math.Sqrt(am) * esine / rl
	rvdotl := math.Sqrt(pl) / rl
	betal := math.Sqrt(1 - el2)
	temp = esine / (1 + betal)
	sinu := am / rl * (sineo1 - aynl - axnl*temp)
	cosu := am / rl * (coseo1 - axnl + aynl*temp)
	su := math.Atan2(sinu, cosu)
	sin2u := (cosu + cosu) * sinu
	cos2u := 1 - 2*sinu*sinu
	temp = 1 / pl
	temp1 := 0.5 * j2 * temp
	temp2 := temp1 * temp

	if s.deep != nil {
		cosisq := cosip * cosip
		con41 = 3*cosisq - 1
		x1mth2 = 1 - cosisq
		x7thm1 = 7*cosisq - 1
	}

	// Short-period periodics.
	mrt := rl*(1-1.5*temp2*betal*con41) + 0.5*temp1*x1mth2*cos2u
	su -= 0.25 * temp2 * x7thm1 * sin2u
	xnode := nodep + 1.5*temp2*cosip*sin2u
	xinc := xincp + 1.5*temp2*cosip*sinip*cos2u
	mvt := rdotl - nm*temp1*x1mth2*sin2u/xke
	rvdot := rvdotl + nm*temp1*(x1mth2*cos2u+1.5*con41)/xke

	// Orientation vectors.
	sinsu, cossu := math.Sincos(su)
	snod, cnod := math.Sincos(xnode)
	sini, cosi := math.Sincos(xinc)
	xmx := -snod * cosi
	xmy := cnod * cosi
	ux := xmx*sinsu + cnod*cossu
	uy := xmy*sinsu + snod*cossu
	uz := sini * sinsu
	vx := xmx*cossu - cnod*sinsu
	vy := xmy*cossu - snod*sinsu
	vz := sini * cossu

	state := TEMEState{
		Position: [3]float64{
			mrt * ux * earthRadiusKm,
			mrt * uy * earthRadiusKm,
			mrt * uz * earthRadiusKm,
		},
		Velocity: [3]float64{
			(mvt*ux + rvdot*vx) * vkmpersec,
			(mvt*uy + rvdot*vy) * vkmpersec,
			(mvt*uz + rvdot*vz) * vkmpersec,
		},
	}
	if mrt < 1 {
		return state, mrt, codeDecayed
	}
	return state, mrt, 0
}
