package propagation

import "math"

// Lunar-solar theory constants.
const (
	zes    = 0.01675
	zel    = 0.05490
	zns    = 1.19459e-5
	znl    = 1.5835218e-4
	c1ss   = 2.9864797e-6
	c1l    = 4.7968065e-7
	zsinis = 0.39785416
	zcosis = 0.91744867
	zcosgs = 0.1945905
	zsings = -0.98088458

	// rptim is Earth's rotation rate in rad/min.
	rptim = 4.37526908801129966e-3
)

// deepSpace holds the SDP4 terms: lunar-solar periodic coefficients,
// lunar-solar secular rates and, for resonant orbits, the resonance
// integrator coefficients.
type deepSpace struct {
	// Solar periodics.
	se2, se3, si2, si3, sl2, sl3, sl4 float64
	sgh2, sgh3, sgh4, sh2, sh3        float64
	// Lunar periodics.
	ee2, e3, xi2, xi3, xl2, xl3, xl4 float64
	xgh2, xgh3, xgh4, xh2, xh3       float64
	zmol, zmos                       float64

	dedt, didt, dmdt, domdt, dnodt float64

	irez int

	// Half-day resonance.
	d2201, d2211, d3210, d3222, d4410 float64
	d4422, d5220, d5232, d5421, d5433 float64
	// One-day resonance.
	del1, del2, del3 float64

	xlamo, xfact float64
}

// dscomState carries the intermediate dscom quantities dsinit needs.
type dscomState struct {
	sinim, cosim, emsq, nm, em float64

	s1, s2, s3, s4, s5      float64
	ss1, ss2, ss3, ss4, ss5 float64

	z1, z3, z11, z13, z21, z23, z31, z33        float64
	sz1, sz3, sz11, sz13, sz21, sz23, sz31, sz33 float64
}

func newDeepSpace(s *SGP4, epoch, xpidot, eccsq float64) *deepSpace {
	d := &deepSpace{}
	st := d.dscom(epoch, s.ecco, s.argpo, 0, s.inclo, s.nodeo, s.no)
	d.dsinit(s, st, xpidot, eccsq)
	return d
}

// dscom computes the lunar and solar perturbation coefficients.
func (d *deepSpace) dscom(epoch, ep, argpp, tc, inclp, nodep, np float64) dscomState {
	var st dscomState
	st.nm = np
	st.em = ep
	snodm, cnodm := math.Sincos(nodep)
	sinomm, cosomm := math.Sincos(argpp)
	st.sinim, st.cosim = math.Sincos(inclp)
	st.emsq = st.em * st.em
	betasq := 1 - st.emsq
	rtemsq := math.Sqrt(betasq)

	// Initialize lunar-solar terms.
	day := epoch + 18261.5 + tc/1440.0
	xnodce := math.Mod(4.5236020-9.2422029e-4*day, twoPi)
	stem, ctem := math.Sincos(xnodce)
	zcosil := 0.91375164 - 0.03568096*ctem
	zsinil := math.Sqrt(1 - zcosil*zcosil)
	zsinhl := 0.089683511 * stem / zsinil
	zcoshl := math.Sqrt(1 - zsinhl*zsinhl)
	gam := 5.8351514 + 0.0019443680*day
	zx := 0.39785416 * stem / zsinil
	zy := zcoshl*ctem + 0.91744867*zsinhl*stem
	zx = math.Atan2(zx, zy)
	zx = gam + zx - xnodce
	zsingl, zcosgl := math.Sincos(zx)

	// Solar pass first, then lunar.
	zcosg, zsing := zcosgs, zsings
	zcosi, zsini := zcosis, zsinis
	zcosh, zsinh := cnodm, snodm
	cc := c1ss
	xnoi := 1.0 / st.nm

	var s1, s2, s3, s4, s5, s6, s7 float64
	var z1, z2, z3, z11, z12, z13, z21, z22, z23, z31, z32, z33 float64
	var ss6, ss7, sz2, sz12, sz22, sz32 float64

	for lsflg := 1; lsflg <= 2; lsflg++ {
		a1 := zcosg*zcosh + zsing*zcosi*zsinh
		a3 := -zsing*zcosh + zcosg*zcosi*zsinh
		a7 := -zcosg*zsinh + zsing*zcosi*zcosh
		a8 := zsing * zsini
		a9 := zsing*zsinh + zcosg*zcosi*zcosh
		a10 := zcosg * zsini
		a2 := st.cosim*a7 + st.sinim*a8
		a4 := st.cosim*a9 + st.sinim*a10
		a5 := -st.sinim*a7 + st.cosim*a8
		a6 := -st.sinim*a9 + st.cosim*a10

		x1 := a1*cosomm + a2*sinomm
		x2 := a3*cosomm + a4*sinomm
		x3 := -a1*sinomm + a2*cosomm
		x4 := -a3*sinomm + a4*cosomm
		x5 := a5 * sinomm
		x6 := a6 * sinomm
		x7 := a5 * cosomm
		x8 := a6 * cosomm

		z31 = 12*x1*x1 - 3*x3*x3
		z32 = 24*x1*x2 - 6*x3*x4
		z33 = 12*x2*x2 - 3*x4*x4
		z1 = 3*(a1*a1+a2*a2) + z31*st.emsq
		z2 = 6*(a1*a3+a2*a4) + z32*st.emsq
		z3 = 3*(a3*a3+a4*a4) + z33*st.emsq
		z11 = -6*a1*a5 + st.emsq*(-24*x1*x7-6*x3*x5)
		z12 = -6*(a1*a6+a3*a5) + st.emsq*(-24*(x2*x7+x1*x8)-6*(x3*x6+x4*x5))
		z13 = -6*a3*a6 + st.emsq*(-24*x2*x8-6*x4*x6)
		z21 = 6*a2*a5 + st.emsq*(24*x1*x5-6*x3*x7)
		z22 = 6*(a4*a5+a2*a6) + st.emsq*(24*(x2*x5+x1*x6)-6*(x4*x7+x3*x8))
		z23 = 6*a4*a6 + st.emsq*(24*x2*x6-6*x4*x8)
		z1 = z1 + z1 + betasq*z31
		z2 = z2 + z2 + betasq*z32
		z3 = z3 + z3 + betasq*z33
		s3 = cc * xnoi
		s2 = -0.5 * s3 / rtemsq
		s4 = s3 * rtemsq
		s1 = -15 * st.em * s4
		s5 = x1*x3 + x2*x4
		s6 = x2*x3 + x1*x4
		s7 = x2*x4 - x1*x3

		if lsflg == 1 {
			st.ss1, st.ss2, st.ss3, st.ss4, st.ss5 = s1, s2, s3, s4, s5
			ss6, ss7 = s6, s7
			st.sz1, sz2, st.sz3 = z1, z2, z3
			st.sz11, sz12, st.sz13 = z11, z12, z13
			st.sz21, sz22, st.sz23 = z21, z22, z23
			st.sz31, sz32, st.sz33 = z31, z32, z33
			zcosg, zsing = zcosgl, zsingl
			zcosi, zsini = zcosil, zsinil
			zcosh = zcoshl*cnodm + zsinhl*snodm
			zsinh = snodm*zcoshl - cnodm*zsinhl
			cc = c1l
		}
	}

	d.zmol = math.Mod(4.7199672+0.22997150*day-gam, twoPi)
	d.zmos = math.Mod(6.2565837+0.017201977*day, twoPi)

	d.se2 = 2 * st.ss1 * ss6
	d.se3 = 2 * st.ss1 * ss7
	d.si2 = 2 * st.ss2 * sz12
	d.si3 = 2 * st.ss2 * (st.sz13 - st.sz11)
	d.sl2 = -2 * st.ss3 * sz2
	d.sl3 = -2 * st.ss3 * (st.sz3 - st.sz1)
	d.sl4 = -2 * st.ss3 * (-21 - 9*st.emsq) * zes
	d.sgh2 = 2 * st.ss4 * sz32
	d.sgh3 = 2 * st.ss4 * (st.sz33 - st.sz31)
	d.sgh4 = -18 * st.ss4 * zes
	d.sh2 = -2 * st.ss2 * sz22
	d.sh3 = -2 * st.ss2 * (st.sz23 - st.sz21)

	d.ee2 = 2 * s1 * s6
	d.e3 = 2 * s1 * s7
	d.xi2 = 2 * s2 * z12
	d.xi3 = 2 * s2 * (z13 - z11)
	d.xl2 = -2 * s3 * z2
	d.xl3 = -2 * s3 * (z3 - z1)
	d.xl4 = -2 * s3 * (-21 - 9*st.emsq) * zel
	d.xgh2 = 2 * s4 * z32
	d.xgh3 = 2 * s4 * (z33 - z31)
	d.xgh4 = -18 * s4 * zel
	d.xh2 = -2 * s2 * z22
	d.xh3 = -2 * s2 * (z23 - z21)

	st.s1, st.s2, st.s3, st.s4, st.s5 = s1, s2, s3, s4, s5
	st.z1, st.z3, st.z11, st.z13 = z1, z3, z11, z13
	st.z21, st.z23, st.z31, st.z33 = z21, z23, z31, z33
	return st
}

// dsinit sets the lunar-solar secular rates and, for orbits near the
// one-day or half-day commensurability, the resonance coefficients.
func (d *deepSpace) dsinit(s *SGP4, st dscomState, xpidot, eccsq float64) {
	const (
		q22    = 1.7891679e-6
		q31    = 2.1460748e-6
		q33    = 2.2123015e-7
		root22 = 1.7891679e-6
		root44 = 7.3636953e-9
		root54 = 2.1765803e-9
		root32 = 3.7393792e-7
		root52 = 1.1428639e-7

		// Inclinations within 3° of 0 or 180 lose the node terms.
		nodeGuard = 5.2359877e-2
	)

	nm, em, emsq := st.nm, st.em, st.emsq
	cosim, sinim := st.cosim, st.sinim
	inclm := s.inclo

	switch {
	case nm < 0.0052359877 && nm > 0.0034906585:
		d.irez = 1
	case nm >= 8.26e-3 && nm <= 9.24e-3 && em >= 0.5:
		d.irez = 2
	}

	// Solar secular terms.
	ses := st.ss1 * zns * st.ss5
	sis := st.ss2 * zns * (st.sz11 + st.sz13)
	sls := -zns * st.ss3 * (st.sz1 + st.sz3 - 14 - 6*emsq)
	sghs := st.ss4 * zns * (st.sz31 + st.sz33 - 6)
	shs := -zns * st.ss2 * (st.sz21 + st.sz23)
	if inclm < nodeGuard || inclm > math.Pi-nodeGuard {
		shs = 0
	}
	if sinim != 0 {
		shs /= sinim
	}
	sgs := sghs - cosim*shs

	// Lunar secular terms.
	d.dedt = ses + st.s1*znl*st.s5
	d.didt = sis + st.s2*znl*(st.z11+st.z13)
	d.dmdt = sls - znl*st.s3*(st.z1+st.z3-14-6*emsq)
	sghl := st.s4 * znl * (st.z31 + st.z33 - 6)
	shll := -znl * st.s2 * (st.z21 + st.z23)
	if inclm < nodeGuard || inclm > math.Pi-nodeGuard {
		shll = 0
	}
	d.domdt = sgs + sghl
	d.dnodt = shs
	if sinim != 0 {
		d.domdt -= cosim / sinim * shll
		d.dnodt += shll / sinim
	}

	if d.irez == 0 {
		return
	}

	theta := math.Mod(s.gsto, twoPi)
	aonv := math.Pow(nm/xke, x2o3)

	if d.irez == 2 {
		cosisq := cosim * cosim
		em = s.ecco
		emsq = eccsq
		eoc := em * emsq
		g201 := -0.306 - (em-0.64)*0.440

		var g211, g310, g322, g410, g422, g520, g521, g532, g533 float64
		if em <= 0.65 {
			g211 = 3.616 - 13.2470*em + 16.2900*emsq
			g310 = -19.302 + 117.3900*em - 228.4190*emsq + 156.5910*eoc
			g322 = -18.9068 + 109.7927*em - 214.6334*emsq + 146.5816*eoc
			g410 = -41.122 + 242.6940*em - 471.0940*emsq + 313.9530*eoc
			g422 = -146.407 + 841.8800*em - 1629.014*emsq + 1083.4350*eoc
			g520 = -532.114 + 3017.977*em - 5740.032*emsq + 3708.2760*eoc
		} else {
			g211 = -72.099 + 331.819*em - 508.738*emsq + 266.724*eoc
			g310 = -346.844 + 1582.851*em - 2415.925*emsq + 1246.113*eoc
			g322 = -342.585 + 1554.908*em - 2366.899*emsq + 1215.972*eoc
			g410 = -1052.797 + 4758.686*em - 7193.992*emsq + 3651.957*eoc
			g422 = -3581.690 + 16178.110*em - 24462.770*emsq + 12422.520*eoc
			if em > 0.715 {
				g520 = -5149.66 + 29936.92*em - 54087.36*emsq + 31324.56*eoc
			} else {
				g520 = 1464.74 - 4664.75*em + 3763.64*emsq
			}
		}
		if em < 0.7 {
			g533 = -919.22770 + 4988.6100*em - 9064.7700*emsq + 5542.21*eoc
			g521 = -822.71072 + 4568.6173*em - 8491.4146*emsq + 5337.524*eoc
			g532 = -853.66600 + 4690.2500*em - 8624.7700*emsq + 5341.4*eoc
		} else {
			g533 = -37995.780 + 161616.52*em - 229838.20*emsq + 109377.94*eoc
			g521 = -51752.104 + 218913.95*em - 309468.16*emsq + 146349.42*eoc
			g532 = -40023.880 + 170470.89*em - 242699.48*emsq + 115605.82*eoc
		}

		sini2 := sinim * sinim
		f220 := 0.75 * (1 + 2*cosim + cosisq)
		f221 := 1.5 * sini2
		f321 := 1.875 * sinim * (1 - 2*cosim - 3*cosisq)
		f322 := -1.875 * sinim * (1 + 2*cosim - 3*cosisq)
		f441 := 35 * sini2 * f220
		f442 := 39.3750 * sini2 * sini2
		f522 := 9.84375 * sinim * (sini2*(1-2*cosim-5*cosisq) + 0.33333333*(-2+4*cosim+6*cosisq))
		f523 := sinim * (4.92187512*sini2*(-2-4*cosim+10*cosisq) + 6.56250012*(1+2*cosim-3*cosisq))
		f542 := 29.53125 * sinim * (2 - 8*cosim + cosisq*(-12+8*cosim+10*cosisq))
		f543 := 29.53125 * sinim * (-2 - 8*cosim + cosisq*(12+8*cosim-10*cosisq))

		xno2 := nm * nm
		ainv2 := aonv * aonv
		temp1 := 3 * xno2 * ainv2
		temp := temp1 * root22
		d.d2201 = temp * f220 * g201
		d.d2211 = temp * f221 * g211
		temp1 *= aonv
		temp = temp1 * root32
		d.d3210 = temp * f321 * g310
		d.d3222 = temp * f322 * g322
		temp1 *= aonv
		temp = 2 * temp1 * root44
		d.d4410 = temp * f441 * g410
		d.d4422 = temp * f442 * g422
		temp1 *= aonv
		temp = temp1 * root52
		d.d5220 = temp * f522 * g520
		d.d5232 = temp * f523 * g532
		temp = 2 * temp1 * root54
		d.d5421 = temp * f542 * g521
		d.d5433 = temp * f543 * g533

		d.xlamo = math.Mod(s.mo+s.nodeo+s.nodeo-theta-theta, twoPi)
		d.xfact = s.mdot + d.dmdt + 2*(s.nodedot+d.dnodt-rptim) - s.no
		return
	}

	// One-day resonance.
	g200 := 1 + emsq*(-2.5+0.8125*emsq)
	g310 := 1 + 2*emsq
	g300 := 1 + emsq*(-6+6.60937*emsq)
	f220 := 0.75 * (1 + cosim) * (1 + cosim)
	f311 := 0.9375*sinim*sinim*(1+3*cosim) - 0.75*(1+cosim)
	f330 := 1 + cosim
	f330 = 1.875 * f330 * f330 * f330
	del1 := 3 * nm * nm * aonv * aonv
	d.del2 = 2 * del1 * f220 * g200 * q22
	d.del3 = 3 * del1 * f330 * g300 * q33 * aonv
	d.del1 = del1 * f311 * g310 * q31 * aonv
	d.xlamo = math.Mod(s.mo+s.nodeo+s.argpo-theta, twoPi)
	d.xfact = s.mdot + xpidot - rptim + d.dmdt + d.domdt + d.dnodt - s.no
}

// periodics applies the lunar-solar long-period perturbations, using the
// Lyddane form below 0.2 rad inclination.
func (d *deepSpace) periodics(t, ep, inclp, nodep, argpp, mp float64) (float64, float64, float64, float64, float64) {
	zm := d.zmos + zns*t
	zf := zm + 2*zes*math.Sin(zm)
	sinzf := math.Sin(zf)
	f2 := 0.5*sinzf*sinzf - 0.25
	f3 := -0.5 * sinzf * math.Cos(zf)
	ses := d.se2*f2 + d.se3*f3
	sis := d.si2*f2 + d.si3*f3
	sls := d.sl2*f2 + d.sl3*f3 + d.sl4*sinzf
	sghs := d.sgh2*f2 + d.sgh3*f3 + d.sgh4*sinzf
	shs := d.sh2*f2 + d.sh3*f3

	zm = d.zmol + znl*t
	zf = zm + 2*zel*math.Sin(zm)
	sinzf = math.Sin(zf)
	f2 = 0.5*sinzf*sinzf - 0.25
	f3 = -0.5 * sinzf * math.Cos(zf)
	sel := d.ee2*f2 + d.e3*f3
	sil := d.xi2*f2 + d.xi3*f3
	sll := d.xl2*f2 + d.xl3*f3 + d.xl4*sinzf
	sghl := d.xgh2*f2 + d.xgh3*f3 + d.xgh4*sinzf
	shll := d.xh2*f2 + d.xh3*f3

	pe := ses + sel
	pinc := sis + sil
	pl := sls + sll
	pgh := sghs + sghl
	ph := shs + shll

	inclp += pinc
	ep += pe
	sinip, cosip := math.Sincos(inclp)

	if inclp >= 0.2 {
		ph /= sinip
		pgh -= cosip * ph
		argpp += pgh
		nodep += ph
		mp += pl
		return ep, inclp, nodep, argpp, mp
	}

	// Lyddane modification.
	sinop, cosop := math.Sincos(nodep)
	alfdp := sinip * sinop
	betdp := sinip * cosop
	dalf := ph*cosop + pinc*cosip*sinop
	dbet := -ph*sinop + pinc*cosip*cosop
	alfdp += dalf
	betdp += dbet
	nodep = math.Mod(nodep, twoPi)
	xls := mp + argpp + cosip*nodep
	dls := pl + pgh - pinc*nodep*sinip
	xls += dls
	xnoh := nodep
	nodep = math.Atan2(alfdp, betdp)
	if math.Abs(xnoh-nodep) > math.Pi {
		if nodep < xnoh {
			nodep += twoPi
		} else {
			nodep -= twoPi
		}
	}
	mp += pl
	argpp = xls - mp - cosip*nodep
	return ep, inclp, nodep, argpp, mp
}

// secular applies the lunar-solar secular rates and integrates the
// resonance terms. Integration always restarts from epoch so a result
// depends only on t, never on earlier calls.
func (d *deepSpace) secular(s *SGP4, t, em, argpm, inclm, mm, nodem float64) (float64, float64, float64, float64, float64, float64) {
	const (
		fasx2 = 0.13130908
		fasx4 = 2.8843198
		fasx6 = 0.37448087
		g22   = 5.7686396
		g32   = 0.95240898
		g44   = 1.8014998
		g52   = 1.0508330
		g54   = 4.4108898
		stepp = 720.0
		stepn = -720.0
		step2 = 259200.0
	)

	theta := math.Mod(s.gsto+t*rptim, twoPi)
	em += d.dedt * t
	inclm += d.didt * t
	argpm += d.domdt * t
	nodem += d.dnodt * t
	mm += d.dmdt * t
	nm := s.no

	if d.irez == 0 {
		return em, argpm, inclm, mm, nodem, nm
	}

	atime := 0.0
	xni := s.no
	xli := d.xlamo
	delt := stepn
	if t > 0 {
		delt = stepp
	}

	var xndt, xldot, xnddt, ft float64
	for {
		if d.irez != 2 {
			xndt = d.del1*math.Sin(xli-fasx2) + d.del2*math.Sin(2*(xli-fasx4)) + d.del3*math.Sin(3*(xli-fasx6))
			xldot = xni + d.xfact
			xnddt = d.del1*math.Cos(xli-fasx2) + 2*d.del2*math.Cos(2*(xli-fasx4)) + 3*d.del3*math.Cos(3*(xli-fasx6))
			xnddt *= xldot
		} else {
			xomi := s.argpo + s.argpdot*atime
			x2omi := xomi + xomi
			x2li := xli + xli
			xndt = d.d2201*math.Sin(x2omi+xli-g22) + d.d2211*math.Sin(xli-g22) +
				d.d3210*math.Sin(xomi+xli-g32) + d.d3222*math.Sin(-xomi+xli-g32) +
				d.d4410*math.Sin(x2omi+x2li-g44) + d.d4422*math.Sin(x2li-g44) +
				d.d5220*math.Sin(xomi+xli-g52) + d.d5232*math.Sin(-xomi+xli-g52) +
				d.d5421*math.Sin(xomi+x2li-g54) + d.d5433*math.Sin(-xomi+x2li-g54)
			xldot = xni + d.xfact
			xnddt = d.d2201*math.Cos(x2omi+xli-g22) + d.d2211*math.Cos(xli-g22) +
				d.d3210*math.Cos(xomi+xli-g32) + d.d3222*math.Cos(-xomi+xli-g32) +
				d.d5220*math.Cos(xomi+xli-g52) + d.d5232*math.Cos(-xomi+xli-g52) +
				2*(d.d4410*math.Cos(x2omi+x2li-g44)+d.d4422*math.Cos(x2li-g44)+
					d.d5421*math.Cos(xomi+x2li-g54)+d.d5433*math.Cos(-xomi+x2li-g54))
			xnddt *= xldot
		}

		if math.Abs(t-atime) < stepp {
			ft = t - atime
			break
		}
		xli += xldot*delt + xndt*step2
		xni += xndt*delt + xnddt*step2
		atime += delt
	}

	nm = xni + xndt*ft + xnddt*ft*ft*0.5
	xl := xli + xldot*ft + xndt*ft*ft*0.5
	if d.irez != 1 {
		mm = xl - 2*nodem + 2*theta
	} else {
		mm = xl - nodem - argpm + theta
	}
	return em, argpm, inclm, mm, nodem, nm
}
