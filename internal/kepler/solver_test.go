package kepler

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func deg(x float64) float64 { return x * math.Pi / 180 }

func TestSolveEccentricAnomalyKnownValue(t *testing.T) {
	// Vallado, Fundamentals of Astrodynamics, example 2-1.
	E, err := SolveEccentricAnomaly(deg(235.4), 0.4)
	if err != nil {
		t.Fatal(err)
	}
	if want := deg(220.51207476752208); !scalar.EqualWithinAbs(E, want, 1e-12) {
		t.Errorf("E = %.15f, want %.15f", E, want)
	}
	if nu := EccentricToTrueAnomaly(E, 0.4); !scalar.EqualWithinAbs(nu, deg(207.16399176921396), 1e-12) {
		t.Errorf("ν = %.15f deg", nu*180/math.Pi)
	}
}

func TestSolveEccentricAnomalyResidual(t *testing.T) {
	eccs := []float64{1e-8, 0.001, 0.1, 0.5, 0.7, 0.9, 0.99, 0.999, 0.999999}
	for _, e := range eccs {
		for k := 0; k <= 720; k++ {
			M := deg(float64(k) * 0.5)
			E, err := SolveEccentricAnomaly(M, e)
			if err != nil {
				t.Fatalf("e=%g M=%g: %v", e, M, err)
			}
			if E < 0 || E >= 2*math.Pi {
				t.Fatalf("e=%g M=%g: E=%g outside [0, 2π)", e, M, E)
			}
			res := math.Remainder(E-e*math.Sin(E)-M, 2*math.Pi)
			if math.Abs(res) > 1e-12 {
				t.Errorf("e=%g M=%g: residual %.3e", e, M, res)
			}
		}
	}
}

func TestSolveEccentricAnomalyCircular(t *testing.T) {
	for _, M := range []float64{0, 1, math.Pi, 6} {
		E, err := SolveEccentricAnomaly(M, 0)
		if err != nil {
			t.Fatal(err)
		}
		if E != M {
			t.Errorf("E(%g, 0) = %g, want M exactly", M, E)
		}
		nu, err := TrueAnomaly(M, 0)
		if err != nil {
			t.Fatal(err)
		}
		if nu != M {
			t.Errorf("TrueAnomaly(%g, 0) = %g, want M exactly", M, nu)
		}
	}

	E, _ := SolveEccentricAnomaly(-math.Pi/2, 0)
	if !scalar.EqualWithinAbs(E, 1.5*math.Pi, 1e-15) {
		t.Errorf("negative M not normalized: %g", E)
	}
}

func TestSolveEccentricAnomalyRejects(t *testing.T) {
	tests := []struct {
		name string
		M, e float64
	}{
		{"negative e", 1, -0.1},
		{"parabolic", 1, 1},
		{"hyperbolic", 1, 1.5},
		{"NaN M", math.NaN(), 0.1},
		{"Inf M", math.Inf(1), 0.1},
		{"NaN e", 1, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveEccentricAnomaly(tt.M, tt.e)
			if !errors.Is(err, ErrConvergence) {
				t.Fatalf("want ErrConvergence, got %v", err)
			}
			var ce *ConvergenceError
			if !errors.As(err, &ce) {
				t.Fatalf("want *ConvergenceError, got %T", err)
			}
			if _, err := TrueAnomaly(tt.M, tt.e); err == nil {
				t.Error("TrueAnomaly accepted the same input")
			}
		})
	}
}

func TestTrueAnomalySymmetry(t *testing.T) {
	// ν(2π - M) = 2π - ν(M).
	for _, e := range []float64{0.1, 0.6, 0.95} {
		for _, M := range []float64{0.3, 1.2, 2.9} {
			a, _ := TrueAnomaly(M, e)
			b, _ := TrueAnomaly(2*math.Pi-M, e)
			if !scalar.EqualWithinAbs(a+b, 2*math.Pi, 1e-12) {
				t.Errorf("e=%g M=%g: ν=%g, mirrored %g", e, M, a, b)
			}
			if a <= M {
				t.Errorf("e=%g M=%g: true anomaly %g should lead mean anomaly before apogee", e, M, a)
			}
		}
	}
}

func TestSemiMajorAxis(t *testing.T) {
	tests := []struct {
		name string
		n    float64
		want float64
	}{
		{"GPS", 2.00562768, 26560421.626871265},
		{"ISS", 15.5, 6794863.069785199},
		{"GEO", 1.00273791, 42164169.6194718},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SemiMajorAxis(tt.n, EarthMu); !scalar.EqualWithinRel(got, tt.want, 1e-12) {
				t.Errorf("SemiMajorAxis(%g) = %.6f, want %.6f", tt.n, got, tt.want)
			}
		})
	}
}
