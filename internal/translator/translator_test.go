package translator

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/transform"
)

const (
	navstarLine1 = "1 20724U 90068A   02173.73395695 -.00000086  00000-0  00000-0 0  1771"
	navstarLine2 = "2 20724  56.1487  21.0845 0183651 226.6216 131.8780  2.00562381 85500"

	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01"

	gpsLine1 = "1 28129U 03058A   06175.57071136 -.00000104  00000-0  10000-3 0   459"
	gpsLine2 = "2 28129  54.7298 324.8098 0048506 266.2640  93.1663  2.00562768 18443"

	decayLine1 = "1 99999U 24001A   24100.50000000  .00100000  00000-0  10000-1 0  9997"
	decayLine2 = "2 99999  51.6000 100.0000 0001000   0.0000   0.0000 16.00000000    19"
)

func mustDate(t *testing.T, year, month, day, hour, minute int) timesys.JulianDate {
	t.Helper()
	j, err := timesys.FromCalendar(year, month, day, hour, minute)
	if err != nil {
		t.Fatal(err)
	}
	return j
}

func mustNew(t *testing.T, line1, line2, frame string, opts ...Option) *Translator {
	t.Helper()
	tr, err := New(line1, line2, frame, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

// TestNavstarDay reproduces the classic one-day ECEF run for NAVSTAR 20724.
func TestNavstarDay(t *testing.T) {
	tr := mustNew(t, navstarLine1, navstarLine2, "ECEF")
	start := mustDate(t, 2015, 11, 26, 0, 0)
	stop := mustDate(t, 2015, 11, 27, 0, 0)

	samples, err := tr.Propagate(context.Background(), start, stop, timesys.Hour)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(samples) != 25 {
		t.Fatalf("got %d samples, want 25", len(samples))
	}
	if !samples[0].Instant.Equal(start) || !samples[24].Instant.Equal(stop) {
		t.Errorf("first/last = %v/%v, want %v/%v", samples[0].Instant, samples[24].Instant, start, stop)
	}
	for i, s := range samples {
		if s.Frame != transform.EarthFixed {
			t.Errorf("sample %d frame = %v", i, s.Frame)
		}
		if r := s.Radius() / 1000; r < 25500 || r > 27600 {
			t.Errorf("sample %d radius %.1f km outside GPS band", i, r)
		}
		if !transform.ValidateState(s) {
			t.Errorf("sample %d failed validation", i)
		}
		if i > 0 && s.Instant.Sub(samples[i-1].Instant) != timesys.Hour {
			t.Errorf("sample %d spacing %v", i, s.Instant.Sub(samples[i-1].Instant))
		}
	}
}

func TestFramesAgreeOnRadius(t *testing.T) {
	eci := mustNew(t, issLine1, issLine2, "ECI")
	ecef := mustNew(t, issLine1, issLine2, "ECEF")
	start := eci.Epoch()
	stop := start.Add(6 * timesys.Hour)

	a, err := eci.Propagate(context.Background(), start, stop, 10*timesys.Minute)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ecef.Propagate(context.Background(), start, stop, 10*timesys.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) || len(a) != 37 {
		t.Fatalf("lengths %d, %d", len(a), len(b))
	}
	for i := range a {
		if !scalar.EqualWithinRel(a[i].Radius(), b[i].Radius(), 1e-12) {
			t.Errorf("sample %d: radius %g vs %g", i, a[i].Radius(), b[i].Radius())
		}
		if a[i].Position[2] != b[i].Position[2] {
			t.Errorf("sample %d: z %g vs %g", i, a[i].Position[2], b[i].Position[2])
		}
		if a[i].Frame != transform.Inertial {
			t.Errorf("sample %d frame %v", i, a[i].Frame)
		}
	}
}

func TestPropagateStepValidation(t *testing.T) {
	tr := mustNew(t, issLine1, issLine2, "ECI")
	start := tr.Epoch()
	stop := start.Add(timesys.Hour)

	for _, step := range []timesys.Duration{0, -60, timesys.Duration(math.NaN()), timesys.Duration(math.Inf(1))} {
		_, err := tr.Propagate(context.Background(), start, stop, step)
		if !errors.Is(err, ErrInvalidStep) {
			t.Errorf("step %v: want ErrInvalidStep, got %v", step, err)
		}
	}
}

func TestPropagateWindowEdges(t *testing.T) {
	tr := mustNew(t, issLine1, issLine2, "ECI")
	start := tr.Epoch()

	samples, err := tr.Propagate(context.Background(), start, start.Add(-timesys.Second), timesys.Minute)
	if err != nil || samples == nil || len(samples) != 0 {
		t.Errorf("start after stop: got %d samples, err %v; want empty", len(samples), err)
	}

	samples, err = tr.Propagate(context.Background(), start, start, timesys.Minute)
	if err != nil || len(samples) != 1 {
		t.Errorf("start == stop: got %d samples, err %v; want 1", len(samples), err)
	}

	// A step that does not divide the window stops short of stop.
	samples, err = tr.Propagate(context.Background(), start, start.Add(25*timesys.Minute), 10*timesys.Minute)
	if err != nil || len(samples) != 3 {
		t.Fatalf("got %d samples, err %v; want 3", len(samples), err)
	}
	if got := samples[2].Instant.Sub(start); got != 20*timesys.Minute {
		t.Errorf("last offset %v, want 20 min", got)
	}
}

type countingRecorder struct {
	mu                  sync.Mutex
	ok, decayed, failed int
	calls               int
}

func (r *countingRecorder) ObserveSamples(ok, decayed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ok += ok
	r.decayed += decayed
	r.failed += failed
}

func (r *countingRecorder) ObservePropagation(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func TestPropagateDecayTruncates(t *testing.T) {
	rec := &countingRecorder{}
	tr := mustNew(t, decayLine1, decayLine2, "ECEF", WithMetrics(rec), WithWorkers(3))
	start := tr.Epoch()

	samples, err := tr.Propagate(context.Background(), start, start.Add(72*timesys.Hour), timesys.Hour)
	if !errors.Is(err, propagation.ErrDecayed) {
		t.Fatalf("want ErrDecayed, got %v", err)
	}
	var de *propagation.DecayedError
	if !errors.As(err, &de) {
		t.Fatalf("want *DecayedError, got %T", err)
	}
	if de.Minutes != 61*60 {
		t.Errorf("decayed at %g min, want 3660", de.Minutes)
	}
	if len(samples) != 61 {
		t.Fatalf("got %d samples before decay, want 61", len(samples))
	}
	if !samples[60].Instant.Equal(start.Add(60 * timesys.Hour)) {
		t.Errorf("last sample at %v", samples[60].Instant)
	}
	if rec.ok != 61 || rec.decayed != 12 || rec.failed != 0 || rec.calls != 1 {
		t.Errorf("recorder = %+v", rec)
	}
}

func TestPropagateCancelled(t *testing.T) {
	tr := mustNew(t, issLine1, issLine2, "ECI")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Propagate(ctx, tr.Epoch(), tr.Epoch().Add(timesys.Day), timesys.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestPropagateDeterministicAcrossWorkers(t *testing.T) {
	one := mustNew(t, gpsLine1, gpsLine2, "ECEF", WithWorkers(1))
	many := mustNew(t, gpsLine1, gpsLine2, "ECEF", WithWorkers(8))
	start := one.Epoch()
	stop := start.Add(2 * timesys.Day)

	a, err := one.Propagate(context.Background(), start, stop, 30*timesys.Minute)
	if err != nil {
		t.Fatal(err)
	}
	b, err := many.Propagate(context.Background(), start, stop, 30*timesys.Minute)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(issLine1, issLine2, "TOPO")
	if !errors.Is(err, transform.ErrUnsupportedFrame) {
		t.Errorf("frame: got %v", err)
	}

	bad := issLine1[:68] + "0"
	_, err = New(bad, issLine2, "ECI")
	var pe *tle.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, tle.ErrChecksum) {
		t.Errorf("checksum: got %v", err)
	}

	el, err := tle.ParseLines(issLine1, issLine2)
	if err != nil {
		t.Fatal(err)
	}
	el.MeanMotion = 17.5
	_, err = NewFromElements(el, transform.Inertial)
	var me *propagation.ModelError
	if !errors.As(err, &me) || me.Code != propagation.CodeSubOrbital {
		t.Errorf("sub-orbital: got %v", err)
	}

	_, err = NewFromElements(el, transform.Frame(9))
	if !errors.Is(err, transform.ErrUnsupportedFrame) {
		t.Errorf("bad frame value: got %v", err)
	}
}

func TestKeplerianElements(t *testing.T) {
	tr := mustNew(t, navstarLine1, navstarLine2, "ECEF")
	k, err := tr.KeplerianElements()
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(k.SemiMajorAxis, 26560455.79, 0.01) {
		t.Errorf("a = %.3f m", k.SemiMajorAxis)
	}
	if k.Eccentricity != 0.0183651 {
		t.Errorf("e = %g", k.Eccentricity)
	}
	if !scalar.EqualWithinAbs(k.Inclination, 56.1487*math.Pi/180, 1e-15) {
		t.Errorf("i = %g", k.Inclination)
	}
	if k.TrueAnomaly <= k.MeanAnomaly {
		t.Errorf("ν = %g should lead M = %g before apogee", k.TrueAnomaly, k.MeanAnomaly)
	}
	if !k.Epoch.Equal(tr.Epoch()) {
		t.Errorf("epoch %v, want %v", k.Epoch, tr.Epoch())
	}
}

// TestEpochRoundTrip compares the two-body position from the Keplerian
// elements with the SGP4 position at epoch. They differ by the short-period
// terms SGP4 adds.
func TestEpochRoundTrip(t *testing.T) {
	for _, lines := range [][2]string{
		{navstarLine1, navstarLine2},
		{issLine1, issLine2},
		{gpsLine1, gpsLine2},
	} {
		tr := mustNew(t, lines[0], lines[1], "ECI")
		k, err := tr.KeplerianElements()
		if err != nil {
			t.Fatal(err)
		}
		samples, err := tr.Propagate(context.Background(), tr.Epoch(), tr.Epoch(), timesys.Minute)
		if err != nil {
			t.Fatal(err)
		}
		got := samples[0]
		want := k.Position()

		d := floats.Distance(got.Position[:], want[:], 2)
		if d > 25e3 {
			t.Errorf("%05d: positions differ by %.1f km", tr.Elements().CatalogNumber, d/1000)
		}
		wantR := floats.Norm(want[:], 2)
		if dr := math.Abs(got.Radius() - wantR); dr > 1e3 {
			t.Errorf("%05d: radii differ by %.3f km", tr.Elements().CatalogNumber, dr/1000)
		}
	}
}

func TestInstants(t *testing.T) {
	start := mustDate(t, 2024, 1, 1, 0, 0)
	got, err := Instants(start, start.Add(timesys.Day), timesys.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 25 {
		t.Fatalf("got %d instants, want 25", len(got))
	}
	// Instants are computed from start, not by accumulation.
	if !got[24].Equal(start.Add(24 * timesys.Hour)) {
		t.Errorf("last instant %v", got[24])
	}
}

func TestInstantsRejectsDegenerateSteps(t *testing.T) {
	start := mustDate(t, 2015, 11, 26, 0, 0)

	_, err := Instants(start, start.Add(timesys.Day), timesys.Duration(1e-12))
	if !errors.Is(err, ErrTooManySamples) {
		t.Errorf("picosecond step over a day: want ErrTooManySamples, got %v", err)
	}

	// MaxSamples one-second steps need MaxSamples+1 instants.
	_, err = Instants(start, start.Add(timesys.Duration(MaxSamples)), 1)
	if !errors.Is(err, ErrTooManySamples) {
		t.Errorf("one past the cap: want ErrTooManySamples, got %v", err)
	}

	// At noon the seconds field is 43200, whose spacing is about 7.3e-12 s.
	noon := mustDate(t, 2015, 11, 26, 12, 0)
	stop := noon.Add(timesys.Duration(1e-11))
	if !stop.After(noon) {
		t.Fatal("stop must be one representable step after start")
	}
	_, err = Instants(noon, stop, timesys.Duration(3e-12))
	if !errors.Is(err, ErrInvalidStep) {
		t.Errorf("step below clock resolution: want ErrInvalidStep, got %v", err)
	}

	tr := mustNew(t, navstarLine1, navstarLine2, "ECEF")
	if _, err := tr.Propagate(context.Background(), start, start.Add(timesys.Day), timesys.Duration(1e-12)); !errors.Is(err, ErrTooManySamples) {
		t.Errorf("Propagate: want ErrTooManySamples, got %v", err)
	}
}

func TestNewFromModelSharesModel(t *testing.T) {
	el, err := tle.ParseLines(gpsLine1, gpsLine2)
	if err != nil {
		t.Fatal(err)
	}
	model, err := propagation.NewSGP4(el)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewFromModel(model, transform.Inertial)
	if err != nil {
		t.Fatal(err)
	}
	b := mustNew(t, gpsLine1, gpsLine2, "ECI")

	sa, err := a.Propagate(context.Background(), a.Epoch(), a.Epoch().Add(timesys.Day), 6*timesys.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sb, _ := b.Propagate(context.Background(), b.Epoch(), b.Epoch().Add(timesys.Day), 6*timesys.Hour)
	if len(sa) != 5 || len(sa) != len(sb) {
		t.Fatalf("lengths %d, %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			t.Errorf("sample %d differs", i)
		}
	}
	if _, err := NewFromModel(model, transform.Frame(0)); !errors.Is(err, transform.ErrUnsupportedFrame) {
		t.Errorf("zero frame accepted: %v", err)
	}
}
