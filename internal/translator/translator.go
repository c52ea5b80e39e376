// Package translator turns a two-line element set into time-indexed
// Cartesian states in a chosen frame, or into Keplerian elements.
package translator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/kepler"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/transform"
)

// ErrInvalidStep is returned for a non-positive or non-finite time step.
var ErrInvalidStep = errors.New("time step must be positive and finite")

// ErrTooManySamples is returned when a window would need more than
// MaxSamples instants.
var ErrTooManySamples = errors.New("window needs too many samples")

// MaxSamples bounds the number of instants a single window may produce.
const MaxSamples = 10_000_000

// Sample is one propagated state, tagged with its frame and instant.
type Sample = transform.StateVector

// Recorder receives propagation statistics.
type Recorder interface {
	ObserveSamples(ok, decayed, failed int)
	ObservePropagation(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSamples(int, int, int) {}
func (nopRecorder) ObservePropagation(time.Duration) {}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) { t.logger = logger }
}

// WithWorkers sets the number of goroutines used per Propagate call.
// A non-positive count uses one per CPU.
func WithWorkers(n int) Option {
	return func(t *Translator) { t.workers = n }
}

// WithMetrics reports propagation statistics to r.
func WithMetrics(r Recorder) Option {
	return func(t *Translator) { t.recorder = r }
}

// Translator holds one parsed element set, its initialized model and the
// target frame. It is immutable and safe for concurrent use.
type Translator struct {
	elements tle.MeanElements
	frame    transform.Frame
	model    *propagation.SGP4
	pool     *propagation.WorkerPool

	workers  int
	logger   *slog.Logger
	recorder Recorder
}

// New parses the element set, resolves the frame tag ("ECI" or "ECEF") and
// initializes the propagator.
func New(line1, line2, frameTag string, opts ...Option) (*Translator, error) {
	el, err := tle.ParseLines(line1, line2)
	if err != nil {
		return nil, err
	}
	frame, err := transform.ParseFrame(frameTag)
	if err != nil {
		return nil, err
	}
	return NewFromElements(el, frame, opts...)
}

// NewFromElements is New for already parsed elements.
func NewFromElements(el tle.MeanElements, frame transform.Frame, opts ...Option) (*Translator, error) {
	if !frame.Valid() {
		return nil, fmt.Errorf("%w: %v", transform.ErrUnsupportedFrame, frame)
	}
	model, err := propagation.NewSGP4(el)
	if err != nil {
		return nil, fmt.Errorf("initializing model for %05d: %w", el.CatalogNumber, err)
	}
	return NewFromModel(model, frame, opts...)
}

// NewFromModel wraps an initialized model, such as one served by a
// propagation.Catalog.
func NewFromModel(model *propagation.SGP4, frame transform.Frame, opts ...Option) (*Translator, error) {
	if !frame.Valid() {
		return nil, fmt.Errorf("%w: %v", transform.ErrUnsupportedFrame, frame)
	}
	t := &Translator{
		elements: model.Elements(),
		frame:    frame,
		model:    model,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.pool = propagation.NewWorkerPool(t.workers, t.logger)
	return t, nil
}

// Elements returns the parsed mean elements.
func (t *Translator) Elements() tle.MeanElements { return t.elements }

// Frame returns the output frame.
func (t *Translator) Frame() transform.Frame { return t.frame }

// Epoch returns the element set epoch.
func (t *Translator) Epoch() timesys.JulianDate { return t.elements.Epoch }

// Instants lists start + k·step for every k with the result not after stop.
func Instants(start, stop timesys.JulianDate, step timesys.Duration) ([]timesys.JulianDate, error) {
	s := step.Seconds()
	if !(s > 0) || math.IsInf(s, 0) {
		return nil, fmt.Errorf("%w: %g s", ErrInvalidStep, s)
	}
	if start.After(stop) {
		return []timesys.JulianDate{}, nil
	}
	n := math.Floor(stop.Sub(start).Seconds()/s) + 1
	if n > MaxSamples {
		return nil, fmt.Errorf("%w: %.0f, limit is %d", ErrTooManySamples, n, MaxSamples)
	}
	if n > 1 && !start.Add(step).After(start) {
		return nil, fmt.Errorf("%w: %g s does not advance the clock", ErrInvalidStep, s)
	}
	out := make([]timesys.JulianDate, 0, int(n))
	for k := 0; ; k++ {
		instant := start.Add(timesys.Duration(k) * step)
		if instant.After(stop) {
			break
		}
		out = append(out, instant)
	}
	return out, nil
}

// Propagate samples the orbit from start to stop inclusive every step.
//
// If the satellite decays inside the window, the samples before the first
// decayed instant are returned together with a *propagation.DecayedError.
// Any other model error truncates the output the same way.
func (t *Translator) Propagate(ctx context.Context, start, stop timesys.JulianDate, step timesys.Duration) ([]Sample, error) {
	instants, err := Instants(start, stop, step)
	if err != nil {
		return nil, err
	}
	if len(instants) == 0 {
		return []Sample{}, nil
	}

	began := time.Now()
	results, err := t.pool.PropagateSamples(ctx, t.model, instants)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(results))
	var failure error
	for _, r := range results {
		if r.Err != nil {
			failure = r.Err
			break
		}
		s, err := transform.FromTEME(t.frame, r.State, r.Instant)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	dropped := len(results) - len(samples)
	decayed, failed := 0, 0
	if errors.Is(failure, propagation.ErrDecayed) {
		decayed = dropped
	} else {
		failed = dropped
	}
	elapsed := time.Since(began)
	t.recorder.ObserveSamples(len(samples), decayed, failed)
	t.recorder.ObservePropagation(elapsed)

	if failure != nil {
		t.logger.Warn("propagation truncated",
			"component", "translator",
			"catalog_number", t.elements.CatalogNumber,
			"samples", len(samples),
			"dropped", dropped,
			"error", failure,
		)
		return samples, failure
	}
	t.logger.Debug("propagation complete",
		"component", "translator",
		"catalog_number", t.elements.CatalogNumber,
		"frame", t.frame.String(),
		"samples", len(samples),
		"duration_ms", elapsed.Milliseconds(),
	)
	return samples, nil
}

// KeplerianElements converts the mean elements at epoch into classical
// elements with Earth's gravitational parameter.
func (t *Translator) KeplerianElements() (kepler.Elements, error) {
	return kepler.FromMeanElements(t.elements, kepler.EarthMu)
}
