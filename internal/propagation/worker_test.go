package propagation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

func hourly(start timesys.JulianDate, n int) []timesys.JulianDate {
	out := make([]timesys.JulianDate, n)
	for i := range out {
		out[i] = start.Add(timesys.Duration(i) * timesys.Hour)
	}
	return out
}

func TestPropagateSamplesOrder(t *testing.T) {
	m := mustModel(t, issLine1, issLine2)
	instants := hourly(m.Epoch(), 48)

	for _, workers := range []int{1, 3, 16, 100} {
		pool := NewWorkerPool(workers, quietLogger())
		results, err := pool.PropagateSamples(context.Background(), m, instants)
		require.NoError(t, err)
		require.Len(t, results, len(instants))

		for i, r := range results {
			require.NoError(t, r.Err)
			assert.True(t, r.Instant.Equal(instants[i]), "workers=%d sample %d out of order", workers, i)
			want, _ := m.PropagateAt(instants[i])
			assert.Equal(t, want, r.State, "workers=%d sample %d", workers, i)
		}
	}
}

func TestPropagateSamplesCarriesErrors(t *testing.T) {
	m := mustModel(t, decayLine1, decayLine2)
	instants := hourly(m.Epoch(), 73)

	results, err := NewWorkerPool(4, quietLogger()).PropagateSamples(context.Background(), m, instants)
	require.NoError(t, err)

	// Decay happens between 60 and 61 hours after epoch.
	for i, r := range results {
		if i <= 60 {
			assert.NoError(t, r.Err, "sample %d", i)
		} else {
			assert.ErrorIs(t, r.Err, ErrDecayed, "sample %d", i)
		}
	}
}

func TestPropagateSamplesEmpty(t *testing.T) {
	m := mustModel(t, issLine1, issLine2)
	results, err := NewWorkerPool(2, quietLogger()).PropagateSamples(context.Background(), m, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type cancellingPropagator struct {
	cancel context.CancelFunc
	calls  atomic.Int64
}

func (p *cancellingPropagator) PropagateAt(timesys.JulianDate) (TEMEState, error) {
	if p.calls.Add(1) == 5 {
		p.cancel()
	}
	return TEMEState{}, nil
}

func TestPropagateSamplesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prop := &cancellingPropagator{cancel: cancel}
	start, err := timesys.FromCalendar(2024, 4, 10, 0, 0)
	require.NoError(t, err)

	results, err := NewWorkerPool(2, quietLogger()).PropagateSamples(ctx, prop, hourly(start, 10000))
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Nil(t, results)
	assert.Less(t, prop.calls.Load(), int64(10000))
}

func TestNewWorkerPoolDefaults(t *testing.T) {
	assert.Positive(t, NewWorkerPool(0, quietLogger()).Workers())
	assert.Equal(t, 7, NewWorkerPool(7, quietLogger()).Workers())
}
