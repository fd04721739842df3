package geofence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/geo"
)

var testTarget = Target{
	Center:  geo.Coordinate{Lat: -26.2041, Lng: 28.0473},
	RadiusM: 50,
}

// fakeProvider scripts Current and Watch responses for tests.
type fakeProvider struct {
	coord   geo.Coordinate
	err     error
	block   bool
	samples []Sample
}

func (p *fakeProvider) Current(ctx context.Context) (geo.Coordinate, error) {
	if p.block {
		<-ctx.Done()
		return geo.Coordinate{}, ctx.Err()
	}
	if p.err != nil {
		return geo.Coordinate{}, p.err
	}
	return p.coord, nil
}

func (p *fakeProvider) Watch(ctx context.Context) (<-chan Sample, error) {
	if p.err != nil && len(p.samples) == 0 {
		return nil, p.err
	}
	ch := make(chan Sample)
	go func() {
		defer close(ch)
		for _, s := range p.samples {
			select {
			case ch <- s:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch, nil
}

func TestEvaluate(t *testing.T) {
	t.Run("center is within range", func(t *testing.T) {
		v := Evaluate(testTarget.Center, testTarget)
		assert.True(t, v.WithinRange)
		assert.Zero(t, v.DistanceMeters)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		// ~1.2 km out against a 1.2009 km radius computed from the same pair.
		far := geo.Coordinate{Lat: -26.1933, Lng: 28.0473}
		d := geo.DistanceMeters(far, testTarget.Center)
		v := Evaluate(far, Target{Center: testTarget.Center, RadiusM: d})
		assert.True(t, v.WithinRange)
	})

	t.Run("outside radius is out of range", func(t *testing.T) {
		far := geo.Coordinate{Lat: -26.1933, Lng: 28.0473}
		v := Evaluate(far, testTarget)
		assert.False(t, v.WithinRange)
		assert.Greater(t, v.DistanceMeters, testTarget.RadiusM)
	})
}

func TestCheck_Live(t *testing.T) {
	provider := &fakeProvider{coord: testTarget.Center}
	e := NewEvaluator(testTarget, provider)

	v, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, v.WithinRange)
}

func TestCheck_MockBeatsLive(t *testing.T) {
	// Live provider reports a position far outside the fence.
	provider := &fakeProvider{coord: geo.Coordinate{Lat: -26.1933, Lng: 28.0473}}
	e := NewEvaluator(testTarget, provider)

	e.SetMock(testTarget.Center)
	require.True(t, e.MockActive())

	v, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, v.WithinRange, "mock position must win while active")

	e.ClearMock()
	require.False(t, e.MockActive())

	v, err = e.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, v.WithinRange, "clearing the mock resumes live acquisition")
}

func TestCheck_AcquisitionErrorIsNotAVerdict(t *testing.T) {
	provider := &fakeProvider{err: ErrLocationDenied}
	e := NewEvaluator(testTarget, provider)

	_, err := e.Check(context.Background())
	assert.ErrorIs(t, err, ErrLocationDenied)
}

func TestCheck_Timeout(t *testing.T) {
	provider := &fakeProvider{block: true}
	e := NewEvaluator(testTarget, provider, WithAcquireTimeout(10*time.Millisecond))

	_, err := e.Check(context.Background())
	assert.ErrorIs(t, err, ErrLocationTimeout)
}

func TestMonitor(t *testing.T) {
	inRange := testTarget.Center
	outOfRange := geo.Coordinate{Lat: -26.1933, Lng: 28.0473}

	t.Run("re-evaluates every sample and surfaces errors distinctly", func(t *testing.T) {
		provider := &fakeProvider{samples: []Sample{
			{Coord: inRange},
			{Err: ErrLocationUnavailable},
			{Coord: outOfRange},
		}}
		e := NewEvaluator(testTarget, provider)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		evals, err := e.Monitor(ctx)
		require.NoError(t, err)

		first := <-evals
		require.NoError(t, first.Err)
		assert.True(t, first.Verdict.WithinRange)

		second := <-evals
		assert.ErrorIs(t, second.Err, ErrLocationUnavailable)
		assert.False(t, second.Verdict.WithinRange, "a failed sample carries no verdict")

		third := <-evals
		require.NoError(t, third.Err)
		assert.False(t, third.Verdict.WithinRange)
	})

	t.Run("mock override pins the verdict while live samples keep arriving", func(t *testing.T) {
		provider := &fakeProvider{samples: []Sample{
			{Coord: outOfRange},
			{Coord: outOfRange},
		}}
		e := NewEvaluator(testTarget, provider)
		e.SetMock(inRange)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		evals, err := e.Monitor(ctx)
		require.NoError(t, err)

		for range 2 {
			eval := <-evals
			require.NoError(t, eval.Err)
			assert.True(t, eval.Verdict.WithinRange)
			assert.Equal(t, inRange, eval.Coord)
		}
	})

	t.Run("cancellation closes the stream", func(t *testing.T) {
		provider := &fakeProvider{samples: []Sample{{Coord: inRange}}}
		e := NewEvaluator(testTarget, provider)

		ctx, cancel := context.WithCancel(context.Background())
		evals, err := e.Monitor(ctx)
		require.NoError(t, err)

		<-evals
		cancel()

		select {
		case _, open := <-evals:
			assert.False(t, open, "channel must close after cancellation")
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop after cancellation")
		}
	})
}
