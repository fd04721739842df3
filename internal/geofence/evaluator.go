package geofence

import (
	"context"
	"errors"
	"sync"
	"time"

	"presence/internal/geo"
)

// source is the coordinate-acquisition variant. Exactly one variant is
// installed at any instant, so live and mock can never both be active.
type source interface {
	acquire(ctx context.Context) (geo.Coordinate, error)
}

type liveSource struct {
	provider LocationProvider
	timeout  time.Duration
}

func (s liveSource) acquire(ctx context.Context) (geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coord, err := s.provider.Current(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return geo.Coordinate{}, ErrLocationTimeout
		}
		return geo.Coordinate{}, err
	}
	return coord, nil
}

type mockSource struct {
	coord geo.Coordinate
}

func (s mockSource) acquire(context.Context) (geo.Coordinate, error) {
	return s.coord, nil
}

// Evaluation is one monitor emission: either a verdict with the coordinate it
// was computed from, or an acquisition error and no verdict. The previous
// verdict is never re-emitted as if it were fresh.
type Evaluation struct {
	Verdict Verdict
	Coord   geo.Coordinate
	Err     error
}

// Evaluator binds a geofence target to a coordinate source.
type Evaluator struct {
	target   Target
	provider LocationProvider
	timeout  time.Duration

	mu  sync.Mutex
	src source
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithAcquireTimeout overrides the one-shot acquisition timeout.
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEvaluator constructs an evaluator in live mode.
func NewEvaluator(target Target, provider LocationProvider, opts ...Option) *Evaluator {
	e := &Evaluator{
		target:   target,
		provider: provider,
		timeout:  DefaultAcquireTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.src = liveSource{provider: provider, timeout: e.timeout}
	return e
}

// SetMock installs a mock override. Live samples are ignored until ClearMock.
func (e *Evaluator) SetMock(coord geo.Coordinate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = mockSource{coord: coord}
}

// ClearMock returns the evaluator to live acquisition.
func (e *Evaluator) ClearMock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = liveSource{provider: e.provider, timeout: e.timeout}
}

// MockActive reports whether the mock override is installed.
func (e *Evaluator) MockActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.src.(mockSource)
	return ok
}

func (e *Evaluator) currentSource() source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// Check performs a one-shot evaluation using whichever source is active.
func (e *Evaluator) Check(ctx context.Context) (Verdict, error) {
	coord, err := e.currentSource().acquire(ctx)
	if err != nil {
		return Verdict{}, err
	}
	return Evaluate(coord, e.target), nil
}

// Monitor re-evaluates on every live sample until ctx is cancelled, then
// closes the returned channel. While the mock override is active, live
// samples are evaluated against the mock coordinate instead, so a moving
// device cannot overwrite an operator-pinned position. Failed samples are
// forwarded as error evaluations.
func (e *Evaluator) Monitor(ctx context.Context) (<-chan Evaluation, error) {
	samples, err := e.provider.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Evaluation)
	go func() {
		defer close(out)
		for sample := range samples {
			eval := e.evaluateSample(sample)
			select {
			case out <- eval:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (e *Evaluator) evaluateSample(sample Sample) Evaluation {
	if mock, ok := e.currentSource().(mockSource); ok {
		return Evaluation{Verdict: Evaluate(mock.coord, e.target), Coord: mock.coord}
	}
	if sample.Err != nil {
		return Evaluation{Err: sample.Err}
	}
	return Evaluation{Verdict: Evaluate(sample.Coord, e.target), Coord: sample.Coord}
}
