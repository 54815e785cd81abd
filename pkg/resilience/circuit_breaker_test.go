package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	states []int
	trips  int
}

func (o *recordingObserver) SetCircuitBreakerState(_ string, state int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) RecordCircuitBreakerTrip(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trips++
}

func newTestBreaker(observer StateObserver) *CircuitBreaker {
	config := DefaultCircuitBreakerConfig("picking-backend")
	config.FailureThreshold = 3
	config.Timeout = time.Hour
	return NewCircuitBreaker(config, slog.New(slog.NewTextHandler(io.Discard, nil)), observer)
}

func TestCircuitBreaker_PassesResults(t *testing.T) {
	cb := newTestBreaker(nil)

	result, err := cb.Execute(context.Background(), func() (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "picking-backend", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	observer := &recordingObserver{}
	cb := newTestBreaker(observer)
	failure := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), func() (any, error) {
			return nil, failure
		})
		assert.ErrorIs(t, err, failure)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := cb.Execute(context.Background(), func() (any, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, 1, observer.trips)
	assert.Equal(t, []int{int(gobreaker.StateOpen)}, observer.states)
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := newTestBreaker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.Counts().Requests)
}

func TestCircuitBreaker_IsSuccessfulExcludesErrors(t *testing.T) {
	rejected := errors.New("picking not found")
	config := DefaultCircuitBreakerConfig("picking-backend")
	config.FailureThreshold = 2
	config.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, rejected)
	}
	cb := NewCircuitBreaker(config, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	for i := 0; i < 5; i++ {
		_, err := Call(context.Background(), cb, func() (string, error) {
			return "", rejected
		})
		assert.ErrorIs(t, err, rejected)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, uint32(5), cb.Counts().TotalSuccesses)
}

func TestCall_TypedResult(t *testing.T) {
	cb := newTestBreaker(nil)

	n, err := Call(context.Background(), cb, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for i := 0; i < 3; i++ {
		_, _ = Call(context.Background(), cb, func() (int, error) {
			return 0, errors.New("down")
		})
	}
	n, err = Call(context.Background(), cb, func() (int, error) {
		return 7, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, n)
}
