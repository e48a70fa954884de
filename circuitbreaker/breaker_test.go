package circuitbreaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := New(Config{})
	require.Equal(t, StateClosed, b.State())
	require.True(t, b.IsClosed())
	require.False(t, b.IsOpen())
}

func TestBreakerAllowsWhenClosed(t *testing.T) {
	b := New(Config{})
	for i := 0; i < 3; i++ {
		require.True(t, b.AllowRequest())
	}
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 3})

	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsClosed())

	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsClosed())

	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsOpen())
}

func TestBreakerRejectsWhenOpen(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	require.False(t, b.AllowRequest())
	require.False(t, b.AllowRequest())

	stats := b.Stats()
	require.EqualValues(t, 2, stats.RejectedRequests)
}

func TestBreakerSuccessResetsConsecutiveFailures(t *testing.T) {
	b := New(Config{FailureThreshold: 3})

	b.AllowRequest()
	b.RecordFailure()
	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsClosed())

	b.AllowRequest()
	b.RecordSuccess()

	// Two more failures should not trip it: the counter was reset.
	b.AllowRequest()
	b.RecordFailure()
	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsClosed())
}

func TestBreakerRecoversViaHalfOpen(t *testing.T) {
	var transitions []State
	var mu sync.Mutex

	b := New(Config{FailureThreshold: 1, SuccessThreshold: 3, RecoveryTimeout: 10 * time.Millisecond})
	b.OnStateChange(func(_, new State) {
		mu.Lock()
		transitions = append(transitions, new)
		mu.Unlock()
	})

	require.True(t, b.AllowRequest())
	b.RecordFailure()
	require.True(t, b.IsOpen())

	time.Sleep(20 * time.Millisecond)

	require.True(t, b.AllowRequest())
	require.Equal(t, StateHalfOpen, b.State())

	// A concurrent probe attempt while the first is in flight is rejected.
	require.False(t, b.AllowRequest())

	b.RecordSuccess()
	require.Equal(t, StateHalfOpen, b.State())

	require.True(t, b.AllowRequest())
	b.RecordSuccess()
	require.Equal(t, StateHalfOpen, b.State())

	require.True(t, b.AllowRequest())
	b.RecordSuccess()
	require.Equal(t, StateClosed, b.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, transitions, StateHalfOpen)
	assert.Contains(t, transitions, StateClosed)
}

func TestBreakerHalfOpenFailureReturnsToOpen(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	b.AllowRequest()
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	require.True(t, b.AllowRequest())
	require.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
}

func TestBreakerForceOpenIsNoopWhenAlreadyOpen(t *testing.T) {
	b := New(Config{FailureThreshold: 1})
	b.ForceOpen()
	require.True(t, b.IsOpen())

	calls := 0
	b.OnStateChange(func(_, _ State) { calls++ })
	b.ForceOpen()
	require.Zero(t, calls)
}

func TestBreakerForceCloseIsNoopWhenAlreadyClosed(t *testing.T) {
	b := New(Config{})
	calls := 0
	b.OnStateChange(func(_, _ State) { calls++ })
	b.ForceClose()
	require.Zero(t, calls)
}

func TestBreakerReset(t *testing.T) {
	b := New(Config{FailureThreshold: 1})
	b.AllowRequest()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	require.True(t, b.IsClosed())
	stats := b.Stats()
	require.Zero(t, stats.TotalRequests)
	require.Zero(t, stats.FailedRequests)
}

func TestBreakerCallbacksDoNotDeadlock(t *testing.T) {
	b := New(Config{FailureThreshold: 1})
	done := make(chan struct{})
	b.OnStateChange(func(_, _ State) {
		// Reentrant call from within the callback must not deadlock,
		// since callbacks fire outside the internal lock.
		_ = b.State()
		close(done)
	})
	b.AllowRequest()
	b.RecordFailure()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not fire or deadlocked")
	}
}
