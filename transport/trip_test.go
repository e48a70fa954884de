package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
)

func TestRoundTripsAddAndMatch(t *testing.T) {
	rt := NewRoundTrips(0)
	req := &jsonrpc.Request{Id: 1}

	trip, err := rt.Add(req)
	require.NoError(t, err)
	require.Equal(t, 1, rt.Size())

	matched, err := rt.Match(1)
	require.NoError(t, err)
	require.Same(t, trip, matched)
	require.Equal(t, 0, rt.Size())
}

func TestRoundTripsMatchNumericTypeMismatch(t *testing.T) {
	rt := NewRoundTrips(0)
	req := &jsonrpc.Request{Id: int64(42)}
	_, err := rt.Add(req)
	require.NoError(t, err)

	// Response decoded id as float64, as encoding/json would produce.
	matched, err := rt.Match(float64(42))
	require.NoError(t, err)
	require.NotNil(t, matched)
}

func TestRoundTripsMatchMissingReturnsError(t *testing.T) {
	rt := NewRoundTrips(0)
	_, err := rt.Match(99)
	require.Error(t, err)
}

func TestRoundTripsMatchTwiceSecondFails(t *testing.T) {
	rt := NewRoundTrips(0)
	rt.Add(&jsonrpc.Request{Id: 1})

	_, err := rt.Match(1)
	require.NoError(t, err)

	_, err = rt.Match(1)
	require.Error(t, err)
}

func TestRoundTripsCapacityEnforced(t *testing.T) {
	rt := NewRoundTrips(1)
	_, err := rt.Add(&jsonrpc.Request{Id: 1})
	require.NoError(t, err)

	_, err = rt.Add(&jsonrpc.Request{Id: 2})
	require.Error(t, err)
}

func TestRoundTripWaitResolvesOnResponse(t *testing.T) {
	trip := NewRoundTrip(&jsonrpc.Request{Id: 1})

	go func() {
		time.Sleep(5 * time.Millisecond)
		trip.SetResponse(&jsonrpc.Response{Id: 1})
	}()

	err := trip.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, trip.Response)
}

func TestRoundTripWaitTimesOut(t *testing.T) {
	trip := NewRoundTrip(&jsonrpc.Request{Id: 1})
	err := trip.Wait(context.Background(), 5*time.Millisecond)
	require.ErrorIs(t, err, ErrTripTimeout)
}

func TestRoundTripLateResponseAfterTimeoutIsNoop(t *testing.T) {
	trip := NewRoundTrip(&jsonrpc.Request{Id: 1})
	err := trip.Wait(context.Background(), 5*time.Millisecond)
	require.ErrorIs(t, err, ErrTripTimeout)

	// A response that arrives after the timeout must not panic or alter
	// the already-resolved result.
	trip.SetResponse(&jsonrpc.Response{Id: 1})
	require.Nil(t, trip.Response)
}

func TestRoundTripWaitRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	trip := NewRoundTrip(&jsonrpc.Request{Id: 1})

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := trip.Wait(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRoundTripCancel(t *testing.T) {
	trip := NewRoundTrip(&jsonrpc.Request{Id: 1})
	trip.Cancel()

	err := trip.Wait(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrTripCancelled)
}

func TestRoundTripsCancelMatchRemovesAndCancels(t *testing.T) {
	rt := NewRoundTrips(0)
	trip, _ := rt.Add(&jsonrpc.Request{Id: 1})

	rt.CancelMatch(1)
	require.Equal(t, 0, rt.Size())

	err := trip.Wait(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrTripCancelled)
}

func TestRoundTripsCloseWithErrorDrainsPending(t *testing.T) {
	rt := NewRoundTrips(0)
	trip1, _ := rt.Add(&jsonrpc.Request{Id: 1})
	trip2, _ := rt.Add(&jsonrpc.Request{Id: 2})

	drainErr := context.Canceled
	rt.CloseWithError(drainErr)

	err := trip1.Wait(context.Background(), time.Second)
	require.ErrorIs(t, err, drainErr)
	err = trip2.Wait(context.Background(), time.Second)
	require.ErrorIs(t, err, drainErr)

	_, err = rt.Add(&jsonrpc.Request{Id: 3})
	require.ErrorIs(t, err, drainErr)
}
