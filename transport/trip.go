package transport

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/viant/jsonrpc"
)

// ErrTripTimeout is returned by Wait when the per-request timeout elapses
// before a response or cancellation arrives.
var ErrTripTimeout = errors.New("transport: request timed out")

// ErrTripCancelled is returned by Wait when the trip is retired by Cancel
// rather than by a response.
var ErrTripCancelled = errors.New("transport: request cancelled")

// RoundTrip correlates one outbound request with its eventual response. It
// is resolved exactly once: whichever of SetResponse, SetError, or Cancel
// runs first wins, and later calls are no-ops.
type RoundTrip struct {
	Request  *jsonrpc.Request
	Response *jsonrpc.Response

	mu       sync.Mutex
	err      error
	done     chan struct{}
	resolved bool
}

// NewRoundTrip creates a new, unresolved trip for request.
func NewRoundTrip(request *jsonrpc.Request) *RoundTrip {
	return &RoundTrip{
		Request: request,
		done:    make(chan struct{}),
	}
}

// Wait blocks until the trip resolves, ctx is cancelled, or timeout
// elapses (a non-positive timeout disables the timer).
func (t *RoundTrip) Wait(ctx context.Context, timeout time.Duration) error {
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-ctx.Done():
		t.resolve(nil, ctx.Err())
		return ctx.Err()
	case <-timeoutCh:
		t.resolve(nil, ErrTripTimeout)
		return ErrTripTimeout
	case <-t.done:
		t.mu.Lock()
		err := t.err
		t.mu.Unlock()
		return err
	}
}

// resolve is the internal single-shot completion path used when Wait's own
// context/timer fires first, so a late SetResponse/SetError still finds the
// trip already resolved and becomes a no-op.
func (t *RoundTrip) resolve(response *jsonrpc.Response, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved {
		return
	}
	t.resolved = true
	t.Response = response
	t.err = err
	close(t.done)
}

// SetError resolves the trip with a JSON-RPC error response. A no-op if the
// trip already resolved.
func (t *RoundTrip) SetError(jsonErr *jsonrpc.InnerError) {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.resolved = true
	t.Response = &jsonrpc.Response{Id: t.Request.Id, Jsonrpc: t.Request.Jsonrpc, Error: jsonErr}
	t.err = nil
	close(t.done)
	t.mu.Unlock()
}

// SetResponse resolves the trip with response. A no-op if the trip already
// resolved.
func (t *RoundTrip) SetResponse(response *jsonrpc.Response) {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.resolved = true
	t.Response = response
	close(t.done)
	t.mu.Unlock()
}

// Cancel resolves the trip as cancelled. A no-op if the trip already
// resolved (e.g. a response had already arrived).
func (t *RoundTrip) Cancel() {
	t.resolve(nil, ErrTripCancelled)
}

// RoundTrips is a pending-request table keyed by JSON-RPC request id. It is
// the single point of correlation between an outbound Send and the
// eventual inbound Response: a request id is added once at send time and
// removed by Match (a response arrived), CancelMatch, or CloseWithError
// (shutdown). A trip whose Wait gives up stays in the table until one of
// those runs.
type RoundTrips struct {
	mu       sync.Mutex
	pending  map[any]*RoundTrip
	capacity int
	err      error
}

// NewRoundTrips creates a table optionally bounded to capacity in-flight
// requests. capacity <= 0 means unbounded.
func NewRoundTrips(capacity int) *RoundTrips {
	return &RoundTrips{
		pending:  make(map[any]*RoundTrip),
		capacity: capacity,
	}
}

// Add registers request under its id and returns its RoundTrip.
func (r *RoundTrips) Add(request *jsonrpc.Request) (*RoundTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.capacity > 0 && len(r.pending) >= r.capacity {
		return nil, fmt.Errorf("failed to add request, pending table at capacity %d", r.capacity)
	}
	key := normalizeID(request.Id)
	trip := NewRoundTrip(request)
	r.pending[key] = trip
	return trip, nil
}

// Match removes and returns the trip registered under id. Returns an error
// if no trip is pending for id, including when it was already matched or
// cancelled by a concurrent caller.
func (r *RoundTrips) Match(id any) (*RoundTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	key := normalizeID(id)
	trip, ok := r.pending[key]
	if !ok {
		return nil, fmt.Errorf("trip not found")
	}
	delete(r.pending, key)
	return trip, nil
}

// CancelMatch removes and cancels the trip registered under id, if any.
// Neither base.Client.Send on context cancellation nor
// mcp.Client.CancelRequest calls it.
func (r *RoundTrips) CancelMatch(id any) {
	r.mu.Lock()
	key := normalizeID(id)
	trip, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	r.mu.Unlock()
	if ok {
		trip.Cancel()
	}
}

// Get returns a snapshot of the index-th still-pending trip in unspecified
// order, or nil if index is out of range. Intended for diagnostics/tests.
func (r *RoundTrips) Get(index int) *RoundTrip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.pending) {
		return nil
	}
	i := 0
	for _, trip := range r.pending {
		if i == index {
			return trip
		}
		i++
	}
	return nil
}

// Size returns the number of currently pending trips.
func (r *RoundTrips) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// CloseWithError drains all pending trips with err and causes subsequent
// Add/Match calls to fail with err, until the table is replaced.
func (r *RoundTrips) CloseWithError(err error) {
	r.mu.Lock()
	r.err = err
	pending := r.pending
	r.pending = make(map[any]*RoundTrip)
	r.mu.Unlock()

	for _, trip := range pending {
		trip.resolve(nil, err)
	}
}

// normalizeID collapses the numeric-kind zoo (int/int8/.../float64) JSON-RPC
// ids can arrive as into a single comparable representation, so a request
// sent with one numeric type still matches a response id decoded as
// another.
func normalizeID(id any) any {
	v := reflect.ValueOf(id)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return int64(v.Float())
	default:
		return id
	}
}
