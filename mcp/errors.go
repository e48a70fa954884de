package mcp

import (
	"errors"
	"fmt"

	"github.com/viant/jsonrpc"
)

// NotConnectedError is returned by any operation that requires an active
// transport connection before Connect has succeeded.
type NotConnectedError struct{}

func (e *NotConnectedError) Error() string { return "mcp: client is not connected" }

// NotInitializedError is returned by any operation issued before Initialize
// completes, except Initialize and Ping.
type NotInitializedError struct{}

func (e *NotInitializedError) Error() string { return "mcp: client has not completed initialize" }

// CircuitOpenError is returned when the circuit breaker rejects a call
// before it reaches the transport.
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	if e.Name == "" {
		return "mcp: circuit breaker open"
	}
	return fmt.Sprintf("mcp: circuit breaker %q open", e.Name)
}

// CancelledError describes a request cancelled before a response arrived.
// No Client method returns it: CancelRequest only notifies the server.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "mcp: request cancelled"
	}
	return fmt.Sprintf("mcp: request cancelled: %s", e.Reason)
}

// ValidationError is returned when a locally-enforced precondition fails
// without a wire round-trip (e.g. capability gating).
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("mcp: %s: %v", e.Op, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

// RpcError wraps a JSON-RPC level error (InnerError) returned by the server
// in response to a call, so callers can errors.As into the underlying code.
type RpcError struct {
	*jsonrpc.InnerError
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("mcp: rpc error %d: %s", e.Code, e.Message)
}

func (e *RpcError) Unwrap() error { return e.InnerError }

func newRpcError(inner *jsonrpc.InnerError) error {
	if inner == nil {
		return nil
	}
	return &RpcError{InnerError: inner}
}

// IsNotFound reports whether err is an RpcError carrying MethodNotFound.
func IsNotFound(err error) bool {
	var rpcErr *RpcError
	return errors.As(err, &rpcErr) && rpcErr.Code == jsonrpc.MethodNotFound
}
