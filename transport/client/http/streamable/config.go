// Package streamable implements the MCP Streamable-HTTP client transport:
// JSON-RPC requests POSTed to a single endpoint, a server-chosen JSON or
// SSE response per POST, session continuity via a Session-Id header, and
// an optional long-lived GET SSE stream for server-initiated traffic,
// resumed with Last-Event-ID. Retries honour Retry-After and fall back to
// an exponential backoff policy; a 404 on a session-bearing request is
// treated as session expiration and retried once without the stale
// Session-Id header.
package streamable

import (
	"net/http"
	"time"

	"github.com/viant/jsonrpc"
)

// SessionHeader is the header name the transport uses to carry the
// server-issued session identifier, per spec §4.5/§6.
const SessionHeader = "Session-Id"

// LastEventIDHeader carries the last SSE event id seen, for resumption.
const LastEventIDHeader = "Last-Event-ID"

const acceptHeaderValue = "application/json, text/event-stream"

// Config configures a Client.
type Config struct {
	// BaseURL is the single endpoint both POST and GET requests target.
	BaseURL string

	// HTTPClient is the underlying HTTP client; a generic collaborator per
	// spec §6 ("External collaborators"). TLS policy is its concern, never
	// this package's. Defaults to an http.Client with a 60-second timeout.
	HTTPClient *http.Client

	// MaxRequestBodySize bounds an outbound POST body. Zero disables the
	// bound.
	MaxRequestBodySize int

	// DisableSSEStream turns off the long-lived background GET SSE reader
	// for server-initiated traffic. The stream is enabled by default.
	DisableSSEStream bool

	// SSEReconnectDelay is how long the background SSE reader sleeps
	// between reconnect attempts.
	SSEReconnectDelay time.Duration

	// ParserConfig bounds the SSE parser's internal buffering.
	ParserConfig ParserConfig

	// RetryPolicy and Backoff govern POST retry behaviour. Per spec §9
	// Open Questions, the exact retryable-status set and jitter are policy
	// knobs, not fixed values.
	RetryPolicy RetryPolicy
	Backoff     BackoffPolicy

	Logger jsonrpc.Logger
}

// ParserConfig mirrors sse.Config without importing it at the Config call
// site, so callers configuring a streamable.Config don't need the sse
// package in scope.
type ParserConfig struct {
	MaxBufferSize int
	MaxEventSize  int
}

func (c Config) defaulted() Config {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if c.SSEReconnectDelay <= 0 {
		c.SSEReconnectDelay = 2 * time.Second
	}
	if c.RetryPolicy == nil {
		c.RetryPolicy = NewDefaultRetryPolicy(3)
	}
	if c.Backoff == nil {
		c.Backoff = NewExponentialBackoff(0, 0, 250*time.Millisecond)
	}
	if c.Logger == nil {
		c.Logger = jsonrpc.DefaultLogger
	}
	if c.ParserConfig.MaxBufferSize <= 0 {
		c.ParserConfig.MaxBufferSize = 1 << 20
	}
	if c.ParserConfig.MaxEventSize <= 0 {
		c.ParserConfig.MaxEventSize = 256 << 10
	}
	return c
}
