package mcp

import (
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/circuitbreaker"
	"github.com/viant/jsonrpc/mcp/schema"
	"github.com/viant/jsonrpc/security"
)

// Option mutates a Client before Connect.
type Option func(*Client)

// WithClientInfo sets the Implementation announced at initialize. Defaults
// to name "jsonrpc-mcp-client" / version "0.1.0".
func WithClientInfo(info schema.Implementation) Option {
	return func(c *Client) { c.clientInfo = info }
}

// WithClientCapabilities overrides the capabilities announced at
// initialize. Defaults to an empty ClientCapabilities.
func WithClientCapabilities(caps schema.ClientCapabilities) Option {
	return func(c *Client) { c.clientCapabilities = caps }
}

// WithProtocolVersion overrides the protocolVersion sent at initialize.
func WithProtocolVersion(version string) Option {
	return func(c *Client) { c.protocolVersion = version }
}

// WithRequestTimeout bounds every outbound call's round-trip wait. Zero
// disables the per-request timeout (the caller's context is still honored).
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithHandlerTimeout bounds how long a server-initiated request handler
// (elicitation/sampling/roots) may run before the client answers with a
// timeout error.
func WithHandlerTimeout(d time.Duration) Option {
	return func(c *Client) { c.handlerTimeout = d }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l jsonrpc.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithListener sets a wire-level message listener.
func WithListener(l jsonrpc.Listener) Option {
	return func(c *Client) { c.listener = l }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithURLValidatorConfig configures the security.Validate call made before
// an ElicitationHandler is invoked for url-mode elicitation.
func WithURLValidatorConfig(cfg security.Config) Option {
	return func(c *Client) { c.urlValidatorConfig = cfg }
}

// WithRoots sets the roots returned by the default RootsHandler. Ignored if
// SetRootsHandler is also called.
func WithRoots(roots []*schema.Root) Option {
	return func(c *Client) { c.defaultRoots = roots }
}

// WithAutoInitialize controls whether Connect automatically performs the
// initialize handshake (using WithClientInfo/WithClientCapabilities/
// WithProtocolVersion) before returning. Defaults to true.
func WithAutoInitialize(auto bool) Option {
	return func(c *Client) { c.autoInitialize = auto }
}

// WithElicitationHandler sets the handler invoked for elicitation/create.
func WithElicitationHandler(h ElicitationHandler) Option {
	return func(c *Client) { c.elicitation = h }
}

// WithSamplingHandler sets the handler invoked for sampling/createMessage.
func WithSamplingHandler(h SamplingHandler) Option {
	return func(c *Client) { c.sampling = h }
}

// WithRootsHandler sets the handler invoked for roots/list.
func WithRootsHandler(h RootsHandler) Option {
	return func(c *Client) { c.rootsHandler = h }
}
