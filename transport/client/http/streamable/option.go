package streamable

import (
	"net/http"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/session"
	"github.com/viant/jsonrpc/transport"
)

// Option mutates a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for POST/GET/DELETE.
// TLS policy is the caller's concern; this package never constructs one.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.cfg.HTTPClient = client
		}
	}
}

// WithHandler sets the handler answering server-initiated requests and
// notifications.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) { c.base.Handler = handler }
}

// WithListener sets a wire-level message listener.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) { c.base.Listener = listener }
}

// WithInterceptor sets a response interceptor.
func WithInterceptor(interceptor transport.Interceptor) Option {
	return func(c *Client) { c.base.Interceptor = interceptor }
}

// WithProtocolVersion sets the MCP-Protocol-Version header sent on every
// POST/GET/DELETE.
func WithProtocolVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.setStaticHeader("MCP-Protocol-Version", version)
		}
	}
}

// WithStaticHeader sets an arbitrary header sent on every outbound request,
// for host-specific auth schemes the core has no opinion on.
func WithStaticHeader(name, value string) Option {
	return func(c *Client) {
		if name != "" {
			c.setStaticHeader(name, value)
		}
	}
}

// WithSessionStore attaches a session.Store used to persist/recover the
// session id and last-event-id across process restarts. The stored
// snapshot, if any, seeds the Last-Event-ID header on the first SSE
// reconnect attempt after Start; it does not bypass the initial POST
// handshake.
func WithSessionStore(store session.Store) Option {
	return func(c *Client) { c.store = store }
}
