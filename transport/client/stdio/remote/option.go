package remote

import (
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/scy/cred/secret"
	cssh "golang.org/x/crypto/ssh"
)

type Option func(c *Client)

// WithArguments sets the command line arguments for the remote command.
func WithArguments(args ...string) Option {
	return func(c *Client) {
		c.args = args
	}
}

// WithEnvironment sets an environment variable for the remote command.
func WithEnvironment(key, value string) Option {
	return func(c *Client) {
		if c.env == nil {
			c.env = make(map[string]string)
		}
		c.env[key] = value
	}
}

// WithSecret injects a scy secret resource used to resolve SSH credentials.
func WithSecret(resource secret.Resource) Option {
	return func(c *Client) {
		c.secret = resource
	}
}

// WithSSHConfig supplies an already-resolved SSH client config, bypassing
// WithSecret resolution.
func WithSSHConfig(cfg *cssh.ClientConfig) Option {
	return func(c *Client) {
		c.sshConfig = cfg
	}
}

// WithTrips overrides the pending-request table.
func WithTrips(trips *transport.RoundTrips) Option {
	return func(c *Client) {
		c.base.RoundTrips = trips
	}
}

// WithListener sets a wire-level message listener.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) {
		c.base.Listener = listener
	}
}

// WithRunTimeout sets the per-request response timeout.
func WithRunTimeout(timeoutMs int) Option {
	return func(c *Client) {
		c.base.RunTimeout = time.Duration(timeoutMs) * time.Millisecond
	}
}

// WithHandler overrides the server-request handler.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}

// WithLogger overrides the transport's diagnostic logger.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(c *Client) {
		c.base.Logger = logger
	}
}
