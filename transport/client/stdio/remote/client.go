// Package remote implements a stdio-framed JSON-RPC transport whose child
// process runs on a remote host over SSH, reusing the same request
// correlation engine as the local transport but driving the command
// through github.com/viant/gosh instead of os/exec.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/ssh"
	"github.com/viant/jsonrpc"
	transport2 "github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/base"
	"github.com/viant/scy/cred/secret"
	cssh "golang.org/x/crypto/ssh"
)

// Client runs command on host over SSH and exchanges line-delimited
// JSON-RPC messages over the resulting session's stdin/stdout.
type Client struct {
	base      *base.Client
	client    runner.Runner
	secret    secret.Resource
	sshConfig *cssh.ClientConfig
	host      string
	command   string
	args      []string
	env       map[string]string
	ctx       context.Context
}

func (c *Client) start(ctx context.Context) error {
	if c.host == "" {
		return fmt.Errorf("remote stdio transport requires a host")
	}
	if err := c.ensureSSHConfig(ctx); err != nil {
		return err // ensure SSH config is set up before initializing the service
	}
	c.client = ssh.New(c.host, c.sshConfig, runner.AsPipeline())
	c.base.Transport = &Transport{client: c.client}
	cmd := c.command
	if len(c.args) > 0 {
		cmd = fmt.Sprintf("%s %s", c.command, strings.Join(c.args, " "))
	}
	go c.startCommand(ctx, cmd)
	return nil
}

func (c *Client) startCommand(ctx context.Context, cmd string) {
	output, code, err := c.client.Run(ctx, cmd, runner.WithEnvironment(c.env), runner.WithListener(c.stdoutListener()))
	if err != nil {
		c.base.SetError(err)
	}
	if code != -1 && code != 0 {
		c.base.SetError(fmt.Errorf("command exited with code: %d %v", code, output))
	}
}

// stdoutListener buffers chunks until a newline, then dispatches exactly
// one line-delimited JSON-RPC message at a time.
func (c *Client) stdoutListener() runner.Listener {
	var builder strings.Builder
	return func(stdout string, hasMore bool) {
		builder.WriteString(stdout)
		for {
			text := builder.String()
			index := strings.IndexByte(text, '\n')
			if index == -1 {
				return
			}
			line := text[:index]
			builder.Reset()
			builder.WriteString(text[index+1:])
			if strings.TrimSpace(line) == "" {
				continue
			}
			c.base.HandleMessage(c.ctx, []byte(line))
		}
	}
}

func (c *Client) Notify(ctx context.Context, request *jsonrpc.Notification) error {
	return c.base.Notify(ctx, request)
}

func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return c.base.Send(ctx, request)
}

func (c *Client) ensureSSHConfig(ctx context.Context) error {
	if c.sshConfig != nil {
		return nil
	}
	if c.secret == "" {
		return fmt.Errorf("sshConfig or secret is required for host: %s", c.host)
	}
	secrets := secret.New()
	cred, err := secrets.GetCredentials(ctx, string(c.secret))
	if err != nil {
		return err // unable to retrieve credentials for SSH config
	}
	c.sshConfig, err = cred.SSH.Config(ctx) // this will populate the SSH config from the secret
	return err
}

// New dials host and runs command over SSH, framing stdout as
// newline-delimited JSON-RPC.
func New(host, command string, options ...Option) (*Client, error) {
	c := &Client{
		host:    host,
		command: command,
		ctx:     context.Background(),
		base: &base.Client{
			RoundTrips: transport2.NewRoundTrips(256),
			RunTimeout: 15 * time.Minute,
			Transport:  &Transport{},
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	err := c.start(c.ctx)
	return c, err
}
