package remote

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/gosh/runner"
	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/base"
	cssh "golang.org/x/crypto/ssh"
)

// mockRunner is a hand-rolled implementation of runner.Runner for testing.
type mockRunner struct {
	sendFunc    func(ctx context.Context, data []byte) (int, error)
	runFunc     func(ctx context.Context, command string, options ...runner.Option) (string, int, error)
	sentData    []string
	mutex       sync.Mutex
	shouldError bool
	pid         int
}

func (m *mockRunner) PID() int   { return m.pid }
func (m *mockRunner) Close() error { return nil }

func (m *mockRunner) Send(ctx context.Context, data []byte) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sentData = append(m.sentData, string(data))
	if m.sendFunc != nil {
		return m.sendFunc(ctx, data)
	}
	if m.shouldError {
		return 0, fmt.Errorf("mock send error")
	}
	return len(data), nil
}

func (m *mockRunner) Run(ctx context.Context, command string, options ...runner.Option) (string, int, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, command, options...)
	}
	if m.shouldError {
		return "", 1, fmt.Errorf("mock run error")
	}
	return "", 0, nil
}

type mockHandler struct {
	serveFunc          func(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response)
	onNotificationFunc func(ctx context.Context, notification *jsonrpc.Notification)
}

func (m *mockHandler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if m.serveFunc != nil {
		m.serveFunc(ctx, request, response)
		return
	}
	response.Result = []byte(`"ok"`)
}

func (m *mockHandler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	if m.onNotificationFunc != nil {
		m.onNotificationFunc(ctx, notification)
	}
}

func newTestClient(mockRun *mockRunner, handler transport.Handler) *Client {
	c := &Client{
		host:    "test-host",
		command: "test_command",
		ctx:     context.Background(),
		client:  mockRun,
		base: &base.Client{
			RoundTrips: transport.NewRoundTrips(20),
			RunTimeout: 500 * time.Millisecond,
			Handler:    handler,
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	c.base.Transport = &Transport{client: mockRun}
	return c
}

func TestClientSendSuccessful(t *testing.T) {
	mockRun := &mockRunner{
		runFunc: func(ctx context.Context, command string, options ...runner.Option) (string, int, error) {
			go func() {
				time.Sleep(20 * time.Millisecond)
			}()
			return "", -1, nil
		},
	}
	client := newTestClient(mockRun, &mockHandler{})

	req := &jsonrpc.Request{Jsonrpc: "2.0", Method: "test", Id: 1}

	go func() {
		time.Sleep(10 * time.Millisecond)
		trip, err := client.base.RoundTrips.Match(1)
		if err == nil {
			trip.SetResponse(&jsonrpc.Response{Jsonrpc: "2.0", Id: 1, Result: []byte(`"success"`)})
		}
	}()

	resp, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, string(resp.Result), "success")
	require.NotEmpty(t, mockRun.sentData)
}

func TestClientSendRunnerError(t *testing.T) {
	mockRun := &mockRunner{shouldError: true}
	client := newTestClient(mockRun, &mockHandler{})

	_, err := client.Send(context.Background(), &jsonrpc.Request{Jsonrpc: "2.0", Method: "test", Id: 1})
	require.Error(t, err)
}

func TestClientNotify(t *testing.T) {
	mockRun := &mockRunner{}
	client := newTestClient(mockRun, &mockHandler{})

	err := client.Notify(context.Background(), &jsonrpc.Notification{Jsonrpc: "2.0", Method: "notify"})
	require.NoError(t, err)
	require.NotEmpty(t, mockRun.sentData)
}

func TestClientNotifyRunnerError(t *testing.T) {
	mockRun := &mockRunner{shouldError: true}
	client := newTestClient(mockRun, &mockHandler{})

	err := client.Notify(context.Background(), &jsonrpc.Notification{Jsonrpc: "2.0", Method: "notify"})
	require.Error(t, err)
}

func TestStdoutListenerSplitsOnNewlineAcrossChunks(t *testing.T) {
	var handled []string
	handler := &mockHandler{
		serveFunc: func(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
			handled = append(handled, request.Method)
		},
	}
	client := newTestClient(&mockRunner{}, handler)
	listener := client.stdoutListener()

	listener(`{"jsonrpc":"2.0","method":"part`, true)
	listener("ial\",\"id\":1}\n", true)

	time.Sleep(10 * time.Millisecond)
	require.Equal(t, []string{"partial"}, handled)
}

func TestStdoutListenerHandlesMultipleMessagesInOneChunk(t *testing.T) {
	var notified int
	handler := &mockHandler{
		onNotificationFunc: func(ctx context.Context, notification *jsonrpc.Notification) {
			notified++
		},
	}
	client := newTestClient(&mockRunner{}, handler)
	listener := client.stdoutListener()

	listener("{\"jsonrpc\":\"2.0\",\"method\":\"a\"}\n{\"jsonrpc\":\"2.0\",\"method\":\"b\"}\n", true)
	require.Equal(t, 2, notified)
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New("", "cmd")
	require.Error(t, err)
}

func TestNewRequiresSSHConfigOrSecret(t *testing.T) {
	_, err := New("some-host", "cmd")
	require.Error(t, err)
	require.Contains(t, err.Error(), "sshConfig or secret")
}

func TestOptionsApply(t *testing.T) {
	c := &Client{base: &base.Client{}}
	for _, opt := range []Option{
		WithArguments("a", "b"),
		WithEnvironment("K", "V"),
		WithRunTimeout(1000),
		WithSSHConfig(&cssh.ClientConfig{}),
	} {
		opt(c)
	}
	require.Equal(t, []string{"a", "b"}, c.args)
	require.Equal(t, "V", c.env["K"])
	require.Equal(t, time.Second, c.base.RunTimeout)
	require.NotNil(t, c.sshConfig)
}
