package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/circuitbreaker"
	"github.com/viant/jsonrpc/mcp/schema"
	"github.com/viant/jsonrpc/security"
)

// fakeTransport is a hand-rolled transport.Transport for tests, in the
// function-field-override style used throughout this module's transport
// tests.
type fakeTransport struct {
	mu            sync.Mutex
	sendFunc      func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error)
	notifyFunc    func(ctx context.Context, notification *jsonrpc.Notification) error
	requests      []*jsonrpc.Request
	notifications []*jsonrpc.Notification
}

func (f *fakeTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, request)
	f.mu.Unlock()
	if f.sendFunc != nil {
		return f.sendFunc(ctx, request)
	}
	return &jsonrpc.Response{Id: request.Id, Jsonrpc: jsonrpc.Version, Result: []byte(`{}`)}, nil
}

func (f *fakeTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	f.mu.Lock()
	f.notifications = append(f.notifications, notification)
	f.mu.Unlock()
	if f.notifyFunc != nil {
		return f.notifyFunc(ctx, notification)
	}
	return nil
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func newInitializedClient(t *testing.T, ft *fakeTransport, opts ...Option) *Client {
	t.Helper()
	c := New(ft, opts...)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c
}

func TestClient_Connect_Initializes(t *testing.T) {
	result := schema.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      schema.Implementation{Name: "test-server", Version: "1.0"},
		Capabilities: schema.ServerCapabilities{
			Resources: &schema.ResourceCapabilities{Subscribe: true},
		},
		Instructions: "be nice",
	}
	ft := &fakeTransport{
		sendFunc: func(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
			if req.Method != MethodInitialize {
				t.Fatalf("unexpected method %s", req.Method)
			}
			return &jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version, Result: mustMarshal(t, result)}, nil
		},
	}

	c := newInitializedClient(t, ft)

	if !c.isInitialized() {
		t.Fatal("expected client to be initialized")
	}
	if got := c.ServerInfo(); got != result.ServerInfo {
		t.Fatalf("ServerInfo = %+v, want %+v", got, result.ServerInfo)
	}
	if c.Instructions() != "be nice" {
		t.Fatalf("Instructions = %q", c.Instructions())
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	if len(ft.notifications) != 1 || ft.notifications[0].Method != MethodInitialized {
		t.Fatalf("expected notifications/initialized to be sent, got %+v", ft.notifications)
	}
}

func TestClient_ListTools_RoundTrip(t *testing.T) {
	want := schema.ListToolsResult{
		Tools: []*schema.Tool{{Name: "echo"}},
	}
	ft := &fakeTransport{
		sendFunc: func(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
			switch req.Method {
			case MethodInitialize:
				return &jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version, Result: mustMarshal(t, schema.InitializeResult{})}, nil
			case MethodToolsList:
				return &jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version, Result: mustMarshal(t, want)}, nil
			default:
				t.Fatalf("unexpected method %s", req.Method)
				return nil, nil
			}
		},
	}
	c := newInitializedClient(t, ft)

	got, err := c.ListTools(context.Background(), schema.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(got.Tools) != 1 || got.Tools[0].Name != "echo" {
		t.Fatalf("ListTools result = %+v", got)
	}
}

func TestClient_Call_BeforeInitialize(t *testing.T) {
	c := New(&fakeTransport{})
	_, err := c.ListTools(context.Background(), schema.ListToolsParams{})
	if _, ok := err.(*NotInitializedError); !ok {
		t.Fatalf("expected NotInitializedError, got %v", err)
	}
}

func TestClient_Ping_BeforeConnect(t *testing.T) {
	c := New(&fakeTransport{})
	err := c.Ping(context.Background())
	if _, ok := err.(*NotConnectedError); !ok {
		t.Fatalf("expected NotConnectedError, got %v", err)
	}
}

func TestClient_RpcError(t *testing.T) {
	ft := &fakeTransport{
		sendFunc: func(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
			if req.Method == MethodInitialize {
				return &jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version, Result: mustMarshal(t, schema.InitializeResult{})}, nil
			}
			return &jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version, Error: &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "nope"}}, nil
		},
	}
	c := newInitializedClient(t, ft)

	_, err := c.ListTools(context.Background(), schema.ListToolsParams{})
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound(err), got %v", err)
	}
}

func TestClient_SubscribeResource_RequiresCapability(t *testing.T) {
	ft := &fakeTransport{
		sendFunc: func(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
			return &jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version, Result: mustMarshal(t, schema.InitializeResult{})}, nil
		},
	}
	c := newInitializedClient(t, ft)

	err := c.SubscribeResource(context.Background(), schema.SubscribeParams{URI: "file:///a"})
	var verr *ValidationError
	if err == nil {
		t.Fatal("expected error when server did not advertise resources.subscribe")
	}
	if !asValidationError(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	ft.mu.Lock()
	n := len(ft.requests)
	ft.mu.Unlock()

	// now advertise subscribe support and confirm the round trip happens
	c.mu.Lock()
	c.serverCapabilities.Resources = &schema.ResourceCapabilities{Subscribe: true}
	c.mu.Unlock()

	if err := c.SubscribeResource(context.Background(), schema.SubscribeParams{URI: "file:///a"}); err != nil {
		t.Fatalf("SubscribeResource: %v", err)
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if len(ft.requests) != n+1 {
		t.Fatalf("expected one additional wire request, got %d", len(ft.requests)-n)
	}
}

func asValidationError(err error, target **ValidationError) bool {
	if ve, ok := err.(*ValidationError); ok {
		*target = ve
		return true
	}
	return false
}

func TestClient_CancelRequest(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft)
	if err := c.CancelRequest(context.Background(), float64(7), "timed out"); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if len(ft.notifications) != 1 || ft.notifications[0].Method != MethodCancelled {
		t.Fatalf("expected notifications/cancelled, got %+v", ft.notifications)
	}
	var params schema.CancelledParams
	if err := json.Unmarshal(ft.notifications[0].Params, &params); err != nil {
		t.Fatalf("unmarshal cancelled params: %v", err)
	}
	if params.Reason != "timed out" {
		t.Fatalf("Reason = %q", params.Reason)
	}
}

func TestClient_OnNotification_Dispatch(t *testing.T) {
	c := New(&fakeTransport{})

	var toolsChanged, caughtAll int
	var mu sync.Mutex
	c.OnNotification(MethodNotificationToolsListChanged, func(ctx context.Context, n *jsonrpc.Notification) {
		mu.Lock()
		toolsChanged++
		mu.Unlock()
	})
	c.OnNotification("", func(ctx context.Context, n *jsonrpc.Notification) {
		mu.Lock()
		caughtAll++
		mu.Unlock()
	})
	c.OnNotification(MethodNotificationToolsListChanged, func(ctx context.Context, n *jsonrpc.Notification) {
		panic("boom")
	})

	c.dispatchNotification(context.Background(), &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: MethodNotificationToolsListChanged})

	mu.Lock()
	defer mu.Unlock()
	if toolsChanged != 1 {
		t.Fatalf("toolsChanged = %d, want 1", toolsChanged)
	}
	if caughtAll != 1 {
		t.Fatalf("caughtAll = %d, want 1", caughtAll)
	}
}

func TestClient_Serve_Elicitation_UnsafeURLDeclines(t *testing.T) {
	c := New(&fakeTransport{}, WithElicitationHandler(ElicitationHandlerFunc(
		func(ctx context.Context, params schema.ElicitParams) (*schema.ElicitResult, error) {
			t.Fatal("handler must not be invoked for an unsafe URL")
			return nil, nil
		},
	)), WithURLValidatorConfig(security.Config{}))

	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: MethodElicitationCreate, Id: float64(1),
		Params: mustMarshal(t, schema.ElicitParams{Mode: schema.ElicitModeURL, URL: "http://localhost/admin", Message: "confirm"})}
	resp := &jsonrpc.Response{}
	c.serve(context.Background(), req, resp)

	if resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp.Error)
	}
	var result schema.ElicitResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Action != schema.ElicitActionDecline {
		t.Fatalf("Action = %q, want decline", result.Action)
	}
}

func TestClient_Serve_Sampling_NoHandlerConfigured(t *testing.T) {
	c := New(&fakeTransport{})
	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: MethodSamplingCreateMsg, Id: float64(2),
		Params: mustMarshal(t, schema.CreateMessageParams{})}
	resp := &jsonrpc.Response{}
	c.serve(context.Background(), req, resp)

	if resp.Error == nil || resp.Error.Code != jsonrpc.MethodNotFound {
		t.Fatalf("expected MethodNotFound error, got %+v", resp.Error)
	}
}

func TestClient_Serve_Roots_DefaultList(t *testing.T) {
	roots := []*schema.Root{{URI: "file:///workspace", Name: "workspace"}}
	c := New(&fakeTransport{}, WithRoots(roots))

	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: MethodRootsList, Id: float64(3)}
	resp := &jsonrpc.Response{}
	c.serve(context.Background(), req, resp)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var result schema.ListRootsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Roots) != 1 || result.Roots[0].URI != "file:///workspace" {
		t.Fatalf("Roots = %+v", result.Roots)
	}
}

func TestClient_Serve_UnknownMethod(t *testing.T) {
	c := New(&fakeTransport{})
	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: "bogus/method", Id: float64(4)}
	resp := &jsonrpc.Response{}
	c.serve(context.Background(), req, resp)
	if resp.Error == nil || resp.Error.Code != jsonrpc.MethodNotFound {
		t.Fatalf("expected MethodNotFound, got %+v", resp.Error)
	}
}

func TestClient_CircuitBreaker_RejectsWhenOpen(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test"})
	breaker.ForceOpen()

	c := New(&fakeTransport{}, WithBreaker(breaker))
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	err := c.Ping(context.Background())
	var cbErr *CircuitOpenError
	if err == nil {
		t.Fatal("expected circuit open error")
	}
	if e, ok := err.(*CircuitOpenError); !ok {
		t.Fatalf("expected *CircuitOpenError, got %T", err)
	} else {
		cbErr = e
	}
	if cbErr.Name != "test" {
		t.Fatalf("Name = %q", cbErr.Name)
	}
}

func TestClient_NotifyRootsListChanged(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft)
	if err := c.NotifyRootsListChanged(context.Background()); err != nil {
		t.Fatalf("NotifyRootsListChanged: %v", err)
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if len(ft.notifications) != 1 || ft.notifications[0].Method != MethodRootsListChanged {
		t.Fatalf("expected notifications/roots/list_changed, got %+v", ft.notifications)
	}
}

func TestClient_Serve_HandlerTimeout(t *testing.T) {
	blocked := make(chan struct{})
	defer close(blocked)
	c := New(&fakeTransport{},
		WithHandlerTimeout(20*time.Millisecond),
		WithSamplingHandler(SamplingHandlerFunc(
			func(ctx context.Context, params schema.CreateMessageParams) (*schema.CreateMessageResult, error) {
				<-blocked
				return &schema.CreateMessageResult{}, nil
			},
		)))

	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: MethodSamplingCreateMsg, Id: float64(5),
		Params: mustMarshal(t, schema.CreateMessageParams{})}
	resp := &jsonrpc.Response{}

	start := time.Now()
	c.serve(context.Background(), req, resp)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("serve blocked %v past the handler timeout", elapsed)
	}
	if resp.Error == nil || resp.Error.Code != jsonrpc.InternalError {
		t.Fatalf("expected InternalError timeout response, got %+v", resp.Error)
	}
}

func TestClient_Serve_HandlerPanicIsolated(t *testing.T) {
	c := New(&fakeTransport{}, WithRootsHandler(RootsHandlerFunc(
		func(ctx context.Context) []*schema.Root { panic("boom") },
	)))

	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: MethodRootsList, Id: float64(6)}
	resp := &jsonrpc.Response{}
	c.serve(context.Background(), req, resp)
	if resp.Error == nil || resp.Error.Code != jsonrpc.InternalError {
		t.Fatalf("expected InternalError from panicking handler, got %+v", resp.Error)
	}
}

func TestClient_Listener_SeesTraffic(t *testing.T) {
	var mu sync.Mutex
	var seen []jsonrpc.MessageType
	c := New(&fakeTransport{}, WithListener(func(m *jsonrpc.Message) {
		mu.Lock()
		seen = append(seen, m.Type)
		mu.Unlock()
	}))
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := c.NotifyRootsListChanged(context.Background()); err != nil {
		t.Fatalf("NotifyRootsListChanged: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []jsonrpc.MessageType{jsonrpc.MessageTypeRequest, jsonrpc.MessageTypeResponse, jsonrpc.MessageTypeNotification}
	if len(seen) != len(want) {
		t.Fatalf("listener saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("listener saw %v, want %v", seen, want)
		}
	}
}

func TestClient_Handler_WiresServeAndNotifications(t *testing.T) {
	roots := []*schema.Root{{URI: "file:///r"}}
	c := New(&fakeTransport{}, WithRoots(roots))
	h := c.Handler()

	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: MethodRootsList, Id: float64(9)}
	resp := &jsonrpc.Response{}
	h.Serve(context.Background(), req, resp)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	var got int
	c.OnNotification(MethodNotificationProgress, func(ctx context.Context, n *jsonrpc.Notification) { got++ })
	h.OnNotification(context.Background(), &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: MethodNotificationProgress})
	if got != 1 {
		t.Fatalf("got = %d, want 1", got)
	}
}
