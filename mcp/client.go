// Package mcp implements a Model Context Protocol client over a
// jsonrpc/transport.Transport: the initialize handshake, the tools/
// resources/prompts/completion/logging operation catalog, and the
// server-initiated elicitation/sampling/roots requests a full MCP client
// must answer.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/circuitbreaker"
	"github.com/viant/jsonrpc/mcp/schema"
	"github.com/viant/jsonrpc/security"
	"github.com/viant/jsonrpc/transport"
)

// starter and stopper let Connect/Disconnect drive a concrete transport's
// explicit lifecycle when it has one (stdio does; an HTTP transport that
// connects lazily on first Send may not implement either).
type starter interface {
	Start(ctx context.Context) error
}

type stopper interface {
	Stop() error
}

// Client is a Model Context Protocol client layered over a
// transport.Transport. The zero value is not usable; construct with New.
//
// A Client also answers server-initiated requests (elicitation/create,
// sampling/createMessage, roots/list) and dispatches server-to-client
// notifications. Because Client.OnNotification is the registration API
// callers use to subscribe to notifications, Client itself does not
// implement transport.Handler directly -- that would collide on the
// method name. Instead wire the transport to the adapter returned by
// Client.Handler before calling Connect:
//
//	tr, _ := stdio.New(cfg)
//	c := mcp.New(tr, opts...)
//	tr.Handler = c.Handler()
//	c.Connect(ctx)
type Client struct {
	transport transport.Transport

	id string

	logger   jsonrpc.Logger
	listener jsonrpc.Listener
	breaker  *circuitbreaker.Breaker

	requestTimeout time.Duration
	handlerTimeout time.Duration

	clientInfo         schema.Implementation
	clientCapabilities schema.ClientCapabilities
	protocolVersion    string
	autoInitialize     bool

	urlValidatorConfig security.Config

	elicitation  ElicitationHandler
	sampling     SamplingHandler
	rootsHandler RootsHandler
	defaultRoots []*schema.Root

	mu                 sync.RWMutex
	connected          bool
	initialized        bool
	serverInfo         schema.Implementation
	serverCapabilities schema.ServerCapabilities
	instructions       string

	notifMu   sync.RWMutex
	notifiers map[string][]func(context.Context, *jsonrpc.Notification)
	catchAll  []func(context.Context, *jsonrpc.Notification)
}

// New constructs a Client driving t. Connect must be called before any
// operation, Ping included.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport:       t,
		id:              uuid.NewString(),
		logger:          jsonrpc.DefaultLogger,
		breaker:         circuitbreaker.New(circuitbreaker.Config{Name: "mcp-client"}),
		protocolVersion: ProtocolVersion,
		autoInitialize:  true,
		clientInfo:      schema.Implementation{Name: "jsonrpc-mcp-client", Version: "0.1.0"},
		notifiers:       make(map[string][]func(context.Context, *jsonrpc.Notification)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID is the uuid generated for this client instance. The Client does not
// send it on the wire.
func (c *Client) ID() string { return c.id }

// Handler returns the transport.Handler that answers server-initiated
// requests and notifications for this client. Assign it to the
// underlying transport (e.g. tr.Handler = c.Handler(), or
// stdio.WithHandler(c.Handler()) at construction) before Connect.
func (c *Client) Handler() transport.Handler {
	return (*clientHandler)(c)
}

// clientHandler implements transport.Handler by delegating to Client's
// unexported serve/dispatch methods, keeping the transport.Handler
// method set off Client's own method set (Client.OnNotification has a
// different, public, registration signature).
type clientHandler Client

func (h *clientHandler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	(*Client)(h).serve(ctx, request, response)
}

func (h *clientHandler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	(*Client)(h).dispatchNotification(ctx, notification)
}

func (c *Client) isConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) isInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

func (c *Client) resourcesSubscribable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverCapabilities.Resources != nil && c.serverCapabilities.Resources.Subscribe
}

// ServerInfo returns the Implementation the server announced at
// initialize. Zero value before Initialize completes.
func (c *Client) ServerInfo() schema.Implementation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// ServerCapabilities returns the capabilities the server announced at
// initialize. Zero value before Initialize completes.
func (c *Client) ServerCapabilities() schema.ServerCapabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverCapabilities
}

// Instructions returns the server's free-form initialize instructions,
// if any.
func (c *Client) Instructions() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instructions
}

// Connect starts the underlying transport, if it exposes an explicit
// Start(ctx) error lifecycle, then performs the initialize handshake
// unless WithAutoInitialize(false) was supplied. Connect is idempotent.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if s, ok := c.transport.(starter); ok {
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("mcp: failed to start transport: %w", err)
		}
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if !c.autoInitialize {
		return nil
	}
	_, err := c.Initialize(ctx, schema.InitializeParams{
		ProtocolVersion: c.protocolVersion,
		Capabilities:    c.clientCapabilities,
		ClientInfo:      c.clientInfo,
	})
	return err
}

// Disconnect marks the client unconnected and uninitialized, then stops
// the underlying transport if it exposes an explicit Stop() error
// lifecycle.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.initialized = false
	c.mu.Unlock()

	if s, ok := c.transport.(stopper); ok {
		return s.Stop()
	}
	return nil
}

// do sends req through the circuit breaker and the per-request timeout,
// recording the outcome on the breaker. It does not interpret the
// response's Error member; callers that expect a result do that.
func (c *Client) do(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if !c.isConnected() {
		return nil, &NotConnectedError{}
	}
	if c.breaker != nil && !c.breaker.AllowRequest() {
		return nil, &CircuitOpenError{Name: c.breaker.Config().Name}
	}
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	if c.listener != nil {
		c.listener(jsonrpc.NewRequestMessage(req))
	}
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		return nil, err
	}
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	if c.listener != nil {
		c.listener(jsonrpc.NewResponseMessage(resp))
	}
	return resp, nil
}

// notify sends a notification through the transport, tapping the wire
// listener when one is registered.
func (c *Client) notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if c.listener != nil {
		c.listener(jsonrpc.NewNotificationMessage(notification))
	}
	return c.transport.Notify(ctx, notification)
}

// call performs a full catalog round trip: it requires Initialize to
// have already completed, marshals params into the request, and
// unmarshals the response's Result into result when non-nil.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if !c.isInitialized() {
		return &NotInitializedError{}
	}
	req, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return newRpcError(resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("mcp: failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// Initialize performs the MCP handshake: it sends the initialize
// request (filling ProtocolVersion from the Client's configured default
// when empty, and, when ClientInfo is zero, taking both ClientInfo and
// Capabilities from the configured defaults, replacing any Capabilities
// passed in), caches the server's answer, and sends the
// notifications/initialized notification.
func (c *Client) Initialize(ctx context.Context, params schema.InitializeParams) (*schema.InitializeResult, error) {
	if !c.isConnected() {
		return nil, &NotConnectedError{}
	}
	if params.ProtocolVersion == "" {
		params.ProtocolVersion = c.protocolVersion
	}
	if params.ClientInfo == (schema.Implementation{}) {
		params.ClientInfo = c.clientInfo
		params.Capabilities = c.clientCapabilities
	}

	req, err := jsonrpc.NewRequest(MethodInitialize, params)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, newRpcError(resp.Error)
	}
	result := &schema.InitializeResult{}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return nil, fmt.Errorf("mcp: failed to decode initialize result: %w", err)
	}

	c.mu.Lock()
	c.serverInfo = result.ServerInfo
	c.serverCapabilities = result.Capabilities
	c.instructions = result.Instructions
	c.initialized = true
	c.mu.Unlock()

	if err := c.notify(ctx, &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: MethodInitialized}); err != nil {
		return result, fmt.Errorf("mcp: failed to send initialized notification: %w", err)
	}
	return result, nil
}

// Ping issues a liveness check. Unlike every other catalog operation it
// does not require Initialize to have completed.
func (c *Client) Ping(ctx context.Context) error {
	req, err := jsonrpc.NewRequest(MethodPing, struct{}{})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return newRpcError(resp.Error)
	}
	return nil
}

func (c *Client) ListTools(ctx context.Context, params schema.ListToolsParams) (*schema.ListToolsResult, error) {
	result := &schema.ListToolsResult{}
	if err := c.call(ctx, MethodToolsList, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CallTool(ctx context.Context, params schema.CallToolParams) (*schema.CallToolResult, error) {
	result := &schema.CallToolResult{}
	if err := c.call(ctx, MethodToolsCall, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListResources(ctx context.Context, params schema.ListResourcesParams) (*schema.ListResourcesResult, error) {
	result := &schema.ListResourcesResult{}
	if err := c.call(ctx, MethodResourcesList, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ReadResource(ctx context.Context, params schema.ReadResourceParams) (*schema.ReadResourceResult, error) {
	result := &schema.ReadResourceResult{}
	if err := c.call(ctx, MethodResourcesRead, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SubscribeResource fails locally, without a wire round-trip, when the
// server's initialize capabilities did not advertise resources.subscribe.
func (c *Client) SubscribeResource(ctx context.Context, params schema.SubscribeParams) error {
	if !c.resourcesSubscribable() {
		return &ValidationError{Op: MethodResourcesSubscribe, Err: errors.New("server did not advertise resources.subscribe")}
	}
	return c.call(ctx, MethodResourcesSubscribe, params, nil)
}

func (c *Client) UnsubscribeResource(ctx context.Context, params schema.UnsubscribeParams) error {
	if !c.resourcesSubscribable() {
		return &ValidationError{Op: MethodResourcesUnsubscribe, Err: errors.New("server did not advertise resources.subscribe")}
	}
	return c.call(ctx, MethodResourcesUnsubscribe, params, nil)
}

func (c *Client) ListResourceTemplates(ctx context.Context, params schema.ListResourceTemplatesParams) (*schema.ListResourceTemplatesResult, error) {
	result := &schema.ListResourceTemplatesResult{}
	if err := c.call(ctx, MethodResourceTemplatesList, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListPrompts(ctx context.Context, params schema.ListPromptsParams) (*schema.ListPromptsResult, error) {
	result := &schema.ListPromptsResult{}
	if err := c.call(ctx, MethodPromptsList, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetPrompt(ctx context.Context, params schema.GetPromptParams) (*schema.GetPromptResult, error) {
	result := &schema.GetPromptResult{}
	if err := c.call(ctx, MethodPromptsGet, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Complete(ctx context.Context, params schema.CompleteParams) (*schema.CompleteResult, error) {
	result := &schema.CompleteResult{}
	if err := c.call(ctx, MethodCompletionComplete, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) SetLoggingLevel(ctx context.Context, level schema.LoggingLevel) error {
	return c.call(ctx, MethodLoggingSetLevel, schema.SetLoggingLevelParams{Level: level}, nil)
}

// CancelRequest sends notifications/cancelled for id. It does not by
// itself unblock a caller waiting on that request: the caller's own
// context cancellation is what unblocks its Send call, per the
// transport's RoundTrip.Wait semantics. CancelRequest is the wire-level
// courtesy notice telling the server to stop working on it.
func (c *Client) CancelRequest(ctx context.Context, id jsonrpc.RequestId, reason string) error {
	data, err := json.Marshal(schema.CancelledParams{RequestId: id, Reason: reason})
	if err != nil {
		return err
	}
	return c.notify(ctx, &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: MethodCancelled, Params: data})
}

// NotifyRootsListChanged tells the server the client's root set changed, so
// it should re-issue roots/list. Fire-and-forget; no acknowledgement.
func (c *Client) NotifyRootsListChanged(ctx context.Context) error {
	return c.notify(ctx, &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: MethodRootsListChanged})
}

// OnNotification registers fn to run whenever a notification named
// method arrives. Passing "" registers a catch-all invoked for every
// notification regardless of method, in addition to any method-specific
// handlers. Handlers run with panic/error isolation: one misbehaving
// handler never stops the others or the receive loop.
func (c *Client) OnNotification(method string, fn func(context.Context, *jsonrpc.Notification)) {
	c.notifMu.Lock()
	defer c.notifMu.Unlock()
	if method == "" {
		c.catchAll = append(c.catchAll, fn)
		return
	}
	c.notifiers[method] = append(c.notifiers[method], fn)
}

func (c *Client) SetElicitationHandler(h ElicitationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elicitation = h
}

func (c *Client) SetSamplingHandler(h SamplingHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampling = h
}

func (c *Client) SetRootsHandler(h RootsHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rootsHandler = h
}

// dispatchNotification fans a received notification out to every
// handler registered for its method plus every catch-all handler, each
// isolated from the others' panics.
func (c *Client) dispatchNotification(ctx context.Context, notification *jsonrpc.Notification) {
	c.notifMu.RLock()
	handlers := append([]func(context.Context, *jsonrpc.Notification){}, c.notifiers[notification.Method]...)
	handlers = append(handlers, c.catchAll...)
	c.notifMu.RUnlock()

	for _, fn := range handlers {
		c.runNotificationHandler(ctx, fn, notification)
	}
}

func (c *Client) runNotificationHandler(ctx context.Context, fn func(context.Context, *jsonrpc.Notification), notification *jsonrpc.Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("mcp: notification handler for %s panicked: %v", notification.Method, r)
		}
	}()
	fn(ctx, notification)
}

// serve answers a server-initiated request: elicitation/create,
// sampling/createMessage, or roots/list. Unrecognized methods answer
// MethodNotFound, matching the JSON-RPC contract any Handler honors.
//
// The handler itself runs on a worker goroutine bounded by handlerTimeout,
// so a stuck handler cannot hold the transport's receive loop; a timed-out
// handler's late writes go to a scratch response that is never read.
func (c *Client) serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = jsonrpc.Version

	var dispatch func(context.Context, *jsonrpc.Request, *jsonrpc.Response)
	switch request.Method {
	case MethodElicitationCreate:
		dispatch = c.serveElicit
	case MethodSamplingCreateMsg:
		dispatch = c.serveSampling
	case MethodRootsList:
		dispatch = c.serveRoots
	default:
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: fmt.Sprintf("mcp: method not found: %s", request.Method)}
		return
	}

	if c.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.handlerTimeout)
		defer cancel()
	}

	scratch := &jsonrpc.Response{Id: request.Id, Jsonrpc: jsonrpc.Version}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Errorf("mcp: handler for %s panicked: %v", request.Method, r)
				scratch.Error = &jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: fmt.Sprintf("mcp: handler for %s panicked", request.Method)}
			}
		}()
		dispatch(ctx, request, scratch)
	}()

	select {
	case <-done:
		response.Result = scratch.Result
		response.Error = scratch.Error
	case <-ctx.Done():
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: fmt.Sprintf("mcp: handler for %s did not complete: %v", request.Method, ctx.Err())}
	}
}

func (c *Client) serveElicit(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	c.mu.RLock()
	handler := c.elicitation
	cfg := c.urlValidatorConfig
	c.mu.RUnlock()

	var params schema.ElicitParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.InvalidParams, Message: err.Error()}
		return
	}

	if handler == nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "mcp: no elicitation handler configured"}
		return
	}

	if params.Mode == schema.ElicitModeURL && params.URL != "" {
		result := security.Validate(params.URL, cfg)
		if !result.Safe {
			writeResult(response, &schema.ElicitResult{Action: schema.ElicitActionDecline})
			return
		}
	}

	result, err := handler.Elicit(ctx, params)
	if err != nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: err.Error()}
		return
	}
	writeResult(response, result)
}

func (c *Client) serveSampling(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	c.mu.RLock()
	handler := c.sampling
	c.mu.RUnlock()

	if handler == nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.MethodNotFound, Message: "mcp: no sampling handler configured"}
		return
	}

	var params schema.CreateMessageParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.InvalidParams, Message: err.Error()}
		return
	}

	result, err := handler.CreateMessage(ctx, params)
	if err != nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: err.Error()}
		return
	}
	writeResult(response, result)
}

func (c *Client) serveRoots(ctx context.Context, _ *jsonrpc.Request, response *jsonrpc.Response) {
	c.mu.RLock()
	handler := c.rootsHandler
	defaultRoots := c.defaultRoots
	c.mu.RUnlock()

	var roots []*schema.Root
	if handler != nil {
		roots = handler.ListRoots(ctx)
	} else {
		roots = defaultRoots
	}
	if roots == nil {
		roots = []*schema.Root{}
	}
	writeResult(response, &schema.ListRootsResult{Roots: roots})
}

func writeResult(response *jsonrpc.Response, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		response.Error = &jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: err.Error()}
		return
	}
	response.Result = data
}
