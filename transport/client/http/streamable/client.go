package streamable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/jsonrpc"
	transport2 "github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/base"
	"github.com/viant/jsonrpc/session"
	"github.com/viant/jsonrpc/sse"
)

// Client is the Streamable-HTTP MCP transport. The zero value is not
// usable; construct with New. Client implements transport.Transport plus
// the optional Start(ctx)/Stop() lifecycle mcp.Client recognizes.
type Client struct {
	cfg     Config
	base    *base.Client
	session *session.Manager
	store   session.Store
	logger  jsonrpc.Logger

	headersMu sync.RWMutex
	headers   http.Header // static extra headers, e.g. MCP-Protocol-Version

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
	startMu  sync.Mutex
}

// New constructs a Client against cfg.BaseURL. The connection is not
// attempted until Start.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.defaulted()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("streamable: BaseURL is required")
	}
	// An HTTP(S) base URL is required; everything else is opaque.
	if scheme := url.Scheme(cfg.BaseURL, "http"); scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("streamable: unsupported URL scheme %q", scheme)
	}

	c := &Client{
		cfg:     cfg,
		session: session.New(),
		logger:  cfg.Logger,
		headers: make(http.Header),
	}
	c.base = &base.Client{
		RoundTrips: transport2.NewRoundTrips(0),
		Handler:    &base.Handler{},
		Logger:     cfg.Logger,
		RunTimeout: 0,
	}
	c.base.Transport = &postTransport{client: c}
	for _, opt := range opts {
		opt(c)
	}

	c.session.OnSessionEstablished(func(id string) {
		if c.store == nil {
			return
		}
		eid, _ := c.session.LastEventID()
		_ = c.store.Save(context.Background(), session.Snapshot{SessionID: id, LastEventID: eid})
	})
	c.session.OnSessionLost(func() {
		if c.store != nil {
			_ = c.store.Clear(context.Background())
		}
	})

	return c, nil
}

// Notify sends a JSON-RPC notification; the server is expected to answer
// 202 Accepted with no body.
func (c *Client) Notify(ctx context.Context, n *jsonrpc.Notification) error {
	return c.base.Notify(ctx, n)
}

// Send sends a JSON-RPC request and waits for its correlated response.
func (c *Client) Send(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
	return c.base.Send(ctx, r)
}

// Start begins the background SSE reader (unless disabled) and marks the
// session manager Connecting. Start is idempotent.
func (c *Client) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.started {
		return nil
	}
	c.session.BeginConnect()
	c.stopCh = make(chan struct{})
	c.started = true
	c.stopOnce = sync.Once{}

	if c.store != nil {
		if snap, err := c.store.Load(ctx); err == nil && snap.LastEventID != "" {
			c.session.RecordEventID(snap.LastEventID)
		}
	}

	if !c.cfg.DisableSSEStream {
		c.wg.Add(1)
		go c.sseLoop()
	}
	return nil
}

// Stop sends a best-effort DELETE to close the session server-side, signals
// the background SSE reader to exit, waits for it, drains any pending
// requests, and marks the transport Disconnected. Idempotent.
func (c *Client) Stop() error {
	c.stopOnce.Do(func() {
		c.startMu.Lock()
		running := c.started
		stopCh := c.stopCh
		c.started = false
		c.startMu.Unlock()
		if !running {
			return
		}

		c.session.BeginClose()
		close(stopCh)

		if sid, ok := c.session.SessionID(); ok && sid != "" {
			c.sendDelete(sid)
		}

		c.wg.Wait()
		c.base.RoundTrips.CloseWithError(fmt.Errorf("streamable: transport stopped"))
		c.session.CloseComplete()
	})
	return nil
}

func (c *Client) sendDelete(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL, nil)
	if err != nil {
		return
	}
	req.Header.Set(SessionHeader, sessionID)
	c.applyStaticHeaders(req)
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) isStopped() bool {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	return !c.started
}

func (c *Client) stopSignal() <-chan struct{} {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	return c.stopCh
}

func (c *Client) applyStaticHeaders(req *http.Request) {
	c.headersMu.RLock()
	defer c.headersMu.RUnlock()
	for k, v := range c.headers {
		req.Header[k] = v
	}
}

// setStaticHeader sets a header applied to every outbound POST/GET/DELETE,
// e.g. MCP-Protocol-Version.
func (c *Client) setStaticHeader(name, value string) {
	c.headersMu.Lock()
	defer c.headersMu.Unlock()
	c.headers.Set(name, value)
}

// --- POST path ---

// postTransport adapts Client to base.Transport (SendData), implementing
// the retry/backoff/session-recovery POST contract from spec §4.5.
type postTransport struct {
	client *Client
}

func (p *postTransport) SendData(ctx context.Context, data []byte) error {
	c := p.client
	if c.cfg.MaxRequestBodySize > 0 && len(data) > c.cfg.MaxRequestBodySize {
		return transport2.NewProtocolError("send", fmt.Errorf("streamable: request body %d bytes exceeds max %d", len(data), c.cfg.MaxRequestBodySize))
	}
	return c.postWithRetry(ctx, data, true)
}

// postWithRetry performs one POST with the configured retry/backoff
// policy. allowSessionRetry guards the single 404-triggered retry without
// a Session-Id header, so that retry itself cannot recurse.
func (c *Client) postWithRetry(ctx context.Context, data []byte, allowSessionRetry bool) error {
	attempt := 0
	for {
		attempt++
		resp, err := c.doPost(ctx, data)
		if err != nil {
			if c.isStopped() {
				return transport2.NewNetworkError("send", err)
			}
			if !c.cfg.RetryPolicy.ShouldRetry(attempt, 0) {
				return transport2.NewNetworkError("send", err)
			}
			if !c.sleepForRetry(ctx, c.cfg.Backoff.NextDelay(attempt)) {
				return transport2.NewNetworkError("send", ctx.Err())
			}
			continue
		}

		retry, result := c.handlePostResponse(ctx, resp, allowSessionRetry)
		if !retry {
			return result
		}
		if result != nil {
			// handlePostResponse signalled a retryable status; decide via policy.
			if he, ok := result.(*transport2.HTTPStatusError); ok {
				if !c.cfg.RetryPolicy.ShouldRetry(attempt, he.StatusCode) {
					return result
				}
				delay := c.cfg.Backoff.NextDelay(attempt)
				if resp.haveRetryAft {
					delay = resp.retryAfter
				}
				if !c.sleepForRetry(ctx, delay) {
					return ctx.Err()
				}
				continue
			}
			return result
		}
		// allowSessionRetry path: session expired, retry once without it.
		allowSessionRetry = false
		continue
	}
}

// handlePostResponse classifies resp per spec §4.5 and either finishes the
// exchange, returns a retryable error for the caller's retry loop, or (true,
// nil) to signal "retry once without Session-Id" for session expiration.
func (c *Client) handlePostResponse(ctx context.Context, resp *httpResponse, allowSessionRetry bool) (retry bool, result error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		return false, nil

	case resp.StatusCode == http.StatusNotFound:
		if sid, ok := c.session.SessionID(); ok && sid != "" && allowSessionRetry {
			c.session.SessionExpired()
			return true, nil
		}
		body, _ := io.ReadAll(resp.Body)
		return false, transport2.NewHTTPStatusError(http.StatusNotFound, string(body))

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, c.consumePostSuccess(ctx, resp)

	default:
		body, _ := io.ReadAll(resp.Body)
		return true, transport2.NewHTTPStatusError(resp.StatusCode, string(body))
	}
}

// consumePostSuccess parses a successful POST response body, dispatching
// its content through the shared base.Client message handler.
func (c *Client) consumePostSuccess(ctx context.Context, resp *httpResponse) error {
	ct := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "text/event-stream"):
		return c.consumeSSEBody(ctx, resp.Body)
	case strings.Contains(ct, "application/json"):
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return transport2.NewNetworkError("send", err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		c.base.HandleMessage(ctx, body)
		return nil
	default:
		// No content (e.g. 200 with empty body, some servers' ack style).
		return nil
	}
}

// consumeSSEBody feeds an HTTP response body through an SSE parser until
// EOF, dispatching each event with non-empty JSON data and recording event
// ids for Last-Event-ID resumption.
func (c *Client) consumeSSEBody(ctx context.Context, body io.ReadCloser) error {
	parser := sse.New(sse.Config{MaxBufferSize: c.cfg.ParserConfig.MaxBufferSize, MaxEventSize: c.cfg.ParserConfig.MaxEventSize})
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			events, feedErr := parser.Feed(buf[:n])
			if feedErr != nil {
				return transport2.NewProtocolError("receive", feedErr)
			}
			c.dispatchEvents(ctx, events)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return transport2.NewNetworkError("receive", err)
		}
	}
}

func (c *Client) dispatchEvents(ctx context.Context, events []sse.Event) {
	for _, evt := range events {
		if evt.ID != "" {
			c.session.RecordEventID(evt.ID)
		}
		data := strings.TrimSpace(evt.Data)
		if data == "" || !json.Valid([]byte(data)) {
			continue
		}
		c.base.HandleMessage(ctx, []byte(data))
	}
}

// httpResponse is the minimal view of *http.Response the POST path needs,
// plus a parsed Retry-After so the retry loop need not re-parse headers.
type httpResponse struct {
	*http.Response
	retryAfter   time.Duration
	haveRetryAft bool
}

func (c *Client) doPost(ctx context.Context, data []byte) (*httpResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeaderValue)
	if sid, ok := c.session.SessionID(); ok && sid != "" {
		req.Header.Set(SessionHeader, sid)
	}
	c.applyStaticHeaders(req)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	if sid := resp.Header.Get(SessionHeader); sid != "" {
		if state := c.session.State(); state != session.Active {
			c.session.ConnectionEstablished(sid)
		} else if cur, ok := c.session.SessionID(); !ok || cur != sid {
			// Server rotated the session id mid-stream; accept it silently.
			c.session.SessionExpired()
			c.session.BeginConnect()
			c.session.ConnectionEstablished(sid)
		}
	}

	out := &httpResponse{Response: resp}
	if d, ok := retryAfterDelay(resp.Header.Get("Retry-After")); ok {
		out.retryAfter, out.haveRetryAft = d, true
	}
	return out, nil
}

func (c *Client) sleepForRetry(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.stopSignal():
		return false
	}
}

// --- background SSE GET reader ---

func (c *Client) sseLoop() {
	defer c.wg.Done()
	stop := c.stopSignal()
	for {
		select {
		case <-stop:
			return
		default:
		}

		sid, ok := c.session.SessionID()
		if !ok || sid == "" {
			if !c.waitOrStop(stop, 100*time.Millisecond) {
				return
			}
			continue
		}

		if err := c.runSSEStream(stop, sid); err != nil {
			c.logger.Errorf("streamable: sse stream error: %v", err)
		}
		if !c.waitOrStop(stop, c.cfg.SSEReconnectDelay) {
			return
		}
	}
}

func (c *Client) waitOrStop(stop <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) runSSEStream(stop <-chan struct{}, sessionID string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(SessionHeader, sessionID)
	if eid, ok := c.session.LastEventID(); ok && eid != "" {
		req.Header.Set(LastEventIDHeader, eid)
	}
	c.applyStaticHeaders(req)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.session.SessionExpired()
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return transport2.NewHTTPStatusError(resp.StatusCode, string(body))
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		return nil
	}
	return c.consumeSSEBody(context.Background(), resp.Body)
}
