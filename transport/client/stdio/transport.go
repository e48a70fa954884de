package stdio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/viant/jsonrpc"
	transport2 "github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/base"
)

// Transport spawns a local child process and frames JSON-RPC messages over
// its stdin/stdout, per Config.Framing. It implements
// github.com/viant/jsonrpc/transport.Transport via the embedded
// transport/client/base engine, which owns request correlation; Transport
// itself only owns the process lifecycle and the wire framing.
type Transport struct {
	*base.Client
	cfg Config

	mu       sync.Mutex
	starting bool
	running  bool

	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	reader *frameReader

	stderrR *os.File

	exited   chan struct{}
	exitMu   sync.Mutex
	exitCode int
	exitSet  bool

	stderrMu  sync.Mutex
	stderrBuf bytes.Buffer

	stopOnce sync.Once
}

// Option mutates a Transport before Start.
type Option func(*Transport)

// WithListener sets a wire-level message listener.
func WithListener(l jsonrpc.Listener) Option {
	return func(t *Transport) { t.Client.Listener = l }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l jsonrpc.Logger) Option {
	return func(t *Transport) { t.Client.Logger = l }
}

// WithHandler overrides the default (MethodNotFound) server-request handler.
func WithHandler(h transport2.Handler) Option {
	return func(t *Transport) { t.Client.Handler = h }
}

// WithInterceptor sets a response interceptor.
func WithInterceptor(i transport2.Interceptor) Option {
	return func(t *Transport) { t.Client.Interceptor = i }
}

// New validates cfg (unless cfg.SkipCommandValidation) and constructs a
// Transport. The child process is not spawned until Start.
func New(cfg Config, opts ...Option) (*Transport, error) {
	cfg = cfg.defaulted()
	if !cfg.SkipCommandValidation {
		if err := validateCommand(cfg.Command, cfg.Args); err != nil {
			return nil, err
		}
	}
	t := &Transport{
		cfg: cfg,
		Client: &base.Client{
			RoundTrips: transport2.NewRoundTrips(0),
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	t.Client.Transport = t
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start spawns the child process and begins the background read loop.
// Concurrent Start calls are rejected.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.starting || t.running {
		t.mu.Unlock()
		return fmt.Errorf("stdio: transport already starting or running")
	}
	t.starting = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.starting = false
		t.mu.Unlock()
	}()

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return transport2.NewNetworkError("start", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		return transport2.NewNetworkError("start", err)
	}

	cmd := exec.CommandContext(context.Background(), t.cfg.Command, t.cfg.Args...)
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW

	var stderrR *os.File
	switch t.cfg.StderrPolicy {
	case StderrInherit:
		cmd.Stderr = os.Stderr
	case StderrCapture:
		var stderrW *os.File
		stderrR, stderrW, err = os.Pipe()
		if err != nil {
			_ = stdinR.Close()
			_ = stdinW.Close()
			_ = stdoutR.Close()
			_ = stdoutW.Close()
			return transport2.NewNetworkError("start", err)
		}
		cmd.Stderr = stderrW
		defer stderrW.Close()
	default: // StderrDiscard
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		if stderrR != nil {
			_ = stderrR.Close()
		}
		return transport2.NewNetworkError("start", err)
	}

	// Parent closes the child's ends of the pipes.
	_ = stdinR.Close()
	_ = stdoutW.Close()

	t.mu.Lock()
	t.cmd = cmd
	t.stdin = stdinW
	t.stdout = stdoutR
	t.reader = newFrameReader(stdoutR, t.cfg.MaxContentLength)
	t.stderrR = stderrR
	t.exited = make(chan struct{})
	t.exitSet = false
	t.running = true
	t.Client.RoundTrips = transport2.NewRoundTrips(0)
	t.stopOnce = sync.Once{}
	t.mu.Unlock()

	go t.waitForExit()
	go t.readLoop()
	if stderrR != nil {
		go t.captureStderr(stderrR)
	}
	return nil
}

func (t *Transport) waitForExit() {
	err := t.cmd.Wait()
	code := 0
	if state := t.cmd.ProcessState; state != nil {
		code = state.ExitCode()
		if code == -1 {
			if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				code = -int(ws.Signal())
			}
		}
	} else if err != nil {
		code = -1
	}
	t.exitMu.Lock()
	t.exitCode = code
	t.exitSet = true
	t.exitMu.Unlock()
	close(t.exited)
}

func (t *Transport) captureStderr(r *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			t.stderrMu.Lock()
			t.stderrBuf.Write(chunk)
			t.stderrMu.Unlock()
			if t.cfg.StderrCallback != nil {
				t.cfg.StderrCallback(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}

// StderrOutput returns everything captured from the child's stderr so far,
// when StderrPolicy is StderrCapture.
func (t *Transport) StderrOutput() []byte {
	t.stderrMu.Lock()
	defer t.stderrMu.Unlock()
	return append([]byte(nil), t.stderrBuf.Bytes()...)
}

// readLoop pulls complete frames off the child's stdout and dispatches them
// through the base engine until the stream ends or the transport stops.
func (t *Transport) readLoop() {
	for {
		frame, err := t.reader.ReadFrame(t.cfg.Framing, t.cfg.ReadTimeout)
		if err != nil {
			if err == errStopped {
				return
			}
			classified := classifyReadError(err)
			t.Client.SetError(classified)
			// Receive failure surfaces to every in-flight caller, not just
			// future sends.
			t.Client.RoundTrips.CloseWithError(classified)
			return
		}
		t.Client.HandleMessage(context.Background(), frame)
	}
}

func classifyReadError(err error) error {
	if ne, ok := err.(net_timeoutError); ok && ne.Timeout() {
		return transport2.NewTimeoutError("receive", err)
	}
	if _, ok := err.(*frameFormatError); ok {
		return transport2.NewProtocolError("receive", err)
	}
	return transport2.NewNetworkError("receive", err)
}

type net_timeoutError interface {
	Timeout() bool
}

// Stop tears down the child process: closes stdin (EOF), sends SIGTERM,
// waits briefly, escalates to SIGKILL, and reaps. Idempotent.
func (t *Transport) Stop() error {
	var err error
	t.stopOnce.Do(func() {
		err = t.stop()
	})
	return err
}

func (t *Transport) stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	cmd := t.cmd
	stdin := t.stdin
	stdout := t.stdout
	stderrR := t.stderrR
	reader := t.reader
	exited := t.exited
	t.mu.Unlock()

	if reader != nil {
		reader.stop()
	}
	if stdin != nil {
		_ = stdin.Close()
	}

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-exited:
		case <-time.After(2 * time.Second):
			_ = cmd.Process.Kill()
			<-exited
		}
	}

	if stdout != nil {
		_ = stdout.Close()
	}
	if stderrR != nil {
		_ = stderrR.Close()
	}

	t.mu.Lock()
	t.running = false
	t.mu.Unlock()

	t.Client.RoundTrips.CloseWithError(transport2.NewNetworkError("stop", fmt.Errorf("stdio: transport stopped")))
	return nil
}

// IsRunning reports whether Start has succeeded and Stop has not yet
// completed.
func (t *Transport) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// IsProcessAlive reports whether the child has not yet been reaped.
func (t *Transport) IsProcessAlive() bool {
	t.mu.Lock()
	exited := t.exited
	running := t.running
	t.mu.Unlock()
	if !running || exited == nil {
		return false
	}
	select {
	case <-exited:
		return false
	default:
		return true
	}
}

// ExitCode returns the child's exit status (or the negated signal number)
// and whether it has exited yet.
func (t *Transport) ExitCode() (int, bool) {
	t.exitMu.Lock()
	defer t.exitMu.Unlock()
	return t.exitCode, t.exitSet
}

// SendData writes one framed message to the child's stdin in a single
// Write call. A short write is reported as a network error.
func (t *Transport) SendData(_ context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return transport2.NewNetworkError("send", fmt.Errorf("stdio: transport not running"))
	}
	select {
	case <-t.exited:
		code, _ := t.ExitCode()
		return transport2.NewNetworkError("send", fmt.Errorf("stdio: child process exited with code %d", code))
	default:
	}

	payload := bytes.TrimRight(data, "\n")
	var framed []byte
	switch t.cfg.Framing {
	case FramingLengthPrefixed:
		framed = []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload)))
		framed = append(framed, payload...)
	default: // FramingLineDelimited
		framed = append(append([]byte(nil), payload...), '\n')
	}

	n, err := t.stdin.Write(framed)
	if err != nil {
		return transport2.NewNetworkError("send", err)
	}
	if n != len(framed) {
		return transport2.NewNetworkError("send", fmt.Errorf("stdio: short write: wrote %d of %d bytes", n, len(framed)))
	}
	return nil
}

// --- framing reader ---

var errStopped = fmt.Errorf("stdio: transport stopped")

type frameFormatError struct{ msg string }

func (e *frameFormatError) Error() string { return e.msg }

// frameReader is a single shared read buffer backing both framings'
// readers, so neither does per-byte syscalls. readExact(n) drains buf,
// refilling from the descriptor as needed.
type frameReader struct {
	r   *os.File
	buf []byte // unread bytes, buf[off:]
	off int

	maxContentLength int

	mu      sync.Mutex
	stopped bool
}

func newFrameReader(r *os.File, maxContentLength int) *frameReader {
	return &frameReader{r: r, maxContentLength: maxContentLength}
}

func (f *frameReader) stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *frameReader) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// fill reads more bytes from the descriptor into buf, respecting deadline
// (zero disables the deadline).
func (f *frameReader) fill(deadline time.Time) error {
	if f.isStopped() {
		return errStopped
	}
	if !deadline.IsZero() {
		_ = f.r.SetReadDeadline(deadline)
	} else {
		_ = f.r.SetReadDeadline(time.Time{})
	}
	chunk := make([]byte, 4096)
	n, err := f.r.Read(chunk)
	if n > 0 {
		if f.off > 0 {
			f.buf = f.buf[f.off:]
			f.off = 0
		}
		f.buf = append(f.buf, chunk[:n]...)
	}
	if err != nil {
		if f.isStopped() {
			return errStopped
		}
		return err
	}
	return nil
}

// readLine returns the next \n-terminated line (terminator stripped, plus
// any trailing \r), refilling from the descriptor as needed.
func (f *frameReader) readLine(deadline time.Time) (string, error) {
	for {
		if idx := bytes.IndexByte(f.buf[f.off:], '\n'); idx >= 0 {
			line := f.buf[f.off : f.off+idx]
			f.off += idx + 1
			return strings.TrimSuffix(string(line), "\r"), nil
		}
		if err := f.fill(deadline); err != nil {
			return "", err
		}
	}
}

// readExact returns exactly n bytes, refilling from the descriptor as
// needed.
func (f *frameReader) readExact(n int, deadline time.Time) ([]byte, error) {
	for len(f.buf)-f.off < n {
		if err := f.fill(deadline); err != nil {
			return nil, err
		}
	}
	out := append([]byte(nil), f.buf[f.off:f.off+n]...)
	f.off += n
	return out, nil
}

// ReadFrame reads one complete JSON-RPC message per framing, applying
// readTimeout (zero disables it) to the whole frame.
func (f *frameReader) ReadFrame(framing Framing, readTimeout time.Duration) ([]byte, error) {
	var deadline time.Time
	if readTimeout > 0 {
		deadline = time.Now().Add(readTimeout)
	}
	switch framing {
	case FramingLengthPrefixed:
		return f.readLengthPrefixed(deadline)
	default:
		for {
			line, err := f.readLine(deadline)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			return []byte(line), nil
		}
	}
}

func (f *frameReader) readLengthPrefixed(deadline time.Time) ([]byte, error) {
	contentLength := -1
	for {
		line, err := f.readLine(deadline)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break // blank line: headers done
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, &frameFormatError{msg: "stdio: malformed header: " + line}
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimLeft(line[idx+1:], " ")
		if strings.EqualFold(name, "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, &frameFormatError{msg: "stdio: invalid Content-Length: " + value}
			}
			contentLength = n
		}
	}
	if contentLength < 0 {
		return nil, &frameFormatError{msg: "stdio: missing Content-Length header"}
	}
	if f.maxContentLength > 0 && contentLength > f.maxContentLength {
		return nil, &frameFormatError{msg: fmt.Sprintf("stdio: Content-Length %d exceeds maximum %d", contentLength, f.maxContentLength)}
	}
	return f.readExact(contentLength, deadline)
}
