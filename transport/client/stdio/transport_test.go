package stdio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
)

func TestTransportHappyPath(t *testing.T) {
	tr, err := New(Config{
		Command:          "cat",
		Framing:          FramingLengthPrefixed,
		MaxContentLength: 1 << 16,
	})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	for i := 1; i <= 5; i++ {
		resp, err := tr.Send(context.Background(), &jsonrpc.Request{
			Jsonrpc: jsonrpc.Version,
			Id:      i,
			Method:  "ping",
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
	}
	require.NoError(t, tr.Stop())
	require.False(t, tr.IsRunning())
	require.False(t, tr.IsProcessAlive())
}

func TestFrameReaderMixedCaseHeader(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	go func() {
		_, _ = w.Write([]byte("content-length: 13\r\n\r\n{\"test\":\"ok\"}"))
		_ = w.Close()
	}()

	reader := newFrameReader(r, 1<<16)
	frame, err := reader.ReadFrame(FramingLengthPrefixed, time.Second)
	require.NoError(t, err)
	require.JSONEq(t, `{"test":"ok"}`, string(frame))
}

func TestFrameReaderTimeout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	reader := newFrameReader(r, 1<<16)
	start := time.Now()
	_, err = reader.ReadFrame(FramingLengthPrefixed, 100*time.Millisecond)
	require.Error(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTransportReadTimeoutFailsPendingSend(t *testing.T) {
	tr, err := New(Config{
		Command:     "sleep",
		Args:        []string{"10"},
		Framing:     FramingLengthPrefixed,
		ReadTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	_, err = tr.Send(ctx, &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: 1, Method: "ping"})
	require.Error(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestValidateCommandRejectsShellMetacharacters(t *testing.T) {
	_, err := New(Config{Command: "echo; rm -rf /"})
	require.Error(t, err)
}

func TestSkipCommandValidation(t *testing.T) {
	_, err := New(Config{Command: "echo; rm -rf /", SkipCommandValidation: true})
	require.NoError(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	tr, err := New(Config{Command: "cat"})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Stop())
	require.NoError(t, tr.Stop())
}
