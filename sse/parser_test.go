package sse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParserSingleEventAcrossFeeds(t *testing.T) {
	p := New(Config{})

	events, err := p.Feed([]byte("event: update\nid: 1\ndata: hello"))
	require.NoError(t, err)
	require.Empty(t, events)

	events, err = p.Feed([]byte("\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "update", events[0].Event)
	require.Equal(t, "1", events[0].ID)
	require.Equal(t, "hello", events[0].Data)
}

func TestParserMultipleDataLinesJoinedWithNewline(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("data: line one\ndata: line two\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "line one\nline two", events[0].Data)
}

func TestParserCommentLinesIgnored(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte(": keep-alive\ndata: hi\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "hi", events[0].Data)
}

func TestParserUnknownFieldIgnored(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("bogus: value\ndata: hi\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "hi", events[0].Data)
}

func TestParserRetryRequiresAllDigits(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("retry: 12ab\ndata: hi\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Nil(t, events[0].Retry)

	p2 := New(Config{})
	events, err = p2.Feed([]byte("retry: 2500\ndata: hi\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Retry)
	require.EqualValues(t, 2500, *events[0].Retry)
}

func TestParserBlankLineWithoutDataDoesNotEmit(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("\n\n\n"))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestParserFieldWithNoColonTreatedAsNameOnlyValue(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("data\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "", events[0].Data)
}

func TestParserValueLeadingSpaceStrippedOnlyOnce(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("data:  two spaces\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, " two spaces", events[0].Data)
}

func TestParserBufferOverflowLeavesBufferUntouched(t *testing.T) {
	p := New(Config{MaxBufferSize: 10})

	events, err := p.Feed([]byte("data: ab"))
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = p.Feed([]byte("cdefghij"))
	require.Error(t, err)
	var overflow *ErrBufferOverflow
	require.ErrorAs(t, err, &overflow)

	// Buffer was left untouched by the rejected feed: completing the
	// original partial line still parses correctly.
	events, err = p.Feed([]byte("\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "ab", events[0].Data)
}

func TestParserOversizedEventDroppedSilentlyAndParsingContinues(t *testing.T) {
	p := New(Config{MaxEventSize: 5})

	events, err := p.Feed([]byte("data: toolong\n\n"))
	require.NoError(t, err)
	require.Empty(t, events)

	events, err = p.Feed([]byte("data: ok\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "ok", events[0].Data)
}

func TestParserCRLFLineEndingsHandled(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("data: hi\r\n\r\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "hi", events[0].Data)
}

func TestParserMultipleEventsInOneFeed(t *testing.T) {
	p := New(Config{})
	events, err := p.Feed([]byte("data: one\n\ndata: two\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "one", events[0].Data)
	require.Equal(t, "two", events[1].Data)
}

func TestParserResetClearsPartialEvent(t *testing.T) {
	p := New(Config{})
	_, err := p.Feed([]byte("data: partial"))
	require.NoError(t, err)

	p.Reset()

	events, err := p.Feed([]byte("data: fresh\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "fresh", events[0].Data)
}

func TestParserChunkingIndependence(t *testing.T) {
	stream := []byte("id: 7\ndata: hello world\n\n")
	for split := 0; split <= len(stream); split++ {
		p := New(Config{})
		events, err := p.Feed(stream[:split])
		require.NoError(t, err)
		rest, err := p.Feed(stream[split:])
		require.NoError(t, err)
		events = append(events, rest...)
		require.Len(t, events, 1, "split at %d", split)
		require.Equal(t, "hello world", events[0].Data)
		require.Equal(t, "7", events[0].ID)
	}
}

func TestParserCompactionAcrossManyEvents(t *testing.T) {
	p := New(Config{})
	for i := 0; i < 200; i++ {
		events, err := p.Feed([]byte("data: chunk-of-some-length\n\n"))
		require.NoError(t, err)
		require.Len(t, events, 1)
	}
}
