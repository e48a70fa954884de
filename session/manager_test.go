package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerStartsDisconnected(t *testing.T) {
	m := New()
	require.Equal(t, Disconnected, m.State())
}

func TestManagerConnectLifecycle(t *testing.T) {
	m := New()
	require.True(t, m.BeginConnect())
	require.Equal(t, Connecting, m.State())

	require.True(t, m.ConnectionEstablished("sess-123"))
	require.Equal(t, Active, m.State())

	sid, ok := m.SessionID()
	require.True(t, ok)
	require.Equal(t, "sess-123", sid)
}

func TestManagerBeginConnectRejectedFromActive(t *testing.T) {
	m := New()
	m.BeginConnect()
	m.ConnectionEstablished("sess-1")
	require.False(t, m.BeginConnect())
	require.Equal(t, Active, m.State())
}

func TestManagerConnectionFailedReturnsToDisconnected(t *testing.T) {
	m := New()
	m.BeginConnect()
	m.ConnectionFailed("dial timeout")
	require.Equal(t, Disconnected, m.State())
}

func TestManagerSessionExpiredClearsSessionID(t *testing.T) {
	m := New()
	m.BeginConnect()
	m.ConnectionEstablished("sess-1")

	m.SessionExpired()
	require.Equal(t, Reconnecting, m.State())

	_, ok := m.SessionID()
	require.False(t, ok)
}

func TestManagerReconnectAfterExpiry(t *testing.T) {
	m := New()
	m.BeginConnect()
	m.ConnectionEstablished("sess-1")
	m.SessionExpired()

	require.True(t, m.BeginConnect())
	require.True(t, m.ConnectionEstablished("sess-2"))
	sid, _ := m.SessionID()
	require.Equal(t, "sess-2", sid)
}

func TestManagerInvalidSessionIDRejected(t *testing.T) {
	m := New()
	m.BeginConnect()

	require.False(t, m.ConnectionEstablished(""))
	require.Equal(t, Connecting, m.State())

	tooLong := strings.Repeat("a", 1000)
	require.False(t, m.ConnectionEstablished(tooLong))
	require.Equal(t, Connecting, m.State())

	require.False(t, m.ConnectionEstablished("bad\x00id"))
	require.Equal(t, Connecting, m.State())
}

func TestManagerCustomSessionIDLengthLimit(t *testing.T) {
	m := New(WithMaxSessionIDLength(4))
	m.BeginConnect()
	require.False(t, m.ConnectionEstablished("toolong"))
	require.True(t, m.ConnectionEstablished("ok"))
}

func TestManagerRecordAndClearLastEventID(t *testing.T) {
	m := New()
	m.RecordEventID("evt-1")
	id, ok := m.LastEventID()
	require.True(t, ok)
	require.Equal(t, "evt-1", id)

	m.ClearLastEventID()
	_, ok = m.LastEventID()
	require.False(t, ok)
}

func TestManagerCloseLifecycle(t *testing.T) {
	m := New()
	m.BeginConnect()
	m.ConnectionEstablished("sess-1")

	require.True(t, m.BeginClose())
	require.Equal(t, Closing, m.State())

	require.True(t, m.CloseComplete())
	require.Equal(t, Disconnected, m.State())
}

func TestManagerCallbacksFireOnTransitions(t *testing.T) {
	m := New()

	var stateChanges []State
	var established []string
	lostCount := 0

	m.OnStateChange(func(_, new State) { stateChanges = append(stateChanges, new) })
	m.OnSessionEstablished(func(id string) { established = append(established, id) })
	m.OnSessionLost(func() { lostCount++ })

	m.BeginConnect()
	m.ConnectionEstablished("sess-1")
	m.SessionExpired()

	require.Equal(t, []State{Connecting, Active, Reconnecting}, stateChanges)
	require.Equal(t, []string{"sess-1"}, established)
	require.Equal(t, 1, lostCount)
}
