package jsonrpc

// Listener observes every wire-level Message a Client sends or receives,
// independent of notification/handler dispatch, e.g. for tracing.
type Listener func(message *Message)

// sessionContextKey is the unexported type backing SessionKey so callers
// cannot collide with it via a plain string context key.
type sessionContextKey struct{}

// SessionKey is the context key a transport stores its current session
// identifier under, so a handler invoked deeper in the call stack can
// recover which session a request belongs to.
var SessionKey = sessionContextKey{}
