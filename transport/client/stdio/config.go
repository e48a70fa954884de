// Package stdio implements a JSON-RPC transport that spawns a local child
// process and frames messages over its stdin/stdout, per one of two wire
// framings.
package stdio

import "time"

// Framing selects how JSON-RPC messages are delimited on the wire.
type Framing int

const (
	// FramingLengthPrefixed uses a Content-Length header, CRLF, blank
	// line, then exactly N bytes of JSON.
	FramingLengthPrefixed Framing = iota
	// FramingLineDelimited uses one JSON document per \n-terminated line.
	FramingLineDelimited
)

// StderrPolicy selects what happens to the child's stderr stream.
type StderrPolicy int

const (
	StderrDiscard StderrPolicy = iota
	StderrInherit
	StderrCapture
)

// defaultMaxContentLength mirrors the C++ reference's 1 MiB default.
const defaultMaxContentLength = 1 << 20

// Config configures a Transport.
type Config struct {
	Command string
	Args    []string

	MaxContentLength int
	Framing          Framing

	StderrPolicy   StderrPolicy
	StderrCallback func([]byte)

	// ReadTimeout bounds how long the background read loop waits for the
	// next frame; on expiry the transport fails with a timeout error that
	// reaches every pending request. Zero disables the timeout (blocks
	// indefinitely).
	ReadTimeout time.Duration

	// SkipCommandValidation disables command/argument safety checks. For
	// tests only.
	SkipCommandValidation bool
}

func (c Config) defaulted() Config {
	if c.MaxContentLength <= 0 {
		c.MaxContentLength = defaultMaxContentLength
	}
	return c
}
