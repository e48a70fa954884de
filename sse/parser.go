// Package sse implements an incremental parser for Server-Sent Events
// streams, turning arbitrary byte chunks into complete events with bounded
// buffering, per the SSE line protocol
// (https://html.spec.whatwg.org/multipage/server-sent-events.html).
package sse

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/viant/jsonrpc/internal/pointer"
)

// compactThreshold is how many consumed-but-retained bytes accumulate
// before the buffer prefix is dropped. Keeps Feed O(1) amortized instead of
// shifting the buffer on every line.
const compactThreshold = 4096

// Event is a single Server-Sent Event.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry *uint32
}

// Config bounds parser memory use.
type Config struct {
	MaxBufferSize int
	MaxEventSize  int
}

// ErrBufferOverflow is returned by Feed when appending chunk would grow the
// internal buffer past MaxBufferSize. The buffer is left unmodified.
type ErrBufferOverflow struct {
	Size, Max int
}

func (e *ErrBufferOverflow) Error() string {
	return fmt.Sprintf("sse: buffer would grow to %d bytes, exceeding max %d", e.Size, e.Max)
}

// Parser is a single-owner, incremental SSE event parser.
type Parser struct {
	cfg Config

	buffer []byte
	cursor int

	currentID    string
	currentEvent string
	currentData  bytes.Buffer
	haveData     bool
	currentRetry *uint32
}

// New creates a Parser bounded by cfg.MaxBufferSize and cfg.MaxEventSize. A
// non-positive value disables the corresponding bound.
func New(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

// Feed appends chunk and returns any complete events it produced. Partial
// data is retained internally until a later Feed call completes it.
func (p *Parser) Feed(chunk []byte) ([]Event, error) {
	if p.cfg.MaxBufferSize > 0 {
		newSize := len(p.buffer) + len(chunk)
		if newSize > p.cfg.MaxBufferSize {
			return nil, &ErrBufferOverflow{Size: newSize, Max: p.cfg.MaxBufferSize}
		}
	}
	p.buffer = append(p.buffer, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(p.buffer[p.cursor:], '\n')
		if idx < 0 {
			break
		}
		line := p.buffer[p.cursor : p.cursor+idx]
		line = bytes.TrimSuffix(line, []byte("\r"))
		p.cursor += idx + 1

		if p.processLine(line) {
			if !p.haveData {
				p.resetCurrent()
				continue
			}
			if p.cfg.MaxEventSize > 0 && p.currentData.Len() > p.cfg.MaxEventSize {
				p.resetCurrent()
				continue
			}
			events = append(events, p.emit())
		}
	}

	p.maybeCompact()
	return events, nil
}

// Reset discards all buffered and in-progress state.
func (p *Parser) Reset() {
	p.buffer = nil
	p.cursor = 0
	p.resetCurrent()
}

func (p *Parser) resetCurrent() {
	p.currentID = ""
	p.currentEvent = ""
	p.currentData.Reset()
	p.haveData = false
	p.currentRetry = nil
}

func (p *Parser) maybeCompact() {
	if p.cursor > compactThreshold {
		p.buffer = append([]byte(nil), p.buffer[p.cursor:]...)
		p.cursor = 0
	}
}

// processLine handles one complete line (without its trailing newline).
// Returns true when the line was blank, signalling the current event (if
// any data was recorded) is complete.
func (p *Parser) processLine(line []byte) bool {
	if len(line) == 0 {
		return true
	}
	if line[0] == ':' {
		return false // comment
	}

	var field, value []byte
	if colon := bytes.IndexByte(line, ':'); colon < 0 {
		field = line
	} else {
		field = line[:colon]
		value = line[colon+1:]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
	}

	switch string(field) {
	case "event":
		p.currentEvent = string(value)
	case "id":
		p.currentID = string(value)
	case "data":
		if p.haveData {
			p.currentData.WriteByte('\n')
		}
		p.currentData.Write(value)
		p.haveData = true
	case "retry":
		if n, err := strconv.ParseUint(string(value), 10, 32); err == nil && allDigits(value) {
			p.currentRetry = pointer.Ref(uint32(n))
		}
	default:
		// unknown field, ignored
	}
	return false
}

func allDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (p *Parser) emit() Event {
	evt := Event{
		ID:    p.currentID,
		Event: p.currentEvent,
		Data:  p.currentData.String(),
		Retry: p.currentRetry,
	}
	p.resetCurrent()
	return evt
}
