package mcp

import (
	"context"

	"github.com/viant/jsonrpc/mcp/schema"
)

// ElicitationHandler answers a server's elicitation/create request: the
// server wants additional information (a form, or explicit confirmation of
// a URL) from whoever is driving the client.
type ElicitationHandler interface {
	Elicit(ctx context.Context, params schema.ElicitParams) (*schema.ElicitResult, error)
}

// ElicitationHandlerFunc adapts a function to an ElicitationHandler.
type ElicitationHandlerFunc func(ctx context.Context, params schema.ElicitParams) (*schema.ElicitResult, error)

func (f ElicitationHandlerFunc) Elicit(ctx context.Context, params schema.ElicitParams) (*schema.ElicitResult, error) {
	return f(ctx, params)
}

// SamplingHandler answers a server's sampling/createMessage request by
// running an LLM completion on the server's behalf. There is no safe
// default: an unconfigured Client answers with a MethodNotFound-class error.
type SamplingHandler interface {
	CreateMessage(ctx context.Context, params schema.CreateMessageParams) (*schema.CreateMessageResult, error)
}

// SamplingHandlerFunc adapts a function to a SamplingHandler.
type SamplingHandlerFunc func(ctx context.Context, params schema.CreateMessageParams) (*schema.CreateMessageResult, error)

func (f SamplingHandlerFunc) CreateMessage(ctx context.Context, params schema.CreateMessageParams) (*schema.CreateMessageResult, error) {
	return f(ctx, params)
}

// RootsHandler answers a server's roots/list request. The default handler
// (no RootsHandler configured) returns the roots passed to WithRoots,
// possibly empty.
type RootsHandler interface {
	ListRoots(ctx context.Context) []*schema.Root
}

// RootsHandlerFunc adapts a function to a RootsHandler.
type RootsHandlerFunc func(ctx context.Context) []*schema.Root

func (f RootsHandlerFunc) ListRoots(ctx context.Context) []*schema.Root { return f(ctx) }
