// Package schema holds the wire types MCP operations exchange. The client
// passes params/results through as these concrete structs rather than
// opaque blobs; unrecognized fields round-trip through json.RawMessage
// where the schema leaves a value server-defined (tool arguments, resource
// contents, elicitation schema).
package schema

import "encoding/json"

// Implementation identifies an MCP client or server.
type Implementation struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Version string `json:"version" yaml:"version" mapstructure:"version"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
}

// RootCapabilities describes client support for filesystem roots.
type RootCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty" yaml:"listChanged,omitempty" mapstructure:"listChanged,omitempty"`
}

// SamplingCapabilities describes client support for LLM sampling.
type SamplingCapabilities struct{}

// ElicitationCapabilities describes client support for elicitation, split
// by mode.
type ElicitationCapabilities struct {
	Form *struct{} `json:"form,omitempty" yaml:"form,omitempty" mapstructure:"form,omitempty"`
	URL  *struct{} `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url,omitempty"`
}

// ClientCapabilities is advertised by the client at initialize.
type ClientCapabilities struct {
	Experimental map[string]any           `json:"experimental,omitempty" yaml:"experimental,omitempty" mapstructure:"experimental,omitempty"`
	Roots        *RootCapabilities        `json:"roots,omitempty" yaml:"roots,omitempty" mapstructure:"roots,omitempty"`
	Sampling     *SamplingCapabilities    `json:"sampling,omitempty" yaml:"sampling,omitempty" mapstructure:"sampling,omitempty"`
	Elicitation  *ElicitationCapabilities `json:"elicitation,omitempty" yaml:"elicitation,omitempty" mapstructure:"elicitation,omitempty"`
}

// CompletionCapabilities describes server support for completion/complete.
type CompletionCapabilities struct{}

// LoggingCapabilities describes server support for logging/setLevel.
type LoggingCapabilities struct{}

// PromptCapabilities describes server support for the prompts catalog.
type PromptCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty" yaml:"listChanged,omitempty" mapstructure:"listChanged,omitempty"`
}

// ResourceCapabilities describes server support for resources, including
// whether resources/subscribe is implemented. mcp.Client gates
// SubscribeResource/UnsubscribeResource locally on this flag.
type ResourceCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty" yaml:"listChanged,omitempty" mapstructure:"listChanged,omitempty"`
	Subscribe   bool `json:"subscribe,omitempty" yaml:"subscribe,omitempty" mapstructure:"subscribe,omitempty"`
}

// ToolCapabilities describes server support for the tools catalog.
type ToolCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty" yaml:"listChanged,omitempty" mapstructure:"listChanged,omitempty"`
}

// ServerCapabilities is advertised by the server in InitializeResult.
type ServerCapabilities struct {
	Experimental map[string]any          `json:"experimental,omitempty" yaml:"experimental,omitempty" mapstructure:"experimental,omitempty"`
	Completions  *CompletionCapabilities `json:"completions,omitempty" yaml:"completions,omitempty" mapstructure:"completions,omitempty"`
	Logging      *LoggingCapabilities    `json:"logging,omitempty" yaml:"logging,omitempty" mapstructure:"logging,omitempty"`
	Prompts      *PromptCapabilities     `json:"prompts,omitempty" yaml:"prompts,omitempty" mapstructure:"prompts,omitempty"`
	Resources    *ResourceCapabilities   `json:"resources,omitempty" yaml:"resources,omitempty" mapstructure:"resources,omitempty"`
	Tools        *ToolCapabilities       `json:"tools,omitempty" yaml:"tools,omitempty" mapstructure:"tools,omitempty"`
}

// InitializeParams is sent by the client to begin the handshake.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion" yaml:"protocolVersion" mapstructure:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities" yaml:"capabilities" mapstructure:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo" yaml:"clientInfo" mapstructure:"clientInfo"`
}

// InitializeResult is the server's answer to initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion" yaml:"protocolVersion" mapstructure:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities" yaml:"capabilities" mapstructure:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo" yaml:"serverInfo" mapstructure:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty" yaml:"instructions,omitempty" mapstructure:"instructions,omitempty"`
}

// --- tools ---

type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty" yaml:"cursor,omitempty" mapstructure:"cursor,omitempty"`
}

type ToolAnnotations struct {
	Title           string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty" yaml:"readOnlyHint,omitempty" mapstructure:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty" yaml:"destructiveHint,omitempty" mapstructure:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty" yaml:"idempotentHint,omitempty" mapstructure:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty" yaml:"openWorldHint,omitempty" mapstructure:"openWorldHint,omitempty"`
}

type Tool struct {
	Name         string           `json:"name" yaml:"name" mapstructure:"name"`
	Title        string           `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
	Description  string           `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	InputSchema  json.RawMessage  `json:"inputSchema" yaml:"inputSchema" mapstructure:"inputSchema"`
	OutputSchema json.RawMessage  `json:"outputSchema,omitempty" yaml:"outputSchema,omitempty" mapstructure:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations `json:"annotations,omitempty" yaml:"annotations,omitempty" mapstructure:"annotations,omitempty"`
}

type ListToolsResult struct {
	Tools      []*Tool `json:"tools" yaml:"tools" mapstructure:"tools"`
	NextCursor string  `json:"nextCursor,omitempty" yaml:"nextCursor,omitempty" mapstructure:"nextCursor,omitempty"`
}

type CallToolParams struct {
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
	Arguments any    `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments,omitempty"`
}

type CallToolResult struct {
	Content           []Content `json:"content" yaml:"content" mapstructure:"content"`
	StructuredContent any       `json:"structuredContent,omitempty" yaml:"structuredContent,omitempty" mapstructure:"structuredContent,omitempty"`
	IsError           bool      `json:"isError,omitempty" yaml:"isError,omitempty" mapstructure:"isError,omitempty"`
}

// --- resources ---

type ListResourcesParams struct {
	Cursor string `json:"cursor,omitempty" yaml:"cursor,omitempty" mapstructure:"cursor,omitempty"`
}

type Resource struct {
	URI         string       `json:"uri" yaml:"uri" mapstructure:"uri"`
	Name        string       `json:"name" yaml:"name" mapstructure:"name"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`
	Size        int64        `json:"size,omitempty" yaml:"size,omitempty" mapstructure:"size,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty" mapstructure:"annotations,omitempty"`
}

type ListResourcesResult struct {
	Resources  []*Resource `json:"resources" yaml:"resources" mapstructure:"resources"`
	NextCursor string      `json:"nextCursor,omitempty" yaml:"nextCursor,omitempty" mapstructure:"nextCursor,omitempty"`
}

type ReadResourceParams struct {
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`
}

type ReadResourceResult struct {
	Contents []*ResourceContents `json:"contents" yaml:"contents" mapstructure:"contents"`
}

type SubscribeParams struct {
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`
}

type UnsubscribeParams struct {
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`
}

type ResourceUpdatedParams struct {
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`
}

type ListResourceTemplatesParams struct {
	Cursor string `json:"cursor,omitempty" yaml:"cursor,omitempty" mapstructure:"cursor,omitempty"`
}

type ResourceTemplate struct {
	URITemplate string       `json:"uriTemplate" yaml:"uriTemplate" mapstructure:"uriTemplate"`
	Name        string       `json:"name" yaml:"name" mapstructure:"name"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty" mapstructure:"annotations,omitempty"`
}

type ListResourceTemplatesResult struct {
	ResourceTemplates []*ResourceTemplate `json:"resourceTemplates" yaml:"resourceTemplates" mapstructure:"resourceTemplates"`
	NextCursor        string              `json:"nextCursor,omitempty" yaml:"nextCursor,omitempty" mapstructure:"nextCursor,omitempty"`
}

// --- prompts ---

type ListPromptsParams struct {
	Cursor string `json:"cursor,omitempty" yaml:"cursor,omitempty" mapstructure:"cursor,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required,omitempty"`
}

type Prompt struct {
	Name        string            `json:"name" yaml:"name" mapstructure:"name"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Arguments   []*PromptArgument `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments,omitempty"`
}

type ListPromptsResult struct {
	Prompts    []*Prompt `json:"prompts" yaml:"prompts" mapstructure:"prompts"`
	NextCursor string    `json:"nextCursor,omitempty" yaml:"nextCursor,omitempty" mapstructure:"nextCursor,omitempty"`
}

type GetPromptParams struct {
	Name      string            `json:"name" yaml:"name" mapstructure:"name"`
	Arguments map[string]string `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments,omitempty"`
}

type PromptMessage struct {
	Role    Role    `json:"role" yaml:"role" mapstructure:"role"`
	Content Content `json:"content" yaml:"content" mapstructure:"content"`
}

type GetPromptResult struct {
	Description string           `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Messages    []*PromptMessage `json:"messages" yaml:"messages" mapstructure:"messages"`
}

// --- completion ---

type CompleteReference struct {
	Type string `json:"type" yaml:"type" mapstructure:"type"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name,omitempty"`
	URI  string `json:"uri,omitempty" yaml:"uri,omitempty" mapstructure:"uri,omitempty"`
}

type CompleteArgument struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Value string `json:"value" yaml:"value" mapstructure:"value"`
}

type CompleteParams struct {
	Ref      CompleteReference `json:"ref" yaml:"ref" mapstructure:"ref"`
	Argument CompleteArgument  `json:"argument" yaml:"argument" mapstructure:"argument"`
}

type Completion struct {
	Values  []string `json:"values" yaml:"values" mapstructure:"values"`
	Total   int      `json:"total,omitempty" yaml:"total,omitempty" mapstructure:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty" yaml:"hasMore,omitempty" mapstructure:"hasMore,omitempty"`
}

type CompleteResult struct {
	Completion Completion `json:"completion" yaml:"completion" mapstructure:"completion"`
}

// --- logging ---

type LoggingLevel string

const (
	LoggingLevelDebug     LoggingLevel = "debug"
	LoggingLevelInfo      LoggingLevel = "info"
	LoggingLevelNotice    LoggingLevel = "notice"
	LoggingLevelWarning   LoggingLevel = "warning"
	LoggingLevelError     LoggingLevel = "error"
	LoggingLevelCritical  LoggingLevel = "critical"
	LoggingLevelAlert     LoggingLevel = "alert"
	LoggingLevelEmergency LoggingLevel = "emergency"
)

type SetLoggingLevelParams struct {
	Level LoggingLevel `json:"level" yaml:"level" mapstructure:"level"`
}

type LoggingMessageParams struct {
	Level  LoggingLevel `json:"level" yaml:"level" mapstructure:"level"`
	Logger string       `json:"logger,omitempty" yaml:"logger,omitempty" mapstructure:"logger,omitempty"`
	Data   any          `json:"data" yaml:"data" mapstructure:"data"`
}

// --- progress / cancellation ---

type ProgressParams struct {
	ProgressToken any     `json:"progressToken" yaml:"progressToken" mapstructure:"progressToken"`
	Progress      float64 `json:"progress" yaml:"progress" mapstructure:"progress"`
	Total         float64 `json:"total,omitempty" yaml:"total,omitempty" mapstructure:"total,omitempty"`
	Message       string  `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message,omitempty"`
}

type CancelledParams struct {
	RequestId any    `json:"requestId" yaml:"requestId" mapstructure:"requestId"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty" mapstructure:"reason,omitempty"`
}

// --- roots ---

type Root struct {
	URI  string `json:"uri" yaml:"uri" mapstructure:"uri"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name,omitempty"`
}

type ListRootsResult struct {
	Roots []*Root `json:"roots" yaml:"roots" mapstructure:"roots"`
}

// --- sampling ---

type ModelHint struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name,omitempty"`
}

type ModelPreferences struct {
	Hints                []*ModelHint `json:"hints,omitempty" yaml:"hints,omitempty" mapstructure:"hints,omitempty"`
	CostPriority         float64      `json:"costPriority,omitempty" yaml:"costPriority,omitempty" mapstructure:"costPriority,omitempty"`
	SpeedPriority        float64      `json:"speedPriority,omitempty" yaml:"speedPriority,omitempty" mapstructure:"speedPriority,omitempty"`
	IntelligencePriority float64      `json:"intelligencePriority,omitempty" yaml:"intelligencePriority,omitempty" mapstructure:"intelligencePriority,omitempty"`
}

type SamplingMessage struct {
	Role    Role    `json:"role" yaml:"role" mapstructure:"role"`
	Content Content `json:"content" yaml:"content" mapstructure:"content"`
}

type CreateMessageParams struct {
	Messages         []*SamplingMessage `json:"messages" yaml:"messages" mapstructure:"messages"`
	ModelPreferences *ModelPreferences  `json:"modelPreferences,omitempty" yaml:"modelPreferences,omitempty" mapstructure:"modelPreferences,omitempty"`
	SystemPrompt     string             `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty" mapstructure:"systemPrompt,omitempty"`
	IncludeContext   string             `json:"includeContext,omitempty" yaml:"includeContext,omitempty" mapstructure:"includeContext,omitempty"`
	Temperature      float64            `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature,omitempty"`
	MaxTokens        int64              `json:"maxTokens" yaml:"maxTokens" mapstructure:"maxTokens"`
	StopSequences    []string           `json:"stopSequences,omitempty" yaml:"stopSequences,omitempty" mapstructure:"stopSequences,omitempty"`
	Metadata         any                `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata,omitempty"`
}

type CreateMessageResult struct {
	Role       Role    `json:"role" yaml:"role" mapstructure:"role"`
	Content    Content `json:"content" yaml:"content" mapstructure:"content"`
	Model      string  `json:"model" yaml:"model" mapstructure:"model"`
	StopReason string  `json:"stopReason,omitempty" yaml:"stopReason,omitempty" mapstructure:"stopReason,omitempty"`
}

// --- elicitation ---

type ElicitParams struct {
	Mode            string          `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode,omitempty"`
	Message         string          `json:"message" yaml:"message" mapstructure:"message"`
	RequestedSchema json.RawMessage `json:"requestedSchema,omitempty" yaml:"requestedSchema,omitempty" mapstructure:"requestedSchema,omitempty"`
	URL             string          `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url,omitempty"`
	ElicitationID   string          `json:"elicitationId,omitempty" yaml:"elicitationId,omitempty" mapstructure:"elicitationId,omitempty"`
}

const (
	ElicitModeForm = "form"
	ElicitModeURL  = "url"
)

type ElicitResult struct {
	Action  string         `json:"action" yaml:"action" mapstructure:"action"`
	Content map[string]any `json:"content,omitempty" yaml:"content,omitempty" mapstructure:"content,omitempty"`
}

const (
	ElicitActionAccept  = "accept"
	ElicitActionDecline = "decline"
	ElicitActionCancel  = "cancel"
)
