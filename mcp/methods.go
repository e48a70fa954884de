package mcp

// Method names exchanged over the JSON-RPC envelope, per the MCP wire
// protocol. Grouped by who initiates the call.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"

	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"

	MethodResourcesList         = "resources/list"
	MethodResourcesRead         = "resources/read"
	MethodResourcesSubscribe    = "resources/subscribe"
	MethodResourcesUnsubscribe  = "resources/unsubscribe"
	MethodResourceTemplatesList = "resources/templates/list"

	MethodPromptsList = "prompts/list"
	MethodPromptsGet  = "prompts/get"

	MethodCompletionComplete = "completion/complete"
	MethodLoggingSetLevel    = "logging/setLevel"

	MethodCancelled        = "notifications/cancelled"
	MethodRootsListChanged = "notifications/roots/list_changed"

	// Server-initiated requests, answered by the transport.Handler that
	// Client.Handler returns.
	MethodElicitationCreate = "elicitation/create"
	MethodSamplingCreateMsg = "sampling/createMessage"
	MethodRootsList         = "roots/list"

	// Recognized server-to-client notifications, dispatched by the
	// Client.Handler value to callbacks registered via Client.OnNotification.
	MethodNotificationToolsListChanged     = "notifications/tools/list_changed"
	MethodNotificationResourcesListChanged = "notifications/resources/list_changed"
	MethodNotificationResourcesUpdated     = "notifications/resources/updated"
	MethodNotificationPromptsListChanged   = "notifications/prompts/list_changed"
	MethodNotificationMessage              = "notifications/message"
	MethodNotificationProgress             = "notifications/progress"
)

// ProtocolVersion is the MCP protocol version this client speaks at
// initialize, unless overridden via WithProtocolVersion.
const ProtocolVersion = "2025-06-18"
