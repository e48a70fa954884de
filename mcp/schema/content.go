package schema

import "encoding/json"

// Content is a piece of message content exchanged in prompts, tool results,
// and sampling messages. It is a closed union: exactly one of the fields is
// meaningful, selected by Type.
type Content struct {
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// Text holds the payload for Type=="text".
	Text string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text,omitempty"`

	// Data holds base64-encoded payload for Type=="image"/"audio".
	Data     string `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`

	// Resource holds the embedded resource for Type=="resource".
	Resource *ResourceContents `json:"resource,omitempty" yaml:"resource,omitempty" mapstructure:"resource,omitempty"`

	// URI/Name/Description/Annotations are set for Type=="resource_link".
	URI         string       `json:"uri,omitempty" yaml:"uri,omitempty" mapstructure:"uri,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty" mapstructure:"annotations,omitempty"`
}

// ResourceContents is the content of a resource, read directly or embedded
// in a Content value.
type ResourceContents struct {
	URI      string          `json:"uri" yaml:"uri" mapstructure:"uri"`
	MIMEType string          `json:"mimeType,omitempty" yaml:"mimeType,omitempty" mapstructure:"mimeType,omitempty"`
	Text     string          `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text,omitempty"`
	Blob     string          `json:"blob,omitempty" yaml:"blob,omitempty" mapstructure:"blob,omitempty"`
	Meta     json.RawMessage `json:"_meta,omitempty" yaml:"_meta,omitempty" mapstructure:"_meta,omitempty"`
}

// Annotations hint at how a client should use a Resource/Tool/Prompt.
type Annotations struct {
	Audience []Role  `json:"audience,omitempty" yaml:"audience,omitempty" mapstructure:"audience,omitempty"`
	Priority float64 `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority,omitempty"`
}

// Role is the sender/recipient of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
