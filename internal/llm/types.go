package llm

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// Message is a single provider-neutral conversation message.
//
// Exactly one of the optional fields is populated beyond Content: assistant
// messages that requested tools carry ToolCalls, and tool-role messages carry
// the ToolResult being returned to the model.
type Message struct {
	Role       MessageRole
	Content    string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

// ToolCall is a tool invocation requested by the assistant.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// ToolResult is the outcome of executing a ToolCall, sent back to the model.
type ToolResult struct {
	CallID  string
	Name    string
	Content string // JSON-serialized result
	IsError bool
}

// ToolSpec describes a tool that can be offered to a model.
type ToolSpec struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schema      ToolSchema `json:"parameters"`
}

// ToolSchema is the JSON schema for a tool's input parameters.
type ToolSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is a single parameter in a tool schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Request is a complete provider-neutral completion request.
type Request struct {
	Model       string
	Messages    []Message
	System      string
	Tools       []ToolSpec
	MaxTokens   int64
	Temperature *float64
}

// Response is a complete provider-neutral completion response.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	Usage      Usage
	StopReason string
}

// Usage carries the token counts a provider reported for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates another usage report into u. Providers that omit the total
// get it recomputed from the two parts.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	if other.TotalTokens > 0 {
		u.TotalTokens += other.TotalTokens
	} else {
		u.TotalTokens += other.PromptTokens + other.CompletionTokens
	}
}

// NewTextMessage creates a message with plain text content.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates a tool-role message carrying one result.
func NewToolResultMessage(result ToolResult) Message {
	return Message{Role: RoleTool, ToolResult: &result}
}
