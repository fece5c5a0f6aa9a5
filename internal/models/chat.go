package models

// TurnRole is the author of a chat turn.
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
	RoleSystem    TurnRole = "system"
)

// TokenUsage carries the token counts reported for a single completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatTurn is one entry in a session transcript. Pending marks the transient
// assistant placeholder shown while a completion is in flight; pending turns
// never carry usage.
type ChatTurn struct {
	Role    TurnRole    `json:"role"`
	Content string      `json:"content"`
	Usage   *TokenUsage `json:"usage,omitempty"`
	Pending bool        `json:"pending,omitempty"`
}

// ChatRequest is the payload sent to POST /api/chat.
type ChatRequest struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Message      string `json:"message"`
	UserID       string `json:"user_id,omitempty"`
	ToolsSupport bool   `json:"tools_support,omitempty"`
}

// ChatResponse is the reply from POST /api/chat.
type ChatResponse struct {
	Response         string `json:"response"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}
