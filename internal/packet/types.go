// Package packet assembles the upstream request envelope (C3): inbound
// chat history plus tool declarations become the upstream's task-context
// shaped record, ready for wire encoding.
package packet

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Envelope is the top-level RequestEnvelope sent to the upstream.
type Envelope struct {
	TaskContext TaskContext `json:"task_context"`
	Input       Input       `json:"input"`
	Settings    Settings    `json:"settings"`
	Metadata    Metadata    `json:"metadata"`
	MCPContext  MCPContext  `json:"mcp_context"`
}

// TaskContext carries the conversation's task list and which one is active.
type TaskContext struct {
	Tasks        []Task `json:"tasks"`
	ActiveTaskID string `json:"active_task_id"`
}

// Task is one upstream task: an id, a status tag, and its message history.
type Task struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Messages    []map[string]any `json:"messages"`
}

// Settings carries the model selection for this request.
type Settings struct {
	ModelConfig ModelConfig `json:"model_config"`
}

// ModelConfig names the base model identifier.
type ModelConfig struct {
	Base string `json:"base"`
}

// Metadata carries cross-turn correlators. ServerMessageData holds either
// the pre-replacement {uuid,seconds,nanos} record or, after
// ReplaceServerMessageData runs, its wire-form base64url string.
type Metadata struct {
	ConversationID    string `json:"conversation_id,omitempty"`
	ServerMessageData any    `json:"server_message_data,omitempty"`
}

// Input holds the final user turn and any joined system prompt text.
type Input struct {
	SystemPromptText string `json:"system_prompt_text,omitempty"`
	Text             string `json:"text,omitempty"`
}

// MCPContext carries the sanitized tool declarations for this request.
// ToolDefinition is represented directly as *mcp.Tool: the spec's own
// mcp_context.tools[] naming is literally an MCP tool list.
type MCPContext struct {
	Tools []*mcp.Tool `json:"tools,omitempty"`
}
