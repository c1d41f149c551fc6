package packet

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/halcyon-ai/relaygw/internal/chatapi"
	"github.com/halcyon-ai/relaygw/internal/schema"
	"github.com/halcyon-ai/relaygw/internal/session"
)

// Build assembles a RequestEnvelope from already-reordered history (the
// caller is expected to have run history.Reorder first), the caller's tool
// declarations, the requested model, and the process-global SessionState.
// defaultModel is used when model is empty; the packet's own fallback,
// "claude-4.1-opus", is used when both are empty.
func Build(messages []chatapi.Message, tools []chatapi.Tool, model, defaultModel string, sess *session.State) Envelope {
	taskID := sess.BaselineTaskID()
	if taskID == "" {
		taskID = uuid.New().String()
	}

	systemPrompt := joinSystemPrompts(messages)
	finalUserIdx := lastUserIndex(messages)

	var upstreamMessages []map[string]any
	var finalUserText string

	for i, m := range messages {
		switch m.Role {
		case "system":
			continue
		case "user":
			if i == finalUserIdx {
				finalUserText = chatapi.ContentText(m.Content)
				continue
			}
			upstreamMessages = append(upstreamMessages, userMessage(chatapi.ContentText(m.Content)))
		case "assistant":
			if len(m.ToolCalls) > 0 {
				for _, tc := range m.ToolCalls {
					upstreamMessages = append(upstreamMessages, toolCallMessage(tc))
				}
				continue
			}
			upstreamMessages = append(upstreamMessages, agentOutputMessage(chatapi.ContentText(m.Content)))
		case "tool":
			upstreamMessages = append(upstreamMessages, toolResultMessage(m.ToolCallID, chatapi.ContentText(m.Content)))
		default:
			upstreamMessages = append(upstreamMessages, userMessage(chatapi.ContentText(m.Content)))
		}
	}

	base := model
	if base == "" {
		base = defaultModel
	}
	if base == "" {
		base = "claude-4.1-opus"
	}

	env := Envelope{
		TaskContext: TaskContext{
			Tasks: []Task{{
				ID:          taskID,
				Description: "",
				Status:      "active",
				Messages:    upstreamMessages,
			}},
			ActiveTaskID: taskID,
		},
		Input: Input{
			SystemPromptText: systemPrompt,
			Text:             finalUserText,
		},
		Settings: Settings{ModelConfig: ModelConfig{Base: base}},
		Metadata: Metadata{
			ConversationID: sess.ConversationID(),
			ServerMessageData: map[string]any{
				"uuid":    taskID,
				"seconds": time.Now().Unix(),
				"nanos":   int64(0),
			},
		},
		MCPContext: MCPContext{Tools: buildTools(tools)},
	}

	return env
}

func buildTools(tools []chatapi.Tool) []*mcp.Tool {
	var out []*mcp.Tool
	for _, t := range tools {
		if t.Type != "function" {
			continue
		}
		out = append(out, &mcp.Tool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: schema.Sanitize(t.Function.InputSchema),
		})
	}
	return out
}

func joinSystemPrompts(messages []chatapi.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == "system" {
			if text := chatapi.ContentText(m.Content); text != "" {
				parts = append(parts, text)
			}
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func lastUserIndex(messages []chatapi.Message) int {
	idx := -1
	for i, m := range messages {
		if m.Role == "user" {
			idx = i
		}
	}
	return idx
}

func userMessage(text string) map[string]any {
	return map[string]any{"role": "user", "content": text}
}

func agentOutputMessage(text string) map[string]any {
	return map[string]any{"agent_output": map[string]any{"text": text}}
}

func toolCallMessage(tc chatapi.ToolCall) map[string]any {
	var args map[string]any
	_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
	return map[string]any{
		"tool_call": map[string]any{
			"call_mcp_tool": map[string]any{
				"name":         tc.Function.Name,
				"args":         args,
				"tool_call_id": tc.ID,
			},
		},
	}
}

func toolResultMessage(toolCallID, content string) map[string]any {
	return map[string]any{
		"tool_call_result": map[string]any{
			"tool_call_id": toolCallID,
			"content":      content,
		},
	}
}
