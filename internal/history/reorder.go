// Package history reorders inbound chat histories into the shape the
// upstream requires: each tool message directly follows the assistant
// message whose tool_calls declared it. Operation is pure and idempotent.
package history

import (
	"fmt"

	"github.com/halcyon-ai/relaygw/internal/chatapi"
)

// Reorder returns a new slice satisfying:
//   - a tool message immediately follows the assistant message whose
//     tool_calls contain its tool_call_id; it is moved ahead of any message
//     (system messages included) that sat between them in the input;
//   - a tool message with no matching assistant tool_calls entry earlier
//     in the input is demoted to role "user", its content wrapped as
//     "[tool result <id>]: <text>";
//   - all other messages preserve caller order.
func Reorder(messages []chatapi.Message) []chatapi.Message {
	consumed := make([]bool, len(messages))
	out := make([]chatapi.Message, 0, len(messages))

	for i, m := range messages {
		if consumed[i] {
			continue
		}
		switch m.Role {
		case "assistant":
			out = append(out, m)
			consumed[i] = true
			for _, tc := range m.ToolCalls {
				if j, ok := findUnconsumedTool(messages, consumed, i+1, tc.ID); ok {
					out = append(out, messages[j])
					consumed[j] = true
				}
			}
		case "tool":
			// Reached here unconsumed: either genuinely orphaned, or its
			// declaring assistant appears later/out of order — both cases
			// leave the adjacency requirement unsatisfiable, so demote.
			out = append(out, demote(m))
			consumed[i] = true
		default:
			out = append(out, m)
			consumed[i] = true
		}
	}
	return out
}

func findUnconsumedTool(messages []chatapi.Message, consumed []bool, from int, toolCallID string) (int, bool) {
	for j := from; j < len(messages); j++ {
		if consumed[j] {
			continue
		}
		if messages[j].Role == "tool" && messages[j].ToolCallID == toolCallID {
			return j, true
		}
	}
	return 0, false
}

func demote(m chatapi.Message) chatapi.Message {
	text := chatapi.ContentText(m.Content)
	return chatapi.Message{
		Role:    "user",
		Content: fmt.Sprintf("[tool result %s]: %s", m.ToolCallID, text),
	}
}
