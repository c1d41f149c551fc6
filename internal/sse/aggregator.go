package sse

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/halcyon-ai/relaygw/internal/upstream"
)

// Aggregate drains events to completion and returns a single
// chat.completion object: text concatenated, tool calls collected, and
// finish_reason assigned by the same rule as the streaming translator.
func Aggregate(ctx context.Context, model string, created int64, events <-chan upstream.Event, errc <-chan error) (ChatCompletion, error) {
	var content string
	var toolCalls []ToolCall
	toolIndex := 0

loop:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			if ev.Type != upstream.EventClientActions {
				continue
			}
			for _, a := range ev.Actions {
				switch a.Type {
				case upstream.ActionAppendToMessageContent:
					content += a.Text
				case upstream.ActionAddMessagesToTask:
					for _, msg := range a.Messages {
						name, args, toolCallID, ok := upstream.ToolCallFromMessage(msg)
						if !ok {
							continue
						}
						id := toolCallID
						if id == "" {
							id = uuid.NewString()
						}
						argsJSON, err := json.Marshal(args)
						if err != nil {
							argsJSON = []byte("{}")
						}
						toolCalls = append(toolCalls, ToolCall{
							Index:    toolIndex,
							ID:       id,
							Type:     "function",
							Function: ToolCallFunc{Name: name, Arguments: string(argsJSON)},
						})
						toolIndex++
					}
				}
			}
		case <-ctx.Done():
			return ChatCompletion{}, ctx.Err()
		}
	}

	if err := drainErr(errc); err != nil {
		return ChatCompletion{}, err
	}

	reason := FinishReasonStop
	if len(toolCalls) > 0 {
		reason = FinishReasonToolCalls
	}

	return ChatCompletion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: created,
		Model:   model,
		Choices: []MessageChoice{{
			Index: 0,
			Message: AssistantMsg{
				Role:      "assistant",
				Content:   content,
				ToolCalls: toolCalls,
			},
			FinishReason: reason,
		}},
	}, nil
}
