package sse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/relaygw/internal/upstream"
)

func drain(t *testing.T, ch <-chan ChatCompletionChunk) []ChatCompletionChunk {
	t.Helper()
	var out []ChatCompletionChunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestTranslatorTextOnlyStream(t *testing.T) {
	events := make(chan upstream.Event, 4)
	errc := make(chan error, 1)
	events <- upstream.Event{Type: upstream.EventInit}
	events <- upstream.Event{Type: upstream.EventClientActions, Actions: []upstream.Action{
		{Type: upstream.ActionAppendToMessageContent, Text: "hello"},
	}}
	events <- upstream.Event{Type: upstream.EventClientActions, Actions: []upstream.Action{
		{Type: upstream.ActionAppendToMessageContent, Text: " world"},
	}}
	events <- upstream.Event{Type: upstream.EventFinished}
	close(events)
	close(errc)

	tr := NewTranslator("claude-4.1-opus", 1000)
	chunks := drain(t, tr.Translate(context.Background(), events, errc))

	require.Len(t, chunks, 4)
	assert.Equal(t, "assistant", chunks[0].Choices[0].Delta.Role)
	assert.Equal(t, "hello", chunks[1].Choices[0].Delta.Content)
	assert.Equal(t, " world", chunks[2].Choices[0].Delta.Content)
	require.NotNil(t, chunks[3].Choices[0].FinishReason)
	assert.Equal(t, FinishReasonStop, *chunks[3].Choices[0].FinishReason)
	for _, c := range chunks {
		assert.Equal(t, chunks[0].ID, c.ID)
		assert.Equal(t, "claude-4.1-opus", c.Model)
		assert.Equal(t, int64(1000), c.Created)
	}
}

func TestTranslatorToolCallStream(t *testing.T) {
	events := make(chan upstream.Event, 2)
	errc := make(chan error, 1)
	events <- upstream.Event{Type: upstream.EventClientActions, Actions: []upstream.Action{
		{Type: upstream.ActionAddMessagesToTask, Messages: []map[string]any{
			{"tool_call": map[string]any{"call_mcp_tool": map[string]any{
				"name": "search", "args": map[string]any{"q": "go"}, "tool_call_id": "tc-1",
			}}},
		}},
	}}
	events <- upstream.Event{Type: upstream.EventFinished}
	close(events)
	close(errc)

	tr := NewTranslator("claude-4.1-opus", 1000)
	chunks := drain(t, tr.Translate(context.Background(), events, errc))

	require.Len(t, chunks, 3)
	tc := chunks[1].Choices[0].Delta.ToolCalls
	require.Len(t, tc, 1)
	assert.Equal(t, "tc-1", tc[0].ID)
	assert.Equal(t, "search", tc[0].Function.Name)
	assert.JSONEq(t, `{"q":"go"}`, tc[0].Function.Arguments)
	require.NotNil(t, chunks[2].Choices[0].FinishReason)
	assert.Equal(t, FinishReasonToolCalls, *chunks[2].Choices[0].FinishReason)
}

func TestTranslatorToolCallWithoutIDGetsFreshUUID(t *testing.T) {
	events := make(chan upstream.Event, 1)
	errc := make(chan error, 1)
	events <- upstream.Event{Type: upstream.EventClientActions, Actions: []upstream.Action{
		{Type: upstream.ActionAddMessagesToTask, Messages: []map[string]any{
			{"tool_call": map[string]any{"call_mcp_tool": map[string]any{"name": "search", "args": map[string]any{}}}},
		}},
	}}
	close(events)
	close(errc)

	tr := NewTranslator("m", 1)
	chunks := drain(t, tr.Translate(context.Background(), events, errc))
	require.Len(t, chunks, 3)
	assert.NotEmpty(t, chunks[1].Choices[0].Delta.ToolCalls[0].ID)
}

func TestTranslatorUpstreamErrorProducesErrorChunk(t *testing.T) {
	events := make(chan upstream.Event)
	errc := make(chan error, 1)
	close(events)
	errc <- assertErr("boom")
	close(errc)

	tr := NewTranslator("m", 1)
	chunks := drain(t, tr.Translate(context.Background(), events, errc))

	require.Len(t, chunks, 2)
	require.NotNil(t, chunks[1].Choices[0].FinishReason)
	assert.Equal(t, FinishReasonError, *chunks[1].Choices[0].FinishReason)
	require.NotNil(t, chunks[1].Error)
	assert.Equal(t, "boom", chunks[1].Error.Message)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
