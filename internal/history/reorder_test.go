package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halcyon-ai/relaygw/internal/chatapi"
)

func TestReorderMovesToolAfterAssistant(t *testing.T) {
	in := []chatapi.Message{
		{Role: "user", Content: "q"},
		{Role: "assistant", ToolCalls: []chatapi.ToolCall{{ID: "tc1", Function: chatapi.ToolCallFunc{Name: "search"}}}},
		{Role: "user", Content: "interleaved"},
		{Role: "tool", ToolCallID: "tc1", Content: "result"},
	}
	out := Reorder(in)

	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "assistant", out[1].Role)
	assert.Equal(t, "tool", out[2].Role)
	assert.Equal(t, "tc1", out[2].ToolCallID)
	assert.Equal(t, "user", out[3].Role)
}

func TestReorderDemotesOrphanTool(t *testing.T) {
	in := []chatapi.Message{
		{Role: "user", Content: "q"},
		{Role: "tool", ToolCallID: "missing", Content: "r"},
		{Role: "assistant", Content: "a"},
	}
	out := Reorder(in)

	assert.Len(t, out, 3)
	assert.Equal(t, "user", out[1].Role)
	assert.Equal(t, "[tool result missing]: r", out[1].Content)
	assert.Equal(t, "assistant", out[2].Role)
}

func TestReorderIsIdempotent(t *testing.T) {
	in := []chatapi.Message{
		{Role: "user", Content: "q"},
		{Role: "assistant", ToolCalls: []chatapi.ToolCall{{ID: "tc1"}}},
		{Role: "tool", ToolCallID: "tc1", Content: "r"},
	}
	once := Reorder(in)
	twice := Reorder(once)
	assert.Equal(t, once, twice)
}

func TestReorderPreservesPassThroughOrder(t *testing.T) {
	in := []chatapi.Message{
		{Role: "user", Content: "a"},
		{Role: "user", Content: "b"},
		{Role: "user", Content: "c"},
	}
	out := Reorder(in)
	assert.Equal(t, in, out)
}
