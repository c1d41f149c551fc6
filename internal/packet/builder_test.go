package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/relaygw/internal/chatapi"
	"github.com/halcyon-ai/relaygw/internal/session"
)

func TestBuildPassThroughUserHistoryPreservesOrder(t *testing.T) {
	messages := []chatapi.Message{
		{Role: "user", Content: "a"},
		{Role: "user", Content: "b"},
		{Role: "user", Content: "c"},
	}
	env := Build(messages, nil, "m", "default", session.New())

	require.Len(t, env.TaskContext.Tasks, 1)
	// a, b become historical messages[]; c is the final turn under input.
	assert.Len(t, env.TaskContext.Tasks[0].Messages, 2)
	assert.Equal(t, "a", env.TaskContext.Tasks[0].Messages[0]["content"])
	assert.Equal(t, "b", env.TaskContext.Tasks[0].Messages[1]["content"])
	assert.Equal(t, "c", env.Input.Text)
}

func TestBuildUsesModelOrDefault(t *testing.T) {
	messages := []chatapi.Message{{Role: "user", Content: "hi"}}

	env := Build(messages, nil, "custom-model", "default", session.New())
	assert.Equal(t, "custom-model", env.Settings.ModelConfig.Base)

	env = Build(messages, nil, "", "default-model", session.New())
	assert.Equal(t, "default-model", env.Settings.ModelConfig.Base)

	env = Build(messages, nil, "", "", session.New())
	assert.Equal(t, "claude-4.1-opus", env.Settings.ModelConfig.Base)
}

func TestBuildSanitizesToolSchemas(t *testing.T) {
	tools := []chatapi.Tool{{
		Type: "function",
		Function: chatapi.ToolFunction{
			Name: "search",
			InputSchema: map[string]any{
				"properties": map[string]any{"q": map[string]any{}},
			},
		},
	}}
	messages := []chatapi.Message{{Role: "user", Content: "hi"}}

	env := Build(messages, tools, "m", "d", session.New())
	require.Len(t, env.MCPContext.Tools, 1)
	q := env.MCPContext.Tools[0].InputSchema["properties"].(map[string]any)["q"].(map[string]any)
	assert.Equal(t, "string", q["type"])
	assert.Equal(t, "q parameter", q["description"])
}

func TestBuildJoinsSystemPrompts(t *testing.T) {
	messages := []chatapi.Message{
		{Role: "system", Content: "sys1"},
		{Role: "system", Content: "sys2"},
		{Role: "user", Content: "hi"},
	}
	env := Build(messages, nil, "m", "d", session.New())
	assert.Equal(t, "sys1\n\nsys2", env.Input.SystemPromptText)
}

func TestBuildUsesSessionBaselineTaskID(t *testing.T) {
	sess := session.New()
	sess.Update("conv-1", "task-1")

	env := Build([]chatapi.Message{{Role: "user", Content: "hi"}}, nil, "m", "d", sess)
	assert.Equal(t, "task-1", env.TaskContext.ActiveTaskID)
	assert.Equal(t, "conv-1", env.Metadata.ConversationID)
}
