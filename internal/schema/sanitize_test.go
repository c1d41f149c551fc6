package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDefaultsBareProperty(t *testing.T) {
	in := map[string]any{
		"properties": map[string]any{
			"q": map[string]any{},
		},
	}
	out := Sanitize(in)
	assert.Equal(t, "object", out["type"])
	assert.Equal(t, draft07, out["$schema"])

	props := out["properties"].(map[string]any)
	q := props["q"].(map[string]any)
	assert.Equal(t, "string", q["type"])
	assert.Equal(t, "q parameter", q["description"])
}

func TestSanitizeHeuristicTypes(t *testing.T) {
	in := map[string]any{
		"properties": map[string]any{
			"url":     map[string]any{},
			"payload": map[string]any{},
		},
	}
	out := Sanitize(in)
	props := out["properties"].(map[string]any)
	assert.Equal(t, "string", props["url"].(map[string]any)["type"])
	assert.Equal(t, "object", props["payload"].(map[string]any)["type"])
}

func TestSanitizeHeadersSeedsUserAgent(t *testing.T) {
	in := map[string]any{
		"properties": map[string]any{
			"headers": map[string]any{},
		},
	}
	out := Sanitize(in)
	props := out["properties"].(map[string]any)
	headers := props["headers"].(map[string]any)
	assert.Equal(t, "object", headers["type"])

	sub := headers["properties"].(map[string]any)
	require.Contains(t, sub, "user-agent")
	ua := sub["user-agent"].(map[string]any)
	assert.Equal(t, "string", ua["type"])
}

func TestSanitizePrunesInvalidRequired(t *testing.T) {
	in := map[string]any{
		"properties": map[string]any{
			"q": map[string]any{"type": "string", "description": "q"},
		},
		"required": []any{"q", "missing"},
	}
	out := Sanitize(in)
	assert.Equal(t, []any{"q"}, out["required"])
}

func TestSanitizeDropsEmptyRequired(t *testing.T) {
	in := map[string]any{
		"properties": map[string]any{
			"q": map[string]any{"type": "string", "description": "q"},
		},
		"required": []any{"missing"},
	}
	out := Sanitize(in)
	_, ok := out["required"]
	assert.False(t, ok)
}

func TestSanitizeDropsEmptyAdditionalProperties(t *testing.T) {
	in := map[string]any{
		"properties":           map[string]any{},
		"additionalProperties": map[string]any{},
	}
	out := Sanitize(in)
	_, ok := out["additionalProperties"]
	assert.False(t, ok)
}

func TestSanitizePreservesExplicitBooleanAdditionalProperties(t *testing.T) {
	in := map[string]any{
		"properties":           map[string]any{"q": map[string]any{"type": "string", "description": "q"}},
		"additionalProperties": false,
	}
	out := Sanitize(in)
	assert.Equal(t, false, out["additionalProperties"])
}

func TestSanitizeIsIdempotent(t *testing.T) {
	in := map[string]any{
		"properties": map[string]any{
			"headers": map[string]any{},
			"q":       map[string]any{},
		},
		"required": []any{"q", "ghost"},
	}
	once := Sanitize(in)
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}
