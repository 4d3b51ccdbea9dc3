package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planai/models"
)

func TestParseActions_PlainArray(t *testing.T) {
	raw := `[{"type": "create", "path": "/tmp/a.txt", "content": "hi", "description": "make a"}]`

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
	assert.Equal(t, "/tmp/a.txt", actions[0].Path)
	require.NotNil(t, actions[0].Content)
	assert.Equal(t, "hi", *actions[0].Content)
}

func TestParseActions_MarkdownFences(t *testing.T) {
	raw := "```json\n[{\"type\": \"delete\", \"path\": \"/tmp/old.txt\"}]\n```"

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionDelete, actions[0].Type)
}

func TestParseActions_WrapperObject(t *testing.T) {
	raw := `{"actions": [{"type": "modify", "path": "/tmp/a.txt", "content": "v2"}]}`

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionModify, actions[0].Type)
}

func TestParseActions_ArrayBuriedInProse(t *testing.T) {
	raw := `Here is the plan you asked for:
[{"type": "create", "path": "/tmp/a.txt", "content": "x"}]
Let me know if you need changes.`

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
}

func TestParseActions_AliasTypes(t *testing.T) {
	raw := `[
		{"type": "create_file", "path": "/tmp/a.txt", "content": "x"},
		{"type": "update_file", "path": "/tmp/a.txt", "content": "y"},
		{"type": "remove", "path": "/tmp/a.txt"}
	]`

	actions := ParseActions(raw)
	require.Len(t, actions, 3)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
	assert.Equal(t, models.ActionModify, actions[1].Type)
	assert.Equal(t, models.ActionDelete, actions[2].Type)
}

func TestParseActions_UnparseableFallsBackToInfo(t *testing.T) {
	raw := "I cannot produce a plan for that request."

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionInfo, actions[0].Type)
	assert.Equal(t, raw, actions[0].Description)
}

func TestParseActions_EmptyContentSurvives(t *testing.T) {
	raw := `[{"type": "create", "path": "/tmp/empty.txt", "content": ""}]`

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	// Explicit empty content stays present, it is not an absent field
	require.NotNil(t, actions[0].Content)
	assert.Empty(t, *actions[0].Content)
}

func TestParseActions_MissingContentStaysNil(t *testing.T) {
	raw := `[{"type": "delete", "path": "/tmp/a.txt"}]`

	actions := ParseActions(raw)
	require.Len(t, actions, 1)
	assert.Nil(t, actions[0].Content)
}
