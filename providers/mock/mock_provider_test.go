package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planai/models"
)

func TestGenerateActions_CreateWithContent(t *testing.T) {
	provider := NewMockActionProvider()

	actions, err := provider.GenerateActions(context.Background(), "create hello.txt with content 'hi there'")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
	assert.Equal(t, "hello.txt", actions[0].Path)
	require.NotNil(t, actions[0].Content)
	assert.Equal(t, "hi there", *actions[0].Content)
}

func TestGenerateActions_CreateVariants(t *testing.T) {
	provider := NewMockActionProvider()

	for _, query := range []string{
		"create a file notes.md",
		"Create the file notes.md",
		`create notes.md with content "# Notes"`,
	} {
		actions, err := provider.GenerateActions(context.Background(), query)
		require.NoError(t, err, query)
		require.Len(t, actions, 1, query)
		assert.Equal(t, models.ActionCreate, actions[0].Type, query)
		assert.Equal(t, "notes.md", actions[0].Path, query)
	}
}

func TestGenerateActions_Delete(t *testing.T) {
	provider := NewMockActionProvider()

	actions, err := provider.GenerateActions(context.Background(), "delete the file old.log")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionDelete, actions[0].Type)
	assert.Equal(t, "old.log", actions[0].Path)
}

func TestGenerateActions_Read(t *testing.T) {
	provider := NewMockActionProvider()

	actions, err := provider.GenerateActions(context.Background(), "show README.md")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionRead, actions[0].Type)
	assert.Equal(t, "README.md", actions[0].Path)
}

func TestGenerateActions_UnrecognizedFallsBackToInfo(t *testing.T) {
	provider := NewMockActionProvider()

	actions, err := provider.GenerateActions(context.Background(), "refactor everything beautifully")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionInfo, actions[0].Type)
	assert.Contains(t, actions[0].Description, "refactor everything beautifully")
}
