package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planai/models"
)

func validate(t *testing.T, actions ...models.Action) (bool, []models.Issue) {
	t.Helper()
	valid, issues, err := New().ValidatePlan(&models.Plan{ID: "p", Actions: actions})
	require.NoError(t, err)
	return valid, issues
}

func issueTypes(issues []models.Issue) []string {
	types := make([]string, 0, len(issues))
	for _, issue := range issues {
		types = append(types, issue.Type)
	}
	return types
}

func TestValidatePlan_NilPlan(t *testing.T) {
	_, _, err := New().ValidatePlan(nil)
	assert.Error(t, err)
}

func TestValidatePlan_EmptyPlanIsValid(t *testing.T) {
	valid, issues := validate(t)
	assert.True(t, valid)
	assert.Empty(t, issues)
}

func TestValidatePlan_MissingTypeIsCritical(t *testing.T) {
	valid, issues := validate(t, models.Action{Path: "/tmp/x"})
	assert.False(t, valid)
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueMissingField, issues[0].Type)
	assert.True(t, issues[0].Critical)
	assert.Equal(t, 1, issues[0].ActionIndex)
}

func TestValidatePlan_MissingPathIsCritical(t *testing.T) {
	valid, issues := validate(t, models.Action{Type: models.ActionCreate, Content: models.Ptr("x")})
	assert.False(t, valid)
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueMissingPath, issues[0].Type)
}

func TestValidatePlan_InfoNeedsNoPath(t *testing.T) {
	valid, issues := validate(t, models.Action{Type: models.ActionInfo, Description: "note"})
	assert.True(t, valid)
	assert.Empty(t, issues)
}

func TestValidatePlan_RelativePathIsAdvisory(t *testing.T) {
	valid, issues := validate(t, models.Action{
		Type:    models.ActionCreate,
		Path:    "relative/file.txt",
		Content: models.Ptr("x"),
	})
	assert.True(t, valid)
	require.NotEmpty(t, issues)
	assert.Equal(t, models.IssueRelativePath, issues[0].Type)
	assert.False(t, issues[0].Critical)
}

func TestValidatePlan_CreateOverExistingFileWarns(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "exists.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	valid, issues := validate(t, models.Action{
		Type:    models.ActionCreate,
		Path:    target,
		Content: models.Ptr("y"),
	})
	assert.True(t, valid)
	assert.Contains(t, issueTypes(issues), models.IssueFileExists)
}

func TestValidatePlan_DeleteMissingFileIsCritical(t *testing.T) {
	valid, issues := validate(t, models.Action{
		Type: models.ActionDelete,
		Path: filepath.Join(t.TempDir(), "gone.txt"),
	})
	assert.False(t, valid)
	assert.Contains(t, issueTypes(issues), models.IssueFileNotExists)
}

func TestValidatePlan_DeleteAfterPlanCreateIsValid(t *testing.T) {
	target := filepath.Join(t.TempDir(), "temp.txt")
	valid, issues := validate(t,
		models.Action{Type: models.ActionCreate, Path: target, Content: models.Ptr("x")},
		models.Action{Type: models.ActionDelete, Path: target},
	)
	// The delete check on disk still fires, but the dependency simulation
	// must not add to it.
	assert.False(t, valid)
	assert.NotContains(t, issueTypes(issues), models.IssueDependencyError)
}

func TestValidatePlan_ReadOfPlanCreatedFileIsValid(t *testing.T) {
	target := filepath.Join(t.TempDir(), "later.txt")
	valid, issues := validate(t,
		models.Action{Type: models.ActionCreate, Path: target, Content: models.Ptr("x")},
		models.Action{Type: models.ActionRead, Path: target},
	)
	assert.True(t, valid)
	assert.Empty(t, issues)
}

func TestValidatePlan_ReadOfMissingFileIsCritical(t *testing.T) {
	valid, issues := validate(t, models.Action{
		Type: models.ActionRead,
		Path: filepath.Join(t.TempDir(), "absent.txt"),
	})
	assert.False(t, valid)
	assert.Contains(t, issueTypes(issues), models.IssueDependencyError)
}

func TestValidatePlan_DoubleDeleteIsCritical(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "once.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	valid, issues := validate(t,
		models.Action{Type: models.ActionDelete, Path: target},
		models.Action{Type: models.ActionDelete, Path: target},
	)
	assert.False(t, valid)

	found := false
	for _, issue := range issues {
		if issue.Type == models.IssueDependencyError && issue.ActionIndex == 2 {
			found = true
		}
	}
	assert.True(t, found, "expected a dependency error on the second delete")
}

func TestValidatePlan_AliasTypesAreNormalized(t *testing.T) {
	target := filepath.Join(t.TempDir(), "alias.txt")
	valid, issues := validate(t,
		models.Action{Type: "create_file", Path: target, Content: models.Ptr("x")},
		models.Action{Type: "read_file", Path: target},
	)
	assert.True(t, valid)
	assert.Empty(t, issues)
}
