// Package validator runs the static checks a plan must pass before the
// executor touches the filesystem.
package validator

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"planai/errdefs"
	"planai/models"
)

// PlanValidator checks a plan's actions for missing fields, path
// conflicts, permission problems, and intra-plan dependency errors.
type PlanValidator struct{}

// New returns a PlanValidator.
func New() *PlanValidator {
	return &PlanValidator{}
}

// ValidatePlan validates plan and returns whether it may execute plus the
// full issue list. Only critical issues make a plan invalid; the rest are
// advisory. A plan with no actions is vacuously valid.
func (v *PlanValidator) ValidatePlan(plan *models.Plan) (bool, []models.Issue, error) {
	if plan == nil {
		return false, nil, errdefs.Validation("invalid plan: nil")
	}
	if len(plan.Actions) == 0 {
		return true, nil, nil
	}

	var issues []models.Issue
	for i, action := range plan.Actions {
		issues = append(issues, v.validateAction(action, i+1)...)
	}
	issues = append(issues, v.validateDependencies(plan.Actions)...)

	valid := true
	for _, issue := range issues {
		if issue.Critical {
			valid = false
			break
		}
	}
	return valid, issues, nil
}

func (v *PlanValidator) validateAction(action models.Action, index int) []models.Issue {
	var issues []models.Issue

	if action.Type == "" {
		issues = append(issues, models.Issue{
			ActionIndex: index,
			Type:        models.IssueMissingField,
			Message:     "missing required field 'type'",
			Critical:    true,
		})
		return issues
	}

	kind := action.Type.Normalize()
	if !kind.TouchesFile() {
		return issues
	}

	if action.Path == "" {
		issues = append(issues, models.Issue{
			ActionIndex: index,
			Type:        models.IssueMissingPath,
			Message:     fmt.Sprintf("action of type %q requires a path", action.Type),
			Critical:    true,
		})
		return issues
	}

	issues = append(issues, v.validatePath(kind, action.Path, index)...)
	return issues
}

func (v *PlanValidator) validatePath(kind models.ActionType, path string, index int) []models.Issue {
	var issues []models.Issue

	if !filepath.IsAbs(path) {
		issues = append(issues, models.Issue{
			ActionIndex: index,
			Type:        models.IssueRelativePath,
			Message:     fmt.Sprintf("path %q should be absolute", path),
			Critical:    false,
		})
	}

	switch kind {
	case models.ActionCreate, models.ActionModify:
		if parent := filepath.Dir(path); parent != "" && fileExists(parent) {
			if unix.Access(parent, unix.W_OK) != nil {
				issues = append(issues, models.Issue{
					ActionIndex: index,
					Type:        models.IssuePermissionDenied,
					Message:     fmt.Sprintf("no write permission for directory %q", parent),
					Critical:    true,
				})
			}
		}
	case models.ActionRead:
		if fileExists(path) && unix.Access(path, unix.R_OK) != nil {
			issues = append(issues, models.Issue{
				ActionIndex: index,
				Type:        models.IssuePermissionDenied,
				Message:     fmt.Sprintf("no read permission for file %q", path),
				Critical:    true,
			})
		}
	}

	switch kind {
	case models.ActionCreate:
		if fileExists(path) {
			issues = append(issues, models.Issue{
				ActionIndex: index,
				Type:        models.IssueFileExists,
				Message:     fmt.Sprintf("file %q already exists and will be overwritten", path),
				Critical:    false,
			})
		}
	case models.ActionDelete:
		if !fileExists(path) {
			issues = append(issues, models.Issue{
				ActionIndex: index,
				Type:        models.IssueFileNotExists,
				Message:     fmt.Sprintf("file %q does not exist and cannot be deleted", path),
				Critical:    true,
			})
		}
	}

	return issues
}

// validateDependencies simulates file existence across the action sequence
// in order: reading a path neither on disk nor created earlier in the plan
// is critical, and so is deleting a path the plan already deleted.
func (v *PlanValidator) validateDependencies(actions []models.Action) []models.Issue {
	var issues []models.Issue
	states := map[string]string{}

	for i, action := range actions {
		kind := action.Type.Normalize()
		if action.Path == "" || !kind.TouchesFile() {
			continue
		}

		switch kind {
		case models.ActionRead:
			if _, tracked := states[action.Path]; !tracked && !fileExists(action.Path) {
				issues = append(issues, models.Issue{
					ActionIndex: i + 1,
					Type:        models.IssueDependencyError,
					Message:     fmt.Sprintf("reading file %q which does not exist and is not created in the plan", action.Path),
					Critical:    true,
				})
			}
		case models.ActionDelete:
			if states[action.Path] == "deleted" {
				issues = append(issues, models.Issue{
					ActionIndex: i + 1,
					Type:        models.IssueDependencyError,
					Message:     fmt.Sprintf("repeated deletion of file %q", action.Path),
					Critical:    true,
				})
			}
		}

		switch kind {
		case models.ActionCreate, models.ActionModify:
			states[action.Path] = "exists"
		case models.ActionDelete:
			states[action.Path] = "deleted"
		}
	}

	return issues
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
