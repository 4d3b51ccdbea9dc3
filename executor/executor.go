// Package executor applies validated plans to the filesystem and journals
// every destructive step so it can later be undone.
package executor

import (
	"fmt"
	"time"

	"planai/actionlog"
	"planai/errdefs"
	"planai/fileops"
	"planai/models"
	"planai/validator"
)

// Options tweak a single ExecutePlan call.
type Options struct {
	// SkipValidation applies the plan without running the validator first.
	SkipValidation bool
}

type Executor struct {
	journal   *actionlog.Journal
	validator *validator.PlanValidator
}

func New(journal *actionlog.Journal) *Executor {
	return &Executor{journal: journal, validator: validator.New()}
}

// ExecutePlan runs the plan's actions strictly in order, stopping at the
// first failure. Each applied action is journaled before the next one
// starts, so a crash mid-plan leaves a journal that still undoes cleanly.
func (e *Executor) ExecutePlan(plan *models.Plan, opts Options) (*models.ExecutionResult, error) {
	if plan == nil {
		return nil, errdefs.Validation("plan must not be nil")
	}

	result := &models.ExecutionResult{
		PlanID:    plan.ID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if !opts.SkipValidation {
		valid, issues, err := e.validator.ValidatePlan(plan)
		if err != nil {
			return nil, err
		}
		result.ValidationIssues = issues
		if !valid {
			return result, errdefs.Validation("plan %s failed validation with %d issue(s)", plan.ID, len(issues))
		}
	}

	for _, action := range plan.Actions {
		res := e.executeAction(action)
		if res.Success {
			result.ExecutedActions = append(result.ExecutedActions, res)
			continue
		}
		result.FailedActions = append(result.FailedActions, res)
		break
	}

	result.Success = len(result.FailedActions) == 0
	if !result.Success {
		failed := result.FailedActions[0]
		return result, &errdefs.ExecutionError{
			PlanID: plan.ID,
			Cause:  &errdefs.ActionError{Msg: failed.Err, Action: failed.Action},
		}
	}
	return result, nil
}

func (e *Executor) executeAction(action models.Action) (res models.ActionResult) {
	res = models.ActionResult{
		Action:    action,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Err = fmt.Sprintf("panic applying %s action: %v", action.Type, r)
		}
	}()

	var (
		msg string
		err error
	)
	switch action.Type.Normalize() {
	case models.ActionCreate:
		msg, err = e.applyCreate(action)
	case models.ActionModify:
		msg, err = e.applyModify(action)
	case models.ActionDelete:
		msg, err = e.applyDelete(action)
	case models.ActionRead:
		msg, err = e.applyRead(action)
	case models.ActionInfo:
		msg, err = e.applyInfo(action)
	default:
		err = &errdefs.ActionError{Msg: fmt.Sprintf("unknown action type %q", action.Type), Action: action}
	}

	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Success = true
	res.Message = msg
	return res
}

func (e *Executor) applyCreate(action models.Action) (string, error) {
	if action.Content == nil {
		return "", &errdefs.ActionError{Msg: "create action requires content", Action: action}
	}

	overwrote := fileops.Exists(action.Path)
	if err := fileops.Write(action.Path, *action.Content); err != nil {
		return "", err
	}

	if _, err := e.journal.Log(models.ActionCreate, description(action, "created "+action.Path),
		models.LogDetails{Path: action.Path}); err != nil {
		return "", err
	}

	if overwrote {
		return fmt.Sprintf("created %s (overwrote existing file)", action.Path), nil
	}
	return "created " + action.Path, nil
}

func (e *Executor) applyModify(action models.Action) (string, error) {
	if action.Content == nil {
		return "", &errdefs.ActionError{Msg: "modify action requires content", Action: action}
	}

	// Read the prior content immediately before writing so the journal
	// captures the file as it actually was, not as validation saw it.
	oldContent, err := fileops.Read(action.Path)
	if err != nil {
		return "", err
	}
	if err := fileops.Write(action.Path, *action.Content); err != nil {
		return "", err
	}

	if _, err := e.journal.Log(models.ActionModify, description(action, "modified "+action.Path),
		models.LogDetails{
			Path:       action.Path,
			OldContent: []byte(oldContent),
			NewContent: []byte(*action.Content),
		}); err != nil {
		return "", err
	}
	return "modified " + action.Path, nil
}

func (e *Executor) applyDelete(action models.Action) (string, error) {
	if !fileops.Exists(action.Path) {
		// Idempotent: deleting a missing file succeeds without an entry,
		// since there is nothing to restore.
		return fmt.Sprintf("%s already absent", action.Path), nil
	}

	content, err := fileops.Read(action.Path)
	if err != nil {
		return "", err
	}
	if _, err := fileops.Delete(action.Path); err != nil {
		return "", err
	}

	if _, err := e.journal.Log(models.ActionDelete, description(action, "deleted "+action.Path),
		models.LogDetails{Path: action.Path, Content: []byte(content)}); err != nil {
		return "", err
	}
	return "deleted " + action.Path, nil
}

func (e *Executor) applyRead(action models.Action) (string, error) {
	content, err := fileops.Read(action.Path)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (e *Executor) applyInfo(action models.Action) (string, error) {
	if _, err := e.journal.Log(models.ActionInfo, action.Description,
		models.LogDetails{Note: action.Description}); err != nil {
		return "", err
	}
	return action.Description, nil
}

func description(action models.Action, fallback string) string {
	if action.Description != "" {
		return action.Description
	}
	return fallback
}
