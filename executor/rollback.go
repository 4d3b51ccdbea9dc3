package executor

import (
	"fmt"
	"time"

	"planai/fileops"
	"planai/models"
)

// Rollback inverts up to steps most-recent journal entries, newest first.
// A create entry deletes the file it made, a modify entry restores the
// prior content, a delete entry re-creates the file. Entries of any other
// type are consumed without counting toward the result. Every processed
// entry file is removed so it cannot be rolled back twice; successful
// inversions additionally leave a "rollback" audit entry.
func (e *Executor) Rollback(steps int) (*models.RollbackResult, error) {
	result := &models.RollbackResult{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	entries, err := e.journal.Recent(steps)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		result.Errors = append(result.Errors, "no actions to roll back - action log is empty")
		return result, nil
	}

	for _, entry := range entries {
		inverted, rbErr := e.invertEntry(entry)
		if rbErr != nil {
			result.Errors = append(result.Errors, rbErr.Error())
		}
		if inverted != nil {
			result.RolledBack = append(result.RolledBack, *inverted)

			if _, err := e.journal.Log(models.ActionRollback,
				fmt.Sprintf("rolled back action: %s - %s", entry.Action, entry.Description),
				models.LogDetails{
					Path:           entry.Details.Path,
					OriginalID:     entry.ID,
					OriginalAction: entry.Action,
				}); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("logging rollback of %s: %v", entry.ID, err))
			}
		}

		if err := e.journal.Remove(entry.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("removing journal entry %s: %v", entry.ID, err))
		}
	}

	result.Success = len(result.RolledBack) > 0
	return result, nil
}

// invertEntry applies the inverse of one journal entry. A nil action with
// a nil error means the entry type is not reversible and was skipped.
func (e *Executor) invertEntry(entry models.LogEntry) (*models.RollbackAction, error) {
	details := entry.Details

	switch models.ActionType(entry.Action) {
	case models.ActionCreate:
		if details.Path == "" {
			return nil, fmt.Errorf("no path in create entry %s", entry.ID)
		}
		if !fileops.Exists(details.Path) {
			return nil, fmt.Errorf("file not found: %s", details.Path)
		}
		if _, err := fileops.Delete(details.Path); err != nil {
			return nil, err
		}
		return &models.RollbackAction{
			Type:        "delete",
			Path:        details.Path,
			Description: fmt.Sprintf("deleted file created by action: %s", entry.Description),
		}, nil

	case models.ActionModify:
		if details.Path == "" || details.OldContent == nil {
			return nil, fmt.Errorf("not enough data to roll back modification of %s", details.Path)
		}
		if err := fileops.Write(details.Path, string(details.OldContent)); err != nil {
			return nil, err
		}
		return &models.RollbackAction{
			Type:        "restore",
			Path:        details.Path,
			Description: fmt.Sprintf("previous state restored for file: %s", details.Path),
		}, nil

	case models.ActionDelete:
		if details.Path == "" || details.Content == nil {
			return nil, fmt.Errorf("not enough data to restore deleted file %s", details.Path)
		}
		if err := fileops.Write(details.Path, string(details.Content)); err != nil {
			return nil, err
		}
		return &models.RollbackAction{
			Type:        "restore",
			Path:        details.Path,
			Description: fmt.Sprintf("deleted file restored: %s", details.Path),
		}, nil

	default:
		// info and rollback entries carry no filesystem state to invert.
		return nil, nil
	}
}
