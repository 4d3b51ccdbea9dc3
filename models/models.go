package models

// ActionType identifies what an action does to the filesystem.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionModify ActionType = "modify"
	ActionDelete ActionType = "delete"
	ActionRead   ActionType = "read"
	ActionInfo   ActionType = "info"

	// ActionRollback only appears in journal entries, never in plans.
	ActionRollback ActionType = "rollback"
)

// Normalize maps the alias spellings LLMs tend to emit onto canonical types.
func (t ActionType) Normalize() ActionType {
	switch t {
	case "create_file", "add_file":
		return ActionCreate
	case "update_file", "modify_file", "edit_file", "update":
		return ActionModify
	case "delete_file", "remove_file", "remove":
		return ActionDelete
	case "read_file":
		return ActionRead
	case "message", "note":
		return ActionInfo
	default:
		return t
	}
}

// TouchesFile reports whether the action type operates on a file path.
func (t ActionType) TouchesFile() bool {
	switch t {
	case ActionCreate, ActionModify, ActionDelete, ActionRead:
		return true
	default:
		return false
	}
}

// Action is a single instruction inside a plan. Content is a pointer so
// that an explicitly empty file body can be told apart from an absent one:
// create and modify require content to be present, even if it is "".
type Action struct {
	Type        ActionType `json:"type" yaml:"type"`
	Path        string     `json:"path,omitempty" yaml:"path,omitempty"`
	Content     *string    `json:"content,omitempty" yaml:"content,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Plan is an ordered sequence of actions derived from one query.
// Once saved it is never mutated, only re-saved under another path.
type Plan struct {
	ID        string   `json:"id" yaml:"id"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
	Query     string   `json:"query" yaml:"query"`
	Actions   []Action `json:"actions" yaml:"actions"`
}

// Issue types reported by the plan validator.
const (
	IssueMissingField     = "missing_field"
	IssueMissingPath      = "missing_path"
	IssueRelativePath     = "relative_path"
	IssuePermissionDenied = "permission_denied"
	IssueFileExists       = "file_exists"
	IssueFileNotExists    = "file_not_exists"
	IssueDependencyError  = "dependency_error"
)

// Issue is one validator finding. Only critical issues block execution.
type Issue struct {
	ActionIndex int    `json:"action_index"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	Critical    bool   `json:"critical"`
}

// ActionResult records the outcome of a single executed action.
type ActionResult struct {
	Action    Action `json:"action"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Err       string `json:"error,omitempty"`
}

// ExecutionResult is the per-call outcome of executing a plan. It is not
// persisted; only the journal holds durable state.
type ExecutionResult struct {
	PlanID           string         `json:"plan_id"`
	Timestamp        string         `json:"timestamp"`
	Success          bool           `json:"success"`
	ExecutedActions  []ActionResult `json:"executed_actions"`
	FailedActions    []ActionResult `json:"failed_actions"`
	ValidationIssues []Issue        `json:"validation_issues,omitempty"`
}

// RollbackAction describes one inverse operation that was applied.
type RollbackAction struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// RollbackResult reports a rollback call. Success means at least one
// action was actually inverted, not merely attempted.
type RollbackResult struct {
	Success    bool             `json:"success"`
	RolledBack []RollbackAction `json:"actions_rolled_back"`
	Errors     []string         `json:"errors"`
	Timestamp  string           `json:"timestamp"`
}

// LogDetails carries whatever a journal entry needs to invert its action:
// a create entry records only the path, a modify entry both contents, a
// delete entry the full prior content. Contents are raw bytes so binary
// and non-UTF-8 files survive the JSON round trip intact; a nil slice
// means the field was never recorded, an empty one means an empty file.
type LogDetails struct {
	Path       string `json:"path,omitempty"`
	Content    []byte `json:"content"`
	OldContent []byte `json:"old_content"`
	NewContent []byte `json:"new_content"`
	Note       string `json:"note,omitempty"`

	// Set on rollback audit entries.
	OriginalID     string `json:"original_action_id,omitempty"`
	OriginalAction string `json:"original_action_type,omitempty"`
}

// LogEntry is one journal file. Entries are immutable once written and
// are deleted exactly when successfully rolled back.
type LogEntry struct {
	ID          string     `json:"id"`
	Timestamp   string     `json:"timestamp"`
	Action      string     `json:"action"`
	Description string     `json:"description"`
	Details     LogDetails `json:"details"`
}

// Ptr returns a pointer to v. Mostly used to build action contents.
func Ptr[T any](v T) *T {
	return &v
}
