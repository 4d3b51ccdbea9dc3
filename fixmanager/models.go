// Package fixmanager builds dependency-aware refactoring plans for Python
// projects and applies them with journaled, reversible writes.
package fixmanager

import (
	"time"

	"planai/models"
)

// FileContext is everything the analyzers learned about one source file.
type FileContext struct {
	Path         string
	Content      string
	Imports      []string
	Exports      []string
	Dependencies map[string]struct{}
	Dependents   map[string]struct{}
	Complexity   int
	LastModified time.Time
	LineCount    int
}

// ModuleContext groups the files of one module (a package directory or a
// single file) together with its resolved dependency split.
type ModuleContext struct {
	Name                 string
	Path                 string
	Files                []*FileContext
	Submodules           []*ModuleContext
	PublicAPI            []string
	InternalDependencies map[string]struct{}
	ExternalDependencies map[string]struct{}
}

// ProjectContext is the bounded slice of a project that is relevant to a
// set of target files, as assembled by the ContextBuilder.
type ProjectContext struct {
	RootPath             string
	Modules              map[string]*ModuleContext
	DependencyGraph      map[string]map[string]struct{}
	ImportMap            map[string]string
	GlobalSymbols        map[string]string
	ArchitecturePatterns []string
	ConfigFiles          []string
	TestFiles            []string
}

// FixPlan is the normalized change plan derived from the raw LLM plan.
type FixPlan struct {
	Description     string          `json:"description"`
	Changes         []models.Action `json:"changes"`
	Warnings        []string        `json:"warnings"`
	EstimatedImpact string          `json:"estimated_impact"`
}

// Validation is the risk assessment of a fix plan against its context.
type Validation struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
	RiskLevel   string   `json:"risk_level"`
}

// FixResult bundles the plan, the context it was built against, and the
// validation verdict. It is the input to ApplyFixPlan.
type FixResult struct {
	Plan        *FixPlan        `json:"plan"`
	Context     *ProjectContext `json:"-"`
	Validation  *Validation     `json:"validation"`
	TargetFiles []string        `json:"target_files"`
	RawPlan     *models.Plan    `json:"raw_plan"`
}

// AppliedChange records the outcome of one change from a fix plan.
type AppliedChange struct {
	Description string `json:"description"`
	Path        string `json:"path,omitempty"`
	Status      string `json:"status"` // success, skipped, failed
	Err         string `json:"error,omitempty"`
}

// ImportFix records one rewritten import line.
type ImportFix struct {
	File       string `json:"file"`
	LineNumber int    `json:"line_number,omitempty"`
	Original   string `json:"original,omitempty"`
	Fixed      string `json:"fixed,omitempty"`
	Err        string `json:"error,omitempty"`
}

// SyntaxIssue is one file that failed the post-apply syntax check.
type SyntaxIssue struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Err    string `json:"error"`
}

// SyntaxCheck summarizes the post-apply syntax validation pass.
type SyntaxCheck struct {
	ValidFiles   []string      `json:"valid_files"`
	InvalidFiles []SyntaxIssue `json:"invalid_files"`
	TotalChecked int           `json:"total_checked"`
}

// ApplyResult reports one ApplyFixPlan call.
type ApplyResult struct {
	Success        bool            `json:"success"`
	AppliedChanges []AppliedChange `json:"applied_changes"`
	Errors         []string        `json:"errors"`
	ImportFixes    []ImportFix     `json:"import_fixes"`
	SyntaxCheck    *SyntaxCheck    `json:"syntax_check"`
}
