package fixmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"planai/actionlog"
	"planai/embed_data"
	"planai/errdefs"
	"planai/fileops"
	"planai/models"
	"planai/planner"
)

const snippetLines = 50

// FixManager drives the refactoring flow: build context, plan the change
// through the LLM, validate the plan against the dependency graph, then
// apply it with journaled writes.
type FixManager struct {
	root    string
	planner *planner.Planner
	journal *actionlog.Journal
	builder *ContextBuilder
	tmpl    *template.Template
}

func New(root string, p *planner.Planner, journal *actionlog.Journal) (*FixManager, error) {
	tmpl, err := template.New("fix_context").Parse(embed_data.FixContextPrompt)
	if err != nil {
		return nil, fmt.Errorf("parsing fix context template: %w", err)
	}
	return &FixManager{
		root:    root,
		planner: p,
		journal: journal,
		builder: NewContextBuilder(root),
		tmpl:    tmpl,
	}, nil
}

// FixWithContext builds the project context around the targets, asks the
// planner for a change plan with that context prepended, and validates
// the result. Nothing is applied; pass the result to ApplyFixPlan.
func (f *FixManager) FixWithContext(ctx context.Context, description string, targetPaths []string) (*FixResult, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errdefs.Validation("fix description must not be empty")
	}
	if len(targetPaths) == 0 {
		return nil, errdefs.Validation("at least one target file is required")
	}

	projectContext := f.builder.BuildFullContext(targetPaths)

	llmContext, err := f.renderContext(projectContext, targetPaths, description)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("%s\nUser Request: %s", llmContext, description)
	rawPlan, err := f.planner.CreatePlan(ctx, query)
	if err != nil {
		return nil, err
	}
	if _, err := f.planner.SavePlan(rawPlan, ""); err != nil {
		return nil, err
	}

	plan := &FixPlan{
		Description: description,
		Changes:     rawPlan.Actions,
	}
	validation := f.validatePlan(plan, projectContext)
	plan.Warnings = append([]string{}, validation.Suggestions...)
	plan.EstimatedImpact = estimateImpact(affectedFileCount(plan.Changes))

	return &FixResult{
		Plan:        plan,
		Context:     projectContext,
		Validation:  validation,
		TargetFiles: targetPaths,
		RawPlan:     rawPlan,
	}, nil
}

// affectedFileCount counts changes that touch a concrete file.
func affectedFileCount(changes []models.Action) int {
	affected := 0
	for _, change := range changes {
		if change.Type.TouchesFile() && change.Path != "" {
			affected++
		}
	}
	return affected
}

func estimateImpact(affected int) string {
	switch {
	case affected > 10:
		return "high"
	case affected > 2:
		return "medium"
	default:
		return "low"
	}
}

// validatePlan assesses the plan's risk against the dependency graph and
// the modules' public APIs.
func (f *FixManager) validatePlan(plan *FixPlan, projectContext *ProjectContext) *Validation {
	validation := &Validation{IsValid: true, RiskLevel: "low"}

	cycles := f.builder.deps.FindCircularDependencies(projectContext.DependencyGraph)
	if len(cycles) > 0 {
		validation.Errors = append(validation.Errors, fmt.Sprintf("circular dependencies detected: %d", len(cycles)))
		validation.RiskLevel = "high"
		validation.IsValid = false
	}

	if len(plan.Changes) == 0 {
		validation.Errors = append(validation.Errors, "plan contains no changes")
		validation.IsValid = false
		return validation
	}

	if affected := affectedFileCount(plan.Changes); affected > 10 {
		validation.Suggestions = append(validation.Suggestions,
			"many files will be changed, consider splitting into several stages")
		if validation.RiskLevel == "low" {
			validation.RiskLevel = "medium"
		}
	}

	for _, name := range sortedModuleNames(projectContext.Modules) {
		module := projectContext.Modules[name]
		if breaksPublicAPI(plan.Changes, module.PublicAPI) {
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("possible public API violation in module %s", name))
			validation.RiskLevel = "high"
		}
	}

	return validation
}

// breaksPublicAPI reports whether any delete change names an exported
// symbol of the module.
func breaksPublicAPI(changes []models.Action, publicAPI []string) bool {
	for _, change := range changes {
		if change.Type.Normalize() != models.ActionDelete {
			continue
		}
		text := change.Path + " " + change.Description
		for _, export := range publicAPI {
			symbol := export
			if _, name, ok := strings.Cut(export, ":"); ok {
				symbol = name
			}
			if symbol != "" && strings.Contains(text, symbol) {
				return true
			}
		}
	}
	return false
}

// ApplyFixPlan applies a validated fix plan. Only modify changes with a
// path and content actually touch the filesystem; everything else is
// recorded as skipped. After the changes it rewrites stale imports and
// syntax-checks every modified Python file.
func (f *FixManager) ApplyFixPlan(result *FixResult, confirm func(prompt string) bool) *ApplyResult {
	if result == nil || result.Plan == nil {
		return &ApplyResult{Success: false, Errors: []string{"no fix plan to apply"}}
	}
	if !result.Validation.IsValid {
		return &ApplyResult{
			Success: false,
			Errors:  append([]string{"plan failed validation"}, result.Validation.Errors...),
		}
	}
	if len(result.Plan.Changes) == 0 {
		return &ApplyResult{Success: false, Errors: []string{"plan contains no changes to apply"}}
	}

	apply := &ApplyResult{}
	for i, change := range result.Plan.Changes {
		desc := change.Description
		if desc == "" {
			desc = fmt.Sprintf("%s %s", change.Type, change.Path)
		}

		if confirm != nil && !confirm(fmt.Sprintf("apply change %d: %s?", i+1, desc)) {
			continue
		}

		applied := f.applySingleChange(change, desc)
		apply.AppliedChanges = append(apply.AppliedChanges, applied)
		if applied.Status == "failed" {
			apply.Errors = append(apply.Errors, applied.Err)
		}
	}

	apply.ImportFixes = f.autoFixImports(result.Context)
	apply.SyntaxCheck = validateSyntax(apply.AppliedChanges)
	apply.Success = len(apply.Errors) == 0
	return apply
}

func (f *FixManager) applySingleChange(change models.Action, desc string) AppliedChange {
	if change.Type.Normalize() != models.ActionModify || change.Path == "" || change.Content == nil {
		return AppliedChange{Description: desc, Path: change.Path, Status: "skipped"}
	}

	if !fileops.Exists(change.Path) {
		if err := fileops.Write(change.Path, *change.Content); err != nil {
			return AppliedChange{Description: desc, Path: change.Path, Status: "failed", Err: err.Error()}
		}
		if _, err := f.journal.Log(models.ActionCreate, desc, models.LogDetails{Path: change.Path}); err != nil {
			return AppliedChange{Description: desc, Path: change.Path, Status: "failed", Err: err.Error()}
		}
		return AppliedChange{Description: desc, Path: change.Path, Status: "success"}
	}

	oldContent, err := fileops.Read(change.Path)
	if err != nil {
		return AppliedChange{Description: desc, Path: change.Path, Status: "failed", Err: err.Error()}
	}
	if err := fileops.Write(change.Path, *change.Content); err != nil {
		return AppliedChange{Description: desc, Path: change.Path, Status: "failed", Err: err.Error()}
	}
	if _, err := f.journal.Log(models.ActionModify, desc, models.LogDetails{
		Path:       change.Path,
		OldContent: []byte(oldContent),
		NewContent: []byte(*change.Content),
	}); err != nil {
		return AppliedChange{Description: desc, Path: change.Path, Status: "failed", Err: err.Error()}
	}
	return AppliedChange{Description: desc, Path: change.Path, Status: "success"}
}

// autoFixImports rewrites import lines whose module no longer appears in
// the import map, substituting the closest known module by suffix match.
func (f *FixManager) autoFixImports(projectContext *ProjectContext) []ImportFix {
	if projectContext == nil {
		return nil
	}

	var fixes []ImportFix
	for _, name := range sortedModuleNames(projectContext.Modules) {
		for _, fc := range projectContext.Modules[name].Files {
			fixes = append(fixes, f.fixFileImports(fc, projectContext)...)
		}
	}
	return fixes
}

func (f *FixManager) fixFileImports(fc *FileContext, projectContext *ProjectContext) []ImportFix {
	var fixes []ImportFix
	lines := strings.Split(fc.Content, "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "from ") {
			continue
		}
		fixed := fixImportLine(line, projectContext)
		if fixed == line {
			continue
		}
		fixes = append(fixes, ImportFix{
			File:       fc.Path,
			LineNumber: i + 1,
			Original:   line,
			Fixed:      fixed,
		})
		lines[i] = fixed
	}

	if len(fixes) > 0 {
		if err := fileops.Write(fc.Path, strings.Join(lines, "\n")); err != nil {
			return []ImportFix{{File: fc.Path, Err: fmt.Sprintf("rewriting imports: %v", err)}}
		}
	}
	return fixes
}

func fixImportLine(line string, projectContext *ProjectContext) string {
	m := fromImportRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	moduleName := m[1]
	if _, known := projectContext.ImportMap[moduleName]; known {
		return line
	}

	lastSegment := moduleName
	if idx := strings.LastIndex(moduleName, "."); idx >= 0 {
		lastSegment = moduleName[idx+1:]
	}

	var candidates []string
	for known := range projectContext.ImportMap {
		if strings.Contains(known, lastSegment) {
			candidates = append(candidates, known)
		}
	}
	if len(candidates) == 0 {
		return line
	}
	sort.Strings(candidates)
	return strings.Replace(line, moduleName, candidates[0], 1)
}

// validateSyntax re-parses every successfully modified Python file and
// reports the position of the first parse error, if any.
func validateSyntax(applied []AppliedChange) *SyntaxCheck {
	check := &SyntaxCheck{}

	seen := map[string]struct{}{}
	for _, change := range applied {
		if change.Status != "success" || !strings.HasSuffix(change.Path, ".py") {
			continue
		}
		if _, dup := seen[change.Path]; dup {
			continue
		}
		seen[change.Path] = struct{}{}
		check.TotalChecked++

		data, err := os.ReadFile(change.Path)
		if err != nil {
			check.InvalidFiles = append(check.InvalidFiles, SyntaxIssue{
				File: change.Path,
				Err:  fmt.Sprintf("reading file: %v", err),
			})
			continue
		}

		parser := sitter.NewParser()
		parser.SetLanguage(python.GetLanguage())
		tree := parser.Parse(nil, data)
		if tree == nil || !tree.RootNode().HasError() {
			check.ValidFiles = append(check.ValidFiles, change.Path)
			continue
		}

		row, col := firstErrorPosition(tree.RootNode())
		check.InvalidFiles = append(check.InvalidFiles, SyntaxIssue{
			File:   change.Path,
			Line:   row,
			Column: col,
			Err:    fmt.Sprintf("line %d: syntax error", row),
		})
	}
	return check
}

// firstErrorPosition finds the first error or missing node, 1-based line.
func firstErrorPosition(root *sitter.Node) (line, column int) {
	line, column = 1, 0
	found := false
	walk(root, func(node *sitter.Node) {
		if found {
			return
		}
		if node.Type() == "ERROR" || node.IsMissing() {
			point := node.StartPoint()
			line = int(point.Row) + 1
			column = int(point.Column)
			found = true
		}
	})
	return line, column
}

// renderContext fills the LLM context template from the project context.
func (f *FixManager) renderContext(projectContext *ProjectContext, targetPaths []string, description string) (string, error) {
	type moduleView struct {
		Name                    string
		Path                    string
		FileCount               int
		PublicAPI               string
		ExternalDependencyCount int
	}
	type targetView struct {
		Name            string
		Imports         []string
		Exports         string
		DependencyCount int
		DependentCount  int
		Complexity      int
		LineCount       int
		SnippetLines    int
		Snippet         string
		Truncated       bool
	}
	type graphView struct {
		Name         string
		Dependencies []string
		Dependents   []string
	}
	type symbolView struct {
		Name string
		File string
	}

	data := struct {
		ProjectName          string
		ArchitecturePatterns []string
		Modules              []moduleView
		Targets              []targetView
		GraphEntries         []graphView
		Symbols              []symbolView
		Description          string
	}{
		ProjectName:          filepath.Base(projectContext.RootPath),
		ArchitecturePatterns: projectContext.ArchitecturePatterns,
		Description:          description,
	}

	for _, name := range sortedModuleNames(projectContext.Modules) {
		module := projectContext.Modules[name]
		api := module.PublicAPI
		truncated := len(api) > 10
		if truncated {
			api = api[:10]
		}
		apiText := strings.Join(api, ", ")
		if truncated {
			apiText += "..."
		}
		data.Modules = append(data.Modules, moduleView{
			Name:                    module.Name,
			Path:                    module.Path,
			FileCount:               len(module.Files),
			PublicAPI:               apiText,
			ExternalDependencyCount: len(module.ExternalDependencies),
		})
	}

	for _, target := range targetPaths {
		fc := findFileContext(projectContext, target)
		if fc == nil {
			continue
		}
		lines := strings.Split(fc.Content, "\n")
		truncated := len(lines) > snippetLines
		if truncated {
			lines = lines[:snippetLines]
		}
		data.Targets = append(data.Targets, targetView{
			Name:            filepath.Base(fc.Path),
			Imports:         fc.Imports,
			Exports:         strings.Join(fc.Exports, ", "),
			DependencyCount: len(fc.Dependencies),
			DependentCount:  len(fc.Dependents),
			Complexity:      fc.Complexity,
			LineCount:       fc.LineCount,
			SnippetLines:    snippetLines,
			Snippet:         strings.Join(lines, "\n"),
			Truncated:       truncated,
		})

		entry := graphView{Name: filepath.Base(target)}
		if deps, ok := projectContext.DependencyGraph[target]; ok {
			for _, dep := range limit(sortedKeys(deps), 10) {
				entry.Dependencies = append(entry.Dependencies, filepath.Base(dep))
			}
		}
		for other, deps := range projectContext.DependencyGraph {
			if _, ok := deps[target]; ok {
				entry.Dependents = append(entry.Dependents, filepath.Base(other))
			}
		}
		sort.Strings(entry.Dependents)
		entry.Dependents = limit(entry.Dependents, 10)
		if len(entry.Dependencies) > 0 || len(entry.Dependents) > 0 {
			data.GraphEntries = append(data.GraphEntries, entry)
		}

		for _, symbol := range limit(symbolsIn(projectContext, target), 20) {
			data.Symbols = append(data.Symbols, symbolView{Name: symbol, File: filepath.Base(target)})
		}
	}

	var sb strings.Builder
	if err := f.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering fix context: %w", err)
	}
	return sb.String(), nil
}

func findFileContext(projectContext *ProjectContext, path string) *FileContext {
	for _, module := range projectContext.Modules {
		for _, fc := range module.Files {
			if fc.Path == path {
				return fc
			}
		}
	}
	return nil
}

func symbolsIn(projectContext *ProjectContext, path string) []string {
	var symbols []string
	for symbol, file := range projectContext.GlobalSymbols {
		if file == path {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

func sortedModuleNames(modules map[string]*ModuleContext) []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
