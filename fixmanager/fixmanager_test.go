package fixmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planai/actionlog"
	"planai/models"
	"planai/planner"
)

// writeProject lays out a throwaway source tree under a temp root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

type stubProvider struct {
	actions []models.Action
	query   string
}

func (s *stubProvider) GenerateActions(ctx context.Context, query string) ([]models.Action, error) {
	s.query = query
	return s.actions, nil
}

func (s *stubProvider) Name() string { return "stub" }

func newTestFixManager(t *testing.T, root string, actions []models.Action) (*FixManager, *stubProvider, *actionlog.Journal) {
	t.Helper()
	provider := &stubProvider{actions: actions}
	p := planner.New(provider, filepath.Join(t.TempDir(), "plans"))
	journal, err := actionlog.New(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, err)
	manager, err := New(root, p, journal)
	require.NoError(t, err)
	return manager, provider, journal
}

func TestAnalyzeFileImports(t *testing.T) {
	root := writeProject(t, map[string]string{
		"helpers.py":      "def shout(s):\n    return s.upper()\n",
		"pkg/__init__.py": "",
		"app.py":          "import os\nimport helpers\nfrom pkg import thing\n",
	})

	analyzer := NewDependencyAnalyzer(root)
	content, err := os.ReadFile(filepath.Join(root, "app.py"))
	require.NoError(t, err)

	imports, deps := analyzer.AnalyzeFileImports(filepath.Join(root, "app.py"), string(content))
	assert.Contains(t, imports, "import os")
	assert.Contains(t, imports, "import helpers")
	assert.Contains(t, imports, "from pkg import thing")

	// os is external and produces no dependency edge
	assert.Len(t, deps, 2)
	assert.Contains(t, deps, filepath.Join(root, "helpers.py"))
	assert.Contains(t, deps, filepath.Join(root, "pkg", "__init__.py"))
}

func TestAnalyzeFileImports_RelativeImports(t *testing.T) {
	root := writeProject(t, map[string]string{
		"pkg/__init__.py":     "",
		"pkg/sibling.py":      "VALUE = 1\n",
		"pkg/sub/__init__.py": "",
		"pkg/sub/mod.py":      "from .sibling import VALUE\nfrom . import helpers\n",
	})

	analyzer := NewDependencyAnalyzer(root)
	path := filepath.Join(root, "pkg", "sub", "mod.py")
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	// One leading dot walks one directory up from the file's parent
	_, deps := analyzer.AnalyzeFileImports(path, string(content))
	assert.Contains(t, deps, filepath.Join(root, "pkg", "sibling.py"))
	assert.Contains(t, deps, filepath.Join(root, "pkg", "__init__.py"))
}

func TestAnalyzeFileImports_BrokenSourceYieldsNothing(t *testing.T) {
	analyzer := NewDependencyAnalyzer(t.TempDir())

	imports, deps := analyzer.AnalyzeFileImports("broken.py", "def oops(:\n")
	assert.Empty(t, imports)
	assert.Empty(t, deps)
}

func TestFindCircularDependencies(t *testing.T) {
	analyzer := NewDependencyAnalyzer(t.TempDir())

	graph := map[string]map[string]struct{}{
		"a.py": {"b.py": {}},
		"b.py": {"c.py": {}},
		"c.py": {"a.py": {}},
		"d.py": {"a.py": {}},
	}

	cycles := analyzer.FindCircularDependencies(graph)
	require.Len(t, cycles, 1)
	// Cycle closes on its starting node
	cycle := cycles[0]
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.Len(t, cycle, 4)
}

func TestFindCircularDependencies_AcyclicGraph(t *testing.T) {
	analyzer := NewDependencyAnalyzer(t.TempDir())

	graph := map[string]map[string]struct{}{
		"a.py": {"b.py": {}, "c.py": {}},
		"b.py": {"c.py": {}},
		"c.py": {},
	}
	assert.Empty(t, analyzer.FindCircularDependencies(graph))
}

func TestAnalyzeSingleFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		"service.py": `import os

CONFIG = {}
_private = 1

class Service:
    def run(self):
        if True:
            for i in range(3):
                print(i)

def _helper():
    pass

def handle(request):
    while request:
        break
`,
	})

	analyzer := NewModuleStructureAnalyzer(root)
	fc := analyzer.AnalyzeSingleFile(filepath.Join(root, "service.py"))
	require.NotNil(t, fc)

	assert.Contains(t, fc.Exports, "class:Service")
	assert.Contains(t, fc.Exports, "function:handle")
	assert.Contains(t, fc.Exports, "variable:CONFIG")
	assert.NotContains(t, fc.Exports, "function:_helper")
	assert.NotContains(t, fc.Exports, "variable:_private")

	// if + for + while
	assert.Equal(t, 3, fc.Complexity)
	assert.Greater(t, fc.LineCount, 10)
}

func TestAnalyzeModuleStructure_PublicAPIFromAll(t *testing.T) {
	root := writeProject(t, map[string]string{
		"pkg/__init__.py": "__all__ = [\"Service\", \"handle\"]\n",
		"pkg/service.py":  "class Service:\n    pass\n\ndef handle():\n    pass\n\ndef internal():\n    pass\n",
	})

	analyzer := NewModuleStructureAnalyzer(root)
	module, err := analyzer.AnalyzeModuleStructure(filepath.Join(root, "pkg"))
	require.NoError(t, err)

	assert.Equal(t, "pkg", module.Name)
	assert.Len(t, module.Files, 2)
	assert.ElementsMatch(t, []string{"Service", "handle"}, module.PublicAPI)
}

func TestAnalyzeModuleStructure_SkipsDirsWithoutInit(t *testing.T) {
	root := writeProject(t, map[string]string{
		"pkg/__init__.py":      "",
		"pkg/real/__init__.py": "",
		"pkg/real/mod.py":      "X = 1\n",
		"pkg/scratch/note.py":  "Y = 2\n",
	})

	analyzer := NewModuleStructureAnalyzer(root)
	module, err := analyzer.AnalyzeModuleStructure(filepath.Join(root, "pkg"))
	require.NoError(t, err)

	require.Len(t, module.Submodules, 1)
	assert.Equal(t, "real", module.Submodules[0].Name)
}

func TestBuildFullContext(t *testing.T) {
	root := writeProject(t, map[string]string{
		"utils/__init__.py": "",
		"utils/text.py":     "def shout(s):\n    return s.upper()\n",
		"main.py":           "from utils import text\n\ndef run():\n    pass\n",
	})

	builder := NewContextBuilder(root)
	main := filepath.Join(root, "main.py")
	projectContext := builder.BuildFullContext([]string{main})

	// main plus the utils package it imports
	assert.Contains(t, projectContext.Modules, "root")
	assert.Contains(t, projectContext.Modules, "utils")
	assert.Contains(t, projectContext.ArchitecturePatterns, "Utility modules")

	deps := projectContext.DependencyGraph[main]
	assert.Contains(t, deps, filepath.Join(root, "utils", "__init__.py"))

	// run is registered as a global symbol of main.py
	assert.Equal(t, main, projectContext.GlobalSymbols["run"])
}

func TestBuildFullContext_HonorsIgnoreFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		".planai-ignore":           "vendor/\nlegacy_settings.yml\n",
		"main.py":                  "def run():\n    pass\n",
		"settings.yml":             "debug: true\n",
		"legacy_settings.yml":      "debug: false\n",
		"vendor/config.yaml":       "vendored: true\n",
		"tests/test_main.py":       "def test_run():\n    pass\n",
		"vendor/tests/test_lib.py": "def test_lib():\n    pass\n",
	})

	builder := NewContextBuilder(root)
	projectContext := builder.BuildFullContext([]string{filepath.Join(root, "main.py")})

	assert.Contains(t, projectContext.ConfigFiles, filepath.Join(root, "settings.yml"))
	assert.NotContains(t, projectContext.ConfigFiles, filepath.Join(root, "legacy_settings.yml"))
	assert.NotContains(t, projectContext.ConfigFiles, filepath.Join(root, "vendor", "config.yaml"))

	assert.Contains(t, projectContext.TestFiles, filepath.Join(root, "tests", "test_main.py"))
	assert.NotContains(t, projectContext.TestFiles, filepath.Join(root, "vendor", "tests", "test_lib.py"))
}

func TestFixWithContext(t *testing.T) {
	root := writeProject(t, map[string]string{
		"greet.py": "def greet(name):\n    return \"hi \" + name\n",
	})
	target := filepath.Join(root, "greet.py")

	manager, provider, _ := newTestFixManager(t, root, []models.Action{
		{Type: models.ActionModify, Path: target, Content: models.Ptr("def greet(name):\n    return f\"hi {name}\"\n")},
	})

	result, err := manager.FixWithContext(context.Background(), "use an f-string", []string{target})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Validation.IsValid)
	assert.Equal(t, "low", result.Validation.RiskLevel)
	require.Len(t, result.Plan.Changes, 1)
	assert.Equal(t, "low", result.Plan.EstimatedImpact)
	assert.Empty(t, result.Plan.Warnings)

	// The provider saw the rendered project context ahead of the request
	assert.Contains(t, provider.query, "greet.py")
	assert.Contains(t, provider.query, "User Request: use an f-string")
}

func TestFixWithContext_ImpactReflectsPlanSize(t *testing.T) {
	root := writeProject(t, map[string]string{
		"app.py": "def run():\n    pass\n",
	})

	var actions []models.Action
	for i := 0; i < 12; i++ {
		actions = append(actions, models.Action{
			Type:    models.ActionModify,
			Path:    filepath.Join(root, fmt.Sprintf("mod_%d.py", i)),
			Content: models.Ptr("X = 1\n"),
		})
	}
	manager, _, _ := newTestFixManager(t, root, actions)

	result, err := manager.FixWithContext(context.Background(), "touch everything", []string{filepath.Join(root, "app.py")})
	require.NoError(t, err)

	assert.Equal(t, "high", result.Plan.EstimatedImpact)
	assert.Equal(t, "medium", result.Validation.RiskLevel)
	require.NotEmpty(t, result.Plan.Warnings)
	assert.Contains(t, result.Plan.Warnings[0], "splitting")
}

func TestFixWithContext_Validation(t *testing.T) {
	root := t.TempDir()
	manager, _, _ := newTestFixManager(t, root, nil)

	_, err := manager.FixWithContext(context.Background(), "  ", []string{"x.py"})
	assert.Error(t, err)

	_, err = manager.FixWithContext(context.Background(), "do something", nil)
	assert.Error(t, err)
}

func TestFixWithContext_EmptyPlanIsInvalid(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "X = 1\n",
	})
	manager, _, _ := newTestFixManager(t, root, []models.Action{})

	result, err := manager.FixWithContext(context.Background(), "change nothing", []string{filepath.Join(root, "a.py")})
	require.NoError(t, err)
	assert.False(t, result.Validation.IsValid)
	assert.Contains(t, result.Validation.Errors, "plan contains no changes")
}

func TestValidatePlan_CircularDependenciesRaiseRisk(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import a\n",
	})
	manager, _, _ := newTestFixManager(t, root, []models.Action{
		{Type: models.ActionModify, Path: filepath.Join(root, "a.py"), Content: models.Ptr("X = 1\n")},
	})

	result, err := manager.FixWithContext(context.Background(), "untangle", []string{filepath.Join(root, "a.py")})
	require.NoError(t, err)
	assert.False(t, result.Validation.IsValid)
	assert.Equal(t, "high", result.Validation.RiskLevel)
}

func TestApplyFixPlan(t *testing.T) {
	root := writeProject(t, map[string]string{
		"mod.py": "OLD = True\n",
	})
	target := filepath.Join(root, "mod.py")
	fresh := filepath.Join(root, "new.py")

	manager, _, journal := newTestFixManager(t, root, nil)

	result := &FixResult{
		Plan: &FixPlan{
			Changes: []models.Action{
				{Type: models.ActionModify, Path: target, Content: models.Ptr("NEW = True\n")},
				{Type: models.ActionModify, Path: fresh, Content: models.Ptr("FRESH = True\n")},
				{Type: models.ActionInfo, Description: "nothing to do"},
			},
		},
		Context:    manager.builder.BuildFullContext([]string{target}),
		Validation: &Validation{IsValid: true, RiskLevel: "low"},
	}

	apply := manager.ApplyFixPlan(result, nil)
	require.NotNil(t, apply)
	assert.True(t, apply.Success)
	require.Len(t, apply.AppliedChanges, 3)
	assert.Equal(t, "success", apply.AppliedChanges[0].Status)
	assert.Equal(t, "success", apply.AppliedChanges[1].Status)
	assert.Equal(t, "skipped", apply.AppliedChanges[2].Status)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "NEW = True\n", string(data))
	assert.FileExists(t, fresh)

	// Both writes are syntactically valid python
	require.NotNil(t, apply.SyntaxCheck)
	assert.Equal(t, 2, apply.SyntaxCheck.TotalChecked)
	assert.Empty(t, apply.SyntaxCheck.InvalidFiles)

	// A modify entry for the existing file, a create entry for the new one
	entries, err := journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, string(models.ActionModify), entries[0].Action)
	assert.Equal(t, []byte("OLD = True\n"), entries[0].Details.OldContent)
	assert.Equal(t, string(models.ActionCreate), entries[1].Action)
}

func TestApplyFixPlan_ConfirmRejectsChanges(t *testing.T) {
	root := writeProject(t, map[string]string{
		"mod.py": "KEEP = True\n",
	})
	target := filepath.Join(root, "mod.py")
	manager, _, _ := newTestFixManager(t, root, nil)

	result := &FixResult{
		Plan: &FixPlan{Changes: []models.Action{
			{Type: models.ActionModify, Path: target, Content: models.Ptr("GONE = True\n")},
		}},
		Validation: &Validation{IsValid: true},
	}

	apply := manager.ApplyFixPlan(result, func(string) bool { return false })
	assert.True(t, apply.Success)
	assert.Empty(t, apply.AppliedChanges)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "KEEP = True\n", string(data))
}

func TestApplyFixPlan_InvalidPlanRefused(t *testing.T) {
	manager, _, _ := newTestFixManager(t, t.TempDir(), nil)

	apply := manager.ApplyFixPlan(&FixResult{
		Plan:       &FixPlan{Changes: []models.Action{{Type: models.ActionModify}}},
		Validation: &Validation{IsValid: false, Errors: []string{"circular dependencies detected: 1"}},
	}, nil)
	assert.False(t, apply.Success)
	assert.Contains(t, apply.Errors, "plan failed validation")

	apply = manager.ApplyFixPlan(nil, nil)
	assert.False(t, apply.Success)
}

func TestApplyFixPlan_FlagsBrokenSyntax(t *testing.T) {
	root := writeProject(t, map[string]string{
		"mod.py": "OK = 1\n",
	})
	target := filepath.Join(root, "mod.py")
	manager, _, _ := newTestFixManager(t, root, nil)

	result := &FixResult{
		Plan: &FixPlan{Changes: []models.Action{
			{Type: models.ActionModify, Path: target, Content: models.Ptr("def broken(:\n")},
		}},
		Validation: &Validation{IsValid: true},
	}

	apply := manager.ApplyFixPlan(result, nil)
	require.NotNil(t, apply.SyntaxCheck)
	require.Len(t, apply.SyntaxCheck.InvalidFiles, 1)
	assert.Equal(t, target, apply.SyntaxCheck.InvalidFiles[0].File)
	assert.GreaterOrEqual(t, apply.SyntaxCheck.InvalidFiles[0].Line, 1)
}

func TestFixImportLine(t *testing.T) {
	projectContext := &ProjectContext{
		ImportMap: map[string]string{
			"app.services.billing": "/src/app/services/billing.py",
		},
	}

	// Unknown module with a matching suffix gets rewritten
	fixed := fixImportLine("from services.billing import charge", projectContext)
	assert.Equal(t, "from app.services.billing import charge", fixed)

	// Known modules are untouched
	line := "from app.services.billing import charge"
	assert.Equal(t, line, fixImportLine(line, projectContext))

	// No candidate: line survives unchanged
	line = "from nowhere.else import thing"
	assert.Equal(t, line, fixImportLine(line, projectContext))
}
