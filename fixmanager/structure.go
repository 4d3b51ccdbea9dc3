package fixmanager

import (
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ModuleStructureAnalyzer walks packages into ModuleContexts.
type ModuleStructureAnalyzer struct {
	root string
	deps *DependencyAnalyzer
}

func NewModuleStructureAnalyzer(root string) *ModuleStructureAnalyzer {
	return &ModuleStructureAnalyzer{root: root, deps: NewDependencyAnalyzer(root)}
}

// AnalyzeModuleStructure analyzes a package directory or a single source
// file. Subdirectories are only descended into when they carry an
// __init__.py marker; anything else is not a submodule.
func (m *ModuleStructureAnalyzer) AnalyzeModuleStructure(modulePath string) (*ModuleContext, error) {
	info, err := os.Stat(modulePath)
	if err != nil {
		return nil, err
	}

	var files []*FileContext
	var submodules []*ModuleContext

	if !info.IsDir() {
		if strings.HasSuffix(modulePath, ".py") {
			if fc := m.AnalyzeSingleFile(modulePath); fc != nil {
				files = append(files, fc)
			}
		}
	} else {
		items, err := os.ReadDir(modulePath)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			itemPath := filepath.Join(modulePath, item.Name())
			switch {
			case !item.IsDir() && strings.HasSuffix(item.Name(), ".py"):
				if fc := m.AnalyzeSingleFile(itemPath); fc != nil {
					files = append(files, fc)
				}
			case item.IsDir() && fileExists(filepath.Join(itemPath, "__init__.py")):
				sub, err := m.AnalyzeModuleStructure(itemPath)
				if err != nil {
					continue
				}
				submodules = append(submodules, sub)
			}
		}
	}

	internal, external := m.splitModuleDependencies(files)

	name := filepath.Base(modulePath)
	name = strings.TrimSuffix(name, ".py")

	return &ModuleContext{
		Name:                 name,
		Path:                 modulePath,
		Files:                files,
		Submodules:           submodules,
		PublicAPI:            extractPublicAPI(files),
		InternalDependencies: internal,
		ExternalDependencies: external,
	}, nil
}

// AnalyzeSingleFile builds the FileContext for one source file, or nil
// when the file cannot be read. Dependents stay empty here; the
// ContextBuilder fills them in from the graph transpose.
func (m *ModuleStructureAnalyzer) AnalyzeSingleFile(path string) *FileContext {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	content := string(data)

	imports, dependencies := m.deps.AnalyzeFileImports(path, content)

	var exports []string
	var complexity int
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, data)
	if tree != nil && !tree.RootNode().HasError() {
		exports = extractExports(tree.RootNode(), data)
		complexity = calculateComplexity(tree.RootNode())
	}

	fc := &FileContext{
		Path:         path,
		Content:      content,
		Imports:      imports,
		Exports:      exports,
		Dependencies: dependencies,
		Dependents:   map[string]struct{}{},
		Complexity:   complexity,
		LineCount:    len(strings.Split(strings.TrimSuffix(content, "\n"), "\n")),
	}
	if info, err := os.Stat(path); err == nil {
		fc.LastModified = info.ModTime()
	}
	return fc
}

// extractExports lists non-underscore functions, classes and assigned
// variables, tagged with their kind.
func extractExports(root *sitter.Node, source []byte) []string {
	var exports []string
	walk(root, func(node *sitter.Node) {
		switch node.Type() {
		case "function_definition":
			if name := node.ChildByFieldName("name"); name != nil {
				if n := name.Content(source); !strings.HasPrefix(n, "_") {
					exports = append(exports, "function:"+n)
				}
			}
		case "class_definition":
			if name := node.ChildByFieldName("name"); name != nil {
				if n := name.Content(source); !strings.HasPrefix(n, "_") {
					exports = append(exports, "class:"+n)
				}
			}
		case "assignment":
			left := node.ChildByFieldName("left")
			if left != nil && left.Type() == "identifier" {
				if n := left.Content(source); !strings.HasPrefix(n, "_") {
					exports = append(exports, "variable:"+n)
				}
			}
		}
	})
	return exports
}

// extractPublicAPI prefers an explicit __all__ list in the package's
// __init__.py; otherwise every file's exports together form the API.
func extractPublicAPI(files []*FileContext) []string {
	var public []string

	for _, fc := range files {
		if filepath.Base(fc.Path) != "__init__.py" {
			continue
		}
		public = append(public, parseAllAssignment(fc.Content)...)
		break
	}

	if len(public) == 0 {
		for _, fc := range files {
			public = append(public, fc.Exports...)
		}
	}
	return public
}

// parseAllAssignment pulls the string elements out of a module-level
// `__all__ = [...]` assignment.
func parseAllAssignment(content string) []string {
	source := []byte(content)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, source)
	if tree == nil || tree.RootNode().HasError() {
		return nil
	}

	var names []string
	walk(tree.RootNode(), func(node *sitter.Node) {
		if node.Type() != "assignment" {
			return
		}
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil || left.Type() != "identifier" || left.Content(source) != "__all__" {
			return
		}
		if right.Type() != "list" {
			return
		}
		for i := 0; i < int(right.NamedChildCount()); i++ {
			elt := right.NamedChild(i)
			if elt.Type() == "string" {
				names = append(names, strings.Trim(elt.Content(source), `"'`))
			}
		}
	})
	return names
}

// calculateComplexity is a rough cyclomatic count over branching nodes.
func calculateComplexity(root *sitter.Node) int {
	complexity := 0
	walk(root, func(node *sitter.Node) {
		switch node.Type() {
		case "if_statement", "while_statement", "for_statement", "with_statement", "except_clause":
			complexity++
		}
	})
	return complexity
}

func (m *ModuleStructureAnalyzer) splitModuleDependencies(files []*FileContext) (internal, external map[string]struct{}) {
	internal = map[string]struct{}{}
	external = map[string]struct{}{}
	for _, fc := range files {
		for dep := range fc.Dependencies {
			if m.deps.withinRoot(dep) {
				internal[dep] = struct{}{}
			} else {
				external[dep] = struct{}{}
			}
		}
	}
	return internal, external
}
