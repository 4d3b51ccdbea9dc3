package fixmanager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// DependencyAnalyzer resolves Python import statements to on-disk files
// inside a project root and builds the per-file dependency graph.
type DependencyAnalyzer struct {
	root string
}

func NewDependencyAnalyzer(root string) *DependencyAnalyzer {
	return &DependencyAnalyzer{root: root}
}

// AnalyzeFileImports parses content and returns the file's import
// statements plus the set of project files they resolve to. Imports that
// point outside the project (stdlib, third-party) stay in imports but
// produce no dependency. A file that does not parse yields empty results.
func (a *DependencyAnalyzer) AnalyzeFileImports(path, content string) ([]string, map[string]struct{}) {
	imports := []string{}
	dependencies := map[string]struct{}{}

	source := []byte(content)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, source)
	if tree == nil || tree.RootNode().HasError() {
		return imports, dependencies
	}

	walk(tree.RootNode(), func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement":
			for i := 0; i < int(node.NamedChildCount()); i++ {
				name := importedName(node.NamedChild(i), source)
				if name == "" {
					continue
				}
				imports = append(imports, "import "+name)
				if dep := a.resolveImport(name, path); dep != "" {
					dependencies[dep] = struct{}{}
				}
			}
		case "import_from_statement":
			module := node.ChildByFieldName("module_name")
			if module == nil {
				return
			}
			moduleName := module.Content(source)

			var names []string
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child == module {
					continue
				}
				if name := importedName(child, source); name != "" {
					names = append(names, name)
				}
			}
			imports = append(imports, fmt.Sprintf("from %s import %s", moduleName, strings.Join(names, ", ")))
			if dep := a.resolveImport(moduleName, path); dep != "" {
				dependencies[dep] = struct{}{}
			}
		}
	})

	return imports, dependencies
}

// importedName extracts the module name from a dotted_name or
// aliased_import node. The original name is kept, not the alias.
func importedName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "dotted_name":
		return node.Content(source)
	case "aliased_import":
		if name := node.ChildByFieldName("name"); name != nil {
			return name.Content(source)
		}
	case "wildcard_import":
		return "*"
	}
	return ""
}

// resolveImport maps a module name onto a project file, or "" when the
// module lives outside the project. Relative imports walk one directory
// up per leading dot before descending through the remaining segments;
// both <path>.py and <path>/__init__.py are tried, first hit wins.
func (a *DependencyAnalyzer) resolveImport(moduleName, currentFile string) string {
	if moduleName == "" || moduleName == "*" {
		return ""
	}

	var target string
	if strings.HasPrefix(moduleName, ".") {
		rest := strings.TrimLeft(moduleName, ".")
		dots := len(moduleName) - len(rest)

		base := filepath.Dir(currentFile)
		for i := 0; i < dots; i++ {
			base = filepath.Dir(base)
		}
		target = base
		if rest != "" {
			target = filepath.Join(base, filepath.Join(strings.Split(rest, ".")...))
		}

		for _, candidate := range []string{target + ".py", filepath.Join(target, "__init__.py")} {
			if fileExists(candidate) && a.withinRoot(candidate) {
				return candidate
			}
		}
		return ""
	}

	target = filepath.Join(a.root, filepath.Join(strings.Split(moduleName, ".")...))
	for _, candidate := range []string{target + ".py", filepath.Join(target, "__init__.py")} {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func (a *DependencyAnalyzer) withinRoot(path string) bool {
	rel, err := filepath.Rel(a.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// BuildDependencyGraph maps each file onto a copy of its direct
// dependency set. No transitive closure: one hop per edge.
func (a *DependencyAnalyzer) BuildDependencyGraph(files []*FileContext) map[string]map[string]struct{} {
	graph := make(map[string]map[string]struct{}, len(files))
	for _, fc := range files {
		deps := make(map[string]struct{}, len(fc.Dependencies))
		for dep := range fc.Dependencies {
			deps[dep] = struct{}{}
		}
		graph[fc.Path] = deps
	}
	return graph
}

// FindCircularDependencies reports every cycle reachable through a
// back-edge during depth-first traversal. Node identity is the raw graph
// key; paths are not canonicalized, so aliased spellings of one file are
// distinct nodes.
func (a *DependencyAnalyzer) FindCircularDependencies(graph map[string]map[string]struct{}) [][]string {
	var cycles [][]string
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		if onStack[node] {
			for i, p := range path {
				if p == node {
					cycle := append(append([]string{}, path[i:]...), node)
					cycles = append(cycles, cycle)
					break
				}
			}
			return
		}
		if visited[node] {
			return
		}
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, neighbor := range sortedKeys(graph[node]) {
			dfs(neighbor)
		}

		onStack[node] = false
		path = path[:len(path)-1]
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if !visited[node] {
			dfs(node)
		}
	}
	return cycles
}

func walk(node *sitter.Node, fn func(*sitter.Node)) {
	fn(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), fn)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
