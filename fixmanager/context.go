package fixmanager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"planai/utils"
)

const (
	maxContextDepth = 3
	maxConfigFiles  = 20
	maxTestFiles    = 30
)

// ContextBuilder assembles the bounded project slice the fix flow feeds
// to the LLM.
type ContextBuilder struct {
	root      string
	deps      *DependencyAnalyzer
	structure *ModuleStructureAnalyzer
}

func NewContextBuilder(root string) *ContextBuilder {
	return &ContextBuilder{
		root:      root,
		deps:      NewDependencyAnalyzer(root),
		structure: NewModuleStructureAnalyzer(root),
	}
}

// BuildFullContext expands outward from targetFiles along the dependency
// graph, capped at maxContextDepth hops, and analyzes exactly that
// relevant set. Dependents are the transpose of the resulting graph.
func (b *ContextBuilder) BuildFullContext(targetFiles []string) *ProjectContext {
	relevant := b.findRelevantFiles(targetFiles)

	var fileContexts []*FileContext
	for _, path := range relevant {
		if fc := b.structure.AnalyzeSingleFile(path); fc != nil {
			fileContexts = append(fileContexts, fc)
		}
	}

	graph := b.deps.BuildDependencyGraph(fileContexts)

	for _, fc := range fileContexts {
		for other, deps := range graph {
			if _, ok := deps[fc.Path]; ok {
				fc.Dependents[other] = struct{}{}
			}
		}
	}

	modules := b.groupFilesByModules(fileContexts)
	importMap, globalSymbols := buildSymbolMaps(fileContexts)

	return &ProjectContext{
		RootPath:             b.root,
		Modules:              modules,
		DependencyGraph:      graph,
		ImportMap:            importMap,
		GlobalSymbols:        globalSymbols,
		ArchitecturePatterns: b.detectArchitecturePatterns(modules, graph),
		ConfigFiles:          b.findConfigFiles(),
		TestFiles:            b.findTestFiles(),
	}
}

// findRelevantFiles is a breadth-first walk from the targets along direct
// dependencies, bounded by maxContextDepth.
func (b *ContextBuilder) findRelevantFiles(targetFiles []string) []string {
	type queued struct {
		path  string
		depth int
	}

	relevant := map[string]struct{}{}
	visited := map[string]struct{}{}
	queue := make([]queued, 0, len(targetFiles))
	for _, f := range targetFiles {
		queue = append(queue, queued{path: f})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[current.path]; seen || current.depth > maxContextDepth {
			continue
		}
		visited[current.path] = struct{}{}
		relevant[current.path] = struct{}{}

		if !strings.HasSuffix(current.path, ".py") || !fileExists(current.path) {
			continue
		}
		data, err := os.ReadFile(current.path)
		if err != nil {
			continue
		}
		_, dependencies := b.deps.AnalyzeFileImports(current.path, string(data))
		for dep := range dependencies {
			if _, seen := visited[dep]; !seen {
				queue = append(queue, queued{path: dep, depth: current.depth + 1})
			}
		}
	}

	return sortedKeys(relevant)
}

// groupFilesByModules buckets files by parent directory. Every distinct
// parent directory becomes one module, nested or not.
func (b *ContextBuilder) groupFilesByModules(fileContexts []*FileContext) map[string]*ModuleContext {
	dirsToFiles := map[string][]*FileContext{}
	for _, fc := range fileContexts {
		dir := filepath.Dir(fc.Path)
		dirsToFiles[dir] = append(dirsToFiles[dir], fc)
	}

	modules := make(map[string]*ModuleContext, len(dirsToFiles))
	for dir, files := range dirsToFiles {
		name := filepath.Base(dir)
		if dir == b.root {
			name = "root"
		}

		internal := map[string]struct{}{}
		external := map[string]struct{}{}
		for _, fc := range files {
			for dep := range fc.Dependencies {
				if b.deps.withinRoot(dep) {
					if filepath.Dir(dep) != dir {
						internal[dep] = struct{}{}
					}
				} else {
					external[dep] = struct{}{}
				}
			}
		}

		var publicAPI []string
		hasInit := false
		for _, fc := range files {
			if filepath.Base(fc.Path) == "__init__.py" {
				publicAPI = append(publicAPI, fc.Exports...)
				hasInit = true
				break
			}
		}
		if !hasInit {
			for _, fc := range files {
				for _, exp := range fc.Exports {
					if _, symbol, ok := strings.Cut(exp, ":"); ok && !strings.HasPrefix(symbol, "_") {
						publicAPI = append(publicAPI, exp)
					}
				}
			}
		}

		modules[name] = &ModuleContext{
			Name:                 name,
			Path:                 dir,
			Files:                files,
			PublicAPI:            publicAPI,
			InternalDependencies: internal,
			ExternalDependencies: external,
		}
	}
	return modules
}

var fromImportRe = regexp.MustCompile(`from\s+(\S+)\s+import`)

// buildSymbolMaps registers every export as a global symbol and maps
// imported module names back to the file that imports them.
func buildSymbolMaps(fileContexts []*FileContext) (importMap, globalSymbols map[string]string) {
	importMap = map[string]string{}
	globalSymbols = map[string]string{}

	for _, fc := range fileContexts {
		for _, export := range fc.Exports {
			if _, symbol, ok := strings.Cut(export, ":"); ok {
				globalSymbols[symbol] = fc.Path
			}
		}
		for _, imp := range fc.Imports {
			switch {
			case strings.HasPrefix(imp, "from "):
				if m := fromImportRe.FindStringSubmatch(imp); m != nil {
					importMap[m[1]] = fc.Path
				}
			case strings.HasPrefix(imp, "import "):
				fields := strings.Fields(imp)
				if len(fields) > 1 {
					importMap[strings.Split(fields[1], ".")[0]] = fc.Path
				}
			}
		}
	}
	return importMap, globalSymbols
}

// detectArchitecturePatterns applies fixed name-based heuristics over the
// module set, plus a cycle report when the graph has any.
func (b *ContextBuilder) detectArchitecturePatterns(modules map[string]*ModuleContext, graph map[string]map[string]struct{}) []string {
	var patterns []string

	has := func(name string) bool {
		_, ok := modules[name]
		return ok
	}

	if has("models") && has("views") {
		patterns = append(patterns, "MVC-like structure")
	}
	if has("services") || has("handlers") {
		patterns = append(patterns, "Service layer pattern")
	}
	if has("utils") || has("helpers") {
		patterns = append(patterns, "Utility modules")
	}
	if has("config") || has("settings") {
		patterns = append(patterns, "Configuration management")
	}

	if cycles := b.deps.FindCircularDependencies(graph); len(cycles) > 0 {
		patterns = append(patterns, fmt.Sprintf("Circular dependencies detected: %d cycles", len(cycles)))
	}
	return patterns
}

func (b *ContextBuilder) loadIgnorePatterns() []string {
	patterns, err := utils.GetIgnorePatterns(b.root)
	if err != nil {
		return nil
	}
	return patterns
}

// ignored reports whether path matches the .planai-ignore patterns and,
// for directories, the sentinel that prunes the walk.
func (b *ContextBuilder) ignored(path string, isDir bool, patterns []string) (bool, error) {
	if len(patterns) == 0 || path == b.root {
		return false, nil
	}
	rel, err := filepath.Rel(b.root, path)
	if err != nil {
		return false, nil
	}
	if isDir {
		if utils.IsDirIgnored(rel, patterns) {
			return true, fs.SkipDir
		}
		return false, nil
	}
	return utils.IsIgnored(rel, patterns), nil
}

func (b *ContextBuilder) findConfigFiles() []string {
	exts := map[string]bool{".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true}
	ignorePatterns := b.loadIgnorePatterns()
	var found []string

	filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if len(found) >= maxConfigFiles {
			return fs.SkipAll
		}
		if skip, skipDir := b.ignored(path, d.IsDir(), ignorePatterns); skip {
			return skipDir
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case exts[filepath.Ext(name)],
			name == "config.py", name == "settings.py",
			strings.HasPrefix(name, ".env"),
			strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"):
			found = append(found, path)
		}
		return nil
	})

	sort.Strings(found)
	return found
}

func (b *ContextBuilder) findTestFiles() []string {
	ignorePatterns := b.loadIgnorePatterns()
	var found []string

	filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if len(found) >= maxTestFiles {
			return fs.SkipAll
		}
		if skip, skipDir := b.ignored(path, d.IsDir(), ignorePatterns); skip {
			return skipDir
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		inTestsDir := strings.Contains(path, string(filepath.Separator)+"tests"+string(filepath.Separator))
		if strings.HasSuffix(name, ".py") &&
			(strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py") || inTestsDir) {
			found = append(found, path)
		}
		return nil
	})

	sort.Strings(found)
	return found
}
