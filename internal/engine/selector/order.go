package selector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Dependency ordering is a best-effort topological hint, not a correctness
// requirement. Imports that do not resolve inside the root are ignored, and
// circular or unresolvable relationships degrade to stable lexical order.

// orderByImports reorders files so that resolvable intra-project import
// targets precede their importers. The input must already be lexically
// sorted; ties and cycles keep that order.
func orderByImports(root string, files []string) []string {
	if len(files) < 2 {
		return files
	}

	index := make(map[string]string, len(files)) // module key -> file
	for _, f := range files {
		if key := moduleKey(root, f); key != "" {
			index[key] = f
		}
	}

	lang := sitter.NewLanguage(tree_sitter_python.Language())
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	deps := make(map[string][]string, len(files))
	for _, f := range files {
		deps[f] = resolveImports(parser, root, f, index)
	}

	return topoOrder(files, deps)
}

// moduleKey maps a file under root to its dotted Python module path.
// pkg/util.py -> "pkg.util"; pkg/__init__.py -> "pkg".
func moduleKey(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	rel = filepath.ToSlash(strings.TrimSuffix(rel, ".py"))
	rel = strings.TrimSuffix(rel, "/__init__")
	if rel == "__init__" {
		return ""
	}
	return strings.ReplaceAll(rel, "/", ".")
}

// resolveImports parses one file and returns the selected files its imports
// resolve to. Unparsable files simply contribute no edges.
func resolveImports(parser *sitter.Parser, root, file string, index map[string]string) []string {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	pkg := parentPackage(moduleKey(root, file))

	var modules []string
	collectImports(tree.RootNode(), content, pkg, &modules)

	seen := make(map[string]bool)
	var out []string
	for _, mod := range modules {
		target, ok := index[mod]
		if !ok {
			continue
		}
		if target == file || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

func parentPackage(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i]
	}
	return ""
}

// collectImports walks the tree for import_statement / import_from_statement
// nodes and appends the dotted module names they reference, including the
// module.item form of from-imports so "from pkg import util" resolves
// pkg/util.py.
func collectImports(node *sitter.Node, source []byte, pkg string, modules *[]string) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "import_statement":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "dotted_name", "identifier":
				*modules = append(*modules, text(source, child))
			case "aliased_import":
				for j := uint(0); j < child.ChildCount(); j++ {
					sub := child.Child(j)
					if sub.Kind() == "dotted_name" || sub.Kind() == "identifier" {
						*modules = append(*modules, text(source, sub))
						break
					}
				}
			}
		}
		return
	case "import_from_statement":
		collectFromImport(node, source, pkg, modules)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		collectImports(node.Child(i), source, pkg, modules)
	}
}

func collectFromImport(node *sitter.Node, source []byte, pkg string, modules *[]string) {
	var module string
	var items []string
	relative := false
	sawImport := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "relative_import":
			relative = true
			module = resolveRelative(text(source, child), pkg)
		case "import":
			sawImport = true
		case "dotted_name", "identifier":
			if !sawImport && !relative {
				module = text(source, child)
			} else if sawImport {
				items = append(items, text(source, child))
			}
		case "aliased_import", "import_list":
			collectItems(child, source, &items)
		}
	}

	if module != "" {
		*modules = append(*modules, module)
		for _, item := range items {
			*modules = append(*modules, module+"."+item)
		}
	}
}

func collectItems(node *sitter.Node, source []byte, items *[]string) {
	kind := node.Kind()
	if kind == "identifier" || kind == "dotted_name" {
		*items = append(*items, text(source, node))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		collectItems(node.Child(i), source, items)
	}
}

// resolveRelative turns ".sibling" / "..pkg.mod" into an absolute module key
// relative to the importing file's package.
func resolveRelative(rel, pkg string) string {
	dots := 0
	for dots < len(rel) && rel[dots] == '.' {
		dots++
	}
	suffix := rel[dots:]

	base := pkg
	for i := 1; i < dots && base != ""; i++ {
		base = parentPackage(base)
	}
	switch {
	case base == "":
		return suffix
	case suffix == "":
		return base
	default:
		return base + "." + suffix
	}
}

func text(source []byte, node *sitter.Node) string {
	return string(source[node.StartByte():node.EndByte()])
}

// topoOrder runs Kahn's algorithm over dep edges with a lexical-first ready
// queue. Files caught in cycles are appended afterwards in lexical order.
func topoOrder(files []string, deps map[string][]string) []string {
	inSet := make(map[string]bool, len(files))
	for _, f := range files {
		inSet[f] = true
	}

	indegree := make(map[string]int, len(files))
	dependents := make(map[string][]string, len(files))
	for _, f := range files {
		for _, dep := range deps[f] {
			if !inSet[dep] {
				continue
			}
			indegree[f]++
			dependents[dep] = append(dependents[dep], f)
		}
	}

	var ready []string
	for _, f := range files {
		if indegree[f] == 0 {
			ready = append(ready, f)
		}
	}
	sort.Strings(ready)

	out := make([]string, 0, len(files))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)

		changed := false
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
				changed = true
			}
		}
		if changed {
			sort.Strings(ready)
		}
	}

	if len(out) < len(files) {
		emitted := make(map[string]bool, len(out))
		for _, f := range out {
			emitted[f] = true
		}
		for _, f := range files {
			if !emitted[f] {
				out = append(out, f)
			}
		}
	}
	return out
}
