// Package inspector parses Python sources with tree-sitter and reports
// structural faults as ErrorEvents. It performs no semantic checks: a file
// that parses cleanly yields zero events.
package inspector

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
)

const defaultContextWindow = 2

type Inspector struct {
	pool   *parserPool
	window int
}

func New() *Inspector {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return &Inspector{
		pool:   newParserPool(lang),
		window: defaultContextWindow,
	}
}

// InspectFile reads and inspects a single file. Read failures surface as
// CodeUnreadableFile; the caller records them and continues the run.
func (ins *Inspector) InspectFile(path string) ([]ErrorEvent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeUnreadableFile, "cannot read file"),
			errors.CtxPath, path)
	}
	return ins.Inspect(path, content), nil
}

// Inspect parses content and converts every reported parse fault into an
// ErrorEvent with a bounded context window. The file is never mutated.
func (ins *Inspector) Inspect(path string, content []byte) []ErrorEvent {
	sp := ins.pool.Get()
	defer ins.pool.Put(sp)

	lines := strings.Split(string(content), "\n")

	tree := sp.Parse(content, nil)
	if tree == nil {
		ctx, start := extractContext(lines, 1, ins.window)
		return []ErrorEvent{{
			File: path, Line: 1, Column: 1,
			Kind: KindSyntaxError, Message: "file could not be parsed",
			Context: ctx, ContextStart: start,
		}}
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	var events []ErrorEvent
	seen := make(map[int]bool)
	ins.collect(root, lines, path, seen, &events)
	return events
}

// collect walks only subtrees that contain errors and records the topmost
// ERROR or missing node per source line. Descending into an ERROR subtree
// would report one fault many times over.
func (ins *Inspector) collect(node *sitter.Node, lines []string, path string, seen map[int]bool, events *[]ErrorEvent) {
	if node == nil {
		return
	}

	if node.IsError() || node.IsMissing() {
		ins.record(node, lines, path, seen, events)
		return
	}
	if !node.HasError() {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		ins.collect(node.Child(i), lines, path, seen, events)
	}
}

func (ins *Inspector) record(node *sitter.Node, lines []string, path string, seen map[int]bool, events *[]ErrorEvent) {
	pos := node.StartPosition()
	line := int(pos.Row) + 1
	column := int(pos.Column) + 1
	if seen[line] {
		return
	}
	seen[line] = true

	var kind Kind
	var message string
	if node.IsMissing() {
		kind = KindSyntaxError
		message = fmt.Sprintf("expected '%s'", node.Kind())
	} else {
		kind, message = classifyLine(lines, line)
	}

	ctx, start := extractContext(lines, line, ins.window)
	*events = append(*events, ErrorEvent{
		File:         path,
		Line:         line,
		Column:       column,
		Kind:         kind,
		Message:      message,
		Context:      ctx,
		ContextStart: start,
	})
}
