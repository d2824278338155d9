// Package selector discovers the Python files of a scan root. Excluded
// directories are pruned before descent, the result is capped at a
// configurable ceiling, and files are ordered so that intra-project imports
// come before their dependents.
package selector

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
)

// DefaultExcludedDirs prunes version-control metadata, cache/build output
// and virtual environments before descent.
var DefaultExcludedDirs = []string{
	".git", ".hg", ".svn",
	"__pycache__", ".pytest_cache", ".mypy_cache", ".ruff_cache", ".tox",
	"venv", ".venv", "env", "node_modules",
	"build", "dist", ".eggs",
}

const DefaultMaxFiles = 100

type Config struct {
	ExcludeDirs  []string
	ExcludeFiles []string
	MaxFiles     int
}

type Selector struct {
	root         string
	maxFiles     int
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

// Selection is the ordered, finite file sequence produced by one walk.
// Truncated carries the count of discovered files past the ceiling; a
// non-zero value is a warning, not an error.
type Selection struct {
	Files     []string
	Truncated int
}

func New(root string, cfg Config) (*Selector, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeInvalidRoot, "scan root is not accessible"),
			errors.CtxPath, root)
	}
	if !info.IsDir() {
		return nil, errors.AddContext(
			errors.New(errors.CodeInvalidRoot, "scan root must be a directory"),
			errors.CtxPath, root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidRoot, "cannot resolve scan root")
	}

	excludeDirs := cfg.ExcludeDirs
	if excludeDirs == nil {
		excludeDirs = DefaultExcludedDirs
	}
	dirGlobs, err := compileGlobs(excludeDirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(cfg.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	return &Selector{
		root:         abs,
		maxFiles:     maxFiles,
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
	}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid exclude pattern "+p)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Root returns the resolved absolute scan root.
func (s *Selector) Root() string {
	return s.root
}

// Select walks the root and returns the ordered selection. It is restartable:
// each call performs a fresh walk over the current state of the tree.
func (s *Selector) Select() (*Selection, error) {
	var files []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return errors.Wrap(err, errors.CodeInvalidRoot, "scan root is not readable")
			}
			slog.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path == s.root {
				return nil
			}
			for _, g := range s.excludeDirs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(base), ".py") {
			return nil
		}
		for _, g := range s.excludeFiles {
			if g.Match(base) {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stable lexical order first; dependency ordering reshuffles within it.
	sort.Strings(files)
	files = orderByImports(s.root, files)

	sel := &Selection{Files: files}
	if len(files) > s.maxFiles {
		sel.Truncated = len(files) - s.maxFiles
		sel.Files = files[:s.maxFiles]
		slog.Warn("scan truncated at file ceiling",
			"max_files", s.maxFiles, "skipped", sel.Truncated)
	}
	return sel, nil
}
