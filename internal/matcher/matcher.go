package matcher

import (
	"path/filepath"
	"strings"
)

// FileFilter decides whether a declaration's originating file was requested.
type FileFilter interface {
	Match(file string) bool
}

// NameFilter decides whether a declaration is excluded by name.
type NameFilter interface {
	Ignored(name string) bool
}

type fileFilterImpl struct {
	files map[string]bool
}

type nameFilterImpl struct {
	exact    map[string]bool
	patterns []string
}

// NewFileFilter matches declarations physically defined in one of files. Paths are
// compared after resolving them to absolute, symlink-free form. With no files,
// every declaration that has a location matches.
func NewFileFilter(files ...string) FileFilter {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			set[Canonical(f)] = true
		}
	}
	return &fileFilterImpl{files: set}
}

func (m *fileFilterImpl) Match(file string) bool {
	if file == "" {
		return false
	}
	if len(m.files) == 0 {
		return true
	}
	return m.files[Canonical(file)]
}

// Canonical returns the absolute, symlink-resolved form of path. When the path
// cannot be resolved on disk it is only made absolute and cleaned.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// NewNameFilter ignores the listed names. Entries containing '*', '?' or '[' are
// treated as glob patterns; C names are matched case-sensitively.
func NewNameFilter(names []string) NameFilter {
	return toIgnoreSet(names)
}

func (m *nameFilterImpl) Ignored(name string) bool {
	if m.exact[name] {
		return true
	}
	for _, p := range m.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func toIgnoreSet(names []string) *nameFilterImpl {
	set := &nameFilterImpl{exact: make(map[string]bool, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if strings.ContainsAny(n, "*?[") {
			if _, err := filepath.Match(n, ""); err == nil {
				set.patterns = append(set.patterns, n)
			}
			continue
		}
		set.exact[n] = true
	}
	return set
}
