// Package safety confines generated file names to a root directory.
package safety

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/petasbytes/charlotte-bridge/internal/fsops"
)

// Confine resolves relPath against root and returns an absolute path inside
// it. Absolute inputs, parent traversal and symlink escapes are rejected with
// an fsops.FileError. root need not exist yet.
func Confine(root, relPath string) (string, error) {
	if relPath == "" {
		return "", fsops.FileError{Code: fsops.CodeEmptyPath, Message: "path is empty"}
	}
	if filepath.IsAbs(relPath) {
		return "", fsops.FileError{Code: fsops.CodeOutsideRoot, Path: relPath, Message: "absolute paths are not allowed"}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(root): %w", err)
	}
	// Resolve symlinks where possible so the boundary check is reliable.
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}

	candidate := filepath.Join(absRoot, filepath.Clean(relPath))

	// Best-effort symlink resolution: the whole candidate if it exists,
	// otherwise its parent, which reveals escapes via a symlinked directory.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if resolvedParent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fsops.FileError{Code: fsops.CodeOutsideRoot, Path: relPath, Message: "path resolves outside the root"}
	}
	return candidate, nil
}
