package fsops

import (
	"os"
	"strings"
)

// ReadFile reads a regular file. Missing files surface os.ErrNotExist unchanged
// so callers can test with errors.Is; directories yield a FileError.
func ReadFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, FileError{Code: CodeEmptyPath, Message: "path is empty"}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, FileError{Code: CodeNotAFile, Path: path, Message: "path is a directory"}
	}
	return os.ReadFile(path)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
