// Package fsops holds the small file primitives used for the config and memory files.
package fsops

import "encoding/json"

// FileError is a machine-readable error for file-level policy failures.
type FileError struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string so it can be logged verbatim.
func (e FileError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

const (
	CodeNotAFile    = "ERR_NOT_A_FILE"
	CodeEmptyPath   = "ERR_EMPTY_PATH"
	CodeOutsideRoot = "ERR_PATH_OUTSIDE_ROOT"
)
