package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/petasbytes/charlotte-bridge/internal/fsops"
)

// DefaultFileName is the memory file name inside the data directory.
const DefaultFileName = "charlotte_memory.json"

// Load reads the memory log at path. A missing file yields nil, nil.
// Unreadable or malformed files return an error; callers that must keep going
// treat that as an empty log.
func Load(path string) ([]Message, error) {
	b, err := fsops.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return msgs, nil
}

// Save overwrites the memory log at path with msgs as compact JSON.
// Non-ASCII text and HTML characters are written unescaped.
func Save(path string, msgs []Message) error {
	if msgs == nil {
		msgs = []Message{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msgs); err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	return fsops.WriteFileAtomic(path, bytes.TrimRight(buf.Bytes(), "\n"))
}
