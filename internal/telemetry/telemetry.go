// Package telemetry writes opt-in JSONL events and API payload captures under
// the bridge's data directory.
package telemetry

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventsFile is the name of the JSONL event log inside the telemetry dir.
const EventsFile = "events.jsonl"

var (
	mu  sync.Mutex
	dir = "."
)

// SetDir sets the directory events and payloads are written under.
// An empty dir resets it to the working directory.
func SetDir(d string) {
	mu.Lock()
	defer mu.Unlock()
	if d == "" {
		d = "."
	}
	dir = d
}

// Dir returns the current telemetry directory.
func Dir() string {
	mu.Lock()
	defer mu.Unlock()
	return dir
}

// Emit writes a single JSON line to <dir>/events.jsonl when observation is enabled.
// It augments fields with RFC3339Nano time and the event name.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	maps.Copy(m, fields)
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	base := Dir()
	if err := os.MkdirAll(base, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", base, err)
		return
	}

	path := filepath.Join(base, EventsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
		return
	}
}
