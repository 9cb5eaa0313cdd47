package telemetry_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/charlotte-bridge/internal/telemetry"
)

// useDir points telemetry at a fresh temp dir for the duration of the test.
func useDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	telemetry.SetDir(dir)
	t.Cleanup(func() { telemetry.SetDir("") })
	return dir
}

// readLines returns the non-empty lines of dir/events.jsonl.
func readLines(t *testing.T, dir string) []string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, telemetry.EventsFile))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var out []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			out = append(out, txt)
		}
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan events: %v", err)
	}
	return out
}

// readLastJSONL returns the last JSON object in dir/events.jsonl.
func readLastJSONL(t *testing.T, dir string) (map[string]any, error) {
	t.Helper()
	lines := readLines(t, dir)
	if len(lines) == 0 {
		return nil, errors.New("no lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func TestEmit_Gating(t *testing.T) {
	// Run in a subprocess so startup-evaluated telemetry config sees CHARLOTTE_OBSERVE_JSON=0.
	tmpDir := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=TestEmitGatingProbe")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"CHARLOTTE_OBSERVE_JSON=0",
		"PROBE_DIR="+tmpDir,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("subprocess error: %v\n%s", err, string(out))
	}
	if !strings.Contains(string(out), "no_file=true") {
		t.Fatalf("expected no_file=true, got output:\n%s", string(out))
	}
}

func TestEmitGatingProbe(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" || os.Getenv("PROBE_DIR") == "" {
		return
	}
	dir := os.Getenv("PROBE_DIR")
	telemetry.SetDir(dir)
	telemetry.Emit("test_event", map[string]any{"foo": "bar"})
	if _, err := os.Stat(filepath.Join(dir, telemetry.EventsFile)); os.IsNotExist(err) {
		println("no_file=true")
	} else {
		println("no_file=false")
	}
}

func TestEmit_HappyPath(t *testing.T) {
	dir := useDir(t)
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	telemetry.Emit("test_event", map[string]any{"foo": "bar", "num": 42})

	lines := readLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "test_event" {
		t.Errorf("expected event=test_event, got %v", event["event"])
	}
	if event["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %v", event["foo"])
	}
	if event["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", event["num"])
	}
	timeStr, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, timeStr); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_MultipleEmissions(t *testing.T) {
	dir := useDir(t)
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	telemetry.Emit("event1", map[string]any{"id": 1})
	telemetry.Emit("event2", map[string]any{"id": 2})
	telemetry.Emit("event3", map[string]any{"id": 3})

	lines := readLines(t, dir)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	expected := []string{"event1", "event2", "event3"}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i+1, err)
		}
		if event["event"] != expected[i] {
			t.Errorf("line %d: expected event=%s, got %v", i+1, expected[i], event["event"])
		}
	}
}

func TestEmit_CreatesMissingDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "nested", "webslinger")
	telemetry.SetDir(dir)
	t.Cleanup(func() { telemetry.SetDir("") })
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	telemetry.Emit("x", nil)

	if len(readLines(t, dir)) != 1 {
		t.Fatal("expected one line in nested dir")
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	useDir(t)
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 {
		t.Errorf("expected fields to have 1 key, got %d", len(fields))
	}
	if _, ok := fields["time"]; ok {
		t.Error("fields should not contain 'time' key")
	}
	if _, ok := fields["event"]; ok {
		t.Error("fields should not contain 'event' key")
	}
}

func TestEmit_ErrorHandling_MarshalError(t *testing.T) {
	dir := useDir(t)
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	// NaN cannot be marshaled by encoding/json.
	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(filepath.Join(dir, telemetry.EventsFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
}

func TestEmit_ErrorHandling_DirIsFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	telemetry.SetDir(blocker)
	t.Cleanup(func() { telemetry.SetDir("") })
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	// Should not panic; mkdir fails and is reported on stderr.
	telemetry.Emit("test", map[string]any{"foo": "bar"})
}

func TestEmit_NilFields(t *testing.T) {
	dir := useDir(t)
	t.Setenv("CHARLOTTE_OBSERVE_JSON", "1")

	telemetry.Emit("nil_fields", nil)

	event, err := readLastJSONL(t, dir)
	if err != nil {
		t.Fatal(err)
	}
	if event["event"] != "nil_fields" {
		t.Errorf("expected event=nil_fields, got %v", event["event"])
	}
	if len(event) != 2 {
		t.Fatalf("expected exactly 2 keys (event,time), got %d: %#v", len(event), event)
	}
}

func TestSetDir_EmptyResets(t *testing.T) {
	telemetry.SetDir("/somewhere")
	telemetry.SetDir("")
	if got := telemetry.Dir(); got != "." {
		t.Fatalf("Dir() = %q, want .", got)
	}
}
