package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/petasbytes/charlotte-bridge/internal/fsops"
	"github.com/petasbytes/charlotte-bridge/internal/safety"
)

// PayloadsDir is the subdirectory of the telemetry dir holding captured bodies.
const PayloadsDir = "payloads"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// PersistPayload writes body pretty-printed to <dir>/payloads/<turn>-<kind>.json
// when payload persistence is enabled. It returns the path written, or "" when
// nothing was written. Bodies that are not valid JSON are stored verbatim.
func PersistPayload(ctx context.Context, kind string, body []byte) string {
	if !PersistPayloadsEnabled() {
		return ""
	}
	turnID, ok := TurnIDFromContext(ctx)
	if !ok {
		turnID = "noturn"
	}
	name := unsafeName.ReplaceAllString(turnID+"-"+kind, "_") + ".json"
	path, err := safety.Confine(filepath.Join(Dir(), PayloadsDir), name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: payload name %s: %v\n", name, err)
		return ""
	}

	out := body
	if gjson.ValidBytes(body) {
		out = pretty.Pretty(body)
	}
	if err := fsops.WriteFileAtomic(path, out); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: persist %s: %v\n", path, err)
		return ""
	}
	return path
}
