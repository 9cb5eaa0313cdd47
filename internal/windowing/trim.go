// Package windowing bounds the conversation log to a fixed number of turns
// before it is persisted and sent.
package windowing

import (
	"fmt"
	"os"

	"github.com/petasbytes/charlotte-bridge/memory"
)

// DefaultMaxTurns is the number of user+assistant turns kept, excluding the framing entry.
const DefaultMaxTurns = 20

// Stats summarizes the result of trimming.
//
// Fields:
// - Framing: a leading framing entry was kept.
// - Eligible: conversational entries (user/assistant/model/function) seen after the framing entry.
// - Kept: conversational entries kept (excludes the framing entry).
// - Dropped: entries removed, counting both old turns and entries with other roles.
type Stats struct {
	Framing  bool
	Eligible int
	Kept     int
	Dropped  int
}

// Trim returns a new slice holding the leading framing entry (if msgs starts
// with one) followed by at most the last 2*maxTurns conversational entries,
// oldest→newest.
//
// Rules:
// - Only the first entry can be treated as framing; see memory.IsFraming.
// - Entries with roles other than user/assistant/model/function are dropped.
// - maxTurns <= 0 keeps no conversational entries.
func Trim(msgs []memory.Message, maxTurns int) ([]memory.Message, Stats) {
	var stats Stats
	if len(msgs) == 0 {
		return nil, stats
	}

	rest := msgs
	out := make([]memory.Message, 0, len(msgs))
	if memory.IsFraming(msgs[0]) {
		out = append(out, msgs[0])
		rest = msgs[1:]
		stats.Framing = true
	}

	turns := make([]memory.Message, 0, len(rest))
	for _, m := range rest {
		if conversational(m.Role) {
			turns = append(turns, m)
		}
	}
	stats.Eligible = len(turns)

	limit := 2 * maxTurns
	if limit < 0 {
		limit = 0
	}
	if len(turns) > limit {
		vlogf("drop oldest=%d limit=%d", len(turns)-limit, limit)
		turns = turns[len(turns)-limit:]
	}
	out = append(out, turns...)

	stats.Kept = len(turns)
	stats.Dropped = len(rest) - len(turns)
	return out, stats
}

func conversational(role string) bool {
	switch role {
	case memory.RoleUser, memory.RoleAssistant, memory.RoleModel, memory.RoleFunction:
		return true
	}
	return false
}

// minimal verbose logging when CHARLOTTE_VERBOSE_WINDOW_LOGS=1; stderr only since stdout carries the result.
var verbose = os.Getenv("CHARLOTTE_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[windowing] "+format+"\n", args...)
	}
}
