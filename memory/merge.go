package memory

import (
	"encoding/json"
	"strings"
)

// DefaultGreeting is sent when the caller supplies no messages at all.
const DefaultGreeting = "Hello!"

// legacyFramingMarker identifies framing entries written before the explicit
// "framing" field existed.
const legacyFramingMarker = "system prompt"

// FramingMessage builds the one-time persona entry placed at the head of a new log.
func FramingMessage(text string) Message {
	return Message{Role: RoleUser, Content: NewText(strings.TrimSpace(text)), Framing: true}
}

// IsFraming reports whether m is a framing entry: explicitly marked, or an
// older entry whose text mentions the system prompt.
func IsFraming(m Message) bool {
	if m.Framing {
		return true
	}
	return strings.Contains(strings.ToLower(m.Content.Text()), legacyFramingMarker)
}

// Merge appends incoming to persisted, dropping system entries from both.
// The framing entry is prepended only when persisted is empty and the first
// incoming entry is not itself a system message.
func Merge(persisted, incoming []Message, framing Message) []Message {
	out := make([]Message, 0, len(persisted)+len(incoming)+1)
	if len(persisted) == 0 && (len(incoming) == 0 || incoming[0].Role != RoleSystem) {
		out = append(out, framing)
	}
	out = appendNonSystem(out, persisted)
	out = appendNonSystem(out, incoming)
	return out
}

func appendNonSystem(dst, src []Message) []Message {
	for _, m := range src {
		if m.Role == RoleSystem {
			continue
		}
		dst = append(dst, m)
	}
	return dst
}

// ParseIncoming turns the caller's message argument into a message list.
//
// Accepted forms, in order:
//   - a JSON array of message objects;
//   - a JSON string whose value is such an array (the desktop app
//     double-encodes its payload);
//   - anything else becomes a single user message holding the text
//     (the decoded value when the argument is a JSON string).
//
// System entries are dropped from decoded lists.
func ParseIncoming(arg string) []Message {
	if msgs, ok := decodeList(arg); ok {
		return dropSystem(msgs)
	}
	var inner string
	if err := json.Unmarshal([]byte(arg), &inner); err == nil {
		if msgs, ok := decodeList(inner); ok {
			return dropSystem(msgs)
		}
		return []Message{{Role: RoleUser, Content: NewText(inner)}}
	}
	return []Message{{Role: RoleUser, Content: NewText(arg)}}
}

// DefaultIncoming is the message list used when no argument is given.
func DefaultIncoming() []Message {
	return []Message{{Role: RoleUser, Content: NewText(DefaultGreeting)}}
}

func decodeList(s string) ([]Message, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(trimmed), &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

func dropSystem(msgs []Message) []Message {
	return appendNonSystem(make([]Message, 0, len(msgs)), msgs)
}

// FirstHistoryID returns the history_id of the first entry carrying one, or nil.
func FirstHistoryID(msgs []Message) json.RawMessage {
	for _, m := range msgs {
		if len(m.HistoryID) > 0 {
			return m.HistoryID
		}
	}
	return nil
}
