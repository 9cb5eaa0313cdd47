package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Roles understood by the bridge. Other role strings are tolerated and kept.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"
	RoleSystem    = "system"
	RoleFunction  = "function"
)

// Message is one chat entry as exchanged with the desktop app.
type Message struct {
	Role      string          `json:"role" jsonschema:"enum=user,enum=assistant,enum=model,enum=system,enum=function"`
	Content   Content         `json:"content"`
	Name      string          `json:"name,omitempty" jsonschema_description:"Function name for role=function entries."`
	HistoryID json.RawMessage `json:"history_id,omitempty"`
	Framing   bool            `json:"framing,omitempty" jsonschema_description:"Marks the one-time persona framing entry."`

	// Extra holds fields not modelled above, keyed by their JSON name.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownFields = []string{"role", "content", "name", "history_id", "framing"}

var errNullMessage = errors.New("memory: message is null")

// UnmarshalJSON decodes a message object, keeping unknown fields in Extra.
// Known fields with an unexpected type are kept in Extra as well.
func (m *Message) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	// A JSON null decodes into a nil map without error; it is not a message.
	if fields == nil {
		return errNullMessage
	}

	*m = Message{}
	if raw, ok := fields["role"]; ok && json.Unmarshal(raw, &m.Role) == nil {
		delete(fields, "role")
	}
	if raw, ok := fields["content"]; ok {
		m.Content = Content{raw: append(json.RawMessage(nil), raw...)}
		delete(fields, "content")
	}
	if raw, ok := fields["name"]; ok && json.Unmarshal(raw, &m.Name) == nil {
		delete(fields, "name")
	}
	if raw, ok := fields["history_id"]; ok {
		m.HistoryID = append(json.RawMessage(nil), raw...)
		delete(fields, "history_id")
	}
	if raw, ok := fields["framing"]; ok && json.Unmarshal(raw, &m.Framing) == nil {
		delete(fields, "framing")
	}
	if len(fields) > 0 {
		m.Extra = fields
	}
	return nil
}

// MarshalJSON encodes the message with its Extra fields merged back in.
// Modelled fields take precedence over Extra entries of the same name.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+len(knownFields))
	for k, v := range m.Extra {
		out[k] = v
	}

	role, err := marshalNoEscape(m.Role)
	if err != nil {
		return nil, err
	}
	out["role"] = role
	if len(m.Content.raw) > 0 {
		out["content"] = m.Content.raw
	}
	if m.Name != "" {
		name, err := marshalNoEscape(m.Name)
		if err != nil {
			return nil, err
		}
		out["name"] = name
	}
	if len(m.HistoryID) > 0 {
		out["history_id"] = m.HistoryID
	}
	if m.Framing {
		out["framing"] = json.RawMessage("true")
	}
	return marshalNoEscape(out)
}

// Content is the raw JSON content of a message. Its shape is interpreted lazily
// by Text and by the normalizer.
type Content struct {
	raw json.RawMessage
}

// NewText returns string content.
func NewText(s string) Content {
	b, _ := marshalNoEscape(s)
	return Content{raw: b}
}

// NewRaw wraps already-encoded JSON content.
func NewRaw(raw json.RawMessage) Content {
	return Content{raw: append(json.RawMessage(nil), raw...)}
}

// Raw returns the encoded content; nil when the field was absent.
func (c Content) Raw() json.RawMessage { return c.raw }

// IsZero reports whether the content field was absent.
func (c Content) IsZero() bool { return len(c.raw) == 0 }

// Text flattens content to plain text: strings as-is, the "text" field of an
// object, the text parts of a list joined by newlines, and the literal JSON of
// anything else. Absent or null content yields "".
func (c Content) Text() string {
	raw := bytes.TrimSpace(c.raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{':
		var obj struct {
			Text *json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.Text == nil {
				return ""
			}
			return ScalarText(*obj.Text)
		}
	case '[':
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &parts); err == nil {
			texts := make([]string, 0, len(parts))
			for _, p := range parts {
				if p.Type == "text" {
					texts = append(texts, p.Text)
				}
			}
			return strings.Join(texts, "\n")
		}
	}
	return string(raw)
}

// MarshalJSON emits the raw content, or null when absent.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// UnmarshalJSON keeps a copy of the raw content.
func (c *Content) UnmarshalJSON(b []byte) error {
	c.raw = append(json.RawMessage(nil), b...)
	return nil
}

// ScalarText renders a JSON value as text: strings unquoted, null empty,
// everything else as its literal JSON.
func ScalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	return string(raw)
}

// marshalNoEscape encodes v without HTML escaping and without the trailing newline.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
