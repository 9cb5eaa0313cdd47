// Package normalize maps chat messages onto the two-role, parts-array shape
// expected by the generative API.
package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/petasbytes/charlotte-bridge/memory"
)

// Target roles. Every input role maps to exactly one of these.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a normalized conversation entry.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is either a text part or an image reference.
type Part struct {
	Text     *string   `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL wraps an image location.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart returns a text part.
func TextPart(s string) Part {
	return Part{Text: &s}
}

// ImagePart returns an image part.
func ImagePart(url string) Part {
	return Part{ImageURL: &ImageURL{URL: url}}
}

// Role maps a chat role onto user or model; unknown roles become user.
func Role(role string) string {
	switch role {
	case memory.RoleAssistant, memory.RoleModel:
		return RoleModel
	default:
		return RoleUser
	}
}

// Convert normalizes a single message.
func Convert(m memory.Message) Message {
	return Message{Role: Role(m.Role), Parts: Parts(m.Content)}
}

// Conversation normalizes a whole log. The first entry always becomes a
// single-text user message carrying its trimmed text, since it holds the
// framing text; the rest go through Convert.
func Conversation(history []memory.Message) []Message {
	out := make([]Message, 0, len(history))
	for i, m := range history {
		if i == 0 {
			out = append(out, Message{
				Role:  RoleUser,
				Parts: []Part{TextPart(strings.TrimSpace(m.Content.Text()))},
			})
			continue
		}
		out = append(out, Convert(m))
	}
	return out
}

// Parts maps content onto parts, keeping only text and image_url fields:
//   - string: one text part;
//   - object: a text part for "text", then an image part for "image_url";
//   - list: text and image_url parts in order, other part types skipped;
//   - anything else: one text part holding the stringified value.
//
// The result is never nil so it always encodes as a JSON array.
func Parts(c memory.Content) []Part {
	raw := bytes.TrimSpace(c.Raw())
	if len(raw) > 0 {
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return []Part{TextPart(s)}
			}
		case '{':
			if parts, ok := objectParts(raw); ok {
				return parts
			}
		case '[':
			if parts, ok := listParts(raw); ok {
				return parts
			}
		}
	}
	return []Part{TextPart(memory.ScalarText(raw))}
}

func objectParts(raw []byte) ([]Part, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	parts := make([]Part, 0, 2)
	if v, ok := obj["text"]; ok {
		parts = append(parts, TextPart(memory.ScalarText(v)))
	}
	if v, ok := obj["image_url"]; ok {
		parts = append(parts, ImagePart(imageURL(v)))
	}
	return parts, true
}

func listParts(raw []byte) ([]Part, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	parts := make([]Part, 0, len(items))
	for _, item := range items {
		var p struct {
			Type     string          `json:"type"`
			Text     json.RawMessage `json:"text"`
			ImageURL json.RawMessage `json:"image_url"`
		}
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		switch p.Type {
		case "text":
			parts = append(parts, TextPart(memory.ScalarText(p.Text)))
		case "image_url":
			parts = append(parts, ImagePart(imageURL(p.ImageURL)))
		}
	}
	return parts, true
}

// imageURL accepts either a bare URL string or an {"url": ...} object.
func imageURL(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}
	return memory.ScalarText(raw)
}
