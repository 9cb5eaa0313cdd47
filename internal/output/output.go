// Package output writes the single result line read by the desktop app.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/sjson"
)

// Result is the bridge's answer for one invocation.
type Result struct {
	Response string
	// HistoryID is passed through verbatim; nil encodes as null.
	HistoryID json.RawMessage
}

const fallbackTemplate = `{"response": "", "history_id": null}`

// Line renders r as `{"response": <string>, "history_id": <raw|null>}`
// without HTML escaping. An unusable history id makes Line return an error.
func Line(r Result) ([]byte, error) {
	resp, err := encodeString(r.Response)
	if err != nil {
		return nil, err
	}
	hid := []byte("null")
	if len(bytes.TrimSpace(r.HistoryID)) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r.HistoryID); err != nil {
			return nil, fmt.Errorf("history_id: %w", err)
		}
		hid = buf.Bytes()
	}

	var b bytes.Buffer
	b.WriteString(`{"response": `)
	b.Write(resp)
	b.WriteString(`, "history_id": `)
	b.Write(hid)
	b.WriteString("}")
	return b.Bytes(), nil
}

// Fallback renders a line carrying only the response text, with invalid
// UTF-8 replaced, and a null history id.
func Fallback(response string) []byte {
	out, err := sjson.Set(fallbackTemplate, "response", strings.ToValidUTF8(response, "�"))
	if err != nil {
		return []byte(fallbackTemplate)
	}
	return []byte(out)
}

// Write emits exactly one newline-terminated line for r. If r cannot be
// encoded the fallback line is written instead.
func Write(w io.Writer, r Result) error {
	line, err := Line(r)
	if err != nil {
		line = Fallback(r.Response)
	}
	line = append(line, '\n')
	_, werr := w.Write(line)
	return werr
}

func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
