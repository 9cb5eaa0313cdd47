// Package metrics derives size features from outgoing requests for telemetry.
package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/charlotte-bridge/internal/normalize"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// RequestFeatures summarizes a normalized conversation about to be sent.
type RequestFeatures struct {
	Messages      int
	UserMessages  int
	ModelMessages int
	TextParts     int
	ImageParts    int
	// Text aggregates the features of every text part.
	Text Features
	// Latest holds the features of the newest message's text parts.
	Latest Features
}

// CountFeatures computes and returns byte, rune, word, and line counts for the input string.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// Summarize computes RequestFeatures for contents.
func Summarize(contents []normalize.Message) RequestFeatures {
	var rf RequestFeatures
	rf.Messages = len(contents)
	for i, m := range contents {
		switch m.Role {
		case normalize.RoleModel:
			rf.ModelMessages++
		default:
			rf.UserMessages++
		}
		var latest Features
		for _, p := range m.Parts {
			if p.ImageURL != nil {
				rf.ImageParts++
			}
			if p.Text == nil {
				continue
			}
			rf.TextParts++
			f := CountFeatures(*p.Text)
			rf.Text = rf.Text.add(f)
			latest = latest.add(f)
		}
		if i == len(contents)-1 {
			rf.Latest = latest
		}
	}
	return rf
}

func (f Features) add(o Features) Features {
	return Features{
		Bytes: f.Bytes + o.Bytes,
		Runes: f.Runes + o.Runes,
		Words: f.Words + o.Words,
		Lines: f.Lines + o.Lines,
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
