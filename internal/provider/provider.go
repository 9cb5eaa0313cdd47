// Package provider defines the contract shared by the generative API backends.
//
// Errors returned by Generate are reported in-band: their Error() text is the
// response string handed back to the desktop app.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/petasbytes/charlotte-bridge/memory"
)

// Provider sends a conversation and returns the first text of the reply.
type Provider interface {
	Name() string
	Generate(ctx context.Context, history []memory.Message) (string, error)
}

// Names of the supported backends.
const (
	Gemini    = "gemini"
	Anthropic = "anthropic"
)

// Placeholder errors surfaced as response text.
var (
	ErrNoCandidates      = errors.New("[API Error: No candidates in response]")
	ErrNoText            = errors.New("[API Error: No text in response parts]")
	ErrMalformedResponse = errors.New("[API Error: Exception while parsing response. See stderr for details.]")
	ErrRequestFailed     = errors.New("[API Error: Request failed. See stderr for details.]")
)

// APIError is a non-success HTTP answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[API Error %d]: %s", e.StatusCode, e.Message)
}

// ResponseText converts a Generate result into the text reported to the caller.
func ResponseText(text string, err error) string {
	if err != nil {
		return err.Error()
	}
	return text
}
