// Package gemini implements provider.Provider against the Generative Language
// REST API (generateContent).
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/charlotte-bridge/internal/logger"
	"github.com/petasbytes/charlotte-bridge/internal/normalize"
	"github.com/petasbytes/charlotte-bridge/internal/provider"
	"github.com/petasbytes/charlotte-bridge/internal/telemetry"
	"github.com/petasbytes/charlotte-bridge/memory"
)

// Defaults used when the corresponding setting is empty.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 60 * time.Second
)

// Client is a minimal generateContent client.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a Gemini client. Empty baseURL and model fall back to the
// package defaults; a non-positive timeout uses DefaultTimeout.
func NewClient(apiKey, baseURL, model string, timeout time.Duration, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type generateRequest struct {
	Contents []normalize.Message `json:"contents"`
}

// Name implements provider.Provider.
func (c *Client) Name() string { return provider.Gemini }

// Model returns the model the client sends requests to.
func (c *Client) Model() string { return c.model }

// Endpoint returns the generateContent URL including the key query parameter.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// Generate normalizes history, posts it and returns the first candidate's
// first text part. Every failure is returned as an error whose text is the
// in-band response string.
func (c *Client) Generate(ctx context.Context, history []memory.Message) (string, error) {
	contents := normalize.Conversation(history)
	telemetry.EmitRequestFeatures(ctx, provider.Gemini, c.model, contents)

	payload, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		c.log.Error("failed to marshal gemini request", "error", err)
		return "", provider.ErrRequestFailed
	}
	telemetry.PersistPayload(ctx, "request", payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		c.log.Error("failed to create gemini request", "error", err)
		return "", provider.ErrRequestFailed
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("gemini request failed", "error", redact(err.Error(), c.apiKey))
		emitResponse(ctx, 0, start, "transport")
		return "", provider.ErrRequestFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("failed reading gemini response", "error", err)
		emitResponse(ctx, resp.StatusCode, start, "read")
		return "", provider.ErrRequestFailed
	}
	telemetry.PersistPayload(ctx, "response", body)

	text, err := c.parse(resp.StatusCode, body)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	emitResponse(ctx, resp.StatusCode, start, outcome)
	return text, err
}

func (c *Client) parse(status int, body []byte) (string, error) {
	if status != http.StatusOK {
		c.log.Error(fmt.Sprintf("Error %d: %s", status, body))
		msg := string(body)
		if gjson.ValidBytes(body) {
			if m := gjson.GetBytes(body, "error.message"); m.Exists() {
				msg = m.String()
			}
		}
		return "", &provider.APIError{StatusCode: status, Message: msg}
	}

	if !gjson.ValidBytes(body) {
		c.log.Error("Exception while parsing API response: invalid JSON")
		c.log.Error(string(body))
		return "", provider.ErrMalformedResponse
	}
	candidates := gjson.GetBytes(body, "candidates")
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		return "", provider.ErrNoCandidates
	}
	text := candidates.Get("0.content.parts.0.text")
	if !text.Exists() {
		return "", provider.ErrNoText
	}
	return text.String(), nil
}

func emitResponse(ctx context.Context, status int, start time.Time, outcome string) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	telemetry.Emit("api_response", map[string]any{
		"turn_id":    turnID,
		"provider":   provider.Gemini,
		"status":     status,
		"outcome":    outcome,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// redact hides the API key, which travels in the query string and so shows
// up in url.Error messages.
func redact(s, key string) string {
	if key == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(key), "REDACTED")
	return strings.ReplaceAll(s, key, "REDACTED")
}
