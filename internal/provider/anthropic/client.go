// Package anthropic implements provider.Provider with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/petasbytes/charlotte-bridge/internal/logger"
	"github.com/petasbytes/charlotte-bridge/internal/normalize"
	"github.com/petasbytes/charlotte-bridge/internal/provider"
	"github.com/petasbytes/charlotte-bridge/internal/telemetry"
	"github.com/petasbytes/charlotte-bridge/memory"
)

const (
	DefaultModel     = anthropic.ModelClaude3_7SonnetLatest
	DefaultMaxTokens = 1024
)

// Client sends conversations through the Anthropic SDK.
type Client struct {
	sdk   anthropic.Client
	model anthropic.Model
	log   logger.Logger
}

// NewClient returns a client with SDK retries disabled. An empty baseURL keeps
// the SDK default; an empty model uses DefaultModel.
func NewClient(apiKey, baseURL, model string, timeout time.Duration, log logger.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{sdk: anthropic.NewClient(opts...), model: m, log: log}
}

// Name implements provider.Provider.
func (c *Client) Name() string { return provider.Anthropic }

// Model returns the model requests are sent to.
func (c *Client) Model() string { return string(c.model) }

// Generate sends history and returns the first text block of the reply.
func (c *Client) Generate(ctx context.Context, history []memory.Message) (string, error) {
	contents := normalize.Conversation(history)
	telemetry.EmitRequestFeatures(ctx, provider.Anthropic, string(c.model), contents)

	start := time.Now()
	msg, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(DefaultMaxTokens),
		Messages:  Messages(contents),
	})
	if err != nil {
		err = c.mapError(err)
		status := 0
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		emitResponse(ctx, status, start, "error")
		return "", err
	}
	emitResponse(ctx, 200, start, "ok")
	telemetry.PersistPayload(ctx, "response", []byte(msg.RawJSON()))

	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			return tb.Text, nil
		}
	}
	return "", provider.ErrNoText
}

func (c *Client) mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		raw := apiErr.RawJSON()
		c.log.Error("anthropic request rejected", "status", apiErr.StatusCode, "body", raw)
		msg := gjson.Get(raw, "error.message").String()
		if msg == "" {
			msg = raw
		}
		return &provider.APIError{StatusCode: apiErr.StatusCode, Message: msg}
	}
	c.log.Error("anthropic request failed", "error", err)
	return provider.ErrRequestFailed
}

func emitResponse(ctx context.Context, status int, start time.Time, outcome string) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	telemetry.Emit("api_response", map[string]any{
		"turn_id":    turnID,
		"provider":   provider.Anthropic,
		"status":     status,
		"outcome":    outcome,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// Messages converts normalized messages into SDK message params. Image parts
// become text references; messages left without content are skipped.
func Messages(contents []normalize.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(contents))
	for _, m := range contents {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch {
			case p.Text != nil && strings.TrimSpace(*p.Text) != "":
				blocks = append(blocks, anthropic.NewTextBlock(*p.Text))
			case p.ImageURL != nil && p.ImageURL.URL != "":
				blocks = append(blocks, anthropic.NewTextBlock("[image: "+p.ImageURL.URL+"]"))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if m.Role == normalize.RoleModel {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}
