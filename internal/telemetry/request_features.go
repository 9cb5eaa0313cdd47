package telemetry

import (
	"context"

	"github.com/petasbytes/charlotte-bridge/internal/metrics"
	"github.com/petasbytes/charlotte-bridge/internal/normalize"
)

// EmitRequestFeatures records size features of an outgoing conversation.
// Only counts are emitted, never message text.
func EmitRequestFeatures(ctx context.Context, provider, model string, contents []normalize.Message) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	rf := metrics.Summarize(contents)
	Emit("request_features", map[string]any{
		"turn_id":          turnID,
		"provider":         provider,
		"model":            model,
		"features_version": "1",
		"messages":         rf.Messages,
		"user_messages":    rf.UserMessages,
		"model_messages":   rf.ModelMessages,
		"text_parts":       rf.TextParts,
		"image_parts":      rf.ImageParts,
		"text":             featureFields(rf.Text),
		"latest":           featureFields(rf.Latest),
	})
}

func featureFields(f metrics.Features) map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}
