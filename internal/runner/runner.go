package runner

import (
	"context"

	"github.com/petasbytes/charlotte-bridge/internal/logger"
	"github.com/petasbytes/charlotte-bridge/internal/output"
	"github.com/petasbytes/charlotte-bridge/internal/provider"
	"github.com/petasbytes/charlotte-bridge/internal/telemetry"
	"github.com/petasbytes/charlotte-bridge/internal/windowing"
	"github.com/petasbytes/charlotte-bridge/memory"
)

type Runner struct {
	Provider   provider.Provider
	MemoryPath string
	MaxTurns   int
	Framing    string
	Log        logger.Logger
}

func New(p provider.Provider, memoryPath string, maxTurns int, framing string, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{Provider: p, MemoryPath: memoryPath, MaxTurns: maxTurns, Framing: framing, Log: log}
}

// Prepare builds the trimmed log for incoming and writes it to MemoryPath.
// An unreadable memory file counts as empty; a failed save is logged and
// otherwise ignored.
func (r *Runner) Prepare(ctx context.Context, incoming []memory.Message) []memory.Message {
	log := r.logger()
	persisted, err := memory.Load(r.MemoryPath)
	if err != nil {
		log.Debug("ignoring unreadable memory file", "path", r.MemoryPath, "error", err)
		persisted = nil
	}

	merged := memory.Merge(persisted, incoming, memory.FramingMessage(r.Framing))
	trimmed, stats := windowing.Trim(merged, r.MaxTurns)

	turnID, _ := telemetry.TurnIDFromContext(ctx)
	telemetry.Emit("memory_prepared", map[string]any{
		"turn_id":   turnID,
		"persisted": len(persisted),
		"incoming":  len(incoming),
		"max_turns": r.MaxTurns,
		"framing":   stats.Framing,
		"eligible":  stats.Eligible,
		"kept":      stats.Kept,
		"dropped":   stats.Dropped,
	})
	log.Debug("memory prepared", "persisted", len(persisted), "incoming", len(incoming), "kept", stats.Kept, "dropped", stats.Dropped)

	if err := memory.Save(r.MemoryPath, trimmed); err != nil {
		log.Warn("could not save memory", "path", r.MemoryPath, "error", err)
	}
	return trimmed
}

// Run performs one full exchange. Provider failures are reported in-band in
// the result's response text.
func (r *Runner) Run(ctx context.Context, incoming []memory.Message) output.Result {
	if _, ok := telemetry.TurnIDFromContext(ctx); !ok {
		ctx = telemetry.WithTurnID(ctx, telemetry.NewTurnID())
	}

	history := r.Prepare(ctx, incoming)
	text, err := r.Provider.Generate(ctx, history)
	if err != nil {
		r.logger().Debug("provider returned error", "provider", r.Provider.Name(), "error", err)
	}
	return output.Result{
		Response:  provider.ResponseText(text, err),
		HistoryID: memory.FirstHistoryID(history),
	}
}

func (r *Runner) logger() logger.Logger {
	if r.Log == nil {
		return logger.Discard()
	}
	return r.Log
}
