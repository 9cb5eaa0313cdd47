// Command charlotte answers one chat turn for the Webslinger desktop app.
//
// Usage:
//
//	charlotte [messages-json] [memory-path]
//
// Exactly one JSON line {"response": ..., "history_id": ...} is written to
// stdout. Diagnostics go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/petasbytes/charlotte-bridge/internal/config"
	"github.com/petasbytes/charlotte-bridge/internal/logger"
	"github.com/petasbytes/charlotte-bridge/internal/output"
	"github.com/petasbytes/charlotte-bridge/internal/provider"
	"github.com/petasbytes/charlotte-bridge/internal/provider/anthropic"
	"github.com/petasbytes/charlotte-bridge/internal/provider/gemini"
	"github.com/petasbytes/charlotte-bridge/internal/runner"
	"github.com/petasbytes/charlotte-bridge/internal/telemetry"
	"github.com/petasbytes/charlotte-bridge/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], exeDir(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, exeDir string, stdout, stderr io.Writer) int {
	log := logger.New(stderr, os.Getenv("CHARLOTTE_DEBUG") == "1")

	cfg, err := config.Load(exeDir, log)
	if err != nil {
		resp := fmt.Sprintf("[Error loading config: %v]", err)
		if errors.Is(err, config.ErrAPIKeyNotFound) {
			resp = "[API key not found]"
		}
		_ = output.Write(stdout, output.Result{Response: resp})
		return 1
	}
	log = logger.New(stderr, cfg.Debug)
	telemetry.SetDir(cfg.DataDir)

	incoming := memory.DefaultIncoming()
	if len(args) > 0 {
		incoming = memory.ParseIncoming(args[0])
	}
	memPath := cfg.MemoryPath
	if len(args) > 1 && args[1] != "" {
		memPath = args[1]
	}

	p, err := newProvider(cfg, log)
	if err != nil {
		_ = output.Write(stdout, output.Result{Response: fmt.Sprintf("[Error loading config: %v]", err)})
		return 1
	}
	log.Debug("starting turn", "provider", p.Name(), "memory", memPath, "max_turns", cfg.MaxTurns)

	r := runner.New(p, memPath, cfg.MaxTurns, cfg.Framing, log)
	res := r.Run(ctx, incoming)
	if err := output.Write(stdout, res); err != nil {
		log.Error("failed to write result", "error", err)
		return 1
	}
	return 0
}

// newProvider builds the backend selected by cfg.Provider.
func newProvider(cfg config.Config, log logger.Logger) (provider.Provider, error) {
	switch cfg.Provider {
	case provider.Gemini:
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.Model, cfg.Timeout, log), nil
	case provider.Anthropic:
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.Model, cfg.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func exeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
