// Package config resolves the data directory and loads the API key and
// tunables from config.json, an optional .env file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/petasbytes/charlotte-bridge/internal/fsops"
	"github.com/petasbytes/charlotte-bridge/internal/logger"
	"github.com/petasbytes/charlotte-bridge/internal/windowing"
	"github.com/petasbytes/charlotte-bridge/memory"
)

const (
	// AppDirName is the desktop app's folder under the roaming config dir.
	AppDirName = "webslinger"
	// FileName is the name of the JSON config file.
	FileName = "config.json"

	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	DefaultTimeout = 60 * time.Second
)

// ErrAPIKeyNotFound is returned when no config file exists or the active
// provider's key is missing or empty.
var ErrAPIKeyNotFound = errors.New("API key not found")

// Config holds everything one invocation needs.
type Config struct {
	DataDir    string
	ConfigPath string // empty when no config.json was found

	Provider        string
	GeminiAPIKey    string
	AnthropicAPIKey string
	Model           string

	GeminiBaseURL    string
	AnthropicBaseURL string

	MaxTurns   int
	Timeout    time.Duration
	MemoryPath string
	Framing    string
	Debug      bool
}

// APIKey returns the key of the active provider.
func (c Config) APIKey() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// fileConfig mirrors config.json.
type fileConfig struct {
	GeminiAPIKey    string `json:"GEMINI_API_KEY"`
	AnthropicAPIKey string `json:"ANTHROPIC_API_KEY"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	MaxTurns        int    `json:"max_turns"`
}

// ResolveDataDir returns the writable data directory shared with the desktop
// app: WEBSLINGER_USERDATA when set, otherwise webslinger under APPDATA, the
// user config dir, or ~/AppData/Roaming, in that order.
func ResolveDataDir() string {
	if v := os.Getenv("WEBSLINGER_USERDATA"); v != "" {
		return v
	}
	if v := os.Getenv("APPDATA"); v != "" {
		return filepath.Join(v, AppDirName)
	}
	if v, err := os.UserConfigDir(); err == nil && v != "" {
		return filepath.Join(v, AppDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", AppDirName)
}

// Load resolves configuration. exeDir is the fallback location for
// config.json. A returned ErrAPIKeyNotFound still carries the resolved
// Config; any other error means config.json or the framing file could not
// be read or parsed.
func Load(exeDir string, log logger.Logger) (Config, error) {
	if log == nil {
		log = logger.Discard()
	}
	cfg := Config{DataDir: ResolveDataDir()}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Warn("could not create data dir", "path", cfg.DataDir, "error", err)
	}

	envPath := filepath.Join(cfg.DataDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not load .env", "path", envPath, "error", err)
	}

	fc, path, err := readFileConfig(cfg.DataDir, exeDir, log)
	if err != nil {
		return cfg, err
	}
	cfg.ConfigPath = path
	cfg.GeminiAPIKey = strings.TrimSpace(fc.GeminiAPIKey)
	cfg.AnthropicAPIKey = strings.TrimSpace(fc.AnthropicAPIKey)

	cfg.Provider = strings.ToLower(envOrDefault("CHARLOTTE_PROVIDER", orDefault(fc.Provider, ProviderGemini)))
	switch cfg.Provider {
	case ProviderGemini, ProviderAnthropic:
	default:
		return cfg, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	cfg.Model = envOrDefault("CHARLOTTE_MODEL", fc.Model)
	cfg.GeminiBaseURL = envOrDefault("CHARLOTTE_GEMINI_BASE_URL", "")
	cfg.AnthropicBaseURL = envOrDefault("CHARLOTTE_ANTHROPIC_BASE_URL", "")

	fileTurns := fc.MaxTurns
	if fileTurns <= 0 {
		fileTurns = windowing.DefaultMaxTurns
	}
	cfg.MaxTurns = envIntOrDefault("CHARLOTTE_MAX_TURNS", fileTurns)
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = windowing.DefaultMaxTurns
	}

	secs := envIntOrDefault("CHARLOTTE_TIMEOUT_SECONDS", 0)
	cfg.Timeout = DefaultTimeout
	if secs > 0 {
		cfg.Timeout = time.Duration(secs) * time.Second
	}

	cfg.MemoryPath = filepath.Join(cfg.DataDir, memory.DefaultFileName)
	cfg.Debug = envBoolOrDefault("CHARLOTTE_DEBUG", false)

	cfg.Framing = DefaultFraming
	if p := os.Getenv("CHARLOTTE_FRAMING_FILE"); p != "" {
		b, err := fsops.ReadFile(p)
		if err != nil {
			return cfg, fmt.Errorf("read framing file %s: %w", p, err)
		}
		cfg.Framing = string(b)
	}

	if cfg.APIKey() == "" {
		log.Error("API key not found in config.json", "provider", cfg.Provider)
		return cfg, ErrAPIKeyNotFound
	}
	return cfg, nil
}

// readFileConfig picks the first existing candidate and parses it. No
// candidate yields ErrAPIKeyNotFound.
func readFileConfig(dataDir, exeDir string, log logger.Logger) (fileConfig, string, error) {
	candidates := []struct{ label, path string }{
		{"userData", filepath.Join(dataDir, FileName)},
	}
	if exeDir != "" {
		candidates = append(candidates, struct{ label, path string }{"local", filepath.Join(exeDir, FileName)})
	}

	for _, c := range candidates {
		if !fsops.Exists(c.path) {
			continue
		}
		log.Info(fmt.Sprintf("Using config from %s: %s", c.label, c.path))
		b, err := fsops.ReadFile(c.path)
		if err != nil {
			return fileConfig{}, c.path, fmt.Errorf("read %s: %w", c.path, err)
		}
		var fc fileConfig
		if err := json.Unmarshal(b, &fc); err != nil {
			return fileConfig{}, c.path, fmt.Errorf("parse %s: %w", c.path, err)
		}
		return fc, c.path, nil
	}

	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.path)
	}
	log.Warn("No config.json found at " + strings.Join(paths, " or "))
	return fileConfig{}, "", ErrAPIKeyNotFound
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}
