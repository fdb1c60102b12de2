package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai" // OpenAI-compatible local servers (llama.cpp, vLLM, LM Studio)
	BackendNone   = "none"
)

const (
	MinTemperature = 0.0
	MaxTemperature = 1.0
	MinMaxTokens   = 128
	MaxMaxTokens   = 2048
)

// Duration wraps time.Duration so it can be written as "60s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds application configuration
type Config struct {
	Backend     string   `toml:"backend"`
	BaseURL     string   `toml:"base_url"`
	Model       string   `toml:"model"` // Model specification, e.g. "llama2" or "llama3:latest"
	Temperature float64  `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
	Timeout     Duration `toml:"timeout"`

	LogDir     string `toml:"log_dir"`
	ExportPath string `toml:"export_path"`
	Debug      bool   `toml:"debug"`
	Telemetry  bool   `toml:"telemetry"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Backend:     BackendOllama,
		BaseURL:     "http://localhost:11434",
		Model:       "llama2",
		Temperature: 0.2,
		MaxTokens:   512,
		Timeout:     Duration{60 * time.Second},
		LogDir:      "logs",
		ExportPath:  "therapy_conversation.txt",
		Telemetry:   true,
	}
}

// LoadFile decodes a TOML file over cfg. Keys missing from the file keep
// their current values.
func LoadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("THERACHAT_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("THERACHAT_MODEL"); v != "" {
		c.Model = v
	}
}

// Load builds the configuration from defaults, an optional TOML file and
// the environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// BackendConfigured reports whether a model backend can be called.
// Without one the shell runs with sending disabled.
func (c Config) BackendConfigured() bool {
	return c.Backend != BackendNone && c.BaseURL != ""
}

// Validate checks the backend name and generation settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendOllama, BackendOpenAI, BackendNone:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.Backend != BackendNone && c.Model == "" {
		return fmt.Errorf("model must be set for backend %s", c.Backend)
	}
	if err := ValidateTemperature(c.Temperature); err != nil {
		return err
	}
	if err := ValidateMaxTokens(c.MaxTokens); err != nil {
		return err
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ValidateTemperature checks a temperature against the supported range.
func ValidateTemperature(v float64) error {
	if v < MinTemperature || v > MaxTemperature {
		return fmt.Errorf("temperature must be between %.1f and %.1f, got %g", MinTemperature, MaxTemperature, v)
	}
	return nil
}

// ValidateMaxTokens checks a token limit against the supported range.
func ValidateMaxTokens(v int) error {
	if v < MinMaxTokens || v > MaxMaxTokens {
		return fmt.Errorf("max tokens must be between %d and %d, got %d", MinMaxTokens, MaxMaxTokens, v)
	}
	return nil
}
