package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"TheraChat/internal/backend"
	"TheraChat/internal/chatbot"
	"TheraChat/internal/config"
	"TheraChat/internal/telemetry"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to a TOML config file")
	defaults := config.Default()
	backendName := flag.String("backend", "", "Model backend (ollama|openai|none)")
	baseURL := flag.String("base-url", "", "Backend base URL (default "+defaults.BaseURL+")")
	model := flag.String("model", "", "Model name (default "+defaults.Model+")")
	temperature := flag.Float64("temperature", -1, "Sampling temperature 0.0-1.0")
	maxTokens := flag.Int("max-tokens", 0, "Reply token limit 128-2048")
	debug := flag.Bool("debug", false, "Enable debug logging")
	noTelemetry := flag.Bool("no-telemetry", false, "Disable trace and metric files")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backendName
		case "base-url":
			cfg.BaseURL = *baseURL
		case "model":
			cfg.Model = *model
		case "temperature":
			cfg.Temperature = *temperature
		case "max-tokens":
			cfg.MaxTokens = *maxTokens
		case "debug":
			cfg.Debug = *debug
		case "no-telemetry":
			cfg.Telemetry = !*noTelemetry
		}
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logFile, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logFile.Close()

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	ctx := context.Background()

	providers := telemetry.Noop()
	if cfg.Telemetry {
		providers, err = telemetry.InitTelemetry(ctx, cfg.LogDir, version)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown telemetry", "error", err)
		}
	}()

	client, err := backend.New(cfg, backend.Options{
		Logger: logger,
		Tracer: providers.Tracer,
		Meter:  providers.Meter,
	})
	if errors.Is(err, backend.ErrNotConfigured) {
		logger.Warn("no model backend configured, sending disabled")
		client = nil
	} else if err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}

	bot := chatbot.NewChatBot(cfg, client,
		chatbot.WithLogger(logger),
		chatbot.WithTelemetry(providers.Tracer, providers.Meter),
	)

	return bot.Run(ctx)
}
