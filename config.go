package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"

	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGeminiModel = "gemini-2.5-flash-lite"
)

// Config は、コマンドライン引数から作られる設定です。
type Config struct {
	ConfigPath string
	Provider   string
	Model      string
	MaxTurns   int
	Timeout    time.Duration
	Typing     time.Duration
	LogLevel   slog.Level
}

func (c Config) Validate() error {
	switch c.Provider {
	case "", providerOpenAI, providerGemini:
	default:
		return fmt.Errorf("unknown -provider %q (want %s or %s)", c.Provider, providerOpenAI, providerGemini)
	}
	if c.MaxTurns < 0 {
		return fmt.Errorf("-turns must be >= 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("-timeout must be >= 0")
	}
	if c.Typing < 0 {
		return fmt.Errorf("-typing must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Timeout:  60 * time.Second,
		LogLevel: slog.LevelWarn,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to a YAML config (characters, emotions, transitions). Embedded default when empty")
	fs.StringVar(&cfg.Provider, "provider", "", "Completion provider: openai or gemini (default from MOODCHAT_PROVIDER)")
	fs.StringVar(&cfg.Model, "model", "", "Model name passed to the provider (overrides the config file)")
	fs.IntVar(&cfg.MaxTurns, "turns", 0, "End the session after this many turns (0 = unlimited)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Timeout for a single completion request (0 = none)")
	fs.DurationVar(&cfg.Typing, "typing", 0, "Per-character delay when printing replies, e.g. 30ms")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nCommands during a session:")
		fmt.Fprintln(fs.Output(), "  switch  let the current character reflect on the conversation, then pick another")
		fmt.Fprintln(fs.Output(), "  quit    end the session")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ConfigPath != "" {
		cfg.ConfigPath = filepath.Clean(cfg.ConfigPath)
	}
	return cfg, nil
}

// Env は、環境変数から読む認証情報やバックエンドの設定です。
type Env struct {
	Provider     string `env:"MOODCHAT_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	ProjectID    string `env:"PROJECT_ID"`
	Location     string `env:"LOCATION"`
}

func loadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return e, nil
}

// provider は、-provider が空なら環境変数の値を使います。
func (c Config) provider(e Env) string {
	if c.Provider != "" {
		return c.Provider
	}
	return e.Provider
}

// model は、-model、設定ファイル、プロバイダの既定の順に選びます。
func (c Config) model(fromFile, provider string) string {
	switch {
	case c.Model != "":
		return c.Model
	case fromFile != "":
		return fromFile
	case provider == providerGemini:
		return defaultGeminiModel
	}
	return defaultOpenAIModel
}
