package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sat8bit/moodchat/bus"
	"github.com/sat8bit/moodchat/character"
	"github.com/sat8bit/moodchat/fetcher"
	"github.com/sat8bit/moodchat/llm"
	"github.com/sat8bit/moodchat/persona"
	"github.com/sat8bit/moodchat/renderer"
	"github.com/sat8bit/moodchat/session"
	"github.com/sat8bit/moodchat/supervisor"
	"github.com/sat8bit/moodchat/topic"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	// --- 設定の読み込み。壊れていればキャラクターは0人 ---
	pool, err := loadPool(cfg.ConfigPath)
	if err != nil {
		slog.Error("failed to load config", "path", cfg.ConfigPath, "error", err)
		return fmt.Errorf("no characters available: %w", err)
	}

	provider := cfg.provider(e)
	completer, err := newCompleter(ctx, provider, e)
	if err != nil {
		return err
	}

	// --- 話題フィード（任意） ---
	var fetchers []topic.Fetcher
	for _, f := range pool.Feeds {
		fetchers = append(fetchers, fetcher.NewRSSFetcher(f.URL, f.Limit))
	}
	topics := topic.Collect(ctx, fetchers...)

	b := bus.NewMemoryBus()
	defer b.Close()

	sup := supervisor.NewSupervisor(b)
	sup.Start()

	registry, err := pool.Registry(topics, character.WithTransitionHook(session.EmotionHook(b)))
	if err != nil {
		return err
	}

	console := newCLI(os.Stdin, os.Stdout, renderer.NewConsoleRenderer(os.Stdout, cfg.Typing))
	o := session.New(registry, completer, console, session.Options{
		Model:          cfg.model(pool.Model, provider),
		EvaluatePrompt: pool.EvaluateConversation,
		Window:         pool.History,
		Timeout:        cfg.Timeout,
		Bus:            b,
		MaxTurns:       cfg.MaxTurns,
	})
	slog.Info("session started", "session", o.ID(), "provider", provider, "characters", registry.Len())

	err = console.Run(ctx, o)

	// バスを閉じて集計を待つ
	b.Close()
	<-sup.Done()
	st := sup.Stats()
	slog.Info("session finished", "session", o.ID(), "turns", st.Turns, "switches", st.Switches, "transitions", st.Transitions, "errors", st.Errors, "moods", st.Moods)
	return err
}

func loadPool(path string) (*persona.Pool, error) {
	if path == "" {
		return persona.NewPool()
	}
	return persona.Load(path)
}

func newCompleter(ctx context.Context, provider string, e Env) (llm.Completer, error) {
	switch provider {
	case providerGemini:
		if e.ProjectID == "" || e.Location == "" {
			return nil, errors.New("set PROJECT_ID and LOCATION environment variables")
		}
		g, err := llm.NewGemini(ctx, e.ProjectID, e.Location)
		if err != nil {
			return nil, err
		}
		return g, nil
	case providerOpenAI:
		if e.OpenAIAPIKey == "" {
			return nil, errors.New("set OPENAI_API_KEY environment variable")
		}
		return llm.NewOpenAI(e.OpenAIAPIKey), nil
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}
