package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sat8bit/moodchat/character"
	"github.com/sat8bit/moodchat/emotion"
	"github.com/sat8bit/moodchat/message"
	"github.com/sat8bit/moodchat/persona"
	"github.com/sat8bit/moodchat/renderer"
	"github.com/sat8bit/moodchat/session"
)

func TestParseFlags_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("moodchat", flag.ContinueOnError)
	cfg, err := parseFlags(fs, nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.ConfigPath)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestParseFlags_Overrides(t *testing.T) {
	fs := flag.NewFlagSet("moodchat", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-config", "conf/../chars.yaml",
		"-provider", "gemini",
		"-model", "gemini-2.5-pro",
		"-turns", "12",
		"-timeout", "5s",
		"-typing", "30ms",
		"-log-level", "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "chars.yaml", cfg.ConfigPath)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, 12, cfg.MaxTurns)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Millisecond, cfg.Typing)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{Provider: "anthropic"}.Validate())
	assert.Error(t, Config{MaxTurns: -1}.Validate())
	assert.Error(t, Config{Timeout: -time.Second}.Validate())
	assert.NoError(t, Config{Provider: "openai"}.Validate())
}

func TestConfig_ProviderAndModel(t *testing.T) {
	e := Env{Provider: "gemini"}

	assert.Equal(t, "gemini", Config{}.provider(e))
	assert.Equal(t, "openai", Config{Provider: "openai"}.provider(e))

	assert.Equal(t, "m", Config{Model: "m"}.model("file", "openai"))
	assert.Equal(t, "file", Config{}.model("file", "openai"))
	assert.Equal(t, defaultGeminiModel, Config{}.model("", "gemini"))
	assert.Equal(t, defaultOpenAIModel, Config{}.model("", "openai"))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MOODCHAT_PROVIDER", "gemini")
	t.Setenv("PROJECT_ID", "proj")
	t.Setenv("LOCATION", "us-central1")
	t.Setenv("OPENAI_API_KEY", "")

	e, err := loadEnv()
	require.NoError(t, err)
	assert.Equal(t, Env{Provider: "gemini", ProjectID: "proj", Location: "us-central1"}, e)
}

func TestNewCompleter_MissingCredentials(t *testing.T) {
	_, err := newCompleter(context.Background(), providerOpenAI, Env{})
	assert.Error(t, err)
	_, err = newCompleter(context.Background(), providerGemini, Env{})
	assert.Error(t, err)
	_, err = newCompleter(context.Background(), "other", Env{})
	assert.Error(t, err)
}

func TestLoadPool_MissingFile(t *testing.T) {
	p, err := loadPool("does/not/exist.yaml")
	assert.Error(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.GetAll())
}

type scriptedCompleter struct {
	replies []string
	fail    map[int]error
	n       int
}

func (s *scriptedCompleter) Complete(ctx context.Context, messages []message.Message, model string) (string, error) {
	defer func() { s.n++ }()
	if err := s.fail[s.n]; err != nil {
		return "", err
	}
	if s.n >= len(s.replies) {
		return "", errors.New("out of replies")
	}
	return s.replies[s.n], nil
}

func testRegistry(t *testing.T) *character.Registry {
	t.Helper()
	pool, err := persona.NewPool()
	require.NoError(t, err)
	r, err := pool.Registry(nil)
	require.NoError(t, err)
	return r
}

func runCLI(t *testing.T, input string, comp *scriptedCompleter) (string, *character.Registry) {
	t.Helper()
	return runCLIWithLimit(t, input, comp, 0)
}

func runCLIWithLimit(t *testing.T, input string, comp *scriptedCompleter, maxTurns int) (string, *character.Registry) {
	t.Helper()
	r := testRegistry(t)
	var out bytes.Buffer
	c := newCLI(strings.NewReader(input), &out, renderer.NewConsoleRenderer(&out, 0))
	pool, err := persona.NewPool()
	require.NoError(t, err)
	o := session.New(r, comp, c, session.Options{Model: "m", EvaluatePrompt: pool.EvaluateConversation, MaxTurns: maxTurns})

	require.NoError(t, c.Run(context.Background(), o))
	return out.String(), r
}

func TestCLI_ChatSwitchQuit(t *testing.T) {
	input := strings.Join([]string{
		"Max",
		"Chris",
		"hey, how's studying going?",
		"switch",
		"Sam W",
		"yo",
		"QUIT",
		"this line is never read",
	}, "\n")
	comp := &scriptedCompleter{replies: []string{"honestly so stressed", "stressful", "YOOO what's up"}}

	out, r := runCLI(t, input, comp)

	assert.Contains(t, out, "Character not found. Please choose from the list.")
	assert.Contains(t, out, "Chris: honestly so stressed")
	assert.Contains(t, out, "Chris is now feeling stressed.")
	assert.Contains(t, out, "Starting conversation with Sam W.")
	assert.Contains(t, out, "Sam W: YOOO what's up")
	assert.Equal(t, 3, comp.n)

	chris, err := r.Select("Chris")
	require.NoError(t, err)
	assert.Equal(t, emotion.State("stressed"), chris.Emotion())
	assert.Equal(t, 3, chris.HistoryLen())
}

func TestCLI_CompletionErrorIsReportedAndSessionContinues(t *testing.T) {
	input := "Chris\nhello?\nhello again\nquit\n"
	comp := &scriptedCompleter{
		replies: []string{"", "oh hey"},
		fail:    map[int]error{0: errors.New("429 rate limit")},
	}

	out, r := runCLI(t, input, comp)

	assert.Contains(t, out, "[Error] ")
	assert.Contains(t, out, "429 rate limit")
	assert.Contains(t, out, "Chris: oh hey")

	chris, err := r.Select("Chris")
	require.NoError(t, err)
	hist := chris.History()
	require.Len(t, hist, 3)
	assert.Equal(t, "hello again", hist[1].Content)
}

func TestCLI_UnknownClassificationKeepsMood(t *testing.T) {
	input := "Sam E\nswitch\nChris\nquit\n"
	comp := &scriptedCompleter{replies: []string{"meh, it was fine I guess"}}

	out, r := runCLI(t, input, comp)

	assert.Contains(t, out, "Sam E's mood was left as neutral")
	assert.Contains(t, out, "Starting conversation with Chris.")
	samE, err := r.Select("Sam E")
	require.NoError(t, err)
	assert.Equal(t, emotion.State("neutral"), samE.Emotion())
}

func TestCLI_EOFEndsCleanly(t *testing.T) {
	out, _ := runCLI(t, "Chris\n", &scriptedCompleter{})
	assert.Contains(t, out, "You: ")
}

func TestCLI_TurnLimitStopsBeforeBufferedInput(t *testing.T) {
	for i := 0; i < 50; i++ {
		comp := &scriptedCompleter{replies: []string{"first", "second", "third"}}
		out, r := runCLIWithLimit(t, "Chris\nhi\nsecond\nthird\n", comp, 1)

		require.Equal(t, 1, comp.n, "only one completion may run with -turns 1")
		assert.Contains(t, out, "Chris: first")
		assert.NotContains(t, out, "Chris: second")
		assert.Contains(t, out, "Reached the limit of 1 turns (1 recorded).")

		chris, err := r.Select("Chris")
		require.NoError(t, err)
		assert.Equal(t, 3, chris.HistoryLen())
	}
}
