package character

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sat8bit/moodchat/emotion"
	"github.com/sat8bit/moodchat/message"
)

func table() emotion.Table {
	return emotion.Table{
		States: []emotion.State{"neutral", "happy", "stressed"},
		Transitions: []emotion.Transition{
			{On: "stressful", From: "neutral", To: "stressed"},
			{On: "fun", From: "neutral", To: "happy"},
			{On: "fun", From: "stressed", To: "neutral"},
		},
	}
}

func newCharacter(t *testing.T, name string, opts ...Option) *Character {
	t.Helper()
	c, err := New(name, "You are "+name+".", table(), "neutral", opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c := newCharacter(t, "Chris")

	assert.Equal(t, emotion.State("neutral"), c.Emotion())
	assert.Equal(t, []message.Message{{Role: message.RoleSystem, Content: "You are Chris."}}, c.History())
}

func TestNew_UnknownInitialEmotion(t *testing.T) {
	_, err := New("Chris", "persona", table(), "furious")
	assert.Error(t, err)
}

func TestBuildPrompt_InjectsEmotion(t *testing.T) {
	c := newCharacter(t, "Chris")

	prompt := c.BuildPrompt("how was the test?")

	require.Len(t, prompt, 2)
	last := prompt[len(prompt)-1]
	assert.Equal(t, message.RoleUser, last.Role)
	assert.Equal(t, "Your current emotion is neutral. It should affect your responses to the following input. how was the test?", last.Content)
	assert.Equal(t, 1, c.HistoryLen(), "prompt must not be persisted")
}

func TestRecordTurn_StoresRawUserMessage(t *testing.T) {
	c := newCharacter(t, "Chris")
	msg := "did you finish the calc homework?"

	prompt := c.BuildPrompt(msg)
	assert.Contains(t, prompt[len(prompt)-1].Content, "neutral")
	assert.Contains(t, prompt[len(prompt)-1].Content, msg)

	require.NoError(t, c.RecordTurn(msg, "barely"))

	hist := c.History()
	require.Len(t, hist, 3)
	assert.Equal(t, message.Message{Role: message.RoleUser, Content: msg}, hist[1])
	assert.Equal(t, message.Message{Role: message.RoleAssistant, Content: "barely"}, hist[2])
	for _, m := range hist {
		assert.False(t, strings.Contains(m.Content, "Your current emotion is"))
	}
}

func TestClassifyAndAdvance_ChrisScenario(t *testing.T) {
	c := newCharacter(t, "Chris")

	require.NoError(t, c.ClassifyAndAdvance("stressful"))
	assert.Equal(t, emotion.State("stressed"), c.Emotion())

	err := c.ClassifyAndAdvance("unknown-label")
	require.Error(t, err)
	assert.True(t, errors.Is(err, emotion.ErrUnknownTransition))
	assert.Equal(t, emotion.State("stressed"), c.Emotion())
}

func TestClassifyAndAdvance_NormalizesModelOutput(t *testing.T) {
	c := newCharacter(t, "Chris")

	require.NoError(t, c.ClassifyAndAdvance(" Fun.\n"))
	assert.Equal(t, emotion.State("happy"), c.Emotion())
}

func TestClassifyAndAdvance_Hook(t *testing.T) {
	var got []string
	c := newCharacter(t, "Chris", WithTransitionHook(func(name, symbol string, from, to emotion.State) {
		got = append(got, name, symbol, string(from), string(to))
	}))

	require.NoError(t, c.ClassifyAndAdvance("stressful"))

	assert.Equal(t, []string{"Chris", "stressful", "neutral", "stressed"}, got)
}

func TestBuildPrompt_FollowsEmotion(t *testing.T) {
	c := newCharacter(t, "Chris")
	require.NoError(t, c.ClassifyAndAdvance("stressful"))

	prompt := c.BuildPrompt("hey")

	assert.True(t, strings.HasPrefix(prompt[len(prompt)-1].Content, "Your current emotion is stressed."))
}

func TestSymbols(t *testing.T) {
	c := newCharacter(t, "Chris")
	assert.Equal(t, []string{"fun", "stressful"}, c.Symbols())
}

func TestEvaluationPrompt(t *testing.T) {
	c := newCharacter(t, "Chris")
	require.NoError(t, c.RecordTurn("hi", "hey"))

	p := c.EvaluationPrompt("Was this conversation fun, stressful or boring?")

	require.Len(t, p, 4)
	assert.Equal(t, "Was this conversation fun, stressful or boring?", p[3].Content)
	assert.Equal(t, 3, c.HistoryLen())
}
