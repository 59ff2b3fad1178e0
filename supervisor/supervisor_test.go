package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sat8bit/moodchat/bus"
	"github.com/sat8bit/moodchat/message"
)

func wait(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop after bus close")
	}
}

func TestSupervisor_TalliesEveryKind(t *testing.T) {
	b := bus.NewMemoryBus()
	s := NewSupervisor(b)
	s.Start()

	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindTurn, Character: "Chris"}))
	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindEmotion, Character: "Chris", Text: "stressed"}))
	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindSwitch, Character: "Sam W"}))
	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindError, Character: "Sam W", Text: "429"}))
	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindTurn, Character: "Sam W"}))
	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindEnd, Character: "Sam W"}))
	b.Close()
	wait(t, s)

	st := s.Stats()
	assert.Equal(t, 2, st.Turns)
	assert.Equal(t, 1, st.Switches)
	assert.Equal(t, 1, st.Transitions)
	assert.Equal(t, 1, st.Errors)
	assert.True(t, st.Ended)
	assert.Equal(t, map[string]string{"Chris": "stressed"}, st.Moods)
}

func TestSupervisor_StatsIsACopy(t *testing.T) {
	b := bus.NewMemoryBus()
	s := NewSupervisor(b)
	s.Start()

	require.NoError(t, b.Broadcast(&message.Event{Kind: message.KindEmotion, Character: "Sam E", Text: "happy"}))
	b.Close()
	wait(t, s)

	st := s.Stats()
	st.Moods["Sam E"] = "excited"
	assert.Equal(t, "happy", s.Stats().Moods["Sam E"])
	assert.False(t, st.Ended)
}
