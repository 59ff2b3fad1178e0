package message

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conversation(n int) []Message {
	msgs := []Message{{Role: RoleSystem, Content: "persona"}}
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: fmt.Sprintf("message %d", i)})
	}
	return msgs
}

func TestWindow_ZeroValueKeepsEverything(t *testing.T) {
	msgs := conversation(7)
	assert.Equal(t, msgs, Window{}.Apply(msgs))
}

func TestWindow_MaxMessagesKeepsSystemAndTail(t *testing.T) {
	msgs := conversation(7)

	got := Window{MaxMessages: 3}.Apply(msgs)

	require.Len(t, got, 4)
	assert.Equal(t, RoleSystem, got[0].Role)
	assert.Equal(t, msgs[len(msgs)-3:], got[1:])
}

func TestWindow_MaxTokensAlwaysKeepsLastMessage(t *testing.T) {
	msgs := conversation(4)
	msgs = append(msgs, Message{Role: RoleUser, Content: strings.Repeat("long input ", 50)})

	got := Window{MaxTokens: 1}.Apply(msgs)

	require.Len(t, got, 2)
	assert.Equal(t, RoleSystem, got[0].Role)
	assert.Equal(t, msgs[len(msgs)-1], got[1])
}

func TestWindow_DoesNotMutateInput(t *testing.T) {
	msgs := conversation(5)
	orig := append([]Message(nil), msgs...)

	_ = Window{MaxMessages: 2}.Apply(msgs)

	assert.Equal(t, orig, msgs)
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	n := CountTokens("The quick brown fox jumps over the lazy dog")
	assert.Greater(t, n, 0)
	assert.Equal(t, n, CountTokens("The quick brown fox jumps over the lazy dog"))
}
