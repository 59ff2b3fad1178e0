package persona

import (
	"fmt"
	"strings"

	"github.com/sat8bit/moodchat/emotion"
	"github.com/sat8bit/moodchat/topic"
)

// Persona は、キャラクター1人分の設定です。
// Description は全員共通の baseline の後ろに付けられ、LLM に渡す system メッセージになります。
type Persona struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Emotion     emotion.State `yaml:"emotion"`
}

// Text は、baseline と Description と話題をつないだ system メッセージの本文を返します。
func (p *Persona) Text(baseline string, topics []*topic.Topic) string {
	var parts []string
	if b := strings.TrimSpace(baseline); b != "" {
		parts = append(parts, b)
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		parts = append(parts, d)
	}
	text := strings.Join(parts, " ")

	if len(topics) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nThings you've seen in the news lately and might bring up:")
	for _, t := range topics {
		if t.Summary != "" {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", t.Title, t.Summary))
		} else {
			sb.WriteString(fmt.Sprintf("\n- %s", t.Title))
		}
	}
	return sb.String()
}
