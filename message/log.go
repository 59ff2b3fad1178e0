package message

import (
	"fmt"
	"sync"
)

// Log は、キャラクター1人分の会話履歴です。
// 追記のみ可能で、並び順は会話の順序そのものです。
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

// NewLog は、ペルソナを唯一の system メッセージとして持つ Log を生成します。
func NewLog(persona string) *Log {
	return &Log{
		messages: []Message{{Role: RoleSystem, Content: persona}},
	}
}

// Append は、末尾にメッセージを1件追加します。
func (l *Log) Append(role Role, content string) error {
	if !role.Valid() {
		return fmt.Errorf("message.Log.Append: invalid role %q", role)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, Message{Role: role, Content: content})
	return nil
}

// Snapshot は、呼び出し時点の履歴のコピーを返します。
// 返されたスライスに append しても Log 側は変化しません。
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len は、履歴の件数を返します。
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
