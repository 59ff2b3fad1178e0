package message

// Window は、モデルに送る直前の履歴をどこまで残すかの設定です。
// 保存されている Log そのものは決して切り詰めません。
// ゼロ値は無制限です。
type Window struct {
	// MaxMessages は、先頭の system メッセージを除いて残す最新メッセージ数です。
	MaxMessages int `yaml:"max_messages"`
	// MaxTokens は、送信するメッセージ全体のトークン上限です。
	MaxTokens int `yaml:"max_tokens"`
}

// Unbounded は、何も切り詰めない設定かどうかを返します。
func (w Window) Unbounded() bool {
	return w.MaxMessages <= 0 && w.MaxTokens <= 0
}

// Apply は、先頭の system メッセージと最新のメッセージを優先して msgs を切り詰めます。
// 最後のメッセージ(送信しようとしている入力)は常に残ります。
func (w Window) Apply(msgs []Message) []Message {
	if w.Unbounded() || len(msgs) == 0 {
		return msgs
	}

	var head []Message
	body := msgs
	if msgs[0].Role == RoleSystem {
		head = msgs[:1]
		body = msgs[1:]
	}

	if w.MaxMessages > 0 && len(body) > w.MaxMessages {
		body = body[len(body)-w.MaxMessages:]
	}

	if w.MaxTokens > 0 {
		total := 0
		for _, m := range head {
			total += CountMessageTokens(m)
		}
		costs := make([]int, len(body))
		for i, m := range body {
			costs[i] = CountMessageTokens(m)
			total += costs[i]
		}
		drop := 0
		for total > w.MaxTokens && drop < len(body)-1 {
			total -= costs[drop]
			drop++
		}
		body = body[drop:]
	}

	out := make([]Message, 0, len(head)+len(body))
	out = append(out, head...)
	return append(out, body...)
}
