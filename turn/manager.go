package turn

import (
	"context"
)

// Manager は、LLM への問い合わせを同時に1件までに制限します。
// キャラクターの履歴や感情が、応答待ちの間に別の入力で書き換わらないようにするためのものです。
type Manager interface {
	Acquire(ctx context.Context) error
	Release()
}
