package turn

import (
	"context"
	"fmt"
)

// MutexManager は、バッファサイズ1のチャネルをセマフォとして使う Manager です。
type MutexManager struct {
	turnCh chan struct{}
}

// NewMutexManager は新しい MutexManager を生成します。
func NewMutexManager() Manager {
	return &MutexManager{
		turnCh: make(chan struct{}, 1),
	}
}

// Acquire は問い合わせ枠を取得します。
// 他の問い合わせが進行中なら、解放されるか ctx が終わるまで待ちます。
func (m *MutexManager) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire turn: %w", ctx.Err())
	case m.turnCh <- struct{}{}:
		return nil
	}
}

// Release は問い合わせ枠を解放します。取得していなければ何もしません。
func (m *MutexManager) Release() {
	select {
	case <-m.turnCh:
	default:
	}
}

var _ Manager = (*MutexManager)(nil)
