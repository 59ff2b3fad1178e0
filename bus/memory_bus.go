package bus

import (
	"fmt"
	"sync"

	"github.com/sat8bit/moodchat/message"
)

// MemoryBus は Bus のインメモリ実装です。
type MemoryBus struct {
	subscribers []chan *message.Event
	mu          sync.RWMutex
	isClosed    bool
	bufferSize  int
}

// NewMemoryBus は新しい MemoryBus を生成します。
func NewMemoryBus() Bus {
	return &MemoryBus{
		subscribers: make([]chan *message.Event, 0),
		bufferSize:  16,
	}
}

// Broadcast はイベントをすべての購読者に送ります。
// ブロックはせず、バッファが一杯の購読者には届きません。
func (b *MemoryBus) Broadcast(e *message.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isClosed {
		return fmt.Errorf("bus is closed")
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

// Subscribe は購読者を追加し、受信用のチャネルを返します。
// 閉じたバスでは閉じたチャネルが返ります。
func (b *MemoryBus) Subscribe() <-chan *message.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *message.Event, b.bufferSize)
	if b.isClosed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Close はバスを閉じ、すべての購読者チャネルをクローズします。
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isClosed {
		b.isClosed = true
		for _, ch := range b.subscribers {
			close(ch)
		}
		b.subscribers = nil
	}
}

var _ Bus = (*MemoryBus)(nil)
