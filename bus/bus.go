package bus

import (
	"github.com/sat8bit/moodchat/message"
)

// Bus は、セッションのイベントを購読者に配送します。
type Bus interface {
	Broadcast(e *message.Event) error
	Subscribe() <-chan *message.Event
	Close()
}
