package supervisor

import (
	"sync"

	"github.com/sat8bit/moodchat/bus"
	"github.com/sat8bit/moodchat/message"
)

// Stats は、セッション中にバスを流れたイベントの集計です。
type Stats struct {
	Turns       int
	Switches    int
	Transitions int
	Errors      int
	Ended       bool
	// Moods は、キャラクターごとの最後の感情遷移先です。
	Moods map[string]string
}

// Supervisor は、セッションのイベントを購読して集計します。
// ターン上限は Orchestrator が同期的に守るので、ここでは止めません。
type Supervisor struct {
	bus   bus.Bus
	mu    sync.Mutex
	stats Stats
	done  chan struct{}
}

// NewSupervisor は、新しい Supervisor を生成します。
func NewSupervisor(bus bus.Bus) *Supervisor {
	return &Supervisor{
		bus:   bus,
		stats: Stats{Moods: make(map[string]string)},
		done:  make(chan struct{}),
	}
}

// Start は、イベントの監視を開始します。バスが閉じられると Done が閉じます。
func (s *Supervisor) Start() {
	ch := s.bus.Subscribe()

	go func() {
		defer close(s.done)
		for ev := range ch {
			s.observe(ev)
		}
	}()
}

func (s *Supervisor) observe(ev *message.Event) {
	if ev == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case message.KindTurn:
		s.stats.Turns++
	case message.KindSwitch:
		s.stats.Switches++
	case message.KindEmotion:
		s.stats.Transitions++
		s.stats.Moods[ev.Character] = ev.Text
	case message.KindError:
		s.stats.Errors++
	case message.KindEnd:
		s.stats.Ended = true
	}
}

// Done は、監視が終わると閉じられます。
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Stats は、現時点の集計のコピーを返します。
func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.Moods = make(map[string]string, len(s.stats.Moods))
	for k, v := range s.stats.Moods {
		out.Moods[k] = v
	}
	return out
}
