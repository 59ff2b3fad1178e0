package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sat8bit/moodchat/bus"
	"github.com/sat8bit/moodchat/character"
	"github.com/sat8bit/moodchat/emotion"
	"github.com/sat8bit/moodchat/llm"
	"github.com/sat8bit/moodchat/message"
	"github.com/sat8bit/moodchat/turn"
)

const (
	CommandQuit   = "quit"
	CommandSwitch = "switch"
)

var (
	// ErrTerminated は、quit の後に入力が渡されたことを表します。
	ErrTerminated = errors.New("session terminated")
	// ErrNotSelected は、キャラクターが選ばれる前に入力が渡されたことを表します。
	ErrNotSelected = errors.New("no character selected")
)

// State は、Orchestrator の状態です。
type State int

const (
	StateSelecting State = iota
	StateChatting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSelecting:
		return "selecting"
	case StateChatting:
		return "chatting"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Selector は、次に話すキャラクターの名前を決めます。
// 不正な名前を返した場合は、もう一度呼ばれます。
type Selector interface {
	Choose(ctx context.Context, registry *character.Registry) (string, error)
}

type Options struct {
	// Model は、Completer にそのまま渡されます。
	Model string
	// EvaluatePrompt は、キャラクター切り替え時に会話を分類させる問いかけです。
	EvaluatePrompt string
	// Window は、送信直前に履歴を切り詰める設定です。ゼロ値なら全履歴を送ります。
	Window message.Window
	// Timeout は、LLM 呼び出し1回あたりの上限です。0 なら無制限です。
	Timeout time.Duration
	// Bus が nil でなければ、イベントを配信します。
	Bus bus.Bus
	// Turns が nil なら turn.NewMutexManager が使われます。
	Turns turn.Manager
	// MaxTurns は、記録するターン数の上限です。達した時点でセッションは終わります。0 なら無制限です。
	MaxTurns int
}

type Action int

const (
	ActionReply Action = iota
	ActionSwitched
	ActionQuit
)

// Result は、入力1件を処理した結果です。
// Err には利用者に伝えるべき失敗（CompletionError, UnknownTransition）が入りますが、
// セッションは続行できます。
type Result struct {
	Action Action
	// Character は、応答したキャラクター、または切り替え後のキャラクターです。
	Character string
	// Reply は、応答本文です。LLM 呼び出しが失敗した場合はエラーの文面になります。
	Reply string

	// 以下は切り替え時のみ
	Previous string
	Label    string
	Emotion  emotion.State

	// Limited は、このターンで MaxTurns に達しセッションが終わったことを表します。
	Limited bool

	Err error
}

// Orchestrator は、1つのセッションの入力を1件ずつ処理します。
// 並行に呼び出してはいけません。
type Orchestrator struct {
	id        ulid.ULID
	registry  *character.Registry
	completer llm.Completer
	selector  Selector
	opts      Options

	state   State
	current *character.Character
	turns   int
}

func New(registry *character.Registry, completer llm.Completer, selector Selector, opts Options) *Orchestrator {
	if opts.Turns == nil {
		opts.Turns = turn.NewMutexManager()
	}
	return &Orchestrator{
		id:        ulid.Make(),
		registry:  registry,
		completer: completer,
		selector:  selector,
		opts:      opts,
		state:     StateSelecting,
	}
}

func (o *Orchestrator) ID() string {
	return o.id.String()
}

func (o *Orchestrator) State() State {
	return o.state
}

// GetCurrentTurn は、これまでに記録したターン数を返します。
func (o *Orchestrator) GetCurrentTurn() int {
	return o.turns
}

func (o *Orchestrator) GetMaxTurns() int {
	return o.opts.MaxTurns
}

// Current は、現在話しているキャラクターを返します。選択中なら nil です。
func (o *Orchestrator) Current() *character.Character {
	return o.current
}

// Start は、最初のキャラクターを選びます。
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.state == StateTerminated {
		return ErrTerminated
	}
	if o.registry == nil || o.registry.Len() == 0 {
		return errors.New("session.Start: no characters configured")
	}
	return o.selectCharacter(ctx)
}

// Handle は、利用者の入力1行を処理します。
func (o *Orchestrator) Handle(ctx context.Context, line string) (Result, error) {
	switch o.state {
	case StateTerminated:
		return Result{}, ErrTerminated
	case StateSelecting:
		return Result{}, ErrNotSelected
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case CommandQuit:
		return o.quit(ctx), nil
	case CommandSwitch:
		return o.switchCharacter(ctx)
	}
	return o.chat(ctx, line), nil
}

func (o *Orchestrator) chat(ctx context.Context, line string) Result {
	c := o.current
	res := Result{Action: ActionReply, Character: c.Name}

	prompt := o.opts.Window.Apply(c.BuildPrompt(line))
	reply, err := o.call(ctx, func(ctx context.Context) (string, error) {
		return o.completer.Complete(ctx, prompt, o.opts.Model)
	})
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "session", o.ID(), "character", c.Name, "error", err)
		o.publish(message.KindError, c.Name, err.Error(), nil)
		res.Reply = err.Error()
		res.Err = err
		return res
	}

	if err := c.RecordTurn(line, reply); err != nil {
		res.Reply = err.Error()
		res.Err = err
		return res
	}

	slog.DebugContext(ctx, "turn recorded", "session", o.ID(), "character", c.Name, "history", c.HistoryLen())
	o.turns++
	o.publish(message.KindTurn, c.Name, reply, map[string]string{"emotion": string(c.Emotion())})
	res.Reply = reply

	if o.opts.MaxTurns > 0 && o.turns >= o.opts.MaxTurns {
		o.state = StateTerminated
		slog.InfoContext(ctx, "turn limit reached", "session", o.ID(), "turns", o.turns)
		o.publish(message.KindEnd, c.Name, "turn limit", nil)
		res.Limited = true
	}
	return res
}

func (o *Orchestrator) switchCharacter(ctx context.Context) (Result, error) {
	prev := o.current
	res := Result{Action: ActionSwitched, Previous: prev.Name}

	label, err := o.classify(ctx, prev)
	if err == nil {
		res.Label = label
		err = prev.ClassifyAndAdvance(label)
	}
	if err != nil {
		// 分類に失敗しても感情はそのままにして切り替えは続ける
		slog.WarnContext(ctx, "conversation classification failed", "session", o.ID(), "character", prev.Name, "label", label, "error", err)
		o.publish(message.KindError, prev.Name, err.Error(), nil)
		res.Err = err
	}
	res.Emotion = prev.Emotion()

	o.state = StateSelecting
	o.current = nil
	if err := o.selectCharacter(ctx); err != nil {
		return res, err
	}

	res.Character = o.current.Name
	o.publish(message.KindSwitch, o.current.Name, "", map[string]string{"from": prev.Name})
	return res, nil
}

func (o *Orchestrator) classify(ctx context.Context, c *character.Character) (string, error) {
	msgs := o.opts.Window.Apply(c.EvaluationPrompt(o.opts.EvaluatePrompt))

	if cl, ok := o.completer.(llm.Classifier); ok {
		if symbols := c.Symbols(); len(symbols) > 0 {
			return o.call(ctx, func(ctx context.Context) (string, error) {
				return cl.Classify(ctx, msgs, o.opts.Model, symbols)
			})
		}
	}
	return o.call(ctx, func(ctx context.Context) (string, error) {
		return o.completer.Complete(ctx, msgs, o.opts.Model)
	})
}

func (o *Orchestrator) quit(ctx context.Context) Result {
	name := ""
	if o.current != nil {
		name = o.current.Name
	}
	o.state = StateTerminated
	slog.InfoContext(ctx, "session terminated", "session", o.ID())
	o.publish(message.KindEnd, name, "", nil)
	return Result{Action: ActionQuit, Character: name}
}

// call は、問い合わせ枠を取ってから LLM を呼び出します。
// 失敗はすべて llm.CompletionError として返します。
func (o *Orchestrator) call(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	if err := o.opts.Turns.Acquire(ctx); err != nil {
		return "", llm.AsCompletionError("session", err)
	}
	defer o.opts.Turns.Release()

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	out, err := fn(ctx)
	if err != nil {
		return "", llm.AsCompletionError("llm", err)
	}
	return out, nil
}

func (o *Orchestrator) selectCharacter(ctx context.Context) error {
	for {
		name, err := o.selector.Choose(ctx, o.registry)
		if err != nil {
			return fmt.Errorf("session: select character: %w", err)
		}
		c, err := o.registry.Select(name)
		if err != nil {
			slog.WarnContext(ctx, "character selection rejected", "session", o.ID(), "error", err)
			continue
		}
		o.current = c
		o.state = StateChatting
		slog.InfoContext(ctx, "character selected", "session", o.ID(), "character", c.Name, "emotion", c.Emotion())
		return nil
	}
}

func (o *Orchestrator) publish(kind message.Kind, name, text string, meta map[string]string) {
	if o.opts.Bus == nil {
		return
	}
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta["session"] = o.ID()
	if err := o.opts.Bus.Broadcast(&message.Event{
		Kind:      kind,
		Character: name,
		Text:      text,
		At:        time.Now(),
		Meta:      meta,
	}); err != nil {
		slog.Error("failed to broadcast event", "kind", kind, "error", err)
	}
}

// EmotionHook は、感情遷移を b に流しログに残す character.TransitionHook を返します。
func EmotionHook(b bus.Bus) character.TransitionHook {
	return func(name, symbol string, from, to emotion.State) {
		slog.Info("emotion transition", "character", name, "symbol", symbol, "from", from, "to", to)
		if b == nil {
			return
		}
		if err := b.Broadcast(&message.Event{
			Kind:      message.KindEmotion,
			Character: name,
			Text:      string(to),
			At:        time.Now(),
			Meta:      map[string]string{"symbol": symbol, "from": string(from)},
		}); err != nil {
			slog.Error("failed to broadcast emotion event", "error", err)
		}
	}
}

var _ turn.Provider = (*Orchestrator)(nil)
