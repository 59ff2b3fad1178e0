package character

import (
	"fmt"
	"sync"

	"github.com/sat8bit/moodchat/emotion"
	"github.com/sat8bit/moodchat/message"
)

// EmotionPrefix は、送信直前のユーザー入力に付ける感情の注記です。
// 履歴には保存されません。
const EmotionPrefix = "Your current emotion is %s. It should affect your responses to the following input. "

// TransitionHook は、キャラクターの感情が遷移する直前に呼ばれます。
// Character のロックを保持したまま呼ばれるので、同じ Character のメソッドを呼んではいけません。
type TransitionHook func(name, symbol string, from, to emotion.State)

type Option func(*Character)

// WithTransitionHook は、感情遷移の副作用を登録します。
func WithTransitionHook(h TransitionHook) Option {
	return func(c *Character) {
		c.hook = h
	}
}

// Character は、ペルソナと会話履歴と感情の FSM をひとまとめにしたものです。
// 自分の FSM を書き換えるのは Character だけです。
type Character struct {
	Name    string
	Persona string

	log  *message.Log
	fsm  *emotion.FSM
	hook TransitionHook

	mu      sync.Mutex
	emotion emotion.State
}

// New は、persona を system メッセージとして履歴に積み、initial の感情で始まる Character を生成します。
func New(name, persona string, table emotion.Table, initial emotion.State, opts ...Option) (*Character, error) {
	c := &Character{
		Name:    name,
		Persona: persona,
		log:     message.NewLog(persona),
	}
	for _, opt := range opts {
		opt(c)
	}

	fsm, err := table.Build(initial, c.onTransition)
	if err != nil {
		return nil, fmt.Errorf("character.New %q: %w", name, err)
	}
	c.fsm = fsm
	c.emotion = fsm.Current()
	return c, nil
}

func (c *Character) onTransition(symbol string, from, to emotion.State) {
	if c.hook != nil {
		c.hook(c.Name, symbol, from, to)
	}
}

// Emotion は、現在の感情を返します。
func (c *Character) Emotion() emotion.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emotion
}

// History は、会話履歴のコピーを返します。
func (c *Character) History() []message.Message {
	return c.log.Snapshot()
}

// HistoryLen は、会話履歴の件数を返します。
func (c *Character) HistoryLen() int {
	return c.log.Len()
}

// BuildPrompt は、履歴の末尾に感情の注記付きのユーザー入力を足したものを返します。
func (c *Character) BuildPrompt(userMessage string) []message.Message {
	return append(c.log.Snapshot(), message.Message{
		Role:    message.RoleUser,
		Content: fmt.Sprintf(EmotionPrefix, c.Emotion()) + userMessage,
	})
}

// EvaluationPrompt は、直前までの会話を分類させるためのメッセージ列を返します。
func (c *Character) EvaluationPrompt(prompt string) []message.Message {
	return append(c.log.Snapshot(), message.Message{
		Role:    message.RoleUser,
		Content: prompt,
	})
}

// RecordTurn は、注記なしのユーザー入力と応答をこの順で履歴に追加します。
func (c *Character) RecordTurn(userMessage, assistantResponse string) error {
	if err := c.log.Append(message.RoleUser, userMessage); err != nil {
		return fmt.Errorf("character.RecordTurn: %w", err)
	}
	if err := c.log.Append(message.RoleAssistant, assistantResponse); err != nil {
		return fmt.Errorf("character.RecordTurn: %w", err)
	}
	return nil
}

// ClassifyAndAdvance は、会話の分類ラベルで FSM を進め、キャッシュしている感情を同期します。
// 遷移が登録されていなければ emotion.ErrUnknownTransition を返し、感情は変わりません。
func (c *Character) ClassifyAndAdvance(symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fsm.Process(emotion.NormalizeSymbol(symbol)); err != nil {
		return fmt.Errorf("character %q: %w", c.Name, err)
	}
	c.emotion = c.fsm.Current()
	return nil
}

// Symbols は、現在の感情から受理できる分類ラベルを返します。
func (c *Character) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Symbols()
}
