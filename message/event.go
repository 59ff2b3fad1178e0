package message

import "time"

type Kind string

const (
	KindTurn    Kind = "turn"
	KindSwitch  Kind = "switch"
	KindEmotion Kind = "emotion"
	KindError   Kind = "error"
	KindEnd     Kind = "end"
)

// Event は、セッション中に起きた出来事としてバスに流されます。
type Event struct {
	Kind      Kind
	Character string
	Text      string
	At        time.Time
	Meta      map[string]string
}

// IsTurn は、ユーザーとキャラクターの1往復が記録されたイベントかどうかを返します。
func (e *Event) IsTurn() bool {
	return e != nil && e.Kind == KindTurn
}
