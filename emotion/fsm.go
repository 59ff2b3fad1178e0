package emotion

import (
	"errors"
	"fmt"
	"sort"
)

// State は、キャラクターの感情ラベルです。取りうる値は設定で閉じた集合として与えられます。
type State string

// ErrUnknownTransition は、(シンボル, 現在の状態) に遷移が登録されていないことを表します。
var ErrUnknownTransition = errors.New("unknown transition")

// UnknownTransitionError は、未登録の遷移を処理しようとしたときに返されます。
type UnknownTransitionError struct {
	Symbol string
	State  State
}

func (e *UnknownTransitionError) Error() string {
	return fmt.Sprintf("unknown transition: symbol %q from state %q", e.Symbol, e.State)
}

func (e *UnknownTransitionError) Is(target error) bool {
	return target == ErrUnknownTransition
}

type key struct {
	symbol string
	from   State
}

type entry struct {
	effect func()
	to     *State
}

// FSM は、(シンボル, 状態) をキーにした決定性の有限状態機械です。
// 同期的に呼ばれることを前提としており、ロックは持ちません。
type FSM struct {
	states      map[State]struct{}
	transitions map[key]entry
	current     State
}

// NewFSM は、states を状態集合とし initial から始まる FSM を生成します。
func NewFSM(states []State, initial State) (*FSM, error) {
	set := make(map[State]struct{}, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	if _, ok := set[initial]; !ok {
		return nil, fmt.Errorf("emotion.NewFSM: initial state %q is not in %v", initial, states)
	}
	return &FSM{
		states:      set,
		transitions: make(map[key]entry),
		current:     initial,
	}, nil
}

// AddTransition は、(symbol, from) の遷移を登録します。既にあれば上書きします。
// to が nil なら状態は変わらず、effect が nil なら副作用はありません。
func (f *FSM) AddTransition(symbol string, from State, effect func(), to *State) error {
	if _, ok := f.states[from]; !ok {
		return fmt.Errorf("emotion.FSM.AddTransition: unknown from state %q", from)
	}
	if to != nil {
		if _, ok := f.states[*to]; !ok {
			return fmt.Errorf("emotion.FSM.AddTransition: unknown to state %q", *to)
		}
		next := *to
		to = &next
	}
	f.transitions[key{symbol: symbol, from: from}] = entry{effect: effect, to: to}
	return nil
}

// Process は、現在の状態で symbol を受け取ります。
// 副作用は状態の更新より先に実行されます。
func (f *FSM) Process(symbol string) error {
	e, ok := f.transitions[key{symbol: symbol, from: f.current}]
	if !ok {
		return &UnknownTransitionError{Symbol: symbol, State: f.current}
	}
	if e.effect != nil {
		e.effect()
	}
	if e.to != nil {
		f.current = *e.to
	}
	return nil
}

// Current は、現在の状態を返します。
func (f *FSM) Current() State {
	return f.current
}

// Symbols は、現在の状態から受理できるシンボルをソートして返します。
func (f *FSM) Symbols() []string {
	var out []string
	for k := range f.transitions {
		if k.from == f.current {
			out = append(out, k.symbol)
		}
	}
	sort.Strings(out)
	return out
}
