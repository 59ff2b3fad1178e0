package emotion

import (
	"fmt"
	"sort"
	"strings"
)

// Transition は、設定ファイルに書かれる遷移1件です。To が空なら自己遷移です。
type Transition struct {
	On   string `yaml:"on"`
	From State  `yaml:"from"`
	To   State  `yaml:"to,omitempty"`
}

// Table は、感情ラベルの集合と遷移表です。キャラクターごとにここから FSM を組み立てます。
type Table struct {
	States      []State      `yaml:"emotions"`
	Transitions []Transition `yaml:"transitions"`
}

// Hook は、遷移が起きる直前に呼ばれます。
type Hook func(symbol string, from, to State)

// Has は、s が状態集合に含まれるかどうかを返します。
func (t Table) Has(s State) bool {
	for _, st := range t.States {
		if st == s {
			return true
		}
	}
	return false
}

// Validate は、遷移表が状態集合の外を参照していないかを確認します。
func (t Table) Validate() error {
	if len(t.States) == 0 {
		return fmt.Errorf("emotion.Table: no emotions configured")
	}
	for i, tr := range t.Transitions {
		if NormalizeSymbol(tr.On) == "" {
			return fmt.Errorf("emotion.Table: transition %d has empty symbol", i)
		}
		if !t.Has(tr.From) {
			return fmt.Errorf("emotion.Table: transition %d: unknown from state %q", i, tr.From)
		}
		if tr.To != "" && !t.Has(tr.To) {
			return fmt.Errorf("emotion.Table: transition %d: unknown to state %q", i, tr.To)
		}
	}
	return nil
}

// Build は、initial から始まる新しい FSM を生成し遷移表を登録します。
// hook が nil でなければ各遷移の副作用として登録されます。
func (t Table) Build(initial State, hook Hook) (*FSM, error) {
	f, err := NewFSM(t.States, initial)
	if err != nil {
		return nil, err
	}
	for _, tr := range t.Transitions {
		symbol := NormalizeSymbol(tr.On)
		from := tr.From
		var to *State
		if tr.To != "" {
			next := tr.To
			to = &next
		}

		var effect func()
		if hook != nil {
			dest := from
			if to != nil {
				dest = *to
			}
			effect = func() { hook(symbol, from, dest) }
		}

		if err := f.AddTransition(symbol, from, effect, to); err != nil {
			return nil, fmt.Errorf("emotion.Table.Build: %w", err)
		}
	}
	return f, nil
}

// Symbols は、遷移表に現れるすべてのシンボルをソートして返します。
func (t Table) Symbols() []string {
	seen := make(map[string]struct{})
	for _, tr := range t.Transitions {
		seen[NormalizeSymbol(tr.On)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NormalizeSymbol は、モデルが返した分類ラベルを遷移表のキーの形にそろえます。
// 前後の空白・引用符・末尾の句読点を落とし、小文字にします。
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	s = strings.TrimRight(s, ".!?。！？")
	return strings.ToLower(strings.TrimSpace(s))
}
