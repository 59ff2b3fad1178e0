package character

import (
	"errors"
	"fmt"
)

// ErrUnknownCharacter は、登録されていない名前が選ばれたことを表します。
var ErrUnknownCharacter = errors.New("unknown character")

type UnknownCharacterError struct {
	Name string
}

func (e *UnknownCharacterError) Error() string {
	return fmt.Sprintf("unknown character %q", e.Name)
}

func (e *UnknownCharacterError) Is(target error) bool {
	return target == ErrUnknownCharacter
}

// Registry は、名前から Character を引く表です。
// 起動時に一度だけ作られ、以後メンバーは増減しません。
type Registry struct {
	names      []string
	characters map[string]*Character
}

// NewRegistry は、chars を設定順に登録します。名前の重複はエラーです。
func NewRegistry(chars ...*Character) (*Registry, error) {
	r := &Registry{
		names:      make([]string, 0, len(chars)),
		characters: make(map[string]*Character, len(chars)),
	}
	for _, c := range chars {
		if c == nil {
			continue
		}
		if _, exists := r.characters[c.Name]; exists {
			return nil, fmt.Errorf("character.NewRegistry: duplicate character %q", c.Name)
		}
		r.names = append(r.names, c.Name)
		r.characters[c.Name] = c
	}
	return r, nil
}

// Select は、name の Character を返します。
func (r *Registry) Select(name string) (*Character, error) {
	c, ok := r.characters[name]
	if !ok {
		return nil, &UnknownCharacterError{Name: name}
	}
	return c, nil
}

// Contains は、name が登録されているかどうかを返します。
func (r *Registry) Contains(name string) bool {
	_, ok := r.characters[name]
	return ok
}

// Names は、登録順の名前一覧を返します。
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Len() int {
	return len(r.names)
}
