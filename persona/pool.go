package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sat8bit/moodchat/character"
	"github.com/sat8bit/moodchat/configs"
	"github.com/sat8bit/moodchat/emotion"
	"github.com/sat8bit/moodchat/message"
	"github.com/sat8bit/moodchat/topic"
)

// Feed は、話題を取ってくる RSS フィードの設定です。
type Feed struct {
	URL   string `yaml:"url"`
	Limit int    `yaml:"limit"`
}

// Pool は、設定ファイル1つ分の内容です。
type Pool struct {
	Model                string         `yaml:"model"`
	Baseline             string         `yaml:"baseline"`
	EvaluateConversation string         `yaml:"evaluate_conversation"`
	Table                emotion.Table  `yaml:",inline"`
	History              message.Window `yaml:"history"`
	Feeds                []Feed         `yaml:"feeds"`
	Personas             []*Persona     `yaml:"characters"`
}

// NewPool は、埋め込みの既定設定から Pool を読み込みます。
func NewPool() (*Pool, error) {
	return Parse(configs.Default)
}

// Load は、path の YAML から Pool を読み込みます。
// 読めない・壊れている場合は、空の Pool とエラーを返します。
func Load(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Pool{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse は、YAML を Pool に変換し検証します。
// 失敗した場合も nil ではなく空の Pool を返します。
func Parse(data []byte) (*Pool, error) {
	var p Pool
	if err := yaml.Unmarshal(data, &p); err != nil {
		return &Pool{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := p.Validate(); err != nil {
		return &Pool{}, err
	}
	return &p, nil
}

// Validate は、キャラクターと感情の遷移表の整合性を確認します。
func (p *Pool) Validate() error {
	if len(p.Personas) == 0 {
		return errors.New("config has no characters")
	}
	if strings.TrimSpace(p.EvaluateConversation) == "" {
		return errors.New("config has no evaluate_conversation prompt")
	}
	if err := p.Table.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(p.Personas))
	for i, persona := range p.Personas {
		if persona == nil || strings.TrimSpace(persona.Name) == "" {
			return fmt.Errorf("character %d has no name", i)
		}
		if _, dup := seen[persona.Name]; dup {
			return fmt.Errorf("duplicate character %q", persona.Name)
		}
		seen[persona.Name] = struct{}{}
		if !p.Table.Has(persona.Emotion) {
			return fmt.Errorf("character %q: unknown emotion %q", persona.Name, persona.Emotion)
		}
	}
	return nil
}

func (p *Pool) GetAll() []*Persona {
	if p == nil {
		return nil
	}
	return p.Personas
}

// Characters は、各 Persona から Character を組み立てます。感情の FSM はキャラクターごとに別物です。
func (p *Pool) Characters(topics []*topic.Topic, opts ...character.Option) ([]*character.Character, error) {
	chars := make([]*character.Character, 0, len(p.GetAll()))
	for _, persona := range p.GetAll() {
		c, err := character.New(persona.Name, persona.Text(p.Baseline, topics), p.Table, persona.Emotion, opts...)
		if err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, nil
}

// Registry は、Characters の結果から character.Registry を作ります。
func (p *Pool) Registry(topics []*topic.Topic, opts ...character.Option) (*character.Registry, error) {
	chars, err := p.Characters(topics, opts...)
	if err != nil {
		return nil, err
	}
	return character.NewRegistry(chars...)
}
