package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/sat8bit/moodchat/message"
)

const providerGemini = "gemini"

// NewGemini は、Vertex AI バックエンドの Gemini クライアントを生成します。
func NewGemini(ctx context.Context, projectId, location string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectId,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm.NewGemini: %w", err)
	}
	return &Gemini{client: client}, nil
}

type Gemini struct {
	client *genai.Client
}

// Complete は、system メッセージを SystemInstruction に、残りを履歴として渡して応答を生成します。
func (g *Gemini) Complete(ctx context.Context, messages []message.Message, model string) (string, error) {
	system, contents := toGeminiContents(messages)

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", AsCompletionError(providerGemini, fmt.Errorf("llm.Gemini.Complete: %w", err))
	}

	txt := extractText(resp)
	if txt == "" {
		return "", AsCompletionError(providerGemini, errors.New("llm.Gemini.Complete: empty response"))
	}
	return txt, nil
}

func toGeminiContents(messages []message.Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case message.RoleSystem:
			system = append(system, m.Content)
		case message.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func extractText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	// 最も確度が高い候補を優先し、なければ他の候補も見る
	for _, c := range res.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

var _ Completer = (*Gemini)(nil)
