package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/sat8bit/moodchat/message"
)

const providerOpenAI = "openai"

// NewOpenAI は、apiKey で認証する OpenAI クライアントを生成します。
func NewOpenAI(apiKey string, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAI{
		client:     &client,
		retryWaits: []time.Duration{2 * time.Second, 5 * time.Second},
	}
}

type OpenAI struct {
	client     *openai.Client
	retryWaits []time.Duration
}

// Complete は Chat Completions API で応答を生成します。
func (o *OpenAI) Complete(ctx context.Context, messages []message.Message, model string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toChatMessages(messages),
	}

	var resp *openai.ChatCompletion
	err := o.withRetry(ctx, func() error {
		var err error
		resp, err = o.client.Chat.Completions.New(ctx, params)
		return err
	})
	if err != nil {
		return "", AsCompletionError(providerOpenAI, fmt.Errorf("llm.OpenAI.Complete: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", AsCompletionError(providerOpenAI, errors.New("llm.OpenAI.Complete: no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Classify は Responses API の JSON Schema 出力で、symbols のうち1つを選ばせます。
func (o *OpenAI) Classify(ctx context.Context, messages []message.Message, model string, symbols []string) (string, error) {
	if len(symbols) == 0 {
		return o.Complete(ctx, messages, model)
	}
	schema, err := labelSchema(symbols)
	if err != nil {
		return "", AsCompletionError(providerOpenAI, err)
	}

	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String("Answer with exactly one of the allowed labels: " + strings.Join(symbols, ", ") + "."),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: toResponseInput(messages),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "ConversationClassification",
					Schema:      schema,
					Strict:      openai.Bool(true),
					Description: openai.String("Conversation classification JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	var resp *responses.Response
	err = o.withRetry(ctx, func() error {
		var err error
		resp, err = o.client.Responses.New(ctx, params)
		return err
	})
	if err != nil {
		return "", AsCompletionError(providerOpenAI, fmt.Errorf("llm.OpenAI.Classify: %w", err))
	}

	var out classification
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return "", AsCompletionError(providerOpenAI, fmt.Errorf("llm.OpenAI.Classify: unmarshal: %w", err))
	}
	return strings.TrimSpace(out.Label), nil
}

func (o *OpenAI) withRetry(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if attempt >= len(o.retryWaits) || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (gave up retrying: %v)", err, ctx.Err())
		case <-time.After(o.retryWaits[attempt]):
		}
	}
}

func toChatMessages(messages []message.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case message.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case message.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toResponseInput(messages []message.Message) []responses.ResponseInputItemUnionParam {
	out := make([]responses.ResponseInputItemUnionParam, 0, len(messages))
	for _, m := range messages {
		role := responses.EasyInputMessageRoleUser
		switch m.Role {
		case message.RoleSystem:
			role = responses.EasyInputMessageRoleSystem
		case message.RoleAssistant:
			role = responses.EasyInputMessageRoleAssistant
		}
		out = append(out, responses.ResponseInputItemParamOfMessage(m.Content, role))
	}
	return out
}

// retryable は、API がレート制限かサーバー側の失敗を返したときだけ true です。
func retryable(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
}

// decodeModelJSON は、モデルが JSON の前後に余計な文字を付けた場合も最初のオブジェクトを取り出します。
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
	}
	return nil
}

var _ Completer = (*OpenAI)(nil)
var _ Classifier = (*OpenAI)(nil)
