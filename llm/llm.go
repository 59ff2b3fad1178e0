package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sat8bit/moodchat/message"
)

// Completer は、会話の続きを外部の LLM に生成させます。
type Completer interface {
	// Complete returns the model's reply to messages.
	Complete(ctx context.Context, messages []message.Message, model string) (string, error)
}

// Classifier は、会話を symbols のいずれか1つに分類できる Completer です。
// 対応していない Completer では、分類も Complete で行います。
type Classifier interface {
	Classify(ctx context.Context, messages []message.Message, model string, symbols []string) (string, error)
}

// ErrCompletion は、外部の LLM 呼び出しが失敗したことを表します。
var ErrCompletion = errors.New("completion failed")

type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletion
}

// AsCompletionError は、err を CompletionError に包みます。既に包まれていればそのまま返します。
func AsCompletionError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return err
	}
	return &CompletionError{Provider: provider, Err: err}
}
