package message

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenEncoder *tiktoken.Tiktoken
	encoderOnce  sync.Once
	encoderErr   error
)

// cl100k_base は gpt-3.5-turbo / gpt-4 系のエンコーディング
func initTokenEncoder() error {
	encoderOnce.Do(func() {
		tokenEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoderErr
}

// CountTokens は、text のトークン数を返します。
// エンコーダを用意できない場合は文字数からの概算になります。
func CountTokens(text string) int {
	if err := initTokenEncoder(); err != nil {
		return estimateTokens(text)
	}
	return len(tokenEncoder.Encode(text, nil, nil))
}

// CountMessageTokens は、1メッセージ分のトークン数を返します。
// role やメッセージ区切りのオーバーヘッドとして 4 トークンを加算します。
func CountMessageTokens(m Message) int {
	return 4 + CountTokens(string(m.Role)) + CountTokens(m.Content)
}

func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len([]rune(text)) / 4
	if n == 0 {
		n = 1
	}
	return n
}
