package topic

// Topic は、キャラクターが雑談で持ち出せる話題です。
// 出所（RSS など）には依存しません。
type Topic struct {
	Title     string
	Summary   string
	SourceURL string
}
