package renderer

// Renderer は、セッションの出力を利用者に見せるためのインターフェースです。
type Renderer interface {
	// Say は、キャラクターの発言を表示します。
	Say(name, text string)
	// Notice は、システムからのお知らせを表示します。
	Notice(text string)
	// Error は、失敗を表示します。セッションは続きます。
	Error(text string)
}
