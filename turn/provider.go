package turn

// Provider は、これまでに完了したターン数と上限を提供します。
// 上限が 0 のときは無制限です。
type Provider interface {
	GetCurrentTurn() int
	GetMaxTurns() int
}
