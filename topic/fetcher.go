package topic

import (
	"context"
	"log/slog"
)

// Fetcher は、外部のデータソースから話題を取得します。
type Fetcher interface {
	Fetch(ctx context.Context) ([]*Topic, error)
}

// Collect は、すべての fetchers から話題を集めます。
// 取得に失敗したソースはログに残して読み飛ばします。
func Collect(ctx context.Context, fetchers ...Fetcher) []*Topic {
	var out []*Topic
	for _, f := range fetchers {
		topics, err := f.Fetch(ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to fetch topics", "error", err)
			continue
		}
		out = append(out, topics...)
	}
	return out
}
