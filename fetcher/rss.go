package fetcher

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/sat8bit/moodchat/topic"
)

const maxSummaryRunes = 200

// RSSFetcher は topic.Fetcher の RSS / Atom 実装です。
type RSSFetcher struct {
	url   string
	limit int
}

// NewRSSFetcher は新しい RSSFetcher を生成します。
// limit は取得する記事の上限数で、0 以下なら無制限です。
func NewRSSFetcher(url string, limit int) topic.Fetcher {
	return &RSSFetcher{
		url:   url,
		limit: limit,
	}
}

// Fetch はフィードを取得し、新しい順に topic.Topic へ変換します。
func (f *RSSFetcher) Fetch(ctx context.Context) ([]*topic.Topic, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", f.url, err)
	}

	items := feed.Items
	sort.SliceStable(items, func(i, j int) bool {
		iTime := items[i].PublishedParsed
		jTime := items[j].PublishedParsed
		if iTime == nil || jTime == nil {
			return false
		}
		return iTime.After(*jTime)
	})

	var topics []*topic.Topic
	for i, item := range items {
		if f.limit > 0 && i >= f.limit {
			break
		}
		topics = append(topics, &topic.Topic{
			Title:     strings.TrimSpace(item.Title),
			Summary:   truncateString(collapseSpace(stripHTML(item.Description)), maxSummaryRunes),
			SourceURL: item.Link,
		})
	}
	return topics, nil
}

var htmlRegex = regexp.MustCompile("<[^>]*>")

func stripHTML(s string) string {
	return htmlRegex.ReplaceAllString(s, "")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateString は文字列を rune 単位で maxLen に切り詰めます。
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}
