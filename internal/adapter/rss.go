package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// fetchFeed GETs an RSS feed and parses its <item> list.
func fetchFeed(ctx context.Context, client *http.Client, feedURL, source string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", source, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := do(client, req, source)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s parse feed: %w", source, err)
	}
	return feed, nil
}

// itemDate returns the parsed <pubDate> of an item, falling back to our own
// layouts when gofeed could not parse it.
func itemDate(item *gofeed.Item) (time.Time, error) {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC(), nil
	}
	return parseDate(item.Published)
}
