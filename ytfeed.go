package ytfeed

import (
	"context"

	"ytfeed/fallback"
	"ytfeed/feed"
	"ytfeed/youtube"
)

// High-level convenience functions for the most common operations.
// They run entirely on the credential-free paths: the fallback chain
// for resolution and RSS for uploads. For API-backed aggregation,
// quota persistence, or custom sources, wire the sub-packages directly.

// ResolveChannel resolves a free-form channel reference (id, @handle,
// URL, or search term) to its canonical channel.
func ResolveChannel(ctx context.Context, ref string) (*youtube.ChannelResolution, error) {
	id := youtube.Parse(ref)
	if id.Kind == youtube.KindInvalid {
		return nil, &youtube.ResolveError{Source: "fallback", Query: ref, Err: youtube.ErrInvalidInput}
	}
	return fallback.NewChain(nil).Resolve(ctx, id)
}

// FetchFeed fetches recent uploads for the given canonical channel ids
// over RSS and merges them newest first. pageSize <= 0 uses the
// default. Channels that fail to fetch are skipped.
func FetchFeed(ctx context.Context, channelIDs []string, pageSize int) (*feed.FeedPage, error) {
	fetcher := feed.NewFetcher(youtube.NewRSSLister(), feed.DefaultConcurrency, feed.DefaultPerChannelLimit)

	result, err := fetcher.FetchUploads(ctx, channelIDs)
	if err != nil {
		return nil, err
	}
	return feed.Merge(result.Records, feed.SortPublished, feed.SortDesc, feed.Filters{}, pageSize, "")
}
