// Package feed fetches uploads across many channels and merges them
// into a single sorted, filtered, paginated feed.
package feed

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"ytfeed/youtube"
)

const (
	// DefaultConcurrency is how many channels are fetched at once.
	DefaultConcurrency = 5
	// DefaultPerChannelLimit is how many uploads to pull per channel.
	DefaultPerChannelLimit = 25
)

// Fetcher pulls recent uploads for a set of channels through one
// uploads source, a bounded group at a time. A channel failing never
// fails the pass; its error is reported alongside the records that
// were fetched.
type Fetcher struct {
	source      youtube.UploadsSource
	concurrency int
	perChannel  int
}

// NewFetcher creates a fetcher over the given uploads source.
// Non-positive limits fall back to the defaults.
func NewFetcher(source youtube.UploadsSource, concurrency, perChannel int) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if perChannel <= 0 {
		perChannel = DefaultPerChannelLimit
	}
	return &Fetcher{source: source, concurrency: concurrency, perChannel: perChannel}
}

// FetchResult is the outcome of one fetch pass. Failed maps channel id
// to the error that sank it; successful channels' records are in
// Records regardless of other channels' failures.
type FetchResult struct {
	Records []youtube.VideoRecord
	Failed  map[string]error
}

// FetchUploads fetches uploads for all channels, processing them in
// groups of the configured concurrency. Groups run sequentially;
// channels within a group run concurrently. Only context cancellation
// aborts the pass early.
func (f *Fetcher) FetchUploads(ctx context.Context, channelIDs []string) (*FetchResult, error) {
	result := &FetchResult{Failed: make(map[string]error)}
	var mu sync.Mutex

	for start := 0; start < len(channelIDs); start += f.concurrency {
		end := start + f.concurrency
		if end > len(channelIDs) {
			end = len(channelIDs)
		}

		g, groupCtx := errgroup.WithContext(ctx)
		for _, channelID := range channelIDs[start:end] {
			channelID := channelID
			g.Go(func() error {
				records, err := f.source.RecentUploads(groupCtx, channelID, f.perChannel)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if groupCtx.Err() != nil {
						return groupCtx.Err()
					}
					log.Printf("feed: channel %s failed: %v", channelID, err)
					result.Failed[channelID] = err
					return nil
				}
				result.Records = append(result.Records, records...)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return result, err
		}
	}

	return result, nil
}
