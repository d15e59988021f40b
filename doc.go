// Package ytfeed aggregates YouTube subscription feeds.
//
// It resolves free-form channel references to canonical channel ids,
// fetches recent uploads across many channels with bounded concurrency,
// and merges them into one sorted, filtered, paginated feed.
//
// Overview
//
// ytfeed is organized around three paths:
//
//   - Primary: the YouTube Data API, metered against the daily quota ceiling
//   - Fallback: public mirrors and relays used when the API is exhausted or unconfigured
//   - RSS: the zero-quota Atom feeds, used for fetching uploads without credentials
//
// The root package provides convenience functions for the common
// credential-free operations:
//
//   - ResolveChannel: Resolve a channel reference via public mirrors
//   - FetchFeed: Build a merged feed over RSS
//
// Quick Start
//
// Resolve a channel and build a feed:
//
//	ctx := context.Background()
//
//	chain := fallback.NewChain(nil)
//	fetcher := feed.NewFetcher(youtube.NewRSSLister(), 5, 25)
//	agg := feed.NewAggregator(nil, chain, fetcher, nil)
//
//	res, err := agg.ResolveInput(ctx, "@somechannel")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := agg.BuildFeed(ctx, feed.FeedRequest{
//		ChannelIDs: []string{res.ChannelID},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, v := range result.Page.Items {
//		fmt.Println(v.Title)
//	}
//
// With an API credential, construct the primary path and share one
// quota tracker across the process:
//
//	store, _ := storage.NewKVStore(cfg.StorePath)
//	tracker, _ := quota.New(store, cfg.QuotaCeiling, cfg.QuotaTimezone)
//	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
//	api, _ := youtube.NewAPIClient(ctx, ts, tracker)
//	agg := feed.NewAggregator(feed.ResolverFunc(api.ResolveIdentifier), chain,
//		feed.NewFetcher(api, 5, 25), tracker)
//
// Configuration
//
// ytfeed loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytfeed.json or ~/.config/ytfeed/ytfeed.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTFEED_API_TOKEN: OAuth bearer token for the Data API
//   - YTFEED_QUOTA_CEILING: Daily API quota ceiling
//   - YTFEED_QUOTA_TIMEZONE: Timezone for the daily quota reset
//   - YTFEED_CONCURRENCY_CAP: Channels fetched concurrently
//   - YTFEED_PER_CHANNEL_LIMIT: Uploads pulled per channel
//   - YTFEED_PAGE_SIZE: Feed page size
//   - YTFEED_STORE_PATH: Path of the persistent store
//   - YTFEED_MAX_RETRIES: Maximum retry attempts
//   - YTFEED_INITIAL_BACKOFF: Initial retry backoff duration
//   - YTFEED_MAX_BACKOFF: Maximum retry backoff duration
//
// Error Handling
//
// All operations return errors that implement standard Go error handling.
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytfeed.ErrChannelNotFound) {
//		fmt.Println("Channel not found")
//	}
//
// Extracting wrapped error details:
//
//	var resolveErr *ytfeed.ResolveError
//	if errors.As(err, &resolveErr) {
//		fmt.Printf("%s failed for %s: %v\n", resolveErr.Source, resolveErr.Query, resolveErr.Err)
//	}
//
// Sub-packages
//
// For more control, use the sub-packages directly:
//
//   - youtube: Identifier parsing, the API client, and the RSS lister
//   - fallback: Mirror and relay resolution chain
//   - feed: Bounded-concurrency fetching, merging, and pagination
//   - quota: Daily API quota tracking
//   - config: Configuration management
//   - storage: Persistent key-value storage
//   - retry: Exponential backoff retry logic
package ytfeed
