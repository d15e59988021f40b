package feed

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"ytfeed/quota"
	"ytfeed/youtube"
)

// Resolver resolves a parsed identifier to a canonical channel.
// Implemented by the API client and the fallback chain.
type Resolver interface {
	Resolve(ctx context.Context, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error)

func (f ResolverFunc) Resolve(ctx context.Context, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error) {
	return f(ctx, id)
}

// SubscriptionLister lists the channels the authenticated account is
// subscribed to. Implemented by the API client; there is no fallback
// equivalent since public mirrors cannot see a user's subscriptions.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context) ([]youtube.ChannelResolution, error)
}

// Aggregator ties the resolution and fetch paths together: the primary
// resolver when quota allows, the fallback chain otherwise, and one
// uploads source feeding the merger.
type Aggregator struct {
	primary  Resolver // nil when no API credential is configured
	fallback Resolver
	fetcher  *Fetcher
	tracker  *quota.Tracker
	subs     SubscriptionLister // nil when no API credential is configured
}

// NewAggregator builds an aggregator. primary may be nil; fallback and
// fetcher must not be.
func NewAggregator(primary, fallback Resolver, fetcher *Fetcher, tracker *quota.Tracker) *Aggregator {
	return &Aggregator{
		primary:  primary,
		fallback: fallback,
		fetcher:  fetcher,
		tracker:  tracker,
	}
}

// SetSubscriptionLister enables subscription-driven feeds. A nil lister
// leaves SubscribedChannels unavailable.
func (a *Aggregator) SetSubscriptionLister(l SubscriptionLister) {
	a.subs = l
}

// SubscribedChannels returns the canonical ids of every channel the
// authenticated account follows, for feeding straight into BuildFeed.
// Requires an API credential: without one the call fails with
// ErrAuthRequired, and under quota exhaustion with ErrQuotaExhausted,
// since no mirror can list a private subscription set.
func (a *Aggregator) SubscribedChannels(ctx context.Context) ([]string, error) {
	if a.subs == nil {
		return nil, &youtube.ResolveError{Source: "aggregator", Query: "subscriptions", Err: youtube.ErrAuthRequired}
	}
	if a.quotaExhausted() {
		return nil, &youtube.ResolveError{Source: "aggregator", Query: "subscriptions", Err: youtube.ErrQuotaExhausted}
	}

	channels, err := a.subs.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ChannelID)
	}
	return ids, nil
}

// ResolveInput parses a raw channel reference and resolves it. The
// primary path is used when configured and under quota; quota
// exhaustion and transient primary failures degrade to the fallback
// chain. Invalid input and authentication failures surface immediately
// since no amount of falling back can fix them.
func (a *Aggregator) ResolveInput(ctx context.Context, input string) (*youtube.ChannelResolution, error) {
	id := youtube.Parse(input)
	if id.Kind == youtube.KindInvalid {
		return nil, &youtube.ResolveError{Source: "aggregator", Query: input, Err: youtube.ErrInvalidInput}
	}

	if a.primary == nil || a.quotaExhausted() {
		return a.fallback.Resolve(ctx, id)
	}

	res, err := a.primary.Resolve(ctx, id)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, youtube.ErrAuthRequired) || errors.Is(err, youtube.ErrInvalidInput) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, err
	}

	log.Printf("feed: primary resolution of %q failed, trying fallback: %v", id.DisplayText(), err)
	return a.fallback.Resolve(ctx, id)
}

func (a *Aggregator) quotaExhausted() bool {
	if a.tracker == nil {
		return false
	}
	a.tracker.CheckDailyReset()
	return a.tracker.IsExhausted()
}

// FeedRequest describes one feed build.
type FeedRequest struct {
	// ChannelIDs are the canonical channels to aggregate.
	ChannelIDs []string
	// Sort and Dir order the merged feed. Zero values mean
	// published descending.
	Sort SortKey
	Dir  SortDir
	// Filters narrow the feed; the zero value keeps everything.
	Filters Filters
	// PageSize caps the returned page; 0 uses DefaultPageSize.
	PageSize int
	// Cursor resumes a previous page walk; empty starts over.
	Cursor string
}

// FeedResult is one built feed page plus pass diagnostics.
type FeedResult struct {
	// Page is the merged page.
	Page *FeedPage
	// PassID identifies this aggregation pass in logs.
	PassID string
	// Failed maps channel ids that could not be fetched to their
	// errors. A non-empty map is advisory: the page is still valid
	// for the channels that succeeded.
	Failed map[string]error
}

// BuildFeed fetches uploads for the requested channels and merges them
// into one page. Per-channel failures are reported in the result, not
// as an error; the pass fails only on cancellation or a bad cursor.
func (a *Aggregator) BuildFeed(ctx context.Context, req FeedRequest) (*FeedResult, error) {
	passID := uuid.NewString()

	sortKey := req.Sort
	if sortKey == "" {
		sortKey = SortPublished
	}
	dir := req.Dir
	if dir == "" && sortKey == SortPublished {
		dir = SortDesc
	}

	fetched, err := a.fetcher.FetchUploads(ctx, req.ChannelIDs)
	if err != nil {
		return nil, err
	}
	if len(fetched.Failed) > 0 {
		log.Printf("feed: pass %s: %d of %d channels failed", passID, len(fetched.Failed), len(req.ChannelIDs))
	}

	page, err := Merge(fetched.Records, sortKey, dir, req.Filters, req.PageSize, req.Cursor)
	if err != nil {
		return nil, err
	}

	return &FeedResult{
		Page:   page,
		PassID: passID,
		Failed: fetched.Failed,
	}, nil
}
