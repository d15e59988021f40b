package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/oauth2"
	youtubeapi "google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtubev3 "google.golang.org/api/youtube/v3"

	"ytfeed/quota"
	"ytfeed/retry"
)

// Per-call quota costs. Every list method costs 1 unit regardless of
// page size; search is two orders of magnitude more expensive, which is
// why custom-name resolution is the last thing tried on the API path.
const (
	costList   = 1
	costSearch = 100
)

// maxIDsPerCall is the platform cap on ids per channels.list or
// videos.list call.
const maxIDsPerCall = 50

// APIClient resolves channels and lists uploads through the YouTube Data
// API, metering every call against a shared quota tracker. All methods
// fail fast with ErrQuotaExhausted once the daily ceiling is reached.
type APIClient struct {
	service *youtubev3.Service
	tracker *quota.Tracker
	retry   retry.Config
}

// NewAPIClient creates an API client authenticated with the given token
// source. tracker may be nil, in which case calls are not metered.
func NewAPIClient(ctx context.Context, ts oauth2.TokenSource, tracker *quota.Tracker, opts ...option.ClientOption) (*APIClient, error) {
	if ts == nil {
		return nil, fmt.Errorf("youtube: %w: no token source", ErrAuthRequired)
	}

	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	service, err := youtubev3.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("youtube: create api service: %w", err)
	}

	return &APIClient{
		service: service,
		tracker: tracker,
		retry:   retry.DefaultConfig(),
	}, nil
}

// NewAPIClientWithService wraps an existing service, for tests that
// point the client at a local server.
func NewAPIClientWithService(service *youtubev3.Service, tracker *quota.Tracker) *APIClient {
	return &APIClient{
		service: service,
		tracker: tracker,
		retry:   retry.DefaultConfig(),
	}
}

// SetRetryConfig overrides the retry policy for API calls.
func (c *APIClient) SetRetryConfig(cfg retry.Config) {
	c.retry = cfg
}

// checkQuota gates an API call. The daily boundary is re-checked first
// so a long-lived exhausted client recovers without a restart.
func (c *APIClient) checkQuota() error {
	if c.tracker == nil {
		return nil
	}
	c.tracker.CheckDailyReset()
	if c.tracker.IsExhausted() {
		return ErrQuotaExhausted
	}
	return nil
}

// recordUsage charges a completed call against the tracker.
func (c *APIClient) recordUsage(cost int) {
	if c.tracker != nil {
		c.tracker.RecordUsage(cost)
	}
}

// call runs fn with quota gating, retry, and API error classification.
func (c *APIClient) call(ctx context.Context, cost int, fn func() error) error {
	if err := c.checkQuota(); err != nil {
		return err
	}

	err := retry.Do(ctx, c.retry, apiErrorClassifier, func(context.Context) error {
		return classifyAPIError(fn())
	})
	if err != nil {
		var retryErr *retry.RetryableError
		if errors.As(err, &retryErr) {
			err = retryErr.Err
		}
		return err
	}

	c.recordUsage(cost)
	return nil
}

// classifyAPIError maps googleapi errors onto the package sentinels so
// callers can branch with errors.Is without knowing the transport.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *youtubeapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case 401:
		return fmt.Errorf("%w: %s", ErrAuthRequired, apiErr.Message)
	case 403:
		for _, item := range apiErr.Errors {
			switch item.Reason {
			case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
				return fmt.Errorf("%w: %s", ErrQuotaExhausted, apiErr.Message)
			case "authError", "forbidden":
				return fmt.Errorf("%w: %s", ErrAuthRequired, apiErr.Message)
			}
		}
		return fmt.Errorf("%w: %s", ErrAuthRequired, apiErr.Message)
	case 404:
		return fmt.Errorf("%w: %s", ErrChannelNotFound, apiErr.Message)
	case 429:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	}
	return err
}

// apiErrorClassifier retries transient server errors only; auth, quota,
// and not-found outcomes are final.
func apiErrorClassifier(err error) bool {
	if errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrChannelNotFound) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *youtubeapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return retry.IsRetryable(err)
}

// ResolveIdentifier resolves a parsed identifier to a canonical channel.
// Channel ids and handles cost 1 unit; custom names require a search
// call at 100 units.
func (c *APIClient) ResolveIdentifier(ctx context.Context, id ChannelIdentifier) (*ChannelResolution, error) {
	switch id.Kind {
	case KindChannelID:
		return c.resolveByID(ctx, id.Value)
	case KindHandle:
		return c.resolveByHandle(ctx, id.Value)
	case KindCustomURL:
		return c.resolveBySearch(ctx, id.Value)
	default:
		return nil, &ResolveError{Source: "api", Query: id.Raw, Err: ErrInvalidInput}
	}
}

func (c *APIClient) resolveByID(ctx context.Context, channelID string) (*ChannelResolution, error) {
	var resp *youtubev3.ChannelListResponse
	err := c.call(ctx, costList, func() error {
		var err error
		resp, err = c.service.Channels.List([]string{"snippet"}).
			Id(channelID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &ResolveError{Source: "api", Query: channelID, Err: err}
	}
	if len(resp.Items) == 0 {
		return nil, &ResolveError{Source: "api", Query: channelID, Err: ErrChannelNotFound}
	}
	return channelToResolution(resp.Items[0]), nil
}

func (c *APIClient) resolveByHandle(ctx context.Context, handle string) (*ChannelResolution, error) {
	var resp *youtubev3.ChannelListResponse
	err := c.call(ctx, costList, func() error {
		var err error
		resp, err = c.service.Channels.List([]string{"snippet"}).
			ForHandle("@" + handle).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &ResolveError{Source: "api", Query: "@" + handle, Err: err}
	}
	if len(resp.Items) == 0 {
		return nil, &ResolveError{Source: "api", Query: "@" + handle, Err: ErrChannelNotFound}
	}
	return channelToResolution(resp.Items[0]), nil
}

func (c *APIClient) resolveBySearch(ctx context.Context, name string) (*ChannelResolution, error) {
	var resp *youtubev3.SearchListResponse
	err := c.call(ctx, costSearch, func() error {
		var err error
		resp, err = c.service.Search.List([]string{"snippet"}).
			Q(name).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &ResolveError{Source: "api", Query: name, Err: err}
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
		return nil, &ResolveError{Source: "api", Query: name, Err: ErrChannelNotFound}
	}

	item := resp.Items[0]
	res := &ChannelResolution{
		ChannelID: item.Id.ChannelId,
		Source:    "api",
	}
	if item.Snippet != nil {
		res.Title = item.Snippet.Title
		res.Thumbnail = thumbnailURL(item.Snippet.Thumbnails)
	}
	return res, nil
}

func channelToResolution(ch *youtubev3.Channel) *ChannelResolution {
	res := &ChannelResolution{
		ChannelID: ch.Id,
		Source:    "api",
	}
	if ch.Snippet != nil {
		res.Title = ch.Snippet.Title
		res.Thumbnail = thumbnailURL(ch.Snippet.Thumbnails)
	}
	return res
}

func thumbnailURL(t *youtubev3.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.Medium != nil:
		return t.Medium.Url
	case t.Default != nil:
		return t.Default.Url
	case t.High != nil:
		return t.High.Url
	}
	return ""
}

// ListSubscriptions returns all channels the authenticated account is
// subscribed to, walking every page. Costs 1 unit per page of 50.
func (c *APIClient) ListSubscriptions(ctx context.Context) ([]ChannelResolution, error) {
	var (
		channels  []ChannelResolution
		pageToken string
	)

	for {
		var resp *youtubev3.SubscriptionListResponse
		err := c.call(ctx, costList, func() error {
			var err error
			resp, err = c.service.Subscriptions.List([]string{"snippet"}).
				Mine(true).
				MaxResults(maxIDsPerCall).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return channels, &ResolveError{Source: "api", Query: "subscriptions", Err: err}
		}

		for _, sub := range resp.Items {
			if sub.Snippet == nil || sub.Snippet.ResourceId == nil {
				continue
			}
			channels = append(channels, ChannelResolution{
				ChannelID: sub.Snippet.ResourceId.ChannelId,
				Title:     sub.Snippet.Title,
				Thumbnail: thumbnailURL(sub.Snippet.Thumbnails),
				Source:    "api",
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return channels, nil
		}
	}
}

// UploadsPlaylists maps channel ids to their uploads playlists, batching
// ids 50 per call. Channels the API does not return are absent from the
// result, not an error.
func (c *APIClient) UploadsPlaylists(ctx context.Context, channelIDs []string) ([]UploadsPlaylistRef, error) {
	var refs []UploadsPlaylistRef

	for _, chunk := range chunkIDs(channelIDs, maxIDsPerCall) {
		var resp *youtubev3.ChannelListResponse
		err := c.call(ctx, costList, func() error {
			var err error
			resp, err = c.service.Channels.List([]string{"contentDetails"}).
				Id(chunk...).
				MaxResults(int64(len(chunk))).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return refs, &ResolveError{Source: "api", Query: strings.Join(chunk, ","), Err: err}
		}

		for _, ch := range resp.Items {
			if ch.ContentDetails == nil || ch.ContentDetails.RelatedPlaylists == nil {
				continue
			}
			uploads := ch.ContentDetails.RelatedPlaylists.Uploads
			if uploads == "" {
				continue
			}
			refs = append(refs, UploadsPlaylistRef{ChannelID: ch.Id, PlaylistID: uploads})
		}
	}

	return refs, nil
}

// PlaylistUploads lists up to limit items of an uploads playlist, newest
// first as the playlist orders them. Records carry no duration or view
// count; enrich them with VideoDetails.
func (c *APIClient) PlaylistUploads(ctx context.Context, ref UploadsPlaylistRef, limit int) ([]VideoRecord, error) {
	if limit <= 0 || limit > maxIDsPerCall {
		limit = maxIDsPerCall
	}

	var resp *youtubev3.PlaylistItemListResponse
	err := c.call(ctx, costList, func() error {
		var err error
		resp, err = c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(ref.PlaylistID).
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &ResolveError{Source: "api", Query: ref.PlaylistID, Err: err}
	}

	records := make([]VideoRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}

		rec := VideoRecord{
			ID:        item.ContentDetails.VideoId,
			ChannelID: ref.ChannelID,
		}
		if item.Snippet != nil {
			rec.Title = item.Snippet.Title
			rec.ChannelTitle = item.Snippet.ChannelTitle
			rec.Description = item.Snippet.Description
			rec.Thumbnail = thumbnailURL(item.Snippet.Thumbnails)
		}

		published := item.ContentDetails.VideoPublishedAt
		if published == "" && item.Snippet != nil {
			published = item.Snippet.PublishedAt
		}
		if ts, err := time.Parse(time.RFC3339, published); err == nil {
			rec.Published = ts
		}

		records = append(records, rec)
	}

	return records, nil
}

// VideoDetails fetches duration and view counts for the given video ids,
// batching 50 per call. The result maps video id to its detail record;
// ids the API omits are simply absent.
func (c *APIClient) VideoDetails(ctx context.Context, videoIDs []string) (map[string]VideoRecord, error) {
	details := make(map[string]VideoRecord, len(videoIDs))

	for _, chunk := range chunkIDs(videoIDs, maxIDsPerCall) {
		var resp *youtubev3.VideoListResponse
		err := c.call(ctx, costList, func() error {
			var err error
			resp, err = c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
				Id(chunk...).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return details, &ResolveError{Source: "api", Query: strings.Join(chunk, ","), Err: err}
		}

		for _, v := range resp.Items {
			rec := VideoRecord{ID: v.Id}
			if v.Snippet != nil {
				rec.ChannelID = v.Snippet.ChannelId
				rec.ChannelTitle = v.Snippet.ChannelTitle
				rec.Title = v.Snippet.Title
				rec.Description = v.Snippet.Description
				rec.Thumbnail = thumbnailURL(v.Snippet.Thumbnails)
				if ts, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
					rec.Published = ts
				}
			}
			if v.ContentDetails != nil {
				rec.Duration = parseISODuration(v.ContentDetails.Duration)
			}
			if v.Statistics != nil {
				rec.ViewCount = int64(v.Statistics.ViewCount)
			}
			details[v.Id] = rec
		}
	}

	return details, nil
}

// RecentUploads implements UploadsSource over the API path: uploads
// playlist lookup, playlist listing, then detail enrichment. A detail
// failure degrades to playlist-level metadata rather than failing the
// channel.
func (c *APIClient) RecentUploads(ctx context.Context, channelID string, limit int) ([]VideoRecord, error) {
	refs, err := c.UploadsPlaylists(ctx, []string{channelID})
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, &ResolveError{Source: "api", Query: channelID, Err: ErrChannelNotFound}
	}

	records, err := c.PlaylistUploads(ctx, refs[0], limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}

	details, err := c.VideoDetails(ctx, ids)
	if err != nil {
		log.Printf("youtube: detail enrichment for %s failed, keeping playlist metadata: %v", channelID, err)
		return records, nil
	}

	for i := range records {
		if d, ok := details[records[i].ID]; ok {
			records[i].Duration = d.Duration
			records[i].ViewCount = d.ViewCount
			if records[i].Published.IsZero() {
				records[i].Published = d.Published
			}
		}
	}

	return records, nil
}

// chunkIDs splits ids into batches of at most size.
func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// parseISODuration converts an ISO 8601 duration (PT1H2M3S) to a
// time.Duration. Malformed input yields zero.
func parseISODuration(s string) time.Duration {
	if !strings.HasPrefix(s, "P") {
		return 0
	}

	var (
		total  time.Duration
		num    int64
		inTime bool
	)
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int64(r-'0')
		case r == 'T':
			inTime = true
			num = 0
		case r == 'D':
			total += time.Duration(num) * 24 * time.Hour
			num = 0
		case r == 'H' && inTime:
			total += time.Duration(num) * time.Hour
			num = 0
		case r == 'M' && inTime:
			total += time.Duration(num) * time.Minute
			num = 0
		case r == 'S' && inTime:
			total += time.Duration(num) * time.Second
			num = 0
		default:
			num = 0
		}
	}
	return total
}
