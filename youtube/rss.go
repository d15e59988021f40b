package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ytfeed/retry"
)

const (
	rssFeedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	rssDefaultTimeout  = 30 * time.Second
)

// RSSLister implements UploadsSource using YouTube's public Atom feeds.
// Feeds cost no API quota but carry only the ~15 most recent videos and
// no duration field, so records from this path have zero Duration.
type RSSLister struct {
	client      *http.Client
	RetryConfig *retry.Config
}

// NewRSSLister creates an RSS-based uploads source.
func NewRSSLister() *RSSLister {
	cfg := retry.DefaultConfig()
	return &RSSLister{
		client:      &http.Client{Timeout: rssDefaultTimeout},
		RetryConfig: &cfg,
	}
}

// NewRSSListerWithClient creates an RSS lister with a custom HTTP client.
func NewRSSListerWithClient(client *http.Client) *RSSLister {
	return &RSSLister{client: client}
}

// RecentUploads fetches the channel's Atom feed and returns up to limit
// records, newest first as the feed orders them. channelID must be a
// canonical UC id; handles require resolution first.
func (r *RSSLister) RecentUploads(ctx context.Context, channelID string, limit int) ([]VideoRecord, error) {
	if !channelIDPattern.MatchString(channelID) {
		return nil, &ResolveError{Source: "rss", Query: channelID, Err: ErrInvalidInput}
	}

	cfg := r.RetryConfig
	if cfg == nil {
		defaultCfg := retry.DefaultConfig()
		cfg = &defaultCfg
	}

	var records []VideoRecord
	err := retry.Do(ctx, *cfg, rssErrorClassifier, func(ctx context.Context) error {
		feedURL := fmt.Sprintf(rssFeedURLTemplate, channelID)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return &ResolveError{Source: "rss", Query: channelID, Err: err}
		}

		resp, err := r.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &ResolveError{Source: "rss", Query: channelID, Err: ErrNetworkTimeout}
			}
			return &ResolveError{Source: "rss", Query: channelID, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return &ResolveError{Source: "rss", Query: channelID, Err: ErrChannelNotFound}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &ResolveError{Source: "rss", Query: channelID, Err: ErrRateLimited}
		}
		if resp.StatusCode != http.StatusOK {
			return &ResolveError{Source: "rss", Query: channelID,
				Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &ResolveError{Source: "rss", Query: channelID, Err: err}
		}

		feed, err := parseAtomFeed(body)
		if err != nil {
			return &ResolveError{Source: "rss", Query: channelID, Err: err}
		}

		records = feedToVideoRecords(feed, channelID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// atomFeed represents a YouTube Atom feed document.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Author  atomAuthor  `xml:"author"`
	Entries []atomEntry `xml:"entry"`
}

type atomAuthor struct {
	Name string `xml:"name"`
	URI  string `xml:"uri"`
}

type atomEntry struct {
	ID          string        `xml:"id"`
	VideoID     string        `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID   string        `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title       string        `xml:"title"`
	Published   time.Time     `xml:"published"`
	Updated     time.Time     `xml:"updated"`
	Description string        `xml:"group>description"`
	Thumbnail   atomThumbnail `xml:"group>thumbnail"`
	Community   atomCommunity `xml:"group>community"`
}

type atomThumbnail struct {
	URL    string `xml:"url,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

type atomCommunity struct {
	Views atomViews `xml:"http://search.yahoo.com/mrss/ statistics"`
}

type atomViews struct {
	Views int64 `xml:"views,attr"`
}

// parseAtomFeed parses YouTube's Atom XML feed.
func parseAtomFeed(data []byte) (*atomFeed, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}
	return &feed, nil
}

// feedToVideoRecords converts an Atom feed to VideoRecord slice.
// Duration is not present in the feed and stays zero.
func feedToVideoRecords(feed *atomFeed, channelID string) []VideoRecord {
	records := make([]VideoRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.VideoID == "" {
			continue
		}
		records = append(records, VideoRecord{
			ID:           entry.VideoID,
			ChannelID:    channelID,
			ChannelTitle: feed.Author.Name,
			Title:        entry.Title,
			Published:    entry.Published,
			Description:  entry.Description,
			Thumbnail:    entry.Thumbnail.URL,
			ViewCount:    entry.Community.Views.Views,
		})
	}
	return records
}

// rssErrorClassifier determines if an RSS fetch error is retryable.
func rssErrorClassifier(err error) bool {
	if err == nil {
		return false
	}

	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		switch {
		case errors.Is(resolveErr.Err, ErrChannelNotFound), errors.Is(resolveErr.Err, ErrInvalidInput):
			return false
		default:
			return true
		}
	}

	return true
}
