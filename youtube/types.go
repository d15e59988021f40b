// Package youtube provides channel identifier parsing and video listing
// against the YouTube Data API and its zero-quota RSS feeds.
package youtube

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for resolution and listing operations.
var (
	ErrChannelNotFound = errors.New("youtube: channel not found")
	ErrRateLimited     = errors.New("youtube: rate limited")
	ErrNetworkTimeout  = errors.New("youtube: network timeout")
	ErrInvalidInput    = errors.New("youtube: invalid channel reference")
	ErrAuthRequired    = errors.New("youtube: authentication required")
	ErrQuotaExhausted  = errors.New("youtube: api quota exhausted")
)

// ChannelResolution is the canonical result of resolving a channel
// identifier through any path. ChannelID is the only field guaranteed
// stable across calls for the same identifier.
type ChannelResolution struct {
	// ChannelID is the canonical channel id (UC...).
	ChannelID string `json:"channel_id"`

	// Title is the channel display title.
	Title string `json:"title"`

	// Thumbnail is the URL of the channel avatar, if the source provides one.
	Thumbnail string `json:"thumbnail,omitempty"`

	// Source names the path that produced this resolution ("api", a
	// fallback source name, or a source name suffixed with the relay used).
	Source string `json:"source"`
}

// UploadsPlaylistRef pairs a channel with its uploads playlist.
// Derived per channel and cached for the duration of one aggregation
// pass only; never persisted.
type UploadsPlaylistRef struct {
	ChannelID  string
	PlaylistID string
}

// VideoRecord contains metadata about a single video. Records are
// created from raw API or feed payloads and immutable thereafter.
type VideoRecord struct {
	// ID is the video id (e.g., "dQw4w9WgXcQ"), unique within a feed page.
	ID string `json:"id"`

	// ChannelID is the canonical id of the channel that uploaded the video.
	ChannelID string `json:"channel_id"`

	// ChannelTitle is the display name of the channel.
	ChannelTitle string `json:"channel_title"`

	// Title is the video title.
	Title string `json:"title"`

	// Published is when the video was published.
	Published time.Time `json:"published"`

	// Duration is the video length. Zero for sources that don't carry it (RSS).
	Duration time.Duration `json:"duration,omitempty"`

	// ViewCount is the number of views. Zero if not available.
	ViewCount int64 `json:"view_count,omitempty"`

	// Thumbnail is the URL to the video thumbnail image.
	Thumbnail string `json:"thumbnail,omitempty"`

	// Description is the video description. May be truncated by some sources.
	Description string `json:"description,omitempty"`
}

// VideoURL returns the full watch URL for this video.
func (v VideoRecord) VideoURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// ChannelURL returns the full URL for this video's channel.
func (v VideoRecord) ChannelURL() string {
	return "https://www.youtube.com/channel/" + v.ChannelID
}

// UploadsSource lists a channel's recent uploads. Implemented by the
// API client (full fidelity) and the RSS lister (no statistics).
type UploadsSource interface {
	// RecentUploads fetches up to limit recent uploads for the channel.
	// limit <= 0 means the source's natural maximum.
	RecentUploads(ctx context.Context, channelID string, limit int) ([]VideoRecord, error)
}

// ResolveError wraps resolution and listing errors with context about
// what failed. Use errors.As() to extract operation details:
//
//	var resolveErr *youtube.ResolveError
//	if errors.As(err, &resolveErr) {
//		fmt.Printf("%s failed for %s: %v\n", resolveErr.Source, resolveErr.Query, resolveErr.Err)
//	}
type ResolveError struct {
	// Source indicates which path produced the error ("api", "rss", or a fallback source name).
	Source string
	// Query is the channel reference that was being resolved or listed.
	Query string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the resolution error.
func (e *ResolveError) Error() string {
	return "youtube: " + e.Source + " resolving " + e.Query + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *ResolveError) Unwrap() error { return e.Err }
