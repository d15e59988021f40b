package feed

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ytfeed/youtube"
)

// ErrBadCursor is returned when a pagination cursor cannot be decoded.
// Cursors are opaque; callers must pass them back unmodified.
var ErrBadCursor = errors.New("feed: malformed pagination cursor")

// DefaultPageSize is the page size used when the caller passes 0.
const DefaultPageSize = 20

// SortKey selects the ordering of a merged feed.
type SortKey string

const (
	// SortPublished orders by publish time.
	SortPublished SortKey = "published"
	// SortViews orders by view count.
	SortViews SortKey = "views"
	// SortTitle orders lexicographically by title.
	SortTitle SortKey = "title"
	// SortRelevance keeps the order records arrived in.
	SortRelevance SortKey = "relevance"
)

// SortDir is the sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// DurationBucket classifies videos by length.
type DurationBucket string

const (
	// DurationAny disables duration filtering.
	DurationAny DurationBucket = ""
	// DurationShort is under 4 minutes.
	DurationShort DurationBucket = "short"
	// DurationMedium is 4 to 20 minutes inclusive.
	DurationMedium DurationBucket = "medium"
	// DurationLong is over 20 minutes.
	DurationLong DurationBucket = "long"
)

// matches reports whether d falls in the bucket. Records with no
// duration data (RSS path) only match DurationAny.
func (b DurationBucket) matches(d time.Duration) bool {
	switch b {
	case DurationAny:
		return true
	case DurationShort:
		return d > 0 && d < 4*time.Minute
	case DurationMedium:
		return d >= 4*time.Minute && d <= 20*time.Minute
	case DurationLong:
		return d > 20*time.Minute
	default:
		return true
	}
}

// Filters narrow a merged feed. Zero-valued fields are inactive; active
// filters are ANDed together.
type Filters struct {
	// Channels restricts the feed to these channel ids.
	Channels []string
	// Duration keeps only videos in the bucket.
	Duration DurationBucket
	// TitleQuery keeps videos whose title contains the query,
	// case-insensitively.
	TitleQuery string
	// From and To bound the publish time, inclusive on both ends.
	From time.Time
	To   time.Time
}

func (f Filters) match(rec youtube.VideoRecord) bool {
	if len(f.Channels) > 0 {
		found := false
		for _, id := range f.Channels {
			if rec.ChannelID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Duration.matches(rec.Duration) {
		return false
	}
	if f.TitleQuery != "" && !strings.Contains(strings.ToLower(rec.Title), strings.ToLower(f.TitleQuery)) {
		return false
	}
	if !f.From.IsZero() && rec.Published.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && rec.Published.After(f.To) {
		return false
	}
	return true
}

// FeedPage is one page of a merged feed.
type FeedPage struct {
	// Items is the page's records, at most the requested page size.
	Items []youtube.VideoRecord
	// TotalSeen is how many records survived dedupe and filtering
	// across the whole feed, not just this page.
	TotalSeen int
	// HasMore reports whether further pages exist.
	HasMore bool
	// NextCursor fetches the next page when HasMore; empty otherwise.
	NextCursor string
}

// Merge deduplicates, filters, sorts, and paginates records into a
// single feed page. Records are deduplicated by video id with the
// first occurrence winning, so source order decides which duplicate
// survives. An empty cursor starts at the first page.
func Merge(records []youtube.VideoRecord, key SortKey, dir SortDir, filters Filters, pageSize int, cursor string) (*FeedPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	offset, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	merged := dedupe(records)

	filtered := merged[:0:0]
	for _, rec := range merged {
		if filters.match(rec) {
			filtered = append(filtered, rec)
		}
	}

	sortRecords(filtered, key, dir)

	page := &FeedPage{TotalSeen: len(filtered)}
	if offset >= len(filtered) {
		return page, nil
	}

	end := offset + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	page.Items = filtered[offset:end]
	page.HasMore = end < len(filtered)
	if page.HasMore {
		page.NextCursor = encodeCursor(end)
	}
	return page, nil
}

// dedupe removes duplicate video ids, keeping the first occurrence.
func dedupe(records []youtube.VideoRecord) []youtube.VideoRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]youtube.VideoRecord, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// sortRecords orders records by key and direction, breaking ties by
// video id ascending so pagination is stable across calls.
func sortRecords(records []youtube.VideoRecord, key SortKey, dir SortDir) {
	if key == SortRelevance || key == "" {
		// Relevance keeps arrival order; direction does not apply.
		return
	}

	desc := dir == SortDesc
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		var less, equal bool
		switch key {
		case SortViews:
			less, equal = a.ViewCount < b.ViewCount, a.ViewCount == b.ViewCount
		case SortTitle:
			less, equal = a.Title < b.Title, a.Title == b.Title
		default:
			less, equal = a.Published.Before(b.Published), a.Published.Equal(b.Published)
		}
		if equal {
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
}

const cursorPrefix = "v1:"

// encodeCursor packs an offset into an opaque token.
func encodeCursor(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// decodeCursor unpacks a token produced by encodeCursor. An empty
// cursor means the first page.
func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}

	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	payload, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, ErrBadCursor
	}
	offset, err := strconv.Atoi(payload)
	if err != nil || offset < 0 {
		return 0, ErrBadCursor
	}
	return offset, nil
}
