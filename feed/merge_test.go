package feed

import (
	"errors"
	"testing"
	"time"

	"ytfeed/youtube"
)

func testRecords() []youtube.VideoRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []youtube.VideoRecord{
		{ID: "v1", ChannelID: "UCa", Title: "Alpha build log", Published: base.AddDate(0, 0, 3), Duration: 2 * time.Minute, ViewCount: 100},
		{ID: "v2", ChannelID: "UCb", Title: "Beta review", Published: base.AddDate(0, 0, 1), Duration: 10 * time.Minute, ViewCount: 5000},
		{ID: "v3", ChannelID: "UCa", Title: "Gamma deep dive", Published: base.AddDate(0, 0, 2), Duration: 45 * time.Minute, ViewCount: 300},
		{ID: "v4", ChannelID: "UCc", Title: "delta shorts", Published: base.AddDate(0, 0, 4), Duration: 30 * time.Second, ViewCount: 9000},
	}
}

func pageIDs(page *FeedPage) []string {
	ids := make([]string, len(page.Items))
	for i, rec := range page.Items {
		ids[i] = rec.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeDedupeFirstOccurrenceWins(t *testing.T) {
	records := []youtube.VideoRecord{
		{ID: "v1", Title: "from api", ViewCount: 100},
		{ID: "v1", Title: "from rss"},
		{ID: "v2", Title: "unique"},
	}

	page, err := Merge(records, SortRelevance, "", Filters{}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if page.TotalSeen != 2 {
		t.Fatalf("TotalSeen = %d, want 2", page.TotalSeen)
	}
	if page.Items[0].Title != "from api" {
		t.Errorf("duplicate resolved to %q, want first occurrence", page.Items[0].Title)
	}
}

func TestMergeSortPublishedDesc(t *testing.T) {
	page, err := Merge(testRecords(), SortPublished, SortDesc, Filters{}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := pageIDs(page); !equalIDs(got, []string{"v4", "v1", "v3", "v2"}) {
		t.Errorf("order = %v, want newest first", got)
	}
}

func TestMergeSortViewsAsc(t *testing.T) {
	page, err := Merge(testRecords(), SortViews, SortAsc, Filters{}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := pageIDs(page); !equalIDs(got, []string{"v1", "v3", "v2", "v4"}) {
		t.Errorf("order = %v, want fewest views first", got)
	}
}

func TestMergeSortTieBreaksByID(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []youtube.VideoRecord{
		{ID: "vb", Published: ts},
		{ID: "va", Published: ts},
		{ID: "vc", Published: ts},
	}

	page, err := Merge(records, SortPublished, SortDesc, Filters{}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := pageIDs(page); !equalIDs(got, []string{"va", "vb", "vc"}) {
		t.Errorf("order = %v, want id ascending on equal publish time", got)
	}
}

func TestMergeRelevanceKeepsArrivalOrder(t *testing.T) {
	page, err := Merge(testRecords(), SortRelevance, SortDesc, Filters{}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := pageIDs(page); !equalIDs(got, []string{"v1", "v2", "v3", "v4"}) {
		t.Errorf("order = %v, want arrival order", got)
	}
}

func TestMergeFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"by channel", Filters{Channels: []string{"UCa"}}, []string{"v1", "v3"}},
		{"short duration", Filters{Duration: DurationShort}, []string{"v1", "v4"}},
		{"medium duration", Filters{Duration: DurationMedium}, []string{"v2"}},
		{"long duration", Filters{Duration: DurationLong}, []string{"v3"}},
		{"title case-insensitive", Filters{TitleQuery: "DELTA"}, []string{"v4"}},
		{"date range", Filters{
			From: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		}, []string{"v2", "v3"}},
		{"combined", Filters{Channels: []string{"UCa"}, Duration: DurationShort}, []string{"v1"}},
		{"nothing matches", Filters{TitleQuery: "zeta"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Merge(testRecords(), SortRelevance, "", tt.filters, 10, "")
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if got := pageIDs(page); !equalIDs(got, tt.want) {
				t.Errorf("filtered ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeZeroDurationOnlyMatchesAny(t *testing.T) {
	// RSS records carry no duration; they must not be classified short
	records := []youtube.VideoRecord{{ID: "v1", Duration: 0}}

	page, err := Merge(records, SortRelevance, "", Filters{Duration: DurationShort}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if page.TotalSeen != 0 {
		t.Errorf("TotalSeen = %d, want 0 for unknown duration", page.TotalSeen)
	}
}

func TestMergePagination(t *testing.T) {
	records := testRecords()

	first, err := Merge(records, SortPublished, SortDesc, Filters{}, 3, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(first.Items) != 3 || !first.HasMore || first.NextCursor == "" {
		t.Fatalf("first page = %d items, HasMore=%v", len(first.Items), first.HasMore)
	}

	second, err := Merge(records, SortPublished, SortDesc, Filters{}, 3, first.NextCursor)
	if err != nil {
		t.Fatalf("Merge() second page error = %v", err)
	}
	if len(second.Items) != 1 || second.HasMore || second.NextCursor != "" {
		t.Errorf("second page = %d items, HasMore=%v, cursor=%q; want final page",
			len(second.Items), second.HasMore, second.NextCursor)
	}

	// No overlap between pages
	if second.Items[0].ID != "v2" {
		t.Errorf("second page starts at %q, want v2", second.Items[0].ID)
	}
}

func TestMergeCursorPastEnd(t *testing.T) {
	page, err := Merge(testRecords(), SortPublished, SortDesc, Filters{}, 3, encodeCursor(100))
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("past-end cursor should yield an empty final page, got %+v", page)
	}
}

func TestMergeBadCursor(t *testing.T) {
	for _, cursor := range []string{"not-base64!!!", "aGVsbG8=", encodeCursor(0)[:3]} {
		if _, err := Merge(testRecords(), SortPublished, SortDesc, Filters{}, 3, cursor); !errors.Is(err, ErrBadCursor) {
			t.Errorf("Merge(cursor=%q) error = %v, want ErrBadCursor", cursor, err)
		}
	}
}

func TestMergeEmptyInput(t *testing.T) {
	page, err := Merge(nil, SortPublished, SortDesc, Filters{}, 10, "")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if page.TotalSeen != 0 || page.HasMore || len(page.Items) != 0 {
		t.Errorf("empty input should yield empty page, got %+v", page)
	}
}
