package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ytfeed/youtube"
)

// fakeSource serves canned records per channel and tracks concurrency.
type fakeSource struct {
	mu      sync.Mutex
	records map[string][]youtube.VideoRecord
	errs    map[string]error
	delay   time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (s *fakeSource) RecentUploads(ctx context.Context, channelID string, limit int) ([]youtube.VideoRecord, error) {
	s.calls.Add(1)
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxInFlight.Load()
		if cur <= prev || s.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[channelID]; ok {
		return nil, err
	}
	return s.records[channelID], nil
}

func record(id, channelID string) youtube.VideoRecord {
	return youtube.VideoRecord{ID: id, ChannelID: channelID, Title: "video " + id}
}

func TestFetchUploadsCollectsAllChannels(t *testing.T) {
	source := &fakeSource{
		records: map[string][]youtube.VideoRecord{
			"UCa": {record("v1", "UCa"), record("v2", "UCa")},
			"UCb": {record("v3", "UCb")},
			"UCc": {record("v4", "UCc")},
		},
	}
	fetcher := NewFetcher(source, 2, 25)

	result, err := fetcher.FetchUploads(context.Background(), []string{"UCa", "UCb", "UCc"})
	if err != nil {
		t.Fatalf("FetchUploads() error = %v", err)
	}
	if len(result.Records) != 4 {
		t.Errorf("got %d records, want 4", len(result.Records))
	}
	if len(result.Failed) != 0 {
		t.Errorf("Failed = %v, want empty", result.Failed)
	}
}

func TestFetchUploadsPartialFailure(t *testing.T) {
	sinkErr := errors.New("channel gone")
	source := &fakeSource{
		records: map[string][]youtube.VideoRecord{
			"UCa": {record("v1", "UCa")},
			"UCc": {record("v2", "UCc")},
		},
		errs: map[string]error{"UCb": sinkErr},
	}
	fetcher := NewFetcher(source, 5, 25)

	result, err := fetcher.FetchUploads(context.Background(), []string{"UCa", "UCb", "UCc"})
	if err != nil {
		t.Fatalf("FetchUploads() error = %v", err)
	}

	// One failed channel must not cost the others their records
	if len(result.Records) != 2 {
		t.Errorf("got %d records, want 2", len(result.Records))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("Failed = %v, want exactly UCb", result.Failed)
	}
	if !errors.Is(result.Failed["UCb"], sinkErr) {
		t.Errorf("Failed[UCb] = %v, want the source error", result.Failed["UCb"])
	}
}

func TestFetchUploadsBoundsConcurrency(t *testing.T) {
	source := &fakeSource{
		records: map[string][]youtube.VideoRecord{},
		delay:   20 * time.Millisecond,
	}

	var channels []string
	for i := 0; i < 12; i++ {
		channels = append(channels, fmt.Sprintf("UC%d", i))
	}

	fetcher := NewFetcher(source, 5, 25)
	if _, err := fetcher.FetchUploads(context.Background(), channels); err != nil {
		t.Fatalf("FetchUploads() error = %v", err)
	}

	if got := source.maxInFlight.Load(); got > 5 {
		t.Errorf("max in-flight = %d, want <= 5", got)
	}
	if got := source.calls.Load(); got != 12 {
		t.Errorf("calls = %d, want 12", got)
	}
}

func TestFetchUploadsEmptyInput(t *testing.T) {
	fetcher := NewFetcher(&fakeSource{}, 5, 25)

	result, err := fetcher.FetchUploads(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchUploads() error = %v", err)
	}
	if len(result.Records) != 0 || len(result.Failed) != 0 {
		t.Errorf("empty input should produce empty result, got %+v", result)
	}
}

func TestFetchUploadsContextCancellation(t *testing.T) {
	source := &fakeSource{delay: time.Second}
	fetcher := NewFetcher(source, 2, 25)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := fetcher.FetchUploads(ctx, []string{"UCa", "UCb", "UCc", "UCd"})
	if err == nil {
		t.Error("FetchUploads() with canceled context should fail")
	}
}
