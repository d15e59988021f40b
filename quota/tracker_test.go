package quota

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"ytfeed/storage"
)

func newTestTracker(t *testing.T, ceiling int) *Tracker {
	t.Helper()
	tr, err := New(nil, ceiling, DefaultTimezone)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestTrackerRecordUsage(t *testing.T) {
	tr := newTestTracker(t, 10000)

	tr.RecordUsage(1)
	tr.RecordUsage(100)

	if got := tr.UnitsUsed(); got != 101 {
		t.Errorf("UnitsUsed() = %d, want 101", got)
	}
	if got := tr.Remaining(); got != 9899 {
		t.Errorf("Remaining() = %d, want 9899", got)
	}
	if tr.IsExhausted() {
		t.Error("IsExhausted() = true, want false below ceiling")
	}
}

func TestTrackerExhaustionAtCeiling(t *testing.T) {
	tr := newTestTracker(t, 10000)

	tr.RecordUsage(9990)
	if tr.IsExhausted() {
		t.Fatal("IsExhausted() = true at 9990/10000, want false")
	}

	// Crossing the ceiling mid-increment still flips the state
	tr.RecordUsage(50)

	if !tr.IsExhausted() {
		t.Error("IsExhausted() = false at 10040/10000, want true")
	}
	if got := tr.UnitsUsed(); got != 10040 {
		t.Errorf("UnitsUsed() = %d, want 10040", got)
	}
	if got := tr.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestTrackerIgnoresNonPositiveUsage(t *testing.T) {
	tr := newTestTracker(t, 10000)

	tr.RecordUsage(0)
	tr.RecordUsage(-5)

	if got := tr.UnitsUsed(); got != 0 {
		t.Errorf("UnitsUsed() = %d, want 0", got)
	}
}

func TestTrackerDailyReset(t *testing.T) {
	tr := newTestTracker(t, 100)

	day1 := time.Date(2025, 3, 10, 22, 0, 0, 0, tr.loc)
	day2 := day1.Add(6 * time.Hour) // past midnight Pacific

	tr.now = func() time.Time { return day1 }
	tr.CheckDailyReset()
	tr.RecordUsage(100)

	if !tr.IsExhausted() {
		t.Fatal("tracker should be exhausted at ceiling")
	}

	// Same day: no reset
	tr.CheckDailyReset()
	if got := tr.UnitsUsed(); got != 100 {
		t.Errorf("UnitsUsed() after same-day check = %d, want 100", got)
	}

	// Next Pacific day: counter clears and state returns to active
	tr.now = func() time.Time { return day2 }
	tr.CheckDailyReset()

	if got := tr.UnitsUsed(); got != 0 {
		t.Errorf("UnitsUsed() after reset = %d, want 0", got)
	}
	if tr.IsExhausted() {
		t.Error("IsExhausted() = true after reset, want false")
	}
}

func TestTrackerAutoReset(t *testing.T) {
	tr := newTestTracker(t, 100)

	day1 := time.Date(2025, 3, 10, 22, 0, 0, 0, tr.loc)
	day2 := day1.Add(6 * time.Hour) // past midnight Pacific

	// The timer goroutine reads the clock concurrently, so the
	// midnight flip goes through an atomic rather than reassigning now.
	var crossed atomic.Bool
	tr.now = func() time.Time {
		if crossed.Load() {
			return day2
		}
		return day1
	}

	tr.CheckDailyReset()
	tr.RecordUsage(100)
	if !tr.IsExhausted() {
		t.Fatal("tracker should be exhausted at ceiling")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.StartAutoReset(ctx, time.Millisecond)

	crossed.Store(true)

	// The timer, not a request, must clear the counter
	deadline := time.Now().Add(2 * time.Second)
	for tr.IsExhausted() {
		if time.Now().After(deadline) {
			t.Fatal("auto reset did not clear exhaustion within deadline")
		}
		time.Sleep(time.Millisecond)
	}

	if got := tr.UnitsUsed(); got != 0 {
		t.Errorf("UnitsUsed() after auto reset = %d, want 0", got)
	}
}

func TestTrackerAutoResetStopsOnCancel(t *testing.T) {
	tr := newTestTracker(t, 100)

	ctx, cancel := context.WithCancel(context.Background())
	tr.StartAutoReset(ctx, time.Millisecond)
	cancel()

	// Give the goroutine a tick to observe cancellation, then verify
	// the tracker is still usable and state is untouched.
	time.Sleep(5 * time.Millisecond)
	tr.RecordUsage(10)
	if got := tr.UnitsUsed(); got != 10 {
		t.Errorf("UnitsUsed() = %d, want 10", got)
	}
}

func TestTrackerDateKeyFormat(t *testing.T) {
	tr := newTestTracker(t, 100)

	// 2025-03-05 12:00 Pacific; key uses no zero padding
	at := time.Date(2025, 3, 5, 12, 0, 0, 0, tr.loc)
	if got := tr.dateKey(at); got != "2025-3-5" {
		t.Errorf("dateKey() = %q, want %q", got, "2025-3-5")
	}
}

func TestTrackerPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := storage.NewKVStore(path)
	if err != nil {
		t.Fatalf("NewKVStore() error = %v", err)
	}

	tr, err := New(store, 10000, DefaultTimezone)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tr.RecordUsage(4321)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store2, err := storage.NewKVStore(path)
	if err != nil {
		t.Fatalf("reopen NewKVStore() error = %v", err)
	}
	defer store2.Close()

	tr2, err := New(store2, 10000, DefaultTimezone)
	if err != nil {
		t.Fatalf("reopen New() error = %v", err)
	}
	if got := tr2.UnitsUsed(); got != 4321 {
		t.Errorf("UnitsUsed() after restart = %d, want 4321", got)
	}
}

func TestTrackerInvalidTimezone(t *testing.T) {
	if _, err := New(nil, 10000, "Not/AZone"); err == nil {
		t.Error("New() with bad timezone should return error")
	}
}
