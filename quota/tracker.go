// Package quota tracks YouTube Data API unit usage against a daily ceiling.
//
// The tracker is the single writer of its own state: usage increments and
// daily resets are applied atomically with respect to each other, while
// IsExhausted reads are lock-free so hot paths never block on the mutex.
package quota

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ytfeed/storage"
)

const (
	// DefaultCeiling is the standard daily quota for an API project.
	DefaultCeiling = 10000

	// DefaultTimezone is the fixed reference timezone for the daily reset
	// boundary. The platform meters quota against US Pacific time, not the
	// host machine's locale.
	DefaultTimezone = "America/Los_Angeles"

	// DefaultResetInterval is how often the background timer re-checks the
	// date boundary so long-lived sessions self-heal across midnight.
	DefaultResetInterval = time.Minute
)

// Store keys for the persisted quota ledger.
const (
	keyUnitsUsed = "quota_units_used"
	keyResetDate = "quota_reset_date"
)

// Tracker is the process-wide quota counter. Construct one per process
// and share it; all mutation goes through RecordUsage and CheckDailyReset.
type Tracker struct {
	ceiling int
	loc     *time.Location
	store   storage.Store

	mu           sync.Mutex
	unitsUsed    int
	resetDateKey string

	exhausted atomic.Bool

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a tracker with the given ceiling and reset timezone, loading
// any persisted ledger state from store. A nil store is allowed; the
// tracker then keeps state in memory only.
func New(store storage.Store, ceiling int, timezone string) (*Tracker, error) {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("quota: load timezone %q: %w", timezone, err)
	}

	t := &Tracker{
		ceiling: ceiling,
		loc:     loc,
		store:   store,
		now:     time.Now,
	}
	t.loadState()
	t.CheckDailyReset()
	return t, nil
}

// loadState restores the persisted ledger, if any.
func (t *Tracker) loadState() {
	if t.store == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if v, ok := t.store.Get(keyUnitsUsed); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			t.unitsUsed = n
		}
	}
	if v, ok := t.store.Get(keyResetDate); ok {
		t.resetDateKey = v
	}
	t.exhausted.Store(t.unitsUsed >= t.ceiling)
}

// dateKey formats a time as the ledger's date key (year-month-day, no
// zero padding) in the tracker's fixed timezone.
func (t *Tracker) dateKey(at time.Time) string {
	local := at.In(t.loc)
	return fmt.Sprintf("%d-%d-%d", local.Year(), int(local.Month()), local.Day())
}

// RecordUsage adds units to the daily total and flips the tracker to
// Exhausted when the ceiling is reached.
func (t *Tracker) RecordUsage(units int) {
	if units <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.unitsUsed += units
	if t.unitsUsed >= t.ceiling && !t.exhausted.Load() {
		log.Printf("quota: exhausted (%d/%d units)", t.unitsUsed, t.ceiling)
	}
	t.exhausted.Store(t.unitsUsed >= t.ceiling)
	t.persistLocked()
}

// CheckDailyReset zeroes the counter when the date key in the reference
// timezone has rotated since the last reset. Safe to call from any
// goroutine and from the background timer concurrently with RecordUsage.
func (t *Tracker) CheckDailyReset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := t.dateKey(t.now())
	if key == t.resetDateKey {
		return
	}

	if t.resetDateKey != "" {
		log.Printf("quota: daily reset (%s -> %s, %d units used)", t.resetDateKey, key, t.unitsUsed)
	}
	t.unitsUsed = 0
	t.resetDateKey = key
	t.exhausted.Store(false)
	t.persistLocked()
}

// persistLocked writes the ledger through the store. Must be called with
// the mutex held. Persistence failures are logged, never fatal.
func (t *Tracker) persistLocked() {
	if t.store == nil {
		return
	}
	if err := t.store.Set(keyUnitsUsed, strconv.Itoa(t.unitsUsed)); err != nil {
		log.Printf("quota: persist units: %v", err)
	}
	if err := t.store.Set(keyResetDate, t.resetDateKey); err != nil {
		log.Printf("quota: persist reset date: %v", err)
	}
}

// IsExhausted reports whether the daily ceiling has been reached.
// Lock-free; callers on the request path pay no synchronization cost.
func (t *Tracker) IsExhausted() bool {
	return t.exhausted.Load()
}

// UnitsUsed returns the units recorded since the last reset.
func (t *Tracker) UnitsUsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unitsUsed
}

// Remaining returns the units left before the ceiling; never negative.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unitsUsed >= t.ceiling {
		return 0
	}
	return t.ceiling - t.unitsUsed
}

// Ceiling returns the configured daily ceiling.
func (t *Tracker) Ceiling() int {
	return t.ceiling
}

// ResetDateKey returns the date key of the current quota day.
func (t *Tracker) ResetDateKey() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetDateKey
}

// StartAutoReset runs CheckDailyReset every interval until ctx is
// canceled. interval <= 0 uses DefaultResetInterval.
func (t *Tracker) StartAutoReset(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultResetInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.CheckDailyReset()
			case <-ctx.Done():
				return
			}
		}
	}()
}
