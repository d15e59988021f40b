package ytfeed

import (
	"ytfeed/feed"
	"ytfeed/retry"
	"ytfeed/storage"
	"ytfeed/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytfeed.ErrQuotaExhausted) {
//		fmt.Println("API quota exhausted for today")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var resolveErr *ytfeed.ResolveError
//	if errors.As(err, &resolveErr) {
//		fmt.Printf("%s failed for %s: %v\n", resolveErr.Source, resolveErr.Query, resolveErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// ResolveError wraps errors during channel resolution and listing.
	ResolveError = youtube.ResolveError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrChannelNotFound indicates the channel does not exist, or that
	// every resolution path was exhausted without finding it.
	ErrChannelNotFound = youtube.ErrChannelNotFound
	// ErrRateLimited indicates the operation was rate limited.
	ErrRateLimited = youtube.ErrRateLimited
	// ErrNetworkTimeout indicates a network timeout occurred.
	ErrNetworkTimeout = youtube.ErrNetworkTimeout
	// ErrInvalidInput indicates the channel reference cannot be used
	// for any lookup.
	ErrInvalidInput = youtube.ErrInvalidInput
	// ErrAuthRequired indicates the API credential is missing or rejected.
	ErrAuthRequired = youtube.ErrAuthRequired
	// ErrQuotaExhausted indicates the daily API quota ceiling is reached.
	ErrQuotaExhausted = youtube.ErrQuotaExhausted

	// ErrBadCursor indicates a malformed pagination cursor.
	ErrBadCursor = feed.ErrBadCursor

	// Storage errors
	// ErrNotFound indicates a key was not found in storage.
	ErrNotFound = storage.ErrNotFound
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsRetryable determines if an error should be retried.
// Context cancellation is permanent; everything else is assumed transient.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
