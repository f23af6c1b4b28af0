package domain

import "errors"

// Sentinel errors for catalog operations
var (
	// ErrNetwork indicates the remote catalog could not be reached (no connectivity, timeout).
	// Transient: retrying the same page is expected to work eventually.
	ErrNetwork = errors.New("podcast catalog is unreachable")

	// ErrProtocol indicates the remote returned data that could not be interpreted
	ErrProtocol = errors.New("unexpected response from podcast catalog")

	// ErrAuthFailed indicates the API key was rejected
	ErrAuthFailed = errors.New("api key is invalid")

	// ErrStore indicates a local store I/O failure
	ErrStore = errors.New("local store failure")

	// ErrNotFound indicates the podcast id is unknown to the local store
	ErrNotFound = errors.New("podcast not found")

	// ErrStoreClosed indicates the local store was used after Close
	ErrStoreClosed = errors.New("podcast store is closed")

	// ErrCacheClosed indicates a catalog view was used after Close
	ErrCacheClosed = errors.New("catalog view is closed")
)

// IsRetryable reports whether retrying the failed operation unchanged may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
