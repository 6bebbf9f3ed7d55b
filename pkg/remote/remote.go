// Package remote performs bounded-time reads against the collection API.
// It distinguishes timeouts, transport failures, HTTP failures and decode
// failures, and never retries; retry and fallback policy belongs to the
// sync engine.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTimeout reports that the bounded-time ceiling elapsed and the
	// in-flight call was cancelled.
	ErrTimeout = errors.New("remote: deadline exceeded")
	// ErrNetwork reports a transport-level failure (DNS, refused, reset).
	ErrNetwork = errors.New("remote: network failure")
	// ErrDecode reports a malformed response body.
	ErrDecode = errors.New("remote: undecodable payload")
	// ErrEmptyTerm reports an empty or whitespace-only search term. The
	// endpoint treats such terms as invalid input, so callers must guard
	// before any I/O. It is expected UI behavior, not a fault.
	ErrEmptyTerm = errors.New("remote: empty search term")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: http status %d", e.Status)
}

// Page is one page of a remote collection listing.
type Page struct {
	Data       []json.RawMessage `json:"data"`
	NextCursor string            `json:"nextCursor"`
}

// Fetcher is the capability the sync engine reads through. Implementations:
// Client (live HTTP) and Mock (fixtures); the choice is made once at startup
// and injected.
type Fetcher interface {
	// FetchCollection lists a page of a collection. Cursor is opaque and
	// passed through unmodified.
	FetchCollection(ctx context.Context, collection string, limit int, cursor string) (*Page, error)
	// FetchByID retrieves a single record; a 404 surfaces as *StatusError.
	FetchByID(ctx context.Context, collection, id string) (json.RawMessage, error)
	// FetchByOwner lists all records of a collection belonging to one owner.
	FetchByOwner(ctx context.Context, collection, ownerID string) ([]json.RawMessage, error)
	// Search queries a collection by term. Responses may be a bare array or
	// wrapped in {"data": [...]}; both shapes are tolerated.
	Search(ctx context.Context, collection, term string) ([]json.RawMessage, error)
	// FetchDirectory retrieves the full user directory for bulk sync.
	FetchDirectory(ctx context.Context) ([]json.RawMessage, error)
}

// decodeList tolerates both the bare-array and the {"data": [...]} response
// shapes some endpoints alternate between.
func decodeList(body []byte) ([]json.RawMessage, error) {
	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return wrapped.Data, nil
}
