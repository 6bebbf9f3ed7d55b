package models

// Page is one page of a remote listing. NextCursor is an opaque continuation
// token reported by the remote; an empty cursor marks a terminal page, which
// is also what every local-fallback read returns.
type Page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"nextCursor,omitempty"`
}
