package models

// Collection names understood by the local store and the sync engine.
const (
	Posts = "posts"
	Users = "users"
	Chats = "chats"
)

type Post struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId"`
	// Username is denormalized from the author for listing without a join;
	// the users collection stays authoritative.
	Username string    `json:"username,omitempty"`
	Text     string    `json:"text,omitempty"`
	Media    []string  `json:"media"`
	Video    bool      `json:"video,omitempty"`
	Likes    []string  `json:"likes"`
	Comments []Comment `json:"comments"`
	// CreatedTS (ns) orders the feed and backs pagination cursors. It is
	// never used for conflict resolution.
	CreatedTS int64 `json:"createdTs,omitempty"`
}

type Comment struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId"`
	Text     string `json:"text,omitempty"`
	TS       int64  `json:"ts,omitempty"`
}
