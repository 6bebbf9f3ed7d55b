package models

type Chat struct {
	ID           string        `json:"id"`
	Participants []string      `json:"participants"`
	Messages     []ChatMessage `json:"messages"`
	UpdatedTS    int64         `json:"updatedTs,omitempty"`
}

type ChatMessage struct {
	ID       string `json:"id"`
	SenderID string `json:"senderId"`
	Text     string `json:"text,omitempty"`
	TS       int64  `json:"ts,omitempty"`
	Read     bool   `json:"read,omitempty"`
	// Reactions maps a reaction key to the set of identity ids holding it.
	// An identity appears in at most one bucket per message.
	Reactions map[string][]string `json:"reactions,omitempty"`
	// Report flags are local-only state; a resync may overwrite them on the
	// next full upsert of the owning chat (last write wins by record).
	IsReported     bool   `json:"isReported,omitempty"`
	ReportReason   string `json:"reportReason,omitempty"`
	ReportComments string `json:"reportComments,omitempty"`
}
