// Package sanitize normalizes raw remote records into the canonical
// in-memory shape. Absent optional fields get defined defaults; nested
// payloads that legacy rows ship as string-encoded JSON are parsed in place.
// A record that cannot be normalized is rejected with an error so callers
// can drop it without failing the rest of the batch.
package sanitize

import (
	"encoding/json"
	"fmt"
	"strings"

	"mirrorsync/pkg/models"
)

// nested decodes a nested payload field that may arrive either as a
// structured value or as a string-encoded JSON blob (legacy rows). Missing
// and null values are left to the caller's defaults.
func nested(raw json.RawMessage, dst any) error {
	t := strings.TrimSpace(string(raw))
	if t == "" || t == "null" {
		return nil
	}
	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dst)
	}
	return json.Unmarshal(raw, dst)
}

// Post normalizes a raw post record.
func Post(raw json.RawMessage) (models.Post, error) {
	var in struct {
		ID        string          `json:"id"`
		AuthorID  string          `json:"authorId"`
		Username  string          `json:"username"`
		Text      string          `json:"text"`
		Media     json.RawMessage `json:"media"`
		Video     bool            `json:"video"`
		Likes     json.RawMessage `json:"likes"`
		Comments  json.RawMessage `json:"comments"`
		CreatedTS int64           `json:"createdTs"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Post{}, fmt.Errorf("invalid post envelope: %w", err)
	}
	if in.ID == "" {
		return models.Post{}, fmt.Errorf("post record without id")
	}
	p := models.Post{
		ID:        in.ID,
		AuthorID:  in.AuthorID,
		Username:  in.Username,
		Text:      in.Text,
		Video:     in.Video,
		CreatedTS: in.CreatedTS,
		Media:     []string{},
		Likes:     []string{},
		Comments:  []models.Comment{},
	}
	if err := nested(in.Media, &p.Media); err != nil {
		return models.Post{}, fmt.Errorf("post %s: unparseable media payload: %w", in.ID, err)
	}
	if err := nested(in.Likes, &p.Likes); err != nil {
		return models.Post{}, fmt.Errorf("post %s: unparseable likes payload: %w", in.ID, err)
	}
	if err := nested(in.Comments, &p.Comments); err != nil {
		return models.Post{}, fmt.Errorf("post %s: unparseable comments payload: %w", in.ID, err)
	}
	if p.Media == nil {
		p.Media = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p, nil
}

// User normalizes a raw user record.
func User(raw json.RawMessage) (models.User, error) {
	var in struct {
		ID                 string          `json:"id"`
		Email              string          `json:"email"`
		Profile            json.RawMessage `json:"profile"`
		IsProfileCompleted bool            `json:"isProfileCompleted"`
		UpdatedTS          int64           `json:"updatedTs"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.User{}, fmt.Errorf("invalid user envelope: %w", err)
	}
	if in.ID == "" {
		return models.User{}, fmt.Errorf("user record without id")
	}
	u := models.User{
		ID:                 in.ID,
		Email:              in.Email,
		IsProfileCompleted: in.IsProfileCompleted,
		UpdatedTS:          in.UpdatedTS,
	}
	if err := nested(in.Profile, &u.Profile); err != nil {
		return models.User{}, fmt.Errorf("user %s: unparseable profile payload: %w", in.ID, err)
	}
	u.Profile.Name = strings.ToLower(strings.TrimSpace(u.Profile.Name))
	return u, nil
}

// Chat normalizes a raw chat record including every contained message.
func Chat(raw json.RawMessage) (models.Chat, error) {
	var in struct {
		ID           string          `json:"id"`
		Participants json.RawMessage `json:"participants"`
		Messages     json.RawMessage `json:"messages"`
		UpdatedTS    int64           `json:"updatedTs"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Chat{}, fmt.Errorf("invalid chat envelope: %w", err)
	}
	if in.ID == "" {
		return models.Chat{}, fmt.Errorf("chat record without id")
	}
	c := models.Chat{
		ID:           in.ID,
		UpdatedTS:    in.UpdatedTS,
		Participants: []string{},
		Messages:     []models.ChatMessage{},
	}
	if err := nested(in.Participants, &c.Participants); err != nil {
		return models.Chat{}, fmt.Errorf("chat %s: unparseable participants payload: %w", in.ID, err)
	}
	if err := nested(in.Messages, &c.Messages); err != nil {
		return models.Chat{}, fmt.Errorf("chat %s: unparseable messages payload: %w", in.ID, err)
	}
	if c.Participants == nil {
		c.Participants = []string{}
	}
	if c.Messages == nil {
		c.Messages = []models.ChatMessage{}
	}
	for i := range c.Messages {
		c.Messages[i] = Message(c.Messages[i])
	}
	return c, nil
}

// Message fills defaults on a single chat message.
func Message(m models.ChatMessage) models.ChatMessage {
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	return m
}
