// Package chat applies local-only state transitions to mirrored chats:
// reactions, report flags and read flags. These bypass the sync engine and
// write straight to the store with immediate persistence. Unlike the read
// paths, persistence failures here propagate; they indicate a local storage
// problem the caller must see.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"mirrorsync/pkg/identity"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/sanitize"
	"mirrorsync/pkg/store"
	"mirrorsync/pkg/utils"
)

var (
	ErrNoIdentity      = errors.New("chat: no session identity")
	ErrChatNotFound    = errors.New("chat: chat not found")
	ErrMessageNotFound = errors.New("chat: message not found")
)

// Service serializes read-modify-write transitions on the chats collection.
// Reads and syncs elsewhere stay lock-free; upserts are idempotent.
type Service struct {
	mu    sync.Mutex
	ident identity.Provider
}

func New(p identity.Provider) *Service {
	return &Service{ident: p}
}

func loadChat(chatID string) (models.Chat, error) {
	row, err := store.Get(models.Chats, chatID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	var c models.Chat
	if err := json.Unmarshal(row, &c); err != nil {
		return models.Chat{}, fmt.Errorf("chat %s: %w", chatID, err)
	}
	return c, nil
}

func saveChat(c models.Chat) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return store.Set(models.Chats, c.ID, data)
}

func findMessage(msgs []models.ChatMessage, id string) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}

// ToggleReaction moves the acting identity into the given reaction bucket.
// The identity is first removed from every bucket, so it holds at most one
// reaction per message; empty buckets are deleted. Buckets are sets, never
// counters.
func (s *Service) ToggleReaction(chatID, messageID, reaction string) error {
	actor, ok := s.ident.Current()
	if !ok {
		return ErrNoIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := loadChat(chatID)
	if err != nil {
		return err
	}
	idx := findMessage(c.Messages, messageID)
	if idx < 0 {
		return fmt.Errorf("%w: %s in chat %s", ErrMessageNotFound, messageID, chatID)
	}
	m := sanitize.Message(c.Messages[idx])

	for key, ids := range m.Reactions {
		kept := ids[:0]
		for _, id := range ids {
			if id != actor.ID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(m.Reactions, key)
		} else {
			m.Reactions[key] = kept
		}
	}
	m.Reactions[reaction] = append(m.Reactions[reaction], actor.ID)

	c.Messages[idx] = m
	if err := saveChat(c); err != nil {
		return err
	}
	logger.Info("reaction_toggled", "chat", chatID, "message", messageID, "reaction", reaction)
	return nil
}

// ReportMessage flags a message with a reason and free-text comment.
// Idempotent: re-reporting overwrites the reason and comment.
func (s *Service) ReportMessage(chatID, messageID, reason, comments string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := loadChat(chatID)
	if err != nil {
		return err
	}
	idx := findMessage(c.Messages, messageID)
	if idx < 0 {
		return fmt.Errorf("%w: %s in chat %s", ErrMessageNotFound, messageID, chatID)
	}
	c.Messages[idx].IsReported = true
	c.Messages[idx].ReportReason = reason
	c.Messages[idx].ReportComments = comments
	if err := saveChat(c); err != nil {
		return err
	}
	logger.Info("message_reported", "chat", chatID, "message", messageID, "reason", reason)
	return nil
}

// SendMessage appends a local-origin message to a mirrored chat and persists
// it immediately. The message carries a fresh id; a later sync upserting the
// same chat keeps it unless the remote returns a newer version of the chat.
func (s *Service) SendMessage(chatID, text string) (models.ChatMessage, error) {
	actor, ok := s.ident.Current()
	if !ok {
		return models.ChatMessage{}, ErrNoIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := loadChat(chatID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	m := models.ChatMessage{
		ID:        utils.GenID(),
		SenderID:  actor.ID,
		Text:      text,
		TS:        time.Now().UnixMilli(),
		Read:      true,
		Reactions: map[string][]string{},
	}
	c.Messages = append(c.Messages, m)
	c.UpdatedTS = m.TS
	if err := saveChat(c); err != nil {
		return models.ChatMessage{}, err
	}
	logger.Info("message_sent", "chat", chatID, "message", m.ID)
	return m, nil
}

// MarkRead flips the read flag on every message in a chat not sent by the
// current identity.
func (s *Service) MarkRead(chatID string) error {
	actor, ok := s.ident.Current()
	if !ok {
		return ErrNoIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := loadChat(chatID)
	if err != nil {
		return err
	}
	changed := false
	for i := range c.Messages {
		if c.Messages[i].SenderID != actor.ID && !c.Messages[i].Read {
			c.Messages[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return saveChat(c)
}

// UnreadCount recomputes, on every call, the number of messages across all
// mirrored chats whose sender differs from the current identity and whose
// read flag is unset. Not cached: staleness is worse than the scan.
func (s *Service) UnreadCount() int {
	actor, ok := s.ident.Current()
	if !ok {
		return 0
	}
	rows, err := store.List(models.Chats)
	if err != nil {
		logger.Error("local_list_failed", "collection", models.Chats, "error", err)
		return 0
	}
	n := 0
	for _, row := range rows {
		var c models.Chat
		if err := json.Unmarshal(row, &c); err != nil {
			logger.Warn("local_record_skipped", "collection", models.Chats, "error", err)
			continue
		}
		for _, m := range c.Messages {
			if m.SenderID != actor.ID && !m.Read {
				n++
			}
		}
	}
	return n
}
