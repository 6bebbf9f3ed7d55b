package sync

import (
	"context"
	"encoding/json"
	"strings"

	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/sanitize"
	"mirrorsync/pkg/store"
	"mirrorsync/pkg/utils"
)

// GetUserProfile resolves a user by id, local-first: a mirrored profile is
// returned without a network call. On a miss the remote is consulted once;
// any failure (404 included) yields nil, never an error.
func (e *Engine) GetUserProfile(ctx context.Context, id string) *models.User {
	if row, err := store.Get(models.Users, id); err == nil {
		var u models.User
		if err := json.Unmarshal(row, &u); err == nil {
			return &u
		}
		logger.Warn("local_record_skipped", "collection", models.Users, "id", id, "error", err)
	}
	raw, err := e.fetcher.FetchByID(ctx, models.Users, id)
	fetchTotal.WithLabelValues(models.Users, outcome(err)).Inc()
	if err != nil {
		logger.Warn("profile_fetch_failed", "collection", models.Users, "op", "get_profile", "id", id, "error", err)
		return nil
	}
	u, err := sanitize.User(raw)
	if err != nil {
		logger.Warn("record_dropped", "collection", models.Users, "id", id, "error", err)
		droppedTotal.WithLabelValues(models.Users).Inc()
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil
	}
	if err := store.Set(models.Users, u.ID, data); err != nil {
		logger.Error("upsert_failed", "collection", models.Users, "id", u.ID, "error", err)
	}
	return &u
}

// SearchUsers queries users by term with the same guard and degradation
// policy as SearchPosts. The local scan matches the term case-insensitively
// against the handle and the display name.
func (e *Engine) SearchUsers(ctx context.Context, term string) []models.User {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.User{}
	}
	raws, err := e.fetcher.Search(ctx, models.Users, term)
	fetchTotal.WithLabelValues(models.Users, outcome(err)).Inc()
	if err != nil {
		logger.Warn("user_search_failed", "collection", models.Users, "op", "search", "error", err)
		fallbackTotal.WithLabelValues(models.Users).Inc()
		return e.localUserScan(term)
	}
	return upsert(models.Users, raws, sanitize.User, func(u models.User) string { return u.ID })
}

func (e *Engine) localUserScan(term string) []models.User {
	needle := strings.ToLower(term)
	out := []models.User{}
	for _, u := range localAll[models.User](models.Users) {
		if strings.Contains(strings.ToLower(u.Profile.Name), needle) ||
			strings.Contains(strings.ToLower(u.Profile.DisplayName), needle) {
			out = append(out, u)
		}
	}
	return out
}

// SyncAllUsers pulls the full user directory into the mirror, skipping the
// excluded id: the session identity's local copy may carry mutations a stale
// remote snapshot must not clobber in the same pass. Returns the number of
// records upserted.
func (e *Engine) SyncAllUsers(ctx context.Context, excludeID string) int {
	raws, err := e.fetcher.FetchDirectory(ctx)
	fetchTotal.WithLabelValues(models.Users, outcome(err)).Inc()
	if err != nil {
		logger.Warn("directory_sync_failed", "collection", models.Users, "op", "sync_all", "error", err)
		return 0
	}
	recs := make([]store.Record, 0, len(raws))
	for _, raw := range raws {
		u, err := sanitize.User(raw)
		if err != nil {
			logger.Warn("record_dropped", "collection", models.Users, "error", err)
			droppedTotal.WithLabelValues(models.Users).Inc()
			continue
		}
		if excludeID != "" && u.ID == excludeID {
			continue
		}
		data, err := json.Marshal(u)
		if err != nil {
			continue
		}
		recs = append(recs, store.Record{ID: u.ID, Data: data})
	}
	if err := store.UpsertMany(models.Users, recs); err != nil {
		logger.Error("upsert_failed", "collection", models.Users, "error", err)
		return 0
	}
	logger.Info("directory_synced", "collection", models.Users, "count", len(recs), "excluded", excludeID != "")
	return len(recs)
}

// SyncDirectory runs SyncAllUsers excluding the current session identity.
func (e *Engine) SyncDirectory(ctx context.Context) int {
	self := ""
	if id, ok := e.ident.Current(); ok {
		self = id.ID
	}
	return e.SyncAllUsers(ctx, self)
}

// GetUserByHandle resolves a handle against the mirror only.
func (e *Engine) GetUserByHandle(handle string) *models.User {
	clean := utils.CleanHandle(handle)
	if clean == "" {
		return nil
	}
	for _, u := range localAll[models.User](models.Users) {
		if u.Profile.Name == clean {
			v := u
			return &v
		}
	}
	return nil
}

// FetchUserByHandle searches the remote for a handle and mirrors the exact
// match when found. Search results populate the cache opportunistically
// either way.
func (e *Engine) FetchUserByHandle(ctx context.Context, handle string) *models.User {
	clean := utils.CleanHandle(handle)
	if clean == "" {
		return nil
	}
	for _, u := range e.SearchUsers(ctx, clean) {
		if u.Profile.Name == clean {
			v := u
			return &v
		}
	}
	return nil
}

// GetAllUsers returns the mirrored user directory.
func (e *Engine) GetAllUsers() []models.User {
	return localAll[models.User](models.Users)
}
