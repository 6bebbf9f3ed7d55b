package sync

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/sanitize"
	"mirrorsync/pkg/store"
)

// GetFeed loads one feed page, remote-first. On success the sanitized page
// is upserted into the mirror and returned with the remote's continuation
// cursor. On any fetch failure the current mirror contents are returned with
// no cursor: fallback pages are terminal.
func (e *Engine) GetFeed(ctx context.Context, limit int, cursor string) models.Page[models.Post] {
	if limit <= 0 {
		limit = e.pageLimit
	}
	page, err := e.fetcher.FetchCollection(ctx, models.Posts, limit, cursor)
	fetchTotal.WithLabelValues(models.Posts, outcome(err)).Inc()
	if err != nil {
		logger.Warn("feed_fetch_failed", "collection", models.Posts, "op", "get_feed", "error", err)
		fallbackTotal.WithLabelValues(models.Posts).Inc()
		return models.Page[models.Post]{Data: sortedByCreated(localAll[models.Post](models.Posts))}
	}
	posts := upsert(models.Posts, page.Data, sanitize.Post, func(p models.Post) string { return p.ID })
	return models.Page[models.Post]{Data: posts, NextCursor: page.NextCursor}
}

// SearchPosts queries posts by term. Empty and whitespace-only terms return
// an empty result before any I/O; the endpoint rejects them as invalid. On
// remote failure it degrades to a case-insensitive substring scan of the
// mirror over text and username, excluding video posts.
func (e *Engine) SearchPosts(ctx context.Context, term string) []models.Post {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Post{}
	}
	raws, err := e.fetcher.Search(ctx, models.Posts, term)
	fetchTotal.WithLabelValues(models.Posts, outcome(err)).Inc()
	if err != nil {
		logger.Warn("post_search_failed", "collection", models.Posts, "op", "search", "error", err)
		fallbackTotal.WithLabelValues(models.Posts).Inc()
		return e.localPostScan(term)
	}
	return upsert(models.Posts, raws, sanitize.Post, func(p models.Post) string { return p.ID })
}

func (e *Engine) localPostScan(term string) []models.Post {
	needle := strings.ToLower(term)
	out := []models.Post{}
	for _, p := range localAll[models.Post](models.Posts) {
		if p.Video {
			continue
		}
		if strings.Contains(strings.ToLower(p.Text), needle) ||
			strings.Contains(strings.ToLower(p.Username), needle) {
			out = append(out, p)
		}
	}
	return sortedByCreated(out)
}

// SyncUserPosts pulls all posts of one author into the mirror. Failures are
// logged and swallowed; the mirror keeps its previous view. Returns the
// number of records upserted.
func (e *Engine) SyncUserPosts(ctx context.Context, authorID string) int {
	raws, err := e.fetcher.FetchByOwner(ctx, models.Posts, authorID)
	fetchTotal.WithLabelValues(models.Posts, outcome(err)).Inc()
	if err != nil {
		logger.Warn("user_posts_sync_failed", "collection", models.Posts, "op", "sync_user_posts", "author", authorID, "error", err)
		return 0
	}
	posts := upsert(models.Posts, raws, sanitize.Post, func(p models.Post) string { return p.ID })
	return len(posts)
}

// GetUserPosts reads one author's posts from the mirror only. Callers that
// need freshness run SyncUserPosts first.
func (e *Engine) GetUserPosts(authorID string) []models.Post {
	out := []models.Post{}
	for _, p := range localAll[models.Post](models.Posts) {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return sortedByCreated(out)
}

// GetPostByID reads a single post from the mirror. A post never synced is
// invisible here; the mirror is a cache, not guaranteed-complete.
func (e *Engine) GetPostByID(id string) *models.Post {
	row, err := store.Get(models.Posts, id)
	if err != nil {
		return nil
	}
	var p models.Post
	if err := json.Unmarshal(row, &p); err != nil {
		logger.Warn("local_record_skipped", "collection", models.Posts, "id", id, "error", err)
		return nil
	}
	return &p
}

func sortedByCreated(posts []models.Post) []models.Post {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedTS > posts[j].CreatedTS })
	return posts
}
