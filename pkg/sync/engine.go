// Package sync orchestrates reads through the local mirror: fetch with a
// bounded deadline, sanitize, upsert into the store, and fall back to local
// contents when the network fails. Expected failures never propagate to
// callers; they degrade to stale or empty results.
package sync

import (
	"encoding/json"

	"mirrorsync/pkg/identity"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/remote"
	"mirrorsync/pkg/store"
)

// DefaultPageLimit is used when callers pass a non-positive feed limit.
const DefaultPageLimit = 20

// Engine reads collections through the local mirror. It is reentrant:
// overlapping calls for the same collection are safe because upserts are
// idempotent by id.
type Engine struct {
	fetcher   remote.Fetcher
	ident     identity.Provider
	pageLimit int
}

// New builds an Engine over an injected fetcher and identity provider.
func New(f remote.Fetcher, p identity.Provider) *Engine {
	return &Engine{fetcher: f, ident: p, pageLimit: DefaultPageLimit}
}

// SetPageLimit overrides the default feed page size. Non-positive values are
// ignored.
func (e *Engine) SetPageLimit(n int) {
	if n > 0 {
		e.pageLimit = n
	}
}

// upsert sanitizes a batch, drops corrupt records, writes the survivors to
// the store and returns them decoded. A single corrupt record never fails
// the batch.
func upsert[T any](collection string, raws []json.RawMessage, sanitizeFn func(json.RawMessage) (T, error), idOf func(T) string) []T {
	out := make([]T, 0, len(raws))
	recs := make([]store.Record, 0, len(raws))
	for _, raw := range raws {
		v, err := sanitizeFn(raw)
		if err != nil {
			logger.Warn("record_dropped", "collection", collection, "error", err)
			droppedTotal.WithLabelValues(collection).Inc()
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			logger.Warn("record_dropped", "collection", collection, "error", err)
			droppedTotal.WithLabelValues(collection).Inc()
			continue
		}
		out = append(out, v)
		recs = append(recs, store.Record{ID: idOf(v), Data: data})
	}
	if err := store.UpsertMany(collection, recs); err != nil {
		// The sanitized set is still the freshest view; the next sync
		// repairs the mirror.
		logger.Error("upsert_failed", "collection", collection, "error", err)
	}
	return out
}

// localAll decodes every stored record of a collection, skipping any that no
// longer unmarshal (the store is normalized at write time, so this is rare).
func localAll[T any](collection string) []T {
	rows, err := store.List(collection)
	if err != nil {
		logger.Error("local_list_failed", "collection", collection, "error", err)
		return nil
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			logger.Warn("local_record_skipped", "collection", collection, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
