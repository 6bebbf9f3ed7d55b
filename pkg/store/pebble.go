package store

import (
	"bytes"
	"fmt"

	"mirrorsync/pkg/logger"

	"github.com/cockroachdb/pebble"
)

var (
	db     *pebble.DB
	dbPath string
)

// ErrNotFound is returned by Get for ids absent from a collection.
var ErrNotFound = pebble.ErrNotFound

// Record is one keyed entry of a collection. Data holds the canonical JSON
// produced by the sanitizer; malformed records never reach the store.
type Record struct {
	ID   string
	Data []byte
}

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// Key format: col:<collection>:rec:<id>
func recKey(collection, id string) []byte {
	return []byte("col:" + collection + ":rec:" + id)
}

func colPrefix(collection string) []byte {
	return []byte("col:" + collection + ":rec:")
}

// Get returns the stored record for a collection id, or ErrNotFound.
func Get(collection, id string) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(recKey(collection, id))
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// Set writes a single record durably. It is a one-record convenience over
// UpsertMany and shares its overwrite-by-id semantics.
func Set(collection, id string, data []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if id == "" {
		return fmt.Errorf("empty id for collection %s", collection)
	}
	if err := db.Set(recKey(collection, id), data, pebble.Sync); err != nil {
		logger.Error("set_record_failed", "collection", collection, "id", id, "error", err)
		return err
	}
	logger.Debug("record_set", "collection", collection, "id", id)
	return nil
}

// UpsertMany overwrites any existing record sharing an id. The batch commits
// with a durable sync so the mirror survives process restarts. Applying the
// same records twice yields identical store state.
func UpsertMany(collection string, records []Record) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if len(records) == 0 {
		return nil
	}
	b := db.NewBatch()
	defer func() { _ = b.Close() }()
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("empty id in upsert batch for collection %s", collection)
		}
		if err := b.Set(recKey(collection, r.ID), r.Data, nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("upsert_many_failed", "collection", collection, "count", len(records), "error", err)
		return err
	}
	logger.Debug("records_upserted", "collection", collection, "count", len(records))
	return nil
}

// List returns all records of a collection. Iteration order is key order;
// callers reconstruct any semantic ordering themselves.
func List(collection string) ([][]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := colPrefix(collection)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out [][]byte
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		out = append(out, append([]byte(nil), iter.Value()...))
	}
	return out, iter.Error()
}

// Count returns the number of records in a collection.
func Count(collection string) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := colPrefix(collection)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		n++
	}
	return n, iter.Error()
}

// Delete removes a single record. Deleting an absent id is a no-op.
func Delete(collection, id string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Delete(recKey(collection, id), pebble.Sync); err != nil {
		logger.Error("delete_record_failed", "collection", collection, "id", id, "error", err)
		return err
	}
	logger.Info("record_deleted", "collection", collection, "id", id)
	return nil
}

// Reset removes every record of a collection. Used at login/logout
// boundaries; sync failures never reach this path.
func Reset(collection string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := colPrefix(collection)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	b := db.NewBatch()
	defer func() { _ = b.Close() }()
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if err := b.Delete(append([]byte(nil), iter.Key()...), nil); err != nil {
			return err
		}
		n++
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("reset_collection_failed", "collection", collection, "error", err)
		return err
	}
	logger.Info("collection_reset", "collection", collection, "count", n)
	return nil
}
