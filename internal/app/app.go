// Package app is the composition root: it validates config, opens the
// store, selects the fetcher implementation once, and owns the lifecycle of
// the scheduler and the local HTTP facade.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mirrorsync/internal/scheduler"
	"mirrorsync/pkg/banner"
	"mirrorsync/pkg/chat"
	"mirrorsync/pkg/config"
	"mirrorsync/pkg/identity"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/remote"
	"mirrorsync/pkg/state"
	"mirrorsync/pkg/store"
	"mirrorsync/pkg/sync"
)

// App encapsulates the mirror components and lifecycle.
type App struct {
	cfg     config.Config
	version string

	ident     *identity.Static
	engine    *sync.Engine
	chats     *chat.Service
	hydration *state.Hydration
}

// New initializes everything that does not require a running context:
// config validation, state dirs, the store, the fetcher and the services.
// Call Run to start the scheduler and HTTP facade and block until shutdown.
func New(cfg config.Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := state.EnsureStateDirs(cfg.Storage.DataPath)
	if err != nil {
		return nil, fmt.Errorf("state dirs: %w", err)
	}
	if err := store.Open(paths.Store); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", paths.Store, err)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}

	ident := identity.NewStatic()
	if cfg.Identity.ID != "" {
		ident.Set(identity.Identity{ID: cfg.Identity.ID, Handle: cfg.Identity.Handle})
	}

	eng := sync.New(fetcher, ident)
	eng.SetPageLimit(cfg.Sync.PageLimit)

	a := &App{
		cfg:       cfg,
		version:   version,
		ident:     ident,
		engine:    eng,
		chats:     chat.New(ident),
		hydration: state.NewHydration(),
	}
	return a, nil
}

// newFetcher selects the Fetcher implementation once at startup; no call
// site branches on the mode afterwards.
func newFetcher(cfg config.Config) (remote.Fetcher, error) {
	switch cfg.Remote.Mode {
	case "mock":
		logger.Warn("remote_mock_mode")
		return seedMock(), nil
	default:
		return remote.NewClient(remote.Options{
			BaseURL:   cfg.Remote.BaseURL,
			Transport: cfg.Remote.Transport,
			Timeout:   time.Duration(cfg.Remote.TimeoutMs) * time.Millisecond,
			RPS:       cfg.Remote.RPS,
			Burst:     cfg.Remote.Burst,
		})
	}
}

// seedMock fills the mock fetcher with a small demo dataset so the facade
// is explorable without a backend.
func seedMock() *remote.Mock {
	m := remote.NewMock()
	users := []models.User{
		{ID: "u-ada", Profile: models.Profile{Name: "ada", DisplayName: "Ada L."}},
		{ID: "u-bert", Profile: models.Profile{Name: "bert", DisplayName: "Bert R."}},
	}
	for _, u := range users {
		b, _ := json.Marshal(u)
		m.Directory = append(m.Directory, b)
		m.Records[models.Users+"/"+u.ID] = b
	}
	posts := []models.Post{
		{ID: "p-1", AuthorID: "u-ada", Username: "ada", Text: "hello from the mirror", CreatedTS: time.Now().UnixNano()},
		{ID: "p-2", AuthorID: "u-bert", Username: "bert", Text: "offline first", CreatedTS: time.Now().UnixNano() - int64(time.Hour)},
	}
	page := &remote.Page{}
	for _, p := range posts {
		b, _ := json.Marshal(p)
		page.Data = append(page.Data, b)
		m.Records[models.Posts+"/"+p.ID] = b
		m.Owned[models.Posts+"/"+p.AuthorID] = append(m.Owned[models.Posts+"/"+p.AuthorID], b)
	}
	m.Pages[models.Posts] = page
	return m
}

// Engine exposes the sync engine (used by the facade and tests).
func (a *App) Engine() *sync.Engine { return a.engine }

// Chats exposes the mutation service.
func (a *App) Chats() *chat.Service { return a.chats }

// Hydration exposes the lifecycle tracker.
func (a *App) Hydration() *state.Hydration { return a.hydration }

// Run starts the scheduler and HTTP facade and blocks until ctx is canceled
// or a fatal server error occurs. The store is closed on the way out.
func (a *App) Run(ctx context.Context) error {
	banner.Print(a.cfg.Addr(), a.cfg.Storage.DataPath, a.cfg.Remote.Mode, a.version)

	stopSched, err := scheduler.Start(ctx, a.engine, a.cfg.Sync.Cron, a.cfg.Sync.PageLimit)
	if err != nil {
		return err
	}
	defer stopSched()

	// Initial hydration runs in the background; the facade serves local
	// contents meanwhile.
	go func() {
		a.hydration.Begin()
		a.engine.SyncDirectory(ctx)
		a.engine.GetFeed(ctx, a.cfg.Sync.PageLimit, "")
		a.hydration.Complete()
	}()

	errCh := a.startHTTP(ctx)

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
