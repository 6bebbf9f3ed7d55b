package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"mirrorsync/pkg/api"
	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/state"
	"mirrorsync/pkg/store"
	"mirrorsync/pkg/utils"
)

// startHTTP builds the full route tree and runs the facade server. It
// returns a channel that receives the fatal listen error, if any, and
// shuts the server down gracefully when ctx is canceled.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	r := api.NewRouter(a.engine, a.chats)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !store.Ready() {
			utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
		phase := a.hydration.Phase()
		code := http.StatusOK
		if phase == state.PhaseHydrating {
			code = http.StatusServiceUnavailable
		}
		_ = utils.JSONWrite(w, code, map[string]string{"phase": string(phase)})
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs"))).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Error("http_shutdown_failed", "error", err)
		}
	}()
	return errCh
}
