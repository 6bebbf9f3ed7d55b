// Package api exposes the mirror to the page layer over a localhost HTTP
// facade. Read endpoints never fail for expected network trouble; they
// return stale or empty data per the engine's fallback policy.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"mirrorsync/pkg/api/handlers"
	"mirrorsync/pkg/chat"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/store"
	"mirrorsync/pkg/sync"
	"mirrorsync/pkg/utils"
)

// NewRouter wires all v1 routes over the injected engine and chat service.
func NewRouter(eng *sync.Engine, chats *chat.Service) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterFeed(v1, eng)
	handlers.RegisterUsers(v1, eng)
	handlers.RegisterChats(v1, chats)
	v1.HandleFunc("/stats", statsHandler).Methods(http.MethodGet)
	return r
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	type stats struct {
		Posts     int    `json:"posts"`
		Users     int    `json:"users"`
		Chats     int    `json:"chats"`
		DiskBytes uint64 `json:"disk_bytes"`
	}
	var s stats
	var err error
	if s.Posts, err = store.Count(models.Posts); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.Users, err = store.Count(models.Users); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.Chats, err = store.Count(models.Chats); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.DiskBytes = store.DiskUsage()
	_ = utils.JSONWrite(w, http.StatusOK, s)
}
