package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"mirrorsync/pkg/sync"
	"mirrorsync/pkg/utils"
)

// RegisterUsers registers user directory endpoints. Fixed paths go first so
// they are not shadowed by the {id} routes.
func RegisterUsers(r *mux.Router, eng *sync.Engine) {
	r.HandleFunc("/users/sync", syncUsers(eng)).Methods(http.MethodPost)
	r.HandleFunc("/users/search", searchUsers(eng)).Methods(http.MethodGet)
	r.HandleFunc("/users/by-handle/{handle}", getUserByHandle(eng)).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/posts/sync", syncUserPosts(eng)).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/posts", getUserPosts(eng)).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", getUser(eng)).Methods(http.MethodGet)
}

func syncUsers(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := eng.SyncDirectory(r.Context())
		_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"synced": n})
	}
}

func searchUsers(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := eng.SearchUsers(r.Context(), r.URL.Query().Get("term"))
		_ = utils.JSONWrite(w, http.StatusOK, users)
	}
}

func getUser(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := eng.GetUserProfile(r.Context(), mux.Vars(r)["id"])
		if u == nil {
			utils.JSONError(w, http.StatusNotFound, "user not found")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, u)
	}
}

func getUserByHandle(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := eng.GetUserByHandle(mux.Vars(r)["handle"])
		if u == nil {
			// Miss locally: try the remote search path before giving up.
			u = eng.FetchUserByHandle(r.Context(), mux.Vars(r)["handle"])
		}
		if u == nil {
			utils.JSONError(w, http.StatusNotFound, "user not found")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, u)
	}
}

func syncUserPosts(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := eng.SyncUserPosts(r.Context(), mux.Vars(r)["id"])
		_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"synced": n})
	}
}

func getUserPosts(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, eng.GetUserPosts(mux.Vars(r)["id"]))
	}
}
