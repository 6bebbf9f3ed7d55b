package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mirrorsync/pkg/sync"
	"mirrorsync/pkg/utils"
)

// RegisterFeed registers feed and post endpoints.
func RegisterFeed(r *mux.Router, eng *sync.Engine) {
	r.HandleFunc("/feed", getFeed(eng)).Methods(http.MethodGet)
	r.HandleFunc("/posts/search", searchPosts(eng)).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", getPost(eng)).Methods(http.MethodGet)
}

func getFeed(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				utils.JSONError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		cursor := r.URL.Query().Get("cursor")
		page := eng.GetFeed(r.Context(), limit, cursor)
		_ = utils.JSONWrite(w, http.StatusOK, page)
	}
}

func searchPosts(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts := eng.SearchPosts(r.Context(), r.URL.Query().Get("term"))
		_ = utils.JSONWrite(w, http.StatusOK, posts)
	}
}

func getPost(eng *sync.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := eng.GetPostByID(mux.Vars(r)["id"])
		if p == nil {
			utils.JSONError(w, http.StatusNotFound, "post not found")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, p)
	}
}
