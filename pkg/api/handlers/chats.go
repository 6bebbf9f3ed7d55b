package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"mirrorsync/pkg/chat"
	"mirrorsync/pkg/utils"
)

// RegisterChats registers the local-only mutation endpoints. Unlike the read
// paths these return real errors: a failed write means local storage trouble
// the caller must see.
func RegisterChats(r *mux.Router, svc *chat.Service) {
	r.HandleFunc("/chats/unread", getUnread(svc)).Methods(http.MethodGet)
	r.HandleFunc("/chats/{chatID}/read", markRead(svc)).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatID}/messages", postMessage(svc)).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatID}/messages/{msgID}/reactions", postReaction(svc)).Methods(http.MethodPost)
	r.HandleFunc("/chats/{chatID}/messages/{msgID}/report", postReport(svc)).Methods(http.MethodPost)
}

func mutationStatus(err error) int {
	switch {
	case errors.Is(err, chat.ErrChatNotFound), errors.Is(err, chat.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNoIdentity):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func postReaction(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reaction string `json:"reaction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reaction == "" {
			utils.JSONError(w, http.StatusBadRequest, "reaction is required")
			return
		}
		vars := mux.Vars(r)
		if err := svc.ToggleReaction(vars["chatID"], vars["msgID"], body.Reaction); err != nil {
			utils.JSONError(w, mutationStatus(err), err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func postReport(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reason   string `json:"reason"`
			Comments string `json:"comments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
			utils.JSONError(w, http.StatusBadRequest, "reason is required")
			return
		}
		vars := mux.Vars(r)
		if err := svc.ReportMessage(vars["chatID"], vars["msgID"], body.Reason, body.Comments); err != nil {
			utils.JSONError(w, mutationStatus(err), err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func postMessage(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
			utils.JSONError(w, http.StatusBadRequest, "text is required")
			return
		}
		m, err := svc.SendMessage(mux.Vars(r)["chatID"], body.Text)
		if err != nil {
			utils.JSONError(w, mutationStatus(err), err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusCreated, m)
	}
}

func markRead(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.MarkRead(mux.Vars(r)["chatID"]); err != nil {
			utils.JSONError(w, mutationStatus(err), err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func getUnread(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"unread": svc.UnreadCount()})
	}
}
