package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/hooplink/internal/hooplink"
	"github.com/playperu/hooplink/internal/roster"
)

// JoinRequest is the optional request body for POST /api/games/{gameID}/join.
type JoinRequest struct {
	Phone string `json:"phone,omitempty"`
}

// JoinResponse carries the join outcome and the resulting game.
type JoinResponse struct {
	Result string        `json:"result"`
	Game   hooplink.Game `json:"game"`
}

// AddPlayerRequest is the request body for POST /api/games/{gameID}/players.
type AddPlayerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

func handleJoin(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		gameID := chi.URLParam(r, "gameID")
		g, res, err := rm.Get(r.Context(), gameID)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if res == roster.NotFound {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if g.IsLocked {
			writeError(w, http.StatusConflict, "game is locked")
			return
		}

		user, _ := userFrom(r)
		g, res, err = rm.Join(r.Context(), gameID, user, strings.TrimSpace(req.Phone))
		if err != nil {
			serverError(w, r, err)
			return
		}
		if res == roster.NotFound {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if res == roster.OK {
			broker.Publish(gameID, gameUpdated(g))
		}
		writeJSON(w, http.StatusOK, JoinResponse{Result: res.String(), Game: g})
	}
}

func handleLeave(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFrom(r)
		g, res, err := rm.Leave(r.Context(), chi.URLParam(r, "gameID"), user.ID)
		if writeGameResult(w, r, g, res, err, "not on this game's roster") {
			broker.Publish(g.ID, gameUpdated(g))
		}
	}
}

func handleAddPlayer(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddPlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		g, ok := ownedGame(w, r, rm)
		if !ok {
			return
		}
		g, res, err := rm.ManualAdd(r.Context(), g.ID, req.Name, strings.TrimSpace(req.Phone))
		if writeGameResult(w, r, g, res, err, "game not found") {
			broker.Publish(g.ID, gameUpdated(g))
		}
	}
}

func handleUpdatePlayer(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch roster.EntryPatch
		if err := readJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if patch.Status != nil && !patch.Status.Valid() {
			writeError(w, http.StatusBadRequest, "status must be confirmed or waitlist")
			return
		}

		g, ok := ownedGame(w, r, rm)
		if !ok {
			return
		}
		g, res, err := rm.UpdateEntry(r.Context(), g.ID, chi.URLParam(r, "userID"), patch)
		if writeGameResult(w, r, g, res, err, "player not found") {
			broker.Publish(g.ID, gameUpdated(g))
		}
	}
}

func handleRemovePlayer(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := ownedGame(w, r, rm)
		if !ok {
			return
		}
		g, res, err := rm.Leave(r.Context(), g.ID, chi.URLParam(r, "userID"))
		if writeGameResult(w, r, g, res, err, "player not found") {
			broker.Publish(g.ID, gameUpdated(g))
		}
	}
}

func handleNotifications(rm *roster.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFrom(r)
		notes, err := rm.Notifications(r.Context(), user.ID)
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notes)
	}
}

// ClearNotificationsResponse reports how many notifications were removed.
type ClearNotificationsResponse struct {
	Cleared int `json:"cleared"`
}

func handleClearNotifications(rm *roster.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFrom(r)
		n, err := rm.ClearNotifications(r.Context(), user.ID)
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ClearNotificationsResponse{Cleared: n})
	}
}

func handleDirectory(rm *roster.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := rm.Directory(r.Context())
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}
