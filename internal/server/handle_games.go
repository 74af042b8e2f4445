package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/hooplink/internal/hooplink"
	"github.com/playperu/hooplink/internal/roster"
)

const defaultCancelReason = "Organizers schedule changed"

// CreateGameRequest is the request body for POST /api/games.
type CreateGameRequest struct {
	Title       string              `json:"title"`
	Date        string              `json:"date"`
	Time        string              `json:"time"`
	Location    string              `json:"location"`
	LocationURL string              `json:"locationUrl,omitempty"`
	MaxPlayers  int                 `json:"maxPlayers,omitempty"`
	SkillLevel  hooplink.SkillLevel `json:"skillLevel,omitempty"`
	Notes       string              `json:"notes,omitempty"`
}

// DeleteGameRequest is the optional request body for DELETE /api/games/{gameID}.
type DeleteGameRequest struct {
	Reason string `json:"reason,omitempty"`
}

// DeleteGameResponse reports how many roster entries were notified.
type DeleteGameResponse struct {
	Notified int `json:"notified"`
}

// ownedGame loads the game named in the URL and checks that the caller is an
// organizer session that hosts it. It writes the error response itself.
func ownedGame(w http.ResponseWriter, r *http.Request, rm *roster.Manager) (hooplink.Game, bool) {
	user, _ := userFrom(r)
	g, res, err := rm.Get(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		serverError(w, r, err)
		return hooplink.Game{}, false
	}
	if res == roster.NotFound {
		writeError(w, http.StatusNotFound, "game not found")
		return hooplink.Game{}, false
	}
	if user.Role != hooplink.RoleOrganizer || g.OrganizerID != user.ID {
		writeError(w, http.StatusForbidden, "only the organizer can manage this game")
		return hooplink.Game{}, false
	}
	return g, true
}

// writeGameResult writes g, or the error for a failed roster call.
func writeGameResult(w http.ResponseWriter, r *http.Request, g hooplink.Game, res roster.Result, err error, notFound string) bool {
	switch {
	case err != nil:
		serverError(w, r, err)
		return false
	case res == roster.NotFound:
		writeError(w, http.StatusNotFound, notFound)
		return false
	}
	writeJSON(w, http.StatusOK, g)
	return true
}

func handleListGames(rm *roster.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := hooplink.Filter{
			Skill:    q.Get("skill"),
			Date:     q.Get("date"),
			Location: q.Get("location"),
		}

		mine, organized := q.Get("mine") == "true", q.Get("organized") == "true"
		if mine || organized {
			user, ok := userFrom(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if mine {
				f.JoinedBy = user.ID
			}
			if organized {
				f.OrganizedBy = user.ID
			}
		}

		games, err := rm.List(r.Context(), f)
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func handleGetGame(rm *roster.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, res, err := rm.Get(r.Context(), chi.URLParam(r, "gameID"))
		writeGameResult(w, r, g, res, err, "game not found")
	}
}

func handleCreateGame(rm *roster.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFrom(r)
		if user.Role != hooplink.RoleOrganizer {
			writeError(w, http.StatusForbidden, "only organizers can create games")
			return
		}

		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		req.Location = strings.TrimSpace(req.Location)
		if req.Title == "" || req.Date == "" || req.Time == "" || req.Location == "" {
			writeError(w, http.StatusBadRequest, "title, date, time and location are required")
			return
		}
		if req.MaxPlayers < 0 {
			writeError(w, http.StatusBadRequest, "maxPlayers must be positive")
			return
		}
		if req.SkillLevel != "" && !req.SkillLevel.Valid() {
			writeError(w, http.StatusBadRequest, "unknown skillLevel")
			return
		}

		g, err := rm.Create(r.Context(), roster.NewGame{
			Title:         req.Title,
			OrganizerID:   user.ID,
			OrganizerName: user.Name,
			Date:          req.Date,
			Time:          req.Time,
			Location:      req.Location,
			LocationURL:   req.LocationURL,
			MaxPlayers:    req.MaxPlayers,
			SkillLevel:    req.SkillLevel,
			Notes:         req.Notes,
		})
		if err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func handleUpdateGame(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch roster.GamePatch
		if err := readJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if patch.MaxPlayers != nil && *patch.MaxPlayers <= 0 {
			writeError(w, http.StatusBadRequest, "maxPlayers must be positive")
			return
		}
		if patch.SkillLevel != nil && !patch.SkillLevel.Valid() {
			writeError(w, http.StatusBadRequest, "unknown skillLevel")
			return
		}
		if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}

		g, ok := ownedGame(w, r, rm)
		if !ok {
			return
		}
		g, res, err := rm.Update(r.Context(), g.ID, patch)
		if writeGameResult(w, r, g, res, err, "game not found") {
			broker.Publish(g.ID, gameUpdated(g))
		}
	}
}

func handleDeleteGame(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := r.URL.Query().Get("reason")
		var req DeleteGameRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Reason != "" {
			reason = req.Reason
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = defaultCancelReason
		}

		g, ok := ownedGame(w, r, rm)
		if !ok {
			return
		}
		notes, res, err := rm.Delete(r.Context(), g.ID, reason)
		if err != nil {
			serverError(w, r, err)
			return
		}
		if res == roster.NotFound {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		broker.Publish(g.ID, RosterEvent{Type: EventGameDeleted, GameID: g.ID, Reason: reason})
		writeJSON(w, http.StatusOK, DeleteGameResponse{Notified: len(notes)})
	}
}

func handleToggleLock(rm *roster.Manager, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := ownedGame(w, r, rm)
		if !ok {
			return
		}
		g, res, err := rm.ToggleLock(r.Context(), g.ID)
		if writeGameResult(w, r, g, res, err, "game not found") {
			broker.Publish(g.ID, gameUpdated(g))
		}
	}
}
