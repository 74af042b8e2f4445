package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/hooplink/internal/hooplink"
)

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Role     hooplink.Role `json:"role"`
	Phone    string        `json:"phone,omitempty"`
	Passcode string        `json:"passcode,omitempty"`
}

// LoginResponse is the response for POST /api/login.
type LoginResponse struct {
	User  hooplink.User `json:"user"`
	Token string        `json:"token"`
}

// ProfileRequest is the request body for PUT /api/me.
type ProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func handleLogin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Name == "" || req.Email == "" {
			writeError(w, http.StatusBadRequest, "name and email are required")
			return
		}
		if req.Role == "" {
			req.Role = hooplink.RolePlayer
		}
		if !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "role must be PLAYER or ORGANIZER")
			return
		}

		if req.Role == hooplink.RoleOrganizer && deps.OrganizerPasscodeHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(deps.OrganizerPasscodeHash), []byte(req.Passcode)); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid organizer passcode")
				return
			}
		}

		id, err := uuid.NewRandom()
		if err != nil {
			serverError(w, r, fmt.Errorf("generating user id: %w", err))
			return
		}
		user := hooplink.User{
			ID:    id.String(),
			Name:  req.Name,
			Email: req.Email,
			Role:  req.Role,
			Phone: strings.TrimSpace(req.Phone),
		}
		token, err := deps.Sessions.CreateSession(r.Context(), user, deps.SessionTTL)
		if err != nil {
			serverError(w, r, fmt.Errorf("creating session: %w", err))
			return
		}

		setSessionCookie(w, token, deps.SessionTTL)
		writeJSON(w, http.StatusOK, LoginResponse{User: user, Token: token})
	}
}

func handleLogout(sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessionToken(r); token != "" {
			sessions.DeleteSession(r.Context(), token)
		}
		clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFrom(r)
		writeJSON(w, http.StatusOK, user)
	}
}

func handleUpdateMe(sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, _ := userFrom(r)
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeError(w, http.StatusBadRequest, "name cannot be empty")
				return
			}
			user.Name = name
		}
		if req.Phone != nil {
			user.Phone = strings.TrimSpace(*req.Phone)
		}

		if err := sessions.UpdateUser(r.Context(), user); err != nil {
			serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
