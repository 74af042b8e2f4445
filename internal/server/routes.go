package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps, broker *Broker) {
	rm := deps.Roster

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("HoopLink API", "/openapi.json", "/docs"))
	r.Get("/ws/games/{gameID}", handleGameFeed(logger, broker))

	r.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware(deps.Sessions))

		r.Post("/login", handleLogin(deps))
		r.Post("/logout", handleLogout(deps.Sessions))

		r.Get("/games", handleListGames(rm))
		r.Get("/games/{gameID}", handleGetGame(rm))
		r.Get("/games/{gameID}/events", handleEvents(broker))
		r.Get("/players", handleDirectory(rm))

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/me", handleMe())
			r.Put("/me", handleUpdateMe(deps.Sessions))

			r.Post("/games", handleCreateGame(rm))
			r.Put("/games/{gameID}", handleUpdateGame(rm, broker))
			r.Delete("/games/{gameID}", handleDeleteGame(rm, broker))
			r.Post("/games/{gameID}/lock", handleToggleLock(rm, broker))

			r.Post("/games/{gameID}/join", handleJoin(rm, broker))
			r.Post("/games/{gameID}/leave", handleLeave(rm, broker))
			r.Post("/games/{gameID}/players", handleAddPlayer(rm, broker))
			r.Patch("/games/{gameID}/players/{userID}", handleUpdatePlayer(rm, broker))
			r.Delete("/games/{gameID}/players/{userID}", handleRemovePlayer(rm, broker))

			r.Get("/notifications", handleNotifications(rm))
			r.Delete("/notifications", handleClearNotifications(rm))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
