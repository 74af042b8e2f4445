package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/hooplink/internal/handler/health"
	"github.com/playperu/hooplink/internal/hooplink"
	"github.com/playperu/hooplink/internal/roster"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GamePath is the path parameter of per-game routes.
type GamePath struct {
	GameID string `path:"gameID"`
}

// PlayerPath addresses one roster entry.
type PlayerPath struct {
	GameID string `path:"gameID"`
	UserID string `path:"userID"`
}

type listGamesQuery struct {
	Skill     string `query:"skill" description:"Skill level, or All"`
	Date      string `query:"date" description:"Exact date, YYYY-MM-DD"`
	Location  string `query:"location" description:"Case-insensitive substring"`
	Mine      bool   `query:"mine" description:"Only games the caller is rostered on"`
	Organized bool   `query:"organized" description:"Only games the caller organizes"`
}

type deleteGameInput struct {
	GamePath
	Reason string `query:"reason" description:"Shown to notified players"`
}

type updateGameInput struct {
	GamePath
	roster.GamePatch
}

type joinInput struct {
	GamePath
	JoinRequest
}

type addPlayerInput struct {
	GamePath
	AddPlayerRequest
}

type updatePlayerInput struct {
	PlayerPath
	roster.EntryPatch
}

// operation describes one documented route.
type operation struct {
	method      string
	path        string
	summary     string
	description string
	req         any
	resp        any
	status      int
	errors      []int
	contentType string
}

var operations = []operation{
	{method: http.MethodGet, path: "/healthz", summary: "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        health.Response{}, status: http.StatusOK, errors: []int{http.StatusServiceUnavailable}},
	{method: http.MethodPost, path: "/api/login", summary: "Log in",
		description: "Creates a session for the given profile. Sets the hooplink_session cookie.",
		req:         LoginRequest{}, resp: LoginResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
	{method: http.MethodPost, path: "/api/logout", summary: "Log out",
		description: "Drops the session and clears the cookie.", status: http.StatusOK},
	{method: http.MethodGet, path: "/api/me", summary: "Current user",
		resp: hooplink.User{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized}},
	{method: http.MethodPut, path: "/api/me", summary: "Update profile",
		description: "Updates the caller's name and phone.",
		req:         ProfileRequest{}, resp: hooplink.User{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
	{method: http.MethodGet, path: "/api/games", summary: "List games",
		req: listGamesQuery{}, resp: []hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized}},
	{method: http.MethodPost, path: "/api/games", summary: "Create game",
		description: "Requires the ORGANIZER role.",
		req:         CreateGameRequest{}, resp: hooplink.Game{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden}},
	{method: http.MethodGet, path: "/api/games/{gameID}", summary: "Get game",
		req: GamePath{}, resp: hooplink.Game{}, status: http.StatusOK, errors: []int{http.StatusNotFound}},
	{method: http.MethodPut, path: "/api/games/{gameID}", summary: "Update game",
		description: "Partial update. Capacity changes do not rebalance the roster.",
		req:         updateGameInput{}, resp: hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
	{method: http.MethodDelete, path: "/api/games/{gameID}", summary: "Cancel game",
		description: "Deletes the game and notifies every rostered player.",
		req:         deleteGameInput{}, resp: DeleteGameResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
	{method: http.MethodPost, path: "/api/games/{gameID}/lock", summary: "Toggle lock",
		req: GamePath{}, resp: hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
	{method: http.MethodPost, path: "/api/games/{gameID}/join", summary: "Join game",
		description: "Confirmed while seats remain, waitlisted after. Locked games answer 409.",
		req:         joinInput{}, resp: JoinResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodPost, path: "/api/games/{gameID}/leave", summary: "Leave game",
		description: "A departing confirmed player promotes the first waitlisted entry.",
		req:         GamePath{}, resp: hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusNotFound}},
	{method: http.MethodPost, path: "/api/games/{gameID}/players", summary: "Add guest",
		req: addPlayerInput{}, resp: hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
	{method: http.MethodPatch, path: "/api/games/{gameID}/players/{userID}", summary: "Edit roster entry",
		description: "Overwrites name, phone or status without a capacity check.",
		req:         updatePlayerInput{}, resp: hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
	{method: http.MethodDelete, path: "/api/games/{gameID}/players/{userID}", summary: "Remove player",
		req: PlayerPath{}, resp: hooplink.Game{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
	{method: http.MethodGet, path: "/api/games/{gameID}/events", summary: "SSE event stream",
		description: "Server-Sent Events carrying game_updated and game_deleted.",
		req:         GamePath{}, status: http.StatusOK, contentType: "text/event-stream"},
	{method: http.MethodGet, path: "/ws/games/{gameID}", summary: "WebSocket event stream",
		description: "Same events as the SSE stream, one JSON text message each.",
		req:         GamePath{}, status: http.StatusSwitchingProtocols, contentType: "text/plain"},
	{method: http.MethodGet, path: "/api/notifications", summary: "My notifications",
		resp: []hooplink.Notification{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized}},
	{method: http.MethodDelete, path: "/api/notifications", summary: "Clear my notifications",
		resp: ClearNotificationsResponse{}, status: http.StatusOK, errors: []int{http.StatusUnauthorized}},
	{method: http.MethodGet, path: "/api/players", summary: "Player directory",
		description: "Every rostered player, most games first.",
		resp:        []hooplink.PlayerSummary{}, status: http.StatusOK},
}

func newOpenAPISpec() (*openapi3.Spec, error) {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "HoopLink API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Pickup basketball scheduling with waitlists.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			return nil, err
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		if op.contentType != "" {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.status), openapi.WithContentType(op.contentType))
		} else {
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		}
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		if err := r.AddOperation(oc); err != nil {
			return nil, err
		}
	}
	return r.Spec, nil
}

func handleOpenAPI() http.HandlerFunc {
	spec, err := newOpenAPISpec()
	if err != nil {
		panic("building openapi spec: " + err.Error())
	}
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
