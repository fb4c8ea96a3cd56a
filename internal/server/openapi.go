package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/Nicoding1996/art-society/internal/admin"
)

// ErrorResponse is returned for all error responses. Step names the write
// that failed when earlier writes were already applied.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Step  string `json:"step,omitempty" enum:"identities,snapshot,aggregates,lineup,players,games,lineups"`
}

type HealthCheck struct {
	Status    string `json:"status" enum:"ok,error"`
	LatencyMS int64  `json:"latency_ms"`
}

type HealthResponse map[string]HealthCheck

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Art Society API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Scoring, game history and leaderboard for Art Society game nights.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/history")
	getHistory.SetSummary("Game history and leaderboard")
	getHistory.SetDescription("Returns every recorded game, newest first, and the leaderboard built from them.")
	getHistory.AddRespStructure(HistoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHistory)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Record game")
	postGame.SetDescription("Resolves player identities, stores the game, and updates player and lineup counters. " +
		"Recording the same game id again overwrites the game and counts it again.")
	postGame.AddReqStructure(RecordGameRequest{})
	postGame.AddRespStructure(RecordGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postGame)

	// POST /api/scores
	postScores, _ := r.NewOperationContext(http.MethodPost, "/api/scores")
	postScores.SetSummary("Calculate scores")
	postScores.SetDescription("Scores every seat against the prestige order and ranks them. Nothing is stored.")
	postScores.AddReqStructure(ScoreRequest{})
	postScores.AddRespStructure(ScoreResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postScores.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postScores)

	// POST /api/prestige/move
	postMove, _ := r.NewOperationContext(http.MethodPost, "/api/prestige/move")
	postMove.SetSummary("Move prestige color")
	postMove.SetDescription("Swaps a color with its neighbour and reassigns multipliers. Fails once any seat has input.")
	postMove.AddReqStructure(PrestigeMoveRequest{})
	postMove.AddRespStructure(PrestigeMoveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postMove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postMove)

	// GET /api/players/search
	searchPlayers, _ := r.NewOperationContext(http.MethodGet, "/api/players/search")
	searchPlayers.SetSummary("Search players")
	searchPlayers.SetDescription("Finds identities whose canonical name matches q, plus close suggestions.")
	searchPlayers.AddReqStructure(struct {
		Q string `query:"q" required:"true"`
	}{})
	searchPlayers.AddRespStructure(PlayerSearchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	searchPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(searchPlayers)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream with one game.recorded event per recorded game.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/events
	getWSEvents, _ := r.NewOperationContext(http.MethodGet, "/ws/events")
	getWSEvents.SetSummary("WebSocket event stream")
	getWSEvents.SetDescription("Upgrades to a WebSocket connection carrying the same events as /api/events.")
	getWSEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSEvents)

	// POST /api/admin/import
	postImport, _ := r.NewOperationContext(http.MethodPost, "/api/admin/import")
	postImport.SetSummary("Bulk import")
	postImport.SetDescription("Upserts players, games and lineups by id without merging. Requires Bearer token.")
	postImport.AddReqStructure(admin.Payload{})
	postImport.AddRespStructure(ImportResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postImport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postImport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postImport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postImport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postImport)

	// POST /api/admin/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/admin/reset")
	postReset.SetSummary("Reset store")
	postReset.SetDescription("Deletes all games and lineups, and players unless keepPlayers is true. Requires Bearer token.")
	postReset.AddReqStructure(struct {
		KeepPlayers bool `query:"keepPlayers"`
	}{})
	postReset.AddRespStructure(ResetResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postReset)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
