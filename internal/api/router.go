package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/coveytown-go/internal/api/handler"
	"github.com/mcoot/coveytown-go/internal/api/middleware"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
	"github.com/mcoot/coveytown-go/internal/services/towns"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Store   *towns.Store
	Limiter *ratelimit.Limiter

	// SocketHandler serves town websocket upgrades; the route is omitted when nil
	SocketHandler http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	townHandler := handler.NewTownHandler(cfg.Store)
	sessionHandler := handler.NewSessionHandler()
	areaHandler := handler.NewAreaHandler()
	chatHandler := handler.NewChatHandler()
	blockHandler := handler.NewBlockHandler()

	// Create middleware
	townMiddleware := middleware.Town(cfg.Store)
	session := middleware.Session()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	joinLimit := middleware.RateLimit(cfg.Limiter, ratelimit.ScopeJoin, cfg.Logger)
	createLimit := middleware.RateLimit(cfg.Limiter, ratelimit.ScopeCreateTown, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.Store)).Methods(http.MethodGet)

	// Town registry
	api.HandleFunc("/towns", townHandler.List).Methods(http.MethodGet)
	api.Handle("/towns", createLimit(http.HandlerFunc(townHandler.Create))).Methods(http.MethodPost)
	api.HandleFunc("/towns/{town_id}", townHandler.Update).Methods(http.MethodPatch)

	// The socket authenticates after upgrading so it can report failures as close frames
	if cfg.SocketHandler != nil {
		api.Handle("/towns/{town_id}/socket", cfg.SocketHandler).Methods(http.MethodGet)
	}

	// Routes inside a town
	town := api.PathPrefix("/towns/{town_id}").Subrouter()
	town.Use(townMiddleware)

	town.Handle("/sessions", joinLimit(http.HandlerFunc(sessionHandler.Join))).Methods(http.MethodPost)
	town.Handle("/sessions", session(http.HandlerFunc(sessionHandler.Get))).Methods(http.MethodGet)
	town.Handle("/sessions", session(http.HandlerFunc(sessionHandler.Leave))).Methods(http.MethodDelete)

	town.Handle("/conversation-areas", session(http.HandlerFunc(areaHandler.List))).Methods(http.MethodGet)
	town.Handle("/conversation-areas", session(http.HandlerFunc(areaHandler.Create))).Methods(http.MethodPost)

	town.Handle("/chats", session(http.HandlerFunc(chatHandler.List))).Methods(http.MethodGet)
	town.Handle("/chats", session(http.HandlerFunc(chatHandler.Create))).Methods(http.MethodPost)
	town.Handle("/chats/{chat_id}", session(http.HandlerFunc(chatHandler.Rename))).Methods(http.MethodPatch)
	town.Handle("/chats/{chat_id}/players", session(http.HandlerFunc(chatHandler.AddPlayers))).Methods(http.MethodPost)
	town.Handle("/chats/{chat_id}/players/remove", session(http.HandlerFunc(chatHandler.RemovePlayers))).Methods(http.MethodPost)

	town.Handle("/blocks", session(http.HandlerFunc(blockHandler.Block))).Methods(http.MethodPost)
	town.Handle("/blocks/{player_id}", session(http.HandlerFunc(blockHandler.Unblock))).Methods(http.MethodDelete)

	// The password segment would also match DELETE .../sessions, so this goes
	// after the town routes; mux picks the first route that matches
	api.HandleFunc("/towns/{town_id}/{town_password}", townHandler.Delete).Methods(http.MethodDelete)

	return r
}

func healthHandler(store *towns.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		townCount, players := store.Stats()
		response.JSON(w, http.StatusOK, response.HealthResponse{
			Status:  "ok",
			Towns:   townCount,
			Players: players,
		})
	}
}
