package socket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/coveytown-go/internal/api/middleware"
	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/dependencies/random"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
	"github.com/mcoot/coveytown-go/internal/services/towns"
)

// Config holds socket settings
type Config struct {
	// SendBuffer is the number of frames queued per client before it is dropped
	SendBuffer int
	AllowedOrigins []string
}

// DefaultConfig returns the default socket configuration
func DefaultConfig() Config {
	return Config{
		SendBuffer: 256,
	}
}

// Handler upgrades town socket requests and attaches a Client to the town
type Handler struct {
	store    *towns.Store
	limiter  *ratelimit.Limiter
	upgrader websocket.Upgrader
	cfg      Config
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewHandler creates a socket handler
func NewHandler(
	cfg Config,
	store *towns.Store,
	limiter *ratelimit.Limiter,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Handler {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	origins := NewOriginChecker(cfg.AllowedOrigins)
	return &Handler{
		store:   store,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		cfg:    cfg,
		clock:  clock,
		random: random,
		logger: logger.With(slog.String("component", "socket")),
	}
}

// ServeHTTP upgrades the connection, then authenticates it. A bad town or
// token is reported with a policy violation close frame.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	townID := model.TownID(mux.Vars(r)[middleware.TownIDVar])
	controller, err := h.store.GetControllerForTown(townID)
	if err != nil {
		h.reject(conn, "unknown town")
		return
	}

	session, err := controller.GetSessionByToken(middleware.ExtractToken(r))
	if err != nil {
		h.reject(conn, "invalid session")
		return
	}

	client := NewClient(conn, session, controller, h.limiter, h.clock, h.random, h.logger, h.cfg.SendBuffer)
	controller.AddTownListener(client)

	h.logger.Info("socket connected",
		slog.String("town", string(townID)),
		slog.String("player_id", string(session.Player.ID)))

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	frame := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
	_ = conn.Close()
}
