package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/coveytown-go/internal/api/middleware"
	"github.com/mcoot/coveytown-go/internal/api/request"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/town"
)

// SessionHandler handles joining and leaving a town
type SessionHandler struct{}

// NewSessionHandler creates a new session handler
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Join handles POST /api/v1/towns/{town_id}/sessions
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())

	var req request.JoinTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	session, err := controller.Join(r.Context(), req.UserName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.JoinResponse{
		PlayerID:     string(session.Player.ID),
		SessionToken: session.Token,
		VideoToken:   session.VideoToken,
		Town:         snapshot(controller, session.Player.ID),
	})
}

// Leave handles DELETE /api/v1/towns/{town_id}/sessions
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())

	controller.DestroySession(session)

	response.NoContent(w)
}

// Get handles GET /api/v1/towns/{town_id}/sessions
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())

	response.JSON(w, http.StatusOK, response.JoinResponse{
		PlayerID:     string(session.Player.ID),
		SessionToken: session.Token,
		VideoToken:   session.VideoToken,
		Town:         snapshot(controller, session.Player.ID),
	})
}

// snapshot describes the town as seen by playerID, including only its chats
func snapshot(controller *town.Controller, playerID model.PlayerID) response.TownSnapshot {
	players := controller.Players()
	areas := controller.ConversationAreas()
	chats := controller.ChatsForPlayer(playerID)

	snap := response.TownSnapshot{
		FriendlyName:      controller.FriendlyName(),
		IsPubliclyListed:  controller.IsPubliclyListed(),
		Players:           make([]response.Player, len(players)),
		ConversationAreas: make([]response.ConversationArea, len(areas)),
		Chats:             make([]response.Chat, len(chats)),
	}
	for i, p := range players {
		snap.Players[i] = response.PlayerFromModel(p)
	}
	for i, a := range areas {
		snap.ConversationAreas[i] = response.ConversationAreaFromModel(a)
	}
	for i, c := range chats {
		snap.Chats[i] = response.ChatFromModel(c)
	}
	return snap
}
