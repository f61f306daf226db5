package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/coveytown-go/internal/api/middleware"
	"github.com/mcoot/coveytown-go/internal/api/request"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/town"
)

// ChatHandler handles chat roster endpoints.
// Only current members may change a chat's roster or name.
type ChatHandler struct{}

// NewChatHandler creates a new chat handler
func NewChatHandler() *ChatHandler {
	return &ChatHandler{}
}

// List handles GET /api/v1/towns/{town_id}/chats
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())

	response.JSON(w, http.StatusOK, response.ChatListFromModel(controller.ChatsForPlayer(session.Player.ID)))
}

// Create handles POST /api/v1/towns/{town_id}/chats
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())

	var req request.ChatNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}
	if req.ChatName == "" {
		WriteError(w, model.ErrEmptyChatName)
		return
	}

	chat := controller.CreateChat(session.Player.ID, req.ChatName)

	response.JSON(w, http.StatusCreated, response.ChatFromModel(chat))
}

// Rename handles PATCH /api/v1/towns/{town_id}/chats/{chat_id}
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())
	chatID := model.ChatID(mux.Vars(r)["chat_id"])

	var req request.ChatNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	chat, err := controller.RenameChat(session.Player.ID, chatID, req.ChatName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ChatFromModel(chat))
}

// AddPlayers handles POST /api/v1/towns/{town_id}/chats/{chat_id}/players
func (h *ChatHandler) AddPlayers(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())
	chatID := model.ChatID(mux.Vars(r)["chat_id"])

	var req request.ChatPlayersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.PlayerIDs) == 0 {
		WriteError(w, NewInvalidRequestError("player_ids must be a non-empty list"))
		return
	}
	if err := requireMember(controller, chatID, session.Player.ID); err != nil {
		WriteError(w, err)
		return
	}

	if !controller.AddPlayersToChat(req.ModelPlayerIDs(), chatID) {
		WriteError(w, model.ErrChatNotFound)
		return
	}

	h.writeChat(w, controller, chatID)
}

// RemovePlayers handles POST /api/v1/towns/{town_id}/chats/{chat_id}/players/remove
func (h *ChatHandler) RemovePlayers(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())
	chatID := model.ChatID(mux.Vars(r)["chat_id"])

	var req request.ChatPlayersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.PlayerIDs) == 0 {
		WriteError(w, NewInvalidRequestError("player_ids must be a non-empty list"))
		return
	}
	if err := requireMember(controller, chatID, session.Player.ID); err != nil {
		WriteError(w, err)
		return
	}

	if !controller.RemovePlayersFromChat(req.ModelPlayerIDs(), chatID) {
		WriteError(w, model.ErrChatNotFound)
		return
	}

	// The chat is gone once its last member leaves
	if _, err := controller.GetChat(chatID); err != nil {
		response.NoContent(w)
		return
	}
	h.writeChat(w, controller, chatID)
}

func (h *ChatHandler) writeChat(w http.ResponseWriter, controller *town.Controller, chatID model.ChatID) {
	chat, err := controller.GetChat(chatID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ChatFromModel(chat))
}

func requireMember(controller *town.Controller, chatID model.ChatID, playerID model.PlayerID) error {
	chat, err := controller.GetChat(chatID)
	if err != nil {
		return err
	}
	if !chat.HasPlayer(playerID) {
		return model.ErrNotChatMember
	}
	return nil
}
