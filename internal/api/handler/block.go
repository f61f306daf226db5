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

// BlockHandler handles blocking and unblocking other players.
// The caller is always the blocking player.
type BlockHandler struct{}

// NewBlockHandler creates a new block handler
func NewBlockHandler() *BlockHandler {
	return &BlockHandler{}
}

// Block handles POST /api/v1/towns/{town_id}/blocks
func (h *BlockHandler) Block(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())

	var req request.BlockPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	if !controller.BlockPlayer(session.Player.ID, model.PlayerID(req.PlayerID)) {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}

	writeBlocklist(w, controller, session.Player.ID)
}

// Unblock handles DELETE /api/v1/towns/{town_id}/blocks/{player_id}
func (h *BlockHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())
	session := middleware.MustGetSession(r.Context())
	unblockedID := model.PlayerID(mux.Vars(r)["player_id"])

	if !controller.UnblockPlayer(session.Player.ID, unblockedID) {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}

	writeBlocklist(w, controller, session.Player.ID)
}

func writeBlocklist(w http.ResponseWriter, controller *town.Controller, playerID model.PlayerID) {
	player, err := controller.GetPlayer(playerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BlockResponse{
		BlockedPlayerIDs: response.PlayerFromModel(player).BlockedPlayerIDs,
	})
}
