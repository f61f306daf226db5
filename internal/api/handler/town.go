package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/coveytown-go/internal/api/request"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/towns"
)

// TownHandler handles town registry endpoints
type TownHandler struct {
	store *towns.Store
}

// NewTownHandler creates a new town handler
func NewTownHandler(store *towns.Store) *TownHandler {
	return &TownHandler{store: store}
}

// List handles GET /api/v1/towns
func (h *TownHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.TownListFromModel(h.store.ListTowns()))
}

// Create handles POST /api/v1/towns
func (h *TownHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	controller, password, err := h.store.CreateTown(r.Context(), req.FriendlyName, req.IsPubliclyListed)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateTownResponse{
		TownID:       string(controller.ID()),
		TownPassword: password,
	})
}

// Update handles PATCH /api/v1/towns/{town_id}
func (h *TownHandler) Update(w http.ResponseWriter, r *http.Request) {
	townID := model.TownID(mux.Vars(r)["town_id"])

	var req request.UpdateTownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	update := towns.Update{
		FriendlyName:     req.FriendlyName,
		IsPubliclyListed: req.IsPubliclyListed,
	}
	if err := h.store.UpdateTown(townID, req.TownPassword, update); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/towns/{town_id}/{town_password}
func (h *TownHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.store.DeleteTown(model.TownID(vars["town_id"]), vars["town_password"]); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
