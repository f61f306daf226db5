package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/coveytown-go/internal/api/middleware"
	"github.com/mcoot/coveytown-go/internal/api/request"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/model"
)

// AreaHandler handles conversation area endpoints
type AreaHandler struct{}

// NewAreaHandler creates a new conversation area handler
func NewAreaHandler() *AreaHandler {
	return &AreaHandler{}
}

// Create handles POST /api/v1/towns/{town_id}/conversation-areas
func (h *AreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())

	var req request.CreateConversationAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}
	if req.BoundingBox.Width <= 0 || req.BoundingBox.Height <= 0 {
		WriteError(w, NewInvalidRequestError("Bounding box must have a positive width and height"))
		return
	}

	area, err := controller.AddConversationArea(model.ConversationArea{
		Label:       req.Label,
		Topic:       req.Topic,
		BoundingBox: req.BoundingBox,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ConversationAreaFromModel(area))
}

// List handles GET /api/v1/towns/{town_id}/conversation-areas
func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	controller := middleware.MustGetTown(r.Context())

	areas := controller.ConversationAreas()
	result := make([]response.ConversationArea, len(areas))
	for i, a := range areas {
		result[i] = response.ConversationAreaFromModel(a)
	}

	response.JSON(w, http.StatusOK, result)
}
