package request

import "github.com/mcoot/coveytown-go/internal/model"

// CreateTownRequest is the request body for creating a town
type CreateTownRequest struct {
	FriendlyName     string `json:"friendly_name"`
	IsPubliclyListed bool   `json:"is_publicly_listed"`
}

// UpdateTownRequest is the request body for updating a town.
// Omitted fields are left unchanged.
type UpdateTownRequest struct {
	TownPassword     string  `json:"town_password"`
	FriendlyName     *string `json:"friendly_name,omitempty"`
	IsPubliclyListed *bool   `json:"is_publicly_listed,omitempty"`
}

// JoinTownRequest is the request body for joining a town
type JoinTownRequest struct {
	UserName string `json:"user_name"`
}

// CreateConversationAreaRequest is the request body for creating a conversation area
type CreateConversationAreaRequest struct {
	Label       string            `json:"label"`
	Topic       string            `json:"topic"`
	BoundingBox model.BoundingBox `json:"bounding_box"`
}

// ChatNameRequest is the request body for creating or renaming a chat
type ChatNameRequest struct {
	ChatName string `json:"chat_name"`
}

// ChatPlayersRequest is the request body for adding players to or removing players from a chat
type ChatPlayersRequest struct {
	PlayerIDs []string `json:"player_ids"`
}

// ModelPlayerIDs converts the request ids to model ids
func (r ChatPlayersRequest) ModelPlayerIDs() []model.PlayerID {
	ids := make([]model.PlayerID, len(r.PlayerIDs))
	for i, id := range r.PlayerIDs {
		ids[i] = model.PlayerID(id)
	}
	return ids
}

// BlockPlayerRequest is the request body for blocking a player
type BlockPlayerRequest struct {
	PlayerID string `json:"player_id"`
}
