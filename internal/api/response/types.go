package response

import (
	"github.com/mcoot/coveytown-go/internal/model"
)

// Town represents a town in API responses
type Town struct {
	TownID           string `json:"town_id"`
	FriendlyName     string `json:"friendly_name"`
	CurrentOccupancy int    `json:"current_occupancy"`
	MaximumOccupancy int    `json:"maximum_occupancy"`
}

// TownFromListing converts a model.TownListing
func TownFromListing(l model.TownListing) Town {
	return Town{
		TownID:           string(l.ID),
		FriendlyName:     l.FriendlyName,
		CurrentOccupancy: l.CurrentOccupancy,
		MaximumOccupancy: l.MaximumOccupancy,
	}
}

// TownList is the response for listing towns
type TownList struct {
	Towns []Town `json:"towns"`
}

// TownListFromModel converts a slice of listings
func TownListFromModel(listings []model.TownListing) TownList {
	towns := make([]Town, len(listings))
	for i, l := range listings {
		towns[i] = TownFromListing(l)
	}
	return TownList{Towns: towns}
}

// CreateTownResponse is the response after creating a town.
// The password is only ever returned here.
type CreateTownResponse struct {
	TownID       string `json:"town_id"`
	TownPassword string `json:"town_password"`
}

// Player represents a player in API responses
type Player struct {
	ID               string         `json:"id"`
	UserName         string         `json:"user_name"`
	Location         model.Location `json:"location"`
	ActiveAreaLabel  string         `json:"active_area_label,omitempty"`
	BlockedPlayerIDs []string       `json:"blocked_player_ids"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:               string(p.ID),
		UserName:         p.UserName,
		Location:         p.Location,
		ActiveAreaLabel:  p.ActiveAreaLabel,
		BlockedPlayerIDs: playerIDs(p.BlockedPlayerIDs),
	}
}

// ConversationArea represents a conversation area in API responses
type ConversationArea struct {
	Label       string            `json:"label"`
	Topic       string            `json:"topic"`
	BoundingBox model.BoundingBox `json:"bounding_box"`
	Occupants   []string          `json:"occupants"`
}

// ConversationAreaFromModel converts model.ConversationArea
func ConversationAreaFromModel(a model.ConversationArea) ConversationArea {
	return ConversationArea{
		Label:       a.Label,
		Topic:       a.Topic,
		BoundingBox: a.BoundingBox,
		Occupants:   playerIDs(a.OccupantsByID),
	}
}

// Chat represents a chat in API responses
type Chat struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AuthorID string   `json:"author_id"`
	Members  []string `json:"members"`
}

// ChatFromModel converts model.ChatInfo
func ChatFromModel(c model.ChatInfo) Chat {
	return Chat{
		ID:       string(c.ID),
		Name:     c.Name,
		AuthorID: string(c.AuthorID),
		Members:  playerIDs(c.Members),
	}
}

// ChatList is the response for listing chats
type ChatList struct {
	Chats []Chat `json:"chats"`
}

// ChatListFromModel converts a slice of chats
func ChatListFromModel(chats []model.ChatInfo) ChatList {
	result := make([]Chat, len(chats))
	for i, c := range chats {
		result[i] = ChatFromModel(c)
	}
	return ChatList{Chats: result}
}

// TownSnapshot is everything a client needs to render a town
type TownSnapshot struct {
	FriendlyName      string             `json:"friendly_name"`
	IsPubliclyListed  bool               `json:"is_publicly_listed"`
	Players           []Player           `json:"players"`
	ConversationAreas []ConversationArea `json:"conversation_areas"`
	Chats             []Chat             `json:"chats"`
}

// JoinResponse is the response after joining a town
type JoinResponse struct {
	PlayerID     string       `json:"player_id"`
	SessionToken string       `json:"session_token"`
	VideoToken   string       `json:"video_token"`
	Town         TownSnapshot `json:"town"`
}

// BlockResponse reports a player's blocklist after a change
type BlockResponse struct {
	BlockedPlayerIDs []string `json:"blocked_player_ids"`
}

func playerIDs(ids []model.PlayerID) []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = string(id)
	}
	return result
}

// HealthResponse reports liveness and how busy the service is
type HealthResponse struct {
	Status  string `json:"status"`
	Towns   int    `json:"towns"`
	Players int    `json:"players"`
}
