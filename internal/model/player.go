package model

// PlayerID uniquely identifies a player within a town
type PlayerID string

// Direction is the way a player's avatar is facing
type Direction string

const (
	DirectionFront Direction = "front"
	DirectionBack  Direction = "back"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Location is a player's reported position in the town
type Location struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Rotation Direction `json:"rotation"`
	Moving   bool      `json:"moving"`

	// ConversationLabel is the area the client believes it is in, empty if none
	ConversationLabel string `json:"conversation_label,omitempty"`
}

// DefaultLocation is where every player starts
func DefaultLocation() Location {
	return Location{
		X:        0,
		Y:        0,
		Rotation: DirectionFront,
		Moving:   false,
	}
}

// Player represents a participant in a town
type Player struct {
	ID       PlayerID
	UserName string
	Location Location

	// ActiveAreaLabel references the conversation area the player occupies.
	// Empty when the player is not in an area.
	ActiveAreaLabel string

	// BlockedPlayerIDs is kept in insertion order without duplicates
	BlockedPlayerIDs []PlayerID
}

// NewPlayer creates a player at the default location
func NewPlayer(id PlayerID, userName string) *Player {
	return &Player{
		ID:               id,
		UserName:         userName,
		Location:         DefaultLocation(),
		BlockedPlayerIDs: []PlayerID{},
	}
}

// IsWithin reports whether the player's coordinates fall strictly inside the area's box
func (p *Player) IsWithin(area *ConversationArea) bool {
	return area.BoundingBox.Contains(p.Location.X, p.Location.Y)
}

// HasBlocked returns true if id is on the player's blocklist
func (p *Player) HasBlocked(id PlayerID) bool {
	for _, blocked := range p.BlockedPlayerIDs {
		if blocked == id {
			return true
		}
	}
	return false
}

// AddBlockedPlayerID blocks id, returning false if it was already blocked
func (p *Player) AddBlockedPlayerID(id PlayerID) bool {
	if p.HasBlocked(id) {
		return false
	}
	p.BlockedPlayerIDs = append(p.BlockedPlayerIDs, id)
	return true
}

// RemoveBlockedPlayerID unblocks id, returning false if it was not blocked
func (p *Player) RemoveBlockedPlayerID(id PlayerID) bool {
	for i, blocked := range p.BlockedPlayerIDs {
		if blocked == id {
			p.BlockedPlayerIDs = append(p.BlockedPlayerIDs[:i], p.BlockedPlayerIDs[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy that shares no mutable state with p
func (p *Player) Snapshot() Player {
	cp := *p
	cp.BlockedPlayerIDs = append([]PlayerID(nil), p.BlockedPlayerIDs...)
	return cp
}

// PlayerSession binds a connected player to a town
type PlayerSession struct {
	// Token authorizes every subsequent request from this player
	Token      string
	Player     *Player
	VideoToken string
}
