package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case TownList:
		o.printTownList(v)
	case CreateTownResult:
		o.printCreateTown(v)
	case JoinResult:
		o.printJoin(v)
	case ConversationArea:
		o.printArea(v)
	case Chat:
		o.printChat(v)
	case ChatList:
		for _, c := range v.Chats {
			o.printChat(c)
		}
	case BlockResult:
		o.printBlocks(v)
	case HealthResult:
		o.printf("Status:  %s\n", v.Status)
		o.printf("Towns:   %d\n", v.Towns)
		o.printf("Players: %d\n", v.Players)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Town response type (matches API)
type Town struct {
	TownID           string `json:"town_id"`
	FriendlyName     string `json:"friendly_name"`
	CurrentOccupancy int    `json:"current_occupancy"`
	MaximumOccupancy int    `json:"maximum_occupancy"`
}

// TownList response type
type TownList struct {
	Towns []Town `json:"towns"`
}

// CreateTownResult response type
type CreateTownResult struct {
	TownID       string `json:"town_id"`
	TownPassword string `json:"town_password"`
}

// Location response type
type Location struct {
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	Rotation          string  `json:"rotation"`
	Moving            bool    `json:"moving"`
	ConversationLabel string  `json:"conversation_label,omitempty"`
}

// Player response type
type Player struct {
	ID               string   `json:"id"`
	UserName         string   `json:"user_name"`
	Location         Location `json:"location"`
	ActiveAreaLabel  string   `json:"active_area_label,omitempty"`
	BlockedPlayerIDs []string `json:"blocked_player_ids"`
}

// BoundingBox response type
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ConversationArea response type
type ConversationArea struct {
	Label       string      `json:"label"`
	Topic       string      `json:"topic"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Occupants   []string    `json:"occupants"`
}

// Chat response type
type Chat struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AuthorID string   `json:"author_id"`
	Members  []string `json:"members"`
}

// ChatList response type
type ChatList struct {
	Chats []Chat `json:"chats"`
}

// TownSnapshot response type
type TownSnapshot struct {
	FriendlyName      string             `json:"friendly_name"`
	IsPubliclyListed  bool               `json:"is_publicly_listed"`
	Players           []Player           `json:"players"`
	ConversationAreas []ConversationArea `json:"conversation_areas"`
	Chats             []Chat             `json:"chats"`
}

// JoinResult response type
type JoinResult struct {
	PlayerID     string       `json:"player_id"`
	SessionToken string       `json:"session_token"`
	VideoToken   string       `json:"video_token"`
	Town         TownSnapshot `json:"town"`
}

// BlockResult response type
type BlockResult struct {
	BlockedPlayerIDs []string `json:"blocked_player_ids"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Towns   int    `json:"towns"`
	Players int    `json:"players"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printTownList(l TownList) {
	if len(l.Towns) == 0 {
		o.printf("No public towns\n")
		return
	}
	for _, t := range l.Towns {
		o.printf("%s  %-24s %d/%d\n", t.TownID, t.FriendlyName, t.CurrentOccupancy, t.MaximumOccupancy)
	}
}

func (o *Output) printCreateTown(r CreateTownResult) {
	o.printf("Town: %s\n", r.TownID)
	o.printf("Password: %s\n", r.TownPassword)
}

func (o *Output) printJoin(j JoinResult) {
	o.printf("Town: %s\n", j.Town.FriendlyName)
	o.printf("Player: %s\n", j.PlayerID)
	o.printf("Players (%d):\n", len(j.Town.Players))
	for _, p := range j.Town.Players {
		area := ""
		if p.ActiveAreaLabel != "" {
			area = " in " + p.ActiveAreaLabel
		}
		o.printf("  - %s (%s) at (%.0f, %.0f)%s\n", p.UserName, p.ID, p.Location.X, p.Location.Y, area)
	}
	if len(j.Town.ConversationAreas) > 0 {
		o.printf("Conversation areas:\n")
		for _, a := range j.Town.ConversationAreas {
			o.printf("  - %s: %s (%d occupants)\n", a.Label, a.Topic, len(a.Occupants))
		}
	}
	o.printf("Chats:\n")
	for _, c := range j.Town.Chats {
		o.printf("  - %s (%s)\n", c.Name, c.ID)
	}
}

func (o *Output) printArea(a ConversationArea) {
	o.printf("Area: %s\n", a.Label)
	o.printf("Topic: %s\n", a.Topic)
	o.printf("Box: center (%.1f, %.1f), %.1f x %.1f\n", a.BoundingBox.X, a.BoundingBox.Y, a.BoundingBox.Width, a.BoundingBox.Height)
	o.printf("Occupants: %s\n", joinOrNone(a.Occupants))
}

func (o *Output) printChat(c Chat) {
	o.printf("Chat: %s (%s)\n", c.Name, c.ID)
	o.printf("  Author: %s\n", c.AuthorID)
	o.printf("  Members: %s\n", joinOrNone(c.Members))
}

func (o *Output) printBlocks(b BlockResult) {
	o.printf("Blocked: %s\n", joinOrNone(b.BlockedPlayerIDs))
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
