package socket

import (
	"encoding/json"

	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/model"
)

// MessageType names the kind of a socket frame
type MessageType string

// Server to client
const (
	TypeNewPlayer              MessageType = "newPlayer"
	TypePlayerMoved            MessageType = "playerMoved"
	TypePlayerDisconnect       MessageType = "playerDisconnect"
	TypeTownClosing            MessageType = "townClosing"
	TypeConversationUpdated    MessageType = "conversationUpdated"
	TypeConversationDestroyed  MessageType = "conversationDestroyed"
	TypeChatMessage            MessageType = "chatMessage"
	TypePlayersAddedToChat     MessageType = "playersAddedToChat"
	TypePlayersRemovedFromChat MessageType = "playersRemovedFromChat"
	TypeChatRenamed            MessageType = "chatRenamed"
	TypePlayerBlocked          MessageType = "playerBlocked"
	TypePlayerUnblocked        MessageType = "playerUnblocked"
	TypeError                  MessageType = "error"
)

// Client to server
const (
	TypePlayerMovement MessageType = "playerMovement"
	TypeSendChat       MessageType = "chatMessage"
)

// Envelope is the JSON frame exchanged in both directions
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatRosterPayload accompanies playersAddedToChat and playersRemovedFromChat
type ChatRosterPayload struct {
	Chat      response.Chat `json:"chat"`
	PlayerIDs []string      `json:"player_ids"`
}

// BlockPayload accompanies playerBlocked and playerUnblocked
type BlockPayload struct {
	BlockingID string `json:"blocking_id"`
	BlockedID  string `json:"blocked_id"`
}

// SendChatPayload is a chat message posted by a client
type SendChatPayload struct {
	ChatID string `json:"chat_id"`
	Body   string `json:"body"`
}

// ErrorPayload reports a rejected client frame
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Encode builds a frame of the given type
func Encode(t MessageType, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// Decode parses a frame, leaving the payload for the caller
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func playerIDStrings(ids []model.PlayerID) []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = string(id)
	}
	return result
}
