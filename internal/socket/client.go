package socket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/coveytown-go/internal/api/apierr"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/dependencies/random"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
	"github.com/mcoot/coveytown-go/internal/services/town"
)

const (
	// Time allowed to write a frame
	writeWait = 10 * time.Second

	// Time allowed between pongs
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// Client is one player's socket connection to a town. It listens to the town
// on the player's behalf and feeds the player's movement and chat into it.
type Client struct {
	session *model.PlayerSession
	town    *town.Controller
	limiter *ratelimit.Limiter
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	conn *websocket.Conn
	send chan []byte

	mu          sync.Mutex
	closed      bool
	closeCode   int
	closeReason string
}

// NewClient creates a client with an outbound queue of bufferSize frames
func NewClient(
	conn *websocket.Conn,
	session *model.PlayerSession,
	controller *town.Controller,
	limiter *ratelimit.Limiter,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	bufferSize int,
) *Client {
	return &Client{
		session: session,
		town:    controller,
		limiter: limiter,
		clock:   clock,
		random:  random,
		logger: logger.With(
			slog.String("component", "socket"),
			slog.String("town", string(controller.ID())),
			slog.String("player_id", string(session.Player.ID)),
		),
		conn:      conn,
		send:      make(chan []byte, bufferSize),
		closeCode: websocket.CloseNormalClosure,
	}
}

// Ensure Client implements Listener
var _ town.Listener = (*Client)(nil)

// ReadPump feeds client frames to the town until the connection fails.
// Leaving the pump unsubscribes the client and ends the player's session.
func (c *Client) ReadPump() {
	defer func() {
		c.town.RemoveTownListener(c)
		c.town.DestroySession(c.session)
		c.Close()
		_ = c.conn.Close()

		// Player ids are never reused, so the chat counter dies with the session
		if err := c.limiter.Reset(context.Background(), ratelimit.ScopeChat, string(c.PlayerID())); err != nil {
			c.logger.Warn("failed to clear chat rate limit", slog.Any("error", err))
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("socket read failed", slog.Any("error", err))
			}
			return
		}

		env, err := Decode(data)
		if err != nil {
			c.sendError(apierr.CodeInvalidRequest, "malformed frame")
			continue
		}
		c.handle(env)
	}
}

// WritePump drains the outbound queue and keeps the connection alive
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Queue closed
				c.mu.Lock()
				frame := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
				c.mu.Unlock()
				_ = c.conn.WriteMessage(websocket.CloseMessage, frame)
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close stops outbound delivery; the write pump then sends a close frame
func (c *Client) Close() {
	c.closeWith(websocket.CloseNormalClosure, "")
}

func (c *Client) closeWith(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.closeCode = code
		c.closeReason = reason
		close(c.send)
	}
}

func (c *Client) handle(env *Envelope) {
	switch env.Type {
	case TypePlayerMovement:
		var loc model.Location
		if err := json.Unmarshal(env.Payload, &loc); err != nil {
			c.sendError(apierr.CodeInvalidRequest, "invalid location")
			return
		}
		c.town.UpdatePlayerLocation(c.PlayerID(), loc)

	case TypeSendChat:
		var payload SendChatPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.Body == "" {
			c.sendError(apierr.CodeInvalidRequest, "invalid chat message")
			return
		}
		c.postChat(payload)

	default:
		c.sendError(apierr.CodeInvalidRequest, "unknown message type")
	}
}

func (c *Client) postChat(payload SendChatPayload) {
	allowed, err := c.limiter.Allow(context.Background(), ratelimit.ScopeChat, string(c.PlayerID()))
	if err != nil {
		c.logger.Error("rate limiter unavailable", slog.Any("error", err))
	} else if !allowed {
		c.sendError(apierr.CodeRateLimited, "too many messages")
		return
	}

	chatID := model.ChatID(payload.ChatID)
	chat, err := c.town.GetChat(chatID)
	if err != nil {
		c.sendError(apierr.CodeChatNotFound, "chat not found")
		return
	}
	if !chat.HasPlayer(c.PlayerID()) {
		c.sendError(apierr.CodeNotChatMember, "not a member of this chat")
		return
	}

	c.town.OnChatMessage(model.ChatMessage{
		ChatID:      chatID,
		Author:      c.PlayerID(),
		SID:         c.random.UUID(),
		Body:        payload.Body,
		DateCreated: c.clock.Now(),
	})
}

func (c *Client) sendError(code, message string) {
	c.enqueue(TypeError, ErrorPayload{Code: code, Message: message})
}

// enqueue never blocks; a client that cannot keep up is disconnected
func (c *Client) enqueue(t MessageType, payload any) {
	data, err := Encode(t, payload)
	if err != nil {
		c.logger.Error("failed to encode frame", slog.String("type", string(t)), slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping connection", slog.String("type", string(t)))
		c.closed = true
		c.closeCode = websocket.CloseTryAgainLater
		c.closeReason = "too slow"
		close(c.send)
	}
}

// Listener implementation

func (c *Client) PlayerID() model.PlayerID {
	return c.session.Player.ID
}

func (c *Client) OnPlayerJoined(player model.Player) {
	c.enqueue(TypeNewPlayer, response.PlayerFromModel(player))
}

func (c *Client) OnPlayerMoved(player model.Player) {
	c.enqueue(TypePlayerMoved, response.PlayerFromModel(player))
}

func (c *Client) OnPlayerDisconnected(player model.Player) {
	c.enqueue(TypePlayerDisconnect, response.PlayerFromModel(player))
	if player.ID == c.PlayerID() {
		c.closeWith(websocket.CloseNormalClosure, "session ended")
	}
}

func (c *Client) OnTownDestroyed() {
	c.enqueue(TypeTownClosing, nil)
	c.closeWith(websocket.CloseGoingAway, "town closing")
}

func (c *Client) OnConversationAreaUpdated(area model.ConversationArea) {
	c.enqueue(TypeConversationUpdated, response.ConversationAreaFromModel(area))
}

func (c *Client) OnConversationAreaDestroyed(area model.ConversationArea) {
	c.enqueue(TypeConversationDestroyed, response.ConversationAreaFromModel(area))
}

func (c *Client) OnChatMessage(message model.ChatMessage) {
	c.enqueue(TypeChatMessage, message)
}

func (c *Client) OnPlayersAddedToChat(chat model.ChatInfo, added []model.PlayerID) {
	c.enqueue(TypePlayersAddedToChat, ChatRosterPayload{
		Chat:      response.ChatFromModel(chat),
		PlayerIDs: playerIDStrings(added),
	})
}

func (c *Client) OnPlayersRemovedFromChat(chat model.ChatInfo, removed []model.PlayerID) {
	c.enqueue(TypePlayersRemovedFromChat, ChatRosterPayload{
		Chat:      response.ChatFromModel(chat),
		PlayerIDs: playerIDStrings(removed),
	})
}

func (c *Client) OnChatRenamed(chat model.ChatInfo) {
	c.enqueue(TypeChatRenamed, response.ChatFromModel(chat))
}

func (c *Client) OnPlayerBlocked(blockingID, blockedID model.PlayerID) {
	c.enqueue(TypePlayerBlocked, BlockPayload{BlockingID: string(blockingID), BlockedID: string(blockedID)})
}

func (c *Client) OnPlayerUnblocked(unblockingID, unblockedID model.PlayerID) {
	c.enqueue(TypePlayerUnblocked, BlockPayload{BlockingID: string(unblockingID), BlockedID: string(unblockedID)})
}
