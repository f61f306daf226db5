package town

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/dependencies/random"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/video"
)

const (
	// SessionTokenPrefix is prepended to every session token
	SessionTokenPrefix = "sess_"
	// DefaultCapacity is the advertised maximum occupancy of a town
	DefaultCapacity = 50
)

// Config describes a town at creation
type Config struct {
	ID               model.TownID
	FriendlyName     string
	IsPubliclyListed bool
	Capacity         int
}

// Controller is the authoritative in-memory state of one town.
// Every exported method is safe for concurrent use.
type Controller struct {
	id               model.TownID
	friendlyName     string
	isPubliclyListed bool
	capacity         int

	video  video.Provider
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu        sync.Mutex
	players   []*model.Player
	sessions  []*model.PlayerSession
	listeners []Listener
	areas     []*model.ConversationArea
	chats     []*model.Chat
}

// NewController creates a town containing only the global chat
func NewController(
	cfg Config,
	videoProvider video.Provider,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Controller{
		id:               cfg.ID,
		friendlyName:     cfg.FriendlyName,
		isPubliclyListed: cfg.IsPubliclyListed,
		capacity:         cfg.Capacity,
		video:            videoProvider,
		clock:            clock,
		random:           random,
		logger: logger.With(
			slog.String("component", "town"),
			slog.String("town", string(cfg.ID)),
		),
		players:   []*model.Player{},
		sessions:  []*model.PlayerSession{},
		listeners: []Listener{},
		areas:     []*model.ConversationArea{},
		chats:     []*model.Chat{model.NewGlobalChat(clock.Now())},
	}
}

// ID returns the town id
func (c *Controller) ID() model.TownID {
	return c.id
}

// FriendlyName returns the display name of the town
func (c *Controller) FriendlyName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.friendlyName
}

// SetFriendlyName changes the display name of the town
func (c *Controller) SetFriendlyName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.friendlyName = name
}

// IsPubliclyListed reports whether the town appears in listings
func (c *Controller) IsPubliclyListed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPubliclyListed
}

// SetPubliclyListed changes whether the town appears in listings
func (c *Controller) SetPubliclyListed(listed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isPubliclyListed = listed
}

// Capacity returns the advertised maximum occupancy
func (c *Controller) Capacity() int {
	return c.capacity
}

// Occupancy returns the number of live sessions
func (c *Controller) Occupancy() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Listing summarizes the town for the public town list
func (c *Controller) Listing() model.TownListing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.TownListing{
		ID:               c.id,
		FriendlyName:     c.friendlyName,
		CurrentOccupancy: len(c.sessions),
		MaximumOccupancy: c.capacity,
	}
}

// Players returns snapshots of every player in join order
func (c *Controller) Players() []model.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]model.Player, len(c.players))
	for i, p := range c.players {
		result[i] = p.Snapshot()
	}
	return result
}

// GetPlayer returns a snapshot of one player
func (c *Controller) GetPlayer(id model.PlayerID) (model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.findPlayer(id)
	if p == nil {
		return model.Player{}, model.ErrPlayerNotFound
	}
	return p.Snapshot(), nil
}

// ConversationAreas returns snapshots of every active area
func (c *Controller) ConversationAreas() []model.ConversationArea {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]model.ConversationArea, len(c.areas))
	for i, a := range c.areas {
		result[i] = a.Snapshot()
	}
	return result
}

// Chats returns every chat in creation order
func (c *Controller) Chats() []model.ChatInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]model.ChatInfo, len(c.chats))
	for i, chat := range c.chats {
		result[i] = chat.Info()
	}
	return result
}

// ChatsForPlayer returns the chats id belongs to
func (c *Controller) ChatsForPlayer(id model.PlayerID) []model.ChatInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := []model.ChatInfo{}
	for _, chat := range c.chats {
		if chat.HasPlayer(id) {
			result = append(result, chat.Info())
		}
	}
	return result
}

// GetChat returns a chat by id
func (c *Controller) GetChat(id model.ChatID) (model.ChatInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat := c.findChat(id)
	if chat == nil {
		return model.ChatInfo{}, model.ErrChatNotFound
	}
	return chat.Info(), nil
}

// GetSessionByToken resolves a session token to a copy of the live session
func (c *Controller) GetSessionByToken(token string) (*model.PlayerSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.Token == token {
			player := s.Player.Snapshot()
			session := *s
			session.Player = &player
			return &session, nil
		}
	}
	return nil, model.ErrInvalidSession
}

// Join creates a player with a fresh id and admits it
func (c *Controller) Join(ctx context.Context, userName string) (*model.PlayerSession, error) {
	if userName == "" {
		return nil, model.ErrEmptyUserName
	}
	player := model.NewPlayer(model.PlayerID(c.random.UUID()), userName)
	return c.AddPlayer(ctx, player)
}

// AddPlayer admits player to the town and returns its session.
// The video credential is obtained before any state changes, so a failed
// admission leaves nothing behind.
func (c *Controller) AddPlayer(ctx context.Context, player *model.Player) (*model.PlayerSession, error) {
	// The global chat's keep-alive member must never be a real player
	if player.ID == model.GlobalChatAuthor {
		return nil, model.ErrReservedPlayerID
	}

	videoToken, err := c.video.GetTokenForTown(ctx, c.id, player.ID)
	if err != nil {
		c.logger.Error("failed to obtain video token",
			slog.String("player_id", string(player.ID)),
			slog.Any("error", err))
		return nil, fmt.Errorf("admitting player %s: %w", player.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findPlayer(player.ID) != nil {
		return nil, model.ErrPlayerAlreadyInTown
	}

	// Generate unique session token
	var token string
	for {
		token = c.random.Token(SessionTokenPrefix)
		if !c.hasSessionToken(token) {
			break
		}
	}

	session := &model.PlayerSession{
		Token:      token,
		Player:     player,
		VideoToken: videoToken,
	}
	c.players = append(c.players, player)
	c.sessions = append(c.sessions, session)

	snapshot := player.Snapshot()
	for _, l := range c.listeners {
		l.OnPlayerJoined(snapshot)
	}

	c.addPlayersToChatLocked([]model.PlayerID{player.ID}, c.findChat(model.GlobalChatID))

	c.logger.Info("player joined",
		slog.String("player_id", string(player.ID)),
		slog.String("user_name", player.UserName))

	return session, nil
}

// DestroySession removes the session's player from the town.
// Unknown sessions are ignored.
func (c *Controller) DestroySession(session *model.PlayerSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.IndexFunc(c.sessions, func(s *model.PlayerSession) bool {
		return s.Token == session.Token
	})
	if idx < 0 {
		return
	}
	player := c.sessions[idx].Player
	c.sessions = slices.Delete(c.sessions, idx, idx+1)
	c.players = slices.DeleteFunc(c.players, func(p *model.Player) bool {
		return p.ID == player.ID
	})

	snapshot := player.Snapshot()
	for _, l := range c.listeners {
		l.OnPlayerDisconnected(snapshot)
	}

	if player.ActiveAreaLabel != "" {
		if area := c.findArea(player.ActiveAreaLabel); area != nil {
			c.removePlayerFromAreaLocked(player.ID, area)
		}
		player.ActiveAreaLabel = ""
	}

	// Removal may delete chats, so iterate over a copy
	for _, chat := range slices.Clone(c.chats) {
		if chat.HasPlayer(player.ID) {
			c.removePlayersFromChatLocked([]model.PlayerID{player.ID}, chat)
		}
	}

	c.logger.Info("player disconnected", slog.String("player_id", string(player.ID)))
}

// UpdatePlayerLocation records a movement report. The player's area is taken
// from location.ConversationLabel as reported, not from its coordinates.
// Returns false if the player is not in the town.
func (c *Controller) UpdatePlayerLocation(playerID model.PlayerID, location model.Location) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	player := c.findPlayer(playerID)
	if player == nil {
		return false
	}

	var newArea *model.ConversationArea
	if location.ConversationLabel != "" {
		newArea = c.findArea(location.ConversationLabel)
	}
	newLabel := ""
	if newArea != nil {
		newLabel = newArea.Label
	}

	prevLabel := player.ActiveAreaLabel
	player.Location = location
	player.ActiveAreaLabel = newLabel

	if newLabel != prevLabel {
		if prevLabel != "" {
			if prevArea := c.findArea(prevLabel); prevArea != nil {
				c.removePlayerFromAreaLocked(player.ID, prevArea)
			}
		}
		if newArea != nil {
			newArea.AddOccupant(player.ID)
			c.notifyAreaUpdated(newArea)
		}
	}

	snapshot := player.Snapshot()
	for _, l := range c.listeners {
		l.OnPlayerMoved(snapshot)
	}
	return true
}

// AddConversationArea registers a new area and seeds it with every player
// whose coordinates lie strictly inside its box. Declined requests return one
// of the conversation area sentinel errors.
func (c *Controller) AddConversationArea(area model.ConversationArea) (model.ConversationArea, error) {
	if area.Label == "" {
		return model.ConversationArea{}, model.ErrAreaLabelEmpty
	}
	if area.Topic == "" {
		return model.ConversationArea{}, model.ErrAreaTopicEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findArea(area.Label) != nil {
		return model.ConversationArea{}, model.ErrAreaLabelTaken
	}
	for _, existing := range c.areas {
		if existing.BoundingBox.Overlaps(area.BoundingBox) {
			return model.ConversationArea{}, model.ErrAreaOverlaps
		}
	}

	newArea := &model.ConversationArea{
		Label:         area.Label,
		Topic:         area.Topic,
		BoundingBox:   area.BoundingBox,
		OccupantsByID: []model.PlayerID{},
	}
	c.areas = append(c.areas, newArea)

	for _, player := range c.players {
		if !player.IsWithin(newArea) {
			continue
		}
		if player.ActiveAreaLabel != "" {
			if prevArea := c.findArea(player.ActiveAreaLabel); prevArea != nil {
				c.removePlayerFromAreaLocked(player.ID, prevArea)
			}
		}
		player.ActiveAreaLabel = newArea.Label
		newArea.AddOccupant(player.ID)
	}

	c.notifyAreaUpdated(newArea)

	c.logger.Info("conversation area created",
		slog.String("label", newArea.Label),
		slog.Int("occupants", len(newArea.OccupantsByID)))

	return newArea.Snapshot(), nil
}

// RemovePlayerFromConversationArea drops playerID from the labeled area,
// destroying the area if it empties. The player's own area label is left
// for the caller to manage. Returns false if the player was not an occupant.
func (c *Controller) RemovePlayerFromConversationArea(playerID model.PlayerID, label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	area := c.findArea(label)
	if area == nil {
		return false
	}
	return c.removePlayerFromAreaLocked(playerID, area)
}

// CreateChat registers a chat whose sole member is authorID
func (c *Controller) CreateChat(authorID model.PlayerID, name string) model.ChatInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	chat := model.NewChat(model.ChatID(c.random.UUID()), authorID, name, c.clock.Now())
	c.chats = append(c.chats, chat)

	info := chat.Info()
	added := []model.PlayerID{authorID}
	for _, l := range c.listeners {
		if l.PlayerID() == authorID {
			l.OnPlayersAddedToChat(info, added)
		}
	}
	return info
}

// AddPlayersToChat enrolls every id into the chat.
// Returns false if the chat does not exist.
func (c *Controller) AddPlayersToChat(playerIDs []model.PlayerID, chatID model.ChatID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	chat := c.findChat(chatID)
	if chat == nil {
		return false
	}
	c.addPlayersToChatLocked(playerIDs, chat)
	return true
}

// RemovePlayersFromChat removes every id from the chat. Listeners of players
// who were members before the removal are notified, so a player removing
// themself still learns of it. Returns false only if the chat does not exist.
func (c *Controller) RemovePlayersFromChat(playerIDs []model.PlayerID, chatID model.ChatID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	chat := c.findChat(chatID)
	if chat == nil {
		return false
	}
	c.removePlayersFromChatLocked(playerIDs, chat)
	return true
}

// RenameChat changes a chat's display name on behalf of one of its members
func (c *Controller) RenameChat(requesterID model.PlayerID, chatID model.ChatID, name string) (model.ChatInfo, error) {
	if name == "" {
		return model.ChatInfo{}, model.ErrEmptyChatName
	}
	if chatID == model.GlobalChatID {
		return model.ChatInfo{}, model.ErrGlobalChatImmutable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	chat := c.findChat(chatID)
	if chat == nil {
		return model.ChatInfo{}, model.ErrChatNotFound
	}
	if !chat.HasPlayer(requesterID) {
		return model.ChatInfo{}, model.ErrNotChatMember
	}

	chat.Rename(name)
	info := chat.Info()
	for _, l := range c.listeners {
		if info.HasPlayer(l.PlayerID()) {
			l.OnChatRenamed(info)
		}
	}
	return info, nil
}

// OnChatMessage delivers message to the listeners of the chat's members.
// Returns false if the chat does not exist.
func (c *Controller) OnChatMessage(message model.ChatMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	chat := c.findChat(message.ChatID)
	if chat == nil {
		return false
	}
	for _, l := range c.listeners {
		if chat.HasPlayer(l.PlayerID()) {
			l.OnChatMessage(message)
		}
	}
	return true
}

// BlockPlayer adds blockedID to blockingID's blocklist and tells every
// listener. Returns false unless both players are in the town.
func (c *Controller) BlockPlayer(blockingID, blockedID model.PlayerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	blocking := c.findPlayer(blockingID)
	if blocking == nil || c.findPlayer(blockedID) == nil {
		return false
	}

	blocking.AddBlockedPlayerID(blockedID)
	for _, l := range c.listeners {
		l.OnPlayerBlocked(blockingID, blockedID)
	}
	return true
}

// UnblockPlayer removes unblockedID from unblockingID's blocklist. Only the
// unblocking player's own listeners are told. Returns false unless both
// players are in the town.
func (c *Controller) UnblockPlayer(unblockingID, unblockedID model.PlayerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	unblocking := c.findPlayer(unblockingID)
	if unblocking == nil || c.findPlayer(unblockedID) == nil {
		return false
	}

	unblocking.RemoveBlockedPlayerID(unblockedID)
	for _, l := range c.listeners {
		if l.PlayerID() == unblockingID {
			l.OnPlayerUnblocked(unblockingID, unblockedID)
		}
	}
	return true
}

// AddTownListener subscribes l to town events
func (c *Controller) AddTownListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveTownListener unsubscribes l; unknown listeners are ignored
func (c *Controller) RemoveTownListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = slices.DeleteFunc(c.listeners, func(existing Listener) bool {
		return existing == l
	})
}

// DisconnectAllPlayers tells every listener the town is going away.
// Closing connections is left to the listeners.
func (c *Controller) DisconnectAllPlayers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.listeners {
		l.OnTownDestroyed()
	}
	c.logger.Info("town destroyed", slog.Int("listeners", len(c.listeners)))
}

func (c *Controller) addPlayersToChatLocked(playerIDs []model.PlayerID, chat *model.Chat) {
	now := c.clock.Now()
	for _, id := range playerIDs {
		chat.AddPlayer(id, now)
	}

	info := chat.Info()
	for _, l := range c.listeners {
		if info.HasPlayer(l.PlayerID()) {
			l.OnPlayersAddedToChat(info, playerIDs)
		}
	}
}

func (c *Controller) removePlayersFromChatLocked(playerIDs []model.PlayerID, chat *model.Chat) {
	recipients := []Listener{}
	for _, l := range c.listeners {
		if chat.HasPlayer(l.PlayerID()) {
			recipients = append(recipients, l)
		}
	}

	removed := []model.PlayerID{}
	for _, id := range playerIDs {
		// The global chat's placeholder member keeps it from ever emptying
		if chat.ID == model.GlobalChatID && id == model.GlobalChatAuthor {
			continue
		}
		if chat.RemovePlayer(id) {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return
	}

	info := chat.Info()
	for _, l := range recipients {
		l.OnPlayersRemovedFromChat(info, removed)
	}

	if chat.IsEmpty() {
		c.chats = slices.DeleteFunc(c.chats, func(existing *model.Chat) bool {
			return existing == chat
		})
		c.logger.Info("chat deleted", slog.String("chat_id", string(chat.ID)))
	}
}

// removePlayerFromAreaLocked destroys the area once its last occupant leaves
func (c *Controller) removePlayerFromAreaLocked(playerID model.PlayerID, area *model.ConversationArea) bool {
	if !area.RemoveOccupant(playerID) {
		return false
	}

	if !area.IsEmpty() {
		c.notifyAreaUpdated(area)
		return true
	}

	c.areas = slices.DeleteFunc(c.areas, func(existing *model.ConversationArea) bool {
		return existing == area
	})
	snapshot := area.Snapshot()
	for _, l := range c.listeners {
		l.OnConversationAreaDestroyed(snapshot)
	}
	c.logger.Info("conversation area destroyed", slog.String("label", area.Label))
	return true
}

func (c *Controller) notifyAreaUpdated(area *model.ConversationArea) {
	snapshot := area.Snapshot()
	for _, l := range c.listeners {
		l.OnConversationAreaUpdated(snapshot)
	}
}

func (c *Controller) findPlayer(id model.PlayerID) *model.Player {
	for _, p := range c.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (c *Controller) findArea(label string) *model.ConversationArea {
	for _, a := range c.areas {
		if a.Label == label {
			return a
		}
	}
	return nil
}

func (c *Controller) findChat(id model.ChatID) *model.Chat {
	for _, chat := range c.chats {
		if chat.ID == id {
			return chat
		}
	}
	return nil
}

func (c *Controller) hasSessionToken(token string) bool {
	for _, s := range c.sessions {
		if s.Token == token {
			return true
		}
	}
	return false
}
