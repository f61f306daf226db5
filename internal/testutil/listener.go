package testutil

import (
	"sync"

	"github.com/mcoot/coveytown-go/internal/model"
)

// Event kinds recorded by RecordingListener
const (
	EventPlayerJoined           = "playerJoined"
	EventPlayerMoved            = "playerMoved"
	EventPlayerDisconnected     = "playerDisconnected"
	EventTownDestroyed          = "townDestroyed"
	EventAreaUpdated            = "areaUpdated"
	EventAreaDestroyed          = "areaDestroyed"
	EventChatMessage            = "chatMessage"
	EventPlayersAddedToChat     = "playersAddedToChat"
	EventPlayersRemovedFromChat = "playersRemovedFromChat"
	EventChatRenamed            = "chatRenamed"
	EventPlayerBlocked          = "playerBlocked"
	EventPlayerUnblocked        = "playerUnblocked"
)

// Event is one notification captured by RecordingListener.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind      string
	Player    model.Player
	Area      model.ConversationArea
	Chat      model.ChatInfo
	PlayerIDs []model.PlayerID
	Message   model.ChatMessage
	From      model.PlayerID
	To        model.PlayerID
}

// RecordingListener records every town notification it receives
type RecordingListener struct {
	ID model.PlayerID

	mu     sync.Mutex
	events []Event
}

// NewRecordingListener creates a listener acting for id
func NewRecordingListener(id model.PlayerID) *RecordingListener {
	return &RecordingListener{ID: id}
}

func (l *RecordingListener) record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Events returns a copy of everything recorded so far
func (l *RecordingListener) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// OfKind returns the recorded events of one kind
func (l *RecordingListener) OfKind(kind string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []Event
	for _, e := range l.events {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// Count returns how many events of kind were recorded
func (l *RecordingListener) Count(kind string) int {
	return len(l.OfKind(kind))
}

// Reset forgets everything recorded
func (l *RecordingListener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

func (l *RecordingListener) PlayerID() model.PlayerID { return l.ID }

func (l *RecordingListener) OnPlayerJoined(player model.Player) {
	l.record(Event{Kind: EventPlayerJoined, Player: player})
}

func (l *RecordingListener) OnPlayerMoved(player model.Player) {
	l.record(Event{Kind: EventPlayerMoved, Player: player})
}

func (l *RecordingListener) OnPlayerDisconnected(player model.Player) {
	l.record(Event{Kind: EventPlayerDisconnected, Player: player})
}

func (l *RecordingListener) OnTownDestroyed() {
	l.record(Event{Kind: EventTownDestroyed})
}

func (l *RecordingListener) OnConversationAreaUpdated(area model.ConversationArea) {
	l.record(Event{Kind: EventAreaUpdated, Area: area})
}

func (l *RecordingListener) OnConversationAreaDestroyed(area model.ConversationArea) {
	l.record(Event{Kind: EventAreaDestroyed, Area: area})
}

func (l *RecordingListener) OnChatMessage(message model.ChatMessage) {
	l.record(Event{Kind: EventChatMessage, Message: message})
}

func (l *RecordingListener) OnPlayersAddedToChat(chat model.ChatInfo, added []model.PlayerID) {
	l.record(Event{Kind: EventPlayersAddedToChat, Chat: chat, PlayerIDs: added})
}

func (l *RecordingListener) OnPlayersRemovedFromChat(chat model.ChatInfo, removed []model.PlayerID) {
	l.record(Event{Kind: EventPlayersRemovedFromChat, Chat: chat, PlayerIDs: removed})
}

func (l *RecordingListener) OnChatRenamed(chat model.ChatInfo) {
	l.record(Event{Kind: EventChatRenamed, Chat: chat})
}

func (l *RecordingListener) OnPlayerBlocked(blockingID, blockedID model.PlayerID) {
	l.record(Event{Kind: EventPlayerBlocked, From: blockingID, To: blockedID})
}

func (l *RecordingListener) OnPlayerUnblocked(unblockingID, unblockedID model.PlayerID) {
	l.record(Event{Kind: EventPlayerUnblocked, From: unblockingID, To: unblockedID})
}
