package town

import "github.com/mcoot/coveytown-go/internal/model"

// Listener observes a single town on behalf of one connected player.
//
// Handlers are invoked synchronously while the controller holds its lock, in
// registration order. Implementations must not block and must not call back
// into the controller; queue outbound work instead.
type Listener interface {
	// PlayerID identifies whose connection this listener represents.
	// Chat-scoped events are only delivered to listeners of chat members.
	PlayerID() model.PlayerID

	OnPlayerJoined(player model.Player)
	OnPlayerMoved(player model.Player)
	OnPlayerDisconnected(player model.Player)
	OnTownDestroyed()

	OnConversationAreaUpdated(area model.ConversationArea)
	OnConversationAreaDestroyed(area model.ConversationArea)

	OnChatMessage(message model.ChatMessage)
	OnPlayersAddedToChat(chat model.ChatInfo, added []model.PlayerID)
	OnPlayersRemovedFromChat(chat model.ChatInfo, removed []model.PlayerID)
	OnChatRenamed(chat model.ChatInfo)

	OnPlayerBlocked(blockingID, blockedID model.PlayerID)
	OnPlayerUnblocked(unblockingID, unblockedID model.PlayerID)
}
