package model

import "errors"

// Common errors used across the application
var (
	// Town errors
	ErrTownNotFound        = errors.New("town not found")
	ErrInvalidTownPassword = errors.New("invalid town update password")
	ErrEmptyFriendlyName   = errors.New("friendly name must not be empty")

	// Session errors
	ErrInvalidSession = errors.New("invalid session token")

	// Player errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerAlreadyInTown = errors.New("player already in town")
	ErrEmptyUserName       = errors.New("user name must not be empty")
	ErrReservedPlayerID    = errors.New("player id is reserved")

	// Conversation area errors
	ErrAreaLabelEmpty = errors.New("conversation area label must not be empty")
	ErrAreaTopicEmpty = errors.New("conversation area topic must not be empty")
	ErrAreaLabelTaken = errors.New("conversation area label already in use")
	ErrAreaOverlaps   = errors.New("conversation area overlaps an existing area")

	// Chat errors
	ErrChatNotFound        = errors.New("chat not found")
	ErrNotChatMember       = errors.New("player is not a member of the chat")
	ErrEmptyChatName       = errors.New("chat name must not be empty")
	ErrGlobalChatImmutable = errors.New("the global chat cannot be renamed")

	// Credential errors
	ErrVideoTokenUnavailable = errors.New("video token unavailable")

	// Rate limiting
	ErrRateLimited = errors.New("too many requests")
)
