package model

import "time"

// ChatID uniquely identifies a chat within a town
type ChatID string

const (
	// GlobalChatID is the chat every player is enrolled in on joining
	GlobalChatID ChatID = "global"
	// GlobalChatName is the display name of the global chat
	GlobalChatName = "Global Chat"
	// GlobalChatAuthor is the pseudo-member that keeps the global chat alive
	GlobalChatAuthor PlayerID = "global"
)

type chatMember struct {
	id       PlayerID
	joinedAt time.Time
}

// Chat is the roster of a single chat group.
// The author is always a member; when the author leaves, the longest-standing
// remaining member takes over.
type Chat struct {
	ID       ChatID
	Name     string
	AuthorID PlayerID

	// members in insertion order, used to break join-time ties
	members []chatMember
}

// NewChat creates a chat whose sole member is its author
func NewChat(id ChatID, authorID PlayerID, name string, now time.Time) *Chat {
	return &Chat{
		ID:       id,
		Name:     name,
		AuthorID: authorID,
		members:  []chatMember{{id: authorID, joinedAt: now}},
	}
}

// NewGlobalChat creates the town-wide chat
func NewGlobalChat(now time.Time) *Chat {
	return NewChat(GlobalChatID, GlobalChatAuthor, GlobalChatName, now)
}

func (c *Chat) indexOf(id PlayerID) int {
	for i, m := range c.members {
		if m.id == id {
			return i
		}
	}
	return -1
}

// HasPlayer returns true if id is a member
func (c *Chat) HasPlayer(id PlayerID) bool {
	return c.indexOf(id) >= 0
}

// AddPlayer enrolls id at the given time. Re-adding a member keeps its
// original join time.
func (c *Chat) AddPlayer(id PlayerID, now time.Time) bool {
	if c.HasPlayer(id) {
		return false
	}
	c.members = append(c.members, chatMember{id: id, joinedAt: now})
	return true
}

// RemovePlayer drops id from the roster and hands authorship on if needed.
// Returns false if id was not a member.
func (c *Chat) RemovePlayer(id PlayerID) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	c.members = append(c.members[:idx], c.members[idx+1:]...)

	if id == c.AuthorID {
		if successor, ok := c.eldestMember(); ok {
			c.AuthorID = successor
		}
	}
	return true
}

// eldestMember finds the earliest joiner; the first one scanned wins a tie
func (c *Chat) eldestMember() (PlayerID, bool) {
	if len(c.members) == 0 {
		return "", false
	}
	eldest := c.members[0]
	for _, m := range c.members[1:] {
		if m.joinedAt.Before(eldest.joinedAt) {
			eldest = m
		}
	}
	return eldest.id, true
}

// joinTime returns when id joined the chat
func (c *Chat) joinTime(id PlayerID) (time.Time, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return time.Time{}, false
	}
	return c.members[idx].joinedAt, true
}

// Players returns the member ids in insertion order
func (c *Chat) Players() []PlayerID {
	ids := make([]PlayerID, len(c.members))
	for i, m := range c.members {
		ids[i] = m.id
	}
	return ids
}

// IsEmpty returns true if the chat has no members
func (c *Chat) IsEmpty() bool {
	return len(c.members) == 0
}

// Rename changes the display name only
func (c *Chat) Rename(name string) {
	c.Name = name
}

// Info returns an immutable view of the chat
func (c *Chat) Info() ChatInfo {
	return ChatInfo{
		ID:       c.ID,
		Name:     c.Name,
		AuthorID: c.AuthorID,
		Members:  c.Players(),
	}
}

// ChatInfo is a point-in-time copy of a chat handed to observers
type ChatInfo struct {
	ID       ChatID
	Name     string
	AuthorID PlayerID
	Members  []PlayerID
}

// HasPlayer returns true if id was a member when the copy was taken
func (c ChatInfo) HasPlayer(id PlayerID) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}
