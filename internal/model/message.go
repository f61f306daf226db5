package model

import "time"

// ChatMessage is a single message posted to a chat
type ChatMessage struct {
	ChatID      ChatID    `json:"chat_id"`
	Author      PlayerID  `json:"author"`
	SID         string    `json:"sid"`
	Body        string    `json:"body"`
	DateCreated time.Time `json:"date_created"`
}
