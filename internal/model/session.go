package model

import "time"

// Role is the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single chat turn. Messages are append-only.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is one independent transcript within a course.
type ChatSession struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	LastModified time.Time `json:"last_modified"`
	// TitleEdited is set once the user renames the session by hand.
	TitleEdited bool `json:"title_edited,omitempty"`
}

// UserMessageCount returns how many messages the user has sent.
func (s ChatSession) UserMessageCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}
