package session

import "github.com/google/uuid"

// ThreadEvent is a cross-session event delivered through a session's inbox.
// Sessions never hold references to each other; events are the only way one
// session influences another.
type ThreadEvent interface {
	isThreadEvent()
}

// UserMessageEvent announces a freshly persisted chat message to a recipient
// session. The recipient translates it into a delivery frame on its own
// goroutine.
type UserMessageEvent struct {
	UUID     uuid.UUID
	SenderID int64
	Content  string
}

// MessagesReadEvent propagates a read receipt to the other members of a room.
type MessagesReadEvent struct {
	RoomID       int64
	MessageUUIDs []uuid.UUID
}

func (UserMessageEvent) isThreadEvent()  {}
func (MessagesReadEvent) isThreadEvent() {}
