package model

import "github.com/google/uuid"

type EventType string

const (
	EventMessageCreated EventType = "message_created"
	EventMessageEdited  EventType = "message_edited"
	EventMessageDeleted EventType = "message_deleted"
	EventMessageUnsent  EventType = "message_unsent"
	EventMessageReacted EventType = "message_reacted"
	EventMessageRead    EventType = "message_read"
)

// MessageEvent уведомление, которое получают участники беседы
type MessageEvent struct {
	Type           EventType `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	ActorID        uuid.UUID `json:"actor_id"`
	Message        *Message  `json:"message,omitempty"`
	Reaction       string    `json:"reaction,omitempty"`
}
