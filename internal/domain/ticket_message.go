package domain

import "time"

// MessageAuthorType indicates who authored a chat message.
type MessageAuthorType string

const (
	AuthorTypeUser   MessageAuthorType = "USER"
	AuthorTypeSystem MessageAuthorType = "SYSTEM"
)

// TicketMessage captures one entry in a ticket's conversation thread.
// The reopen workflow appends SYSTEM-authored entries.
type TicketMessage struct {
	ID         string
	TicketID   string
	AuthorType MessageAuthorType
	AuthorID   *string
	Body       string
	CreatedAt  time.Time
}
