package message

import (
	"context"
	"errors"
	"time"
)

// Message represents a direct message between two users. The server model
// has no delivery status; a message simply exists once persisted.
type Message struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	CreatedAt  time.Time `json:"createdAt"`
	Read       bool      `json:"read"`
}

var ErrMessageNotFound = errors.New("message not found")

// Store defines message persistence operations.
type Store interface {
	// Create persists a new unread message and fills in the
	// server-assigned id and timestamp.
	Create(ctx context.Context, senderID, receiverID int64, content string) (*Message, error)

	// GetBetween returns every message exchanged between the two users,
	// ascending by creation time.
	GetBetween(ctx context.Context, userA, userB int64) ([]Message, error)

	// MarkRead flips all unread messages from senderID to receiverID to
	// read and reports how many rows changed.
	MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error)

	// CountUnread returns the number of unread messages addressed to the
	// user, across all senders.
	CountUnread(ctx context.Context, userID int64) (int64, error)
}
