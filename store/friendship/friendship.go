package friendship

import (
	"context"
	"errors"
	"time"
)

// Status enumerates friendship lifecycle states.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Friendship represents the relationship between two users, directional
// in storage (requester/receiver) but queried direction-agnostically.
type Friendship struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requesterId"`
	ReceiverID  int64     `json:"receiverId"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Friend is the other party of an accepted friendship, as listed for the
// friends sidebar.
type Friend struct {
	UserID    int64   `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

var ErrFriendshipNotFound = errors.New("friendship not found")

// Store defines friendship persistence operations. The messaging core
// consults it as a yes/no oracle before any message exchange.
type Store interface {
	// GetBetween returns the friendship between the two users regardless
	// of who requested it, or ErrFriendshipNotFound.
	GetBetween(ctx context.Context, userA, userB int64) (*Friendship, error)

	// ListFriends returns the other user of every accepted friendship
	// involving userID.
	ListFriends(ctx context.Context, userID int64) ([]Friend, error)
}
