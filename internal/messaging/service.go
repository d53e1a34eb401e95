package messaging

import (
	"context"
	"errors"
	"log"

	"agora/internal/realtime"
	"agora/store/friendship"
	"agora/store/message"
)

var (
	// ErrNotFriends rejects message exchange between users without an
	// accepted friendship.
	ErrNotFriends = errors.New("users are not friends")
	// ErrEmptyContent rejects blank messages before they reach storage.
	ErrEmptyContent = errors.New("message content is empty")
)

// Notifier pushes an event to every live connection of a user.
// Satisfied by *realtime.Hub. Push is fire-and-forget: an offline
// receiver picks the message up on the next conversation fetch.
type Notifier interface {
	SendToUser(userID int64, event string, payload interface{})
}

// Service is the message delivery pipeline: authorize, persist, push.
type Service struct {
	messages    message.Store
	friendships friendship.Store
	notifier    Notifier
}

// NewService creates a messaging service.
func NewService(messages message.Store, friendships friendship.Store, notifier Notifier) *Service {
	return &Service{
		messages:    messages,
		friendships: friendships,
		notifier:    notifier,
	}
}

// Send delivers a direct message: it authorizes the pair against the
// friendship store, persists the message, then pushes it to the
// receiver's connections if any exist. The canonical persisted message
// is returned to the sender for optimistic-copy reconciliation.
func (s *Service) Send(ctx context.Context, senderID, receiverID int64, content string) (*message.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	if err := s.authorize(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	s.notifier.SendToUser(receiverID, realtime.EventNewMessage, msg)

	return msg, nil
}

// Conversation returns the full message history between the caller and
// the other user, oldest first, and marks the fetched direction read.
func (s *Service) Conversation(ctx context.Context, userID, otherID int64) ([]message.Message, error) {
	if err := s.authorize(ctx, userID, otherID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.GetBetween(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}

	// Read-marking is a side effect of fetching; losing it only skews
	// unread badges, so the history is returned regardless.
	if _, err := s.messages.MarkRead(ctx, userID, otherID); err != nil {
		log.Printf("messaging: mark read %d<-%d: %v", userID, otherID, err)
	}

	return msgs, nil
}

// MarkRead flips all unread messages from senderID to receiverID.
func (s *Service) MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	return s.messages.MarkRead(ctx, receiverID, senderID)
}

// UnreadCount returns how many unread messages the user has in total.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}

func (s *Service) authorize(ctx context.Context, userA, userB int64) error {
	f, err := s.friendships.GetBetween(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, friendship.ErrFriendshipNotFound) {
			return ErrNotFriends
		}
		return err
	}
	if f.Status != friendship.StatusAccepted {
		return ErrNotFriends
	}
	return nil
}
