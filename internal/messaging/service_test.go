package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/internal/realtime"
	"agora/store/friendship"
	"agora/store/message"
)

type fakeMessageStore struct {
	nextID    int64
	created   []*message.Message
	createErr error
	between   []message.Message
	markCalls [][2]int64
	unread    int64
}

func (f *fakeMessageStore) Create(ctx context.Context, senderID, receiverID int64, content string) (*message.Message, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	msg := &message.Message{
		ID:         f.nextID,
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  time.Now(),
	}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeMessageStore) GetBetween(ctx context.Context, userA, userB int64) ([]message.Message, error) {
	return f.between, nil
}

func (f *fakeMessageStore) MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	f.markCalls = append(f.markCalls, [2]int64{receiverID, senderID})
	return 0, nil
}

func (f *fakeMessageStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return f.unread, nil
}

type fakeFriendshipStore struct {
	status friendship.Status
	err    error
}

func (f *fakeFriendshipStore) GetBetween(ctx context.Context, userA, userB int64) (*friendship.Friendship, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &friendship.Friendship{RequesterID: userA, ReceiverID: userB, Status: f.status}, nil
}

func (f *fakeFriendshipStore) ListFriends(ctx context.Context, userID int64) ([]friendship.Friend, error) {
	return nil, nil
}

type pushedEvent struct {
	userID  int64
	event   string
	payload interface{}
}

type fakeNotifier struct {
	pushed []pushedEvent
}

func (f *fakeNotifier) SendToUser(userID int64, event string, payload interface{}) {
	f.pushed = append(f.pushed, pushedEvent{userID: userID, event: event, payload: payload})
}

func TestSendRequiresAcceptedFriendship(t *testing.T) {
	for _, tc := range []struct {
		name  string
		store *fakeFriendshipStore
	}{
		{"no friendship", &fakeFriendshipStore{err: friendship.ErrFriendshipNotFound}},
		{"pending", &fakeFriendshipStore{status: friendship.StatusPending}},
		{"declined", &fakeFriendshipStore{status: friendship.StatusDeclined}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			messages := &fakeMessageStore{}
			notifier := &fakeNotifier{}
			svc := NewService(messages, tc.store, notifier)

			_, err := svc.Send(context.Background(), 1, 2, "hi")
			if !errors.Is(err, ErrNotFriends) {
				t.Fatalf("expected ErrNotFriends, got %v", err)
			}
			if len(messages.created) != 0 {
				t.Fatal("persistence called for unauthorized send")
			}
			if len(notifier.pushed) != 0 {
				t.Fatal("push attempted for unauthorized send")
			}
		})
	}
}

func TestSendPersistsAndPushes(t *testing.T) {
	messages := &fakeMessageStore{}
	notifier := &fakeNotifier{}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusAccepted}, notifier)

	msg, err := svc.Send(context.Background(), 1, 2, "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("canonical message has no id")
	}
	if msg.Read {
		t.Fatal("new message created as read")
	}
	if len(messages.created) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(messages.created))
	}

	if len(notifier.pushed) != 1 {
		t.Fatalf("expected 1 push, got %d", len(notifier.pushed))
	}
	push := notifier.pushed[0]
	if push.userID != 2 || push.event != realtime.EventNewMessage {
		t.Fatalf("unexpected push: %+v", push)
	}
}

func TestSendSucceedsWithReceiverOffline(t *testing.T) {
	// The notifier is the hub-facing seam; an offline receiver means the
	// hub drops the push, never that Send fails. The canonical message
	// must still come back with an id.
	messages := &fakeMessageStore{}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusAccepted}, &fakeNotifier{})

	msg, err := svc.Send(context.Background(), 1, 2, "are you there?")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("canonical message has no id")
	}

	messages.between = []message.Message{*msg}
	history, err := svc.Conversation(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("conversation fetch failed: %v", err)
	}
	if len(history) != 1 || history[0].Content != "are you there?" {
		t.Fatalf("stored message missing from conversation: %+v", history)
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	messages := &fakeMessageStore{}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusAccepted}, &fakeNotifier{})

	_, err := svc.Send(context.Background(), 1, 2, "")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if len(messages.created) != 0 {
		t.Fatal("persistence called for empty message")
	}
}

func TestSendSurfacesPersistenceFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	messages := &fakeMessageStore{createErr: storeErr}
	notifier := &fakeNotifier{}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusAccepted}, notifier)

	_, err := svc.Send(context.Background(), 1, 2, "hi")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(notifier.pushed) != 0 {
		t.Fatal("push attempted after persistence failure")
	}
}

func TestConversationGatesAndMarksRead(t *testing.T) {
	messages := &fakeMessageStore{
		between: []message.Message{
			{ID: 1, Content: "a", SenderID: 2, ReceiverID: 1},
			{ID: 2, Content: "b", SenderID: 1, ReceiverID: 2},
		},
	}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusAccepted}, &fakeNotifier{})

	history, err := svc.Conversation(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("conversation fetch failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}

	if len(messages.markCalls) != 1 {
		t.Fatalf("expected 1 mark-read call, got %d", len(messages.markCalls))
	}
	if messages.markCalls[0] != [2]int64{1, 2} {
		t.Fatalf("mark-read keyed wrong: %v", messages.markCalls[0])
	}
}

func TestConversationRequiresFriendship(t *testing.T) {
	messages := &fakeMessageStore{}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusPending}, &fakeNotifier{})

	_, err := svc.Conversation(context.Background(), 1, 2)
	if !errors.Is(err, ErrNotFriends) {
		t.Fatalf("expected ErrNotFriends, got %v", err)
	}
	if len(messages.markCalls) != 0 {
		t.Fatal("mark-read called for unauthorized fetch")
	}
}

func TestUnreadCount(t *testing.T) {
	messages := &fakeMessageStore{unread: 3}
	svc := NewService(messages, &fakeFriendshipStore{status: friendship.StatusAccepted}, &fakeNotifier{})

	count, err := svc.UnreadCount(context.Background(), 1)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}
