// Package chat holds the client-side conversation state: one window per
// friend with optimistic sends, pending/confirmed/failed entries and
// per-friend unread counters.
package chat

import (
	"context"
	"sync"
	"time"

	"agora/store/message"

	"github.com/google/uuid"
)

// Status is the client-side view of a message's delivery state. The
// server has no such field; a persisted message simply exists.
type Status int

const (
	// StatusSending marks an optimistic copy awaiting confirmation.
	StatusSending Status = iota
	// StatusSent marks a server-confirmed message.
	StatusSent
	// StatusFailed marks an optimistic copy whose send failed. It stays
	// visible; retrying is a new send.
	StatusFailed
)

// Entry is one message slot in a conversation window. TempID is set iff
// the entry is not confirmed; Err is set iff the entry failed.
type Entry struct {
	Status  Status
	TempID  string
	Message message.Message
	Err     error
}

func pendingEntry(tempID string, m message.Message) Entry {
	return Entry{Status: StatusSending, TempID: tempID, Message: m}
}

func confirmedEntry(m message.Message) Entry {
	return Entry{Status: StatusSent, Message: m}
}

// Window is one open conversation. Entries are ordered: persisted
// history first, then live messages in arrival order. They are never
// re-sorted, so server timestamps are display metadata only.
type Window struct {
	FriendID  int64
	Entries   []Entry
	Minimized bool
	Loading   bool
}

// API is the request-path surface the chat state machine drives.
type API interface {
	SendMessage(ctx context.Context, receiverID int64, content string) (*message.Message, error)
	GetConversation(ctx context.Context, friendID int64) ([]message.Message, error)
}

// Manager tracks every open chat window and the unread counters for
// closed or minimized conversations.
type Manager struct {
	api    API
	selfID int64

	mu      sync.Mutex
	windows map[int64]*Window
	unread  map[int64]int
}

// NewManager creates a chat manager for the given authenticated user.
func NewManager(api API, selfID int64) *Manager {
	return &Manager{
		api:     api,
		selfID:  selfID,
		windows: make(map[int64]*Window),
		unread:  make(map[int64]int),
	}
}

// OpenChat opens a conversation window and loads its history. Opening
// an already-open chat is a no-op. If the history fetch fails the
// window is discarded.
func (m *Manager) OpenChat(ctx context.Context, friendID int64) error {
	m.mu.Lock()
	if _, ok := m.windows[friendID]; ok {
		m.mu.Unlock()
		return nil
	}
	m.windows[friendID] = &Window{FriendID: friendID, Loading: true}
	m.mu.Unlock()

	history, err := m.api.GetConversation(ctx, friendID)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[friendID]
	if !ok {
		// Closed while loading.
		return nil
	}
	if err != nil {
		delete(m.windows, friendID)
		return err
	}

	entries := make([]Entry, 0, len(history))
	for _, msg := range history {
		entries = append(entries, confirmedEntry(msg))
	}
	w.Entries = entries
	w.Loading = false
	m.unread[friendID] = 0

	return nil
}

// CloseChat discards the window. Future messages from that friend count
// as unread again.
func (m *Manager) CloseChat(friendID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, friendID)
}

// MinimizeChat collapses the window. Messages arriving while minimized
// count as unread.
func (m *Manager) MinimizeChat(friendID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.windows[friendID]; ok {
		w.Minimized = true
	}
}

// MaximizeChat restores the window and clears the friend's unread count.
func (m *Manager) MaximizeChat(friendID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.windows[friendID]; ok {
		w.Minimized = false
		m.unread[friendID] = 0
	}
}

// SendMessage appends an optimistic entry, sends through the request
// path and reconciles the entry in place: confirmed on success, failed
// (still visible, not retried) on error.
func (m *Manager) SendMessage(ctx context.Context, friendID int64, content string) error {
	tempID := uuid.NewString()

	m.mu.Lock()
	if w, ok := m.windows[friendID]; ok {
		w.Entries = append(w.Entries, pendingEntry(tempID, message.Message{
			Content:    content,
			SenderID:   m.selfID,
			ReceiverID: friendID,
			CreatedAt:  time.Now(),
		}))
	}
	m.mu.Unlock()

	confirmed, err := m.api.SendMessage(ctx, friendID, content)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[friendID]
	if !ok {
		// Window closed mid-flight; nothing left to reconcile.
		return err
	}

	for i := range w.Entries {
		if w.Entries[i].TempID != tempID {
			continue
		}
		if err != nil {
			w.Entries[i].Status = StatusFailed
			w.Entries[i].Err = err
		} else {
			w.Entries[i] = confirmedEntry(*confirmed)
		}
		break
	}

	return err
}

// HandleIncoming reconciles a pushed message: appended to the matching
// open window, counted as unread when that window is absent or
// minimized.
func (m *Manager) HandleIncoming(msg message.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.windows {
		if w.FriendID == msg.SenderID || w.FriendID == msg.ReceiverID {
			w.Entries = append(w.Entries, confirmedEntry(msg))
		}
	}

	if msg.SenderID == m.selfID {
		return
	}
	if w, ok := m.windows[msg.SenderID]; !ok || w.Minimized {
		m.unread[msg.SenderID]++
	}
}

// Window returns a snapshot of the friend's window, if open.
func (m *Manager) Window(friendID int64) (Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[friendID]
	if !ok {
		return Window{}, false
	}

	snapshot := *w
	snapshot.Entries = append([]Entry(nil), w.Entries...)
	return snapshot, true
}

// UnreadCount returns the friend's unread counter.
func (m *Manager) UnreadCount(friendID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread[friendID]
}
