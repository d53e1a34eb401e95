package realtime

import "sync"

// Registry is the source of truth for which users are currently online.
// The in-memory implementation below covers single-instance deployments;
// the interface is the seam for an externally shared store.
type Registry interface {
	// MarkOnline adds the user to the online set. Idempotent.
	MarkOnline(userID int64)
	// MarkOffline removes the user from the online set. Idempotent.
	MarkOffline(userID int64)
	// IsOnline reports whether the user has at least one live connection.
	IsOnline(userID int64) bool
	// Online returns a snapshot of all online user ids.
	Online() []int64
}

// MemoryRegistry keeps the online set in process memory.
type MemoryRegistry struct {
	mu     sync.RWMutex
	online map[int64]struct{}
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{online: make(map[int64]struct{})}
}

func (r *MemoryRegistry) MarkOnline(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = struct{}{}
}

func (r *MemoryRegistry) MarkOffline(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, userID)
}

func (r *MemoryRegistry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.online[userID]
	return ok
}

func (r *MemoryRegistry) Online() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.online))
	for id := range r.online {
		ids = append(ids, id)
	}
	return ids
}
