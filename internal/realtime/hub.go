package realtime

import "log"

// Hub owns all connection lifecycle state: the per-user connection sets
// and the presence registry. Every mutation happens on the single run
// goroutine, so registry updates and the broadcasts they trigger stay
// strictly ordered (mutate-then-broadcast, never the reverse).
type Hub struct {
	registry Registry

	register   chan *client
	unregister chan *client
	deliver    chan *delivery

	// clients holds every live connection; users groups them by user id
	// so delivery can target "all of this user's connections" without
	// knowing socket handles.
	clients map[*client]struct{}
	users   map[int64]map[*client]struct{}
}

type delivery struct {
	userID int64
	data   []byte
}

// NewHub creates a hub backed by the given presence registry.
func NewHub(registry Registry) *Hub {
	return &Hub{
		registry:   registry,
		register:   make(chan *client),
		unregister: make(chan *client),
		deliver:    make(chan *delivery, 256),
		clients:    make(map[*client]struct{}),
		users:      make(map[int64]map[*client]struct{}),
	}
}

// Run processes lifecycle and delivery events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case d := <-h.deliver:
			h.handleDeliver(d)
		}
	}
}

// SendToUser pushes an event to every live connection of the user, or
// does nothing if none exist. Delivery is best-effort; durable state is
// the storage layer's job.
func (h *Hub) SendToUser(userID int64, event string, payload interface{}) {
	ev, err := newEvent(event, payload)
	if err != nil {
		log.Printf("realtime: encoding %s payload: %v", event, err)
		return
	}
	data, err := ev.encode()
	if err != nil {
		log.Printf("realtime: encoding %s event: %v", event, err)
		return
	}

	select {
	case h.deliver <- &delivery{userID: userID, data: data}:
	default:
		// Hub backlogged; drop rather than stall the request path.
		log.Printf("realtime: delivery queue full, dropping %s for user %d", event, userID)
	}
}

func (h *Hub) handleRegister(c *client) {
	h.clients[c] = struct{}{}

	set := h.users[c.userID]
	if set == nil {
		set = make(map[*client]struct{})
		h.users[c.userID] = set
	}
	first := len(set) == 0
	set[c] = struct{}{}

	// Only the first connection flips presence; a second tab must not
	// re-announce the user.
	if first {
		h.registry.MarkOnline(c.userID)
		h.broadcastExcept(c, EventFriendOnline, c.userID)
	}

	log.Printf("realtime: user %d connected (%d connections)", c.userID, len(set))
}

func (h *Hub) handleUnregister(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)

	set := h.users[c.userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
		h.registry.MarkOffline(c.userID)
		h.broadcastExcept(c, EventFriendOffline, c.userID)
	}

	log.Printf("realtime: user %d disconnected (%d connections)", c.userID, len(set))
}

func (h *Hub) handleDeliver(d *delivery) {
	for c := range h.users[d.userID] {
		c.trySend(d.data)
	}
}

// broadcastExcept sends an event to every connected client except the
// origin connection. Used for presence transitions, which the source
// system announces to all connected parties, not only friends.
func (h *Hub) broadcastExcept(origin *client, event string, payload interface{}) {
	ev, err := newEvent(event, payload)
	if err != nil {
		log.Printf("realtime: encoding %s payload: %v", event, err)
		return
	}
	data, err := ev.encode()
	if err != nil {
		log.Printf("realtime: encoding %s event: %v", event, err)
		return
	}

	for c := range h.clients {
		if c == origin {
			continue
		}
		c.trySend(data)
	}
}
