package realtime

import (
	"log"
	"net/http"

	"agora/internal/auth"

	"github.com/gorilla/websocket"
)

// Verifier validates a connection credential and yields the caller's
// claims. Satisfied by *auth.Authenticator.
type Verifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are enforced by the fronting proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler authenticates and admits websocket connections.
type Handler struct {
	hub      *Hub
	verifier Verifier
}

// NewHandler creates a websocket handshake handler.
func NewHandler(hub *Hub, verifier Verifier) *Handler {
	return &Handler{hub: hub, verifier: verifier}
}

// ServeHTTP upgrades an authenticated request to a websocket connection.
// The token travels as a query parameter because browser websocket
// clients cannot set headers. Validation failures reject the attempt
// before the connection is admitted; the client is responsible for
// re-authenticating and reconnecting.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.VerifyToken(token)
	if err != nil {
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	c := newClient(h.hub, conn, claims.UserID)
	h.hub.register <- c

	go c.writePump()
	go c.readPump()
}
