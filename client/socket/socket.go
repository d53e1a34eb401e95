// Package socket maintains the client's realtime connection and
// dispatches server-pushed events.
package socket

import (
	"context"
	"encoding/json"
	"log"
	"net/url"

	"agora/internal/realtime"
	"agora/store/message"

	"github.com/gorilla/websocket"
)

// Events holds the callbacks invoked for each server push. Nil
// callbacks drop the event.
type Events struct {
	NewMessage    func(message.Message)
	FriendOnline  func(userID int64)
	FriendOffline func(userID int64)
}

// Conn is one live realtime connection.
type Conn struct {
	ws *websocket.Conn
}

// Dial opens an authenticated realtime connection. wsURL is the ws:// or
// wss:// endpoint; the credential travels as a query parameter. The
// server closes the attempt on any validation failure, in which case
// Dial returns the handshake error; reconnecting with a fresh token is
// the caller's responsibility.
func Dial(ctx context.Context, wsURL, token string) (*Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	return &Conn{ws: ws}, nil
}

// Listen decodes pushed events and dispatches them until the connection
// closes. It returns the read error that ended the loop.
func (c *Conn) Listen(ev Events) error {
	for {
		var e realtime.Event
		if err := c.ws.ReadJSON(&e); err != nil {
			return err
		}

		switch e.Event {
		case realtime.EventNewMessage:
			if ev.NewMessage == nil {
				continue
			}
			var msg message.Message
			if err := json.Unmarshal(e.Payload, &msg); err != nil {
				log.Printf("socket: bad %s payload: %v", e.Event, err)
				continue
			}
			ev.NewMessage(msg)

		case realtime.EventFriendOnline, realtime.EventFriendOffline:
			var userID int64
			if err := json.Unmarshal(e.Payload, &userID); err != nil {
				log.Printf("socket: bad %s payload: %v", e.Event, err)
				continue
			}
			if e.Event == realtime.EventFriendOnline {
				if ev.FriendOnline != nil {
					ev.FriendOnline(userID)
				}
			} else if ev.FriendOffline != nil {
				ev.FriendOffline(userID)
			}
		}
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
