package realtime

import "encoding/json"

// Server-pushed event names.
const (
	EventFriendOnline  = "friend_online"
	EventFriendOffline = "friend_offline"
	EventNewMessage    = "new_message"
)

// Event is the wire envelope for everything pushed over a websocket.
type Event struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func newEvent(name string, payload interface{}) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Event: name, Payload: raw}, nil
}

func (e *Event) encode() ([]byte, error) {
	return json.Marshal(e)
}
