// Package realtime fans order lifecycle events out to websocket clients
// grouped in rooms. Delivery is best effort: at most once per socket, no
// persistence, no redelivery. Clients that miss events reconcile through the
// order sync endpoint.
package realtime

import "encoding/json"

// Server to client events.
const (
	EventNewOrder       = "new-order"
	EventOrderCreated   = "order-created"
	EventOrderUpdated   = "order-updated"
	EventPaymentUpdated = "payment-updated"
	EventJoined         = "joined"
	EventLeft           = "left"
	EventError          = "error"
)

// Client to server events.
const (
	EventJoinOutlet  = "join-outlet"
	EventJoinUser    = "join-user"
	EventLeaveOutlet = "leave-outlet"
	EventLeaveUser   = "leave-user"
)

func OutletRoom(outletID string) string { return "outlet-" + outletID }

func UserRoom(userID string) string { return "user-" + userID }

// Event is one notification. When Key is set a socket receives at most one
// event with that key for as long as it remembers it.
type Event struct {
	Name    string
	Key     string
	Payload any
}

// Notifier publishes events to a room. Publishing to a room with no
// members is a no-op.
type Notifier interface {
	Publish(room string, ev Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Publish(string, Event) {}

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(name string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: name, Data: data})
}
