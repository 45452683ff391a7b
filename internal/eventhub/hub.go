// Package eventhub pushes server-confirmed complaint records to connected
// websocket clients. Events arrive through Redis Pub/Sub so every server
// instance fans out changes made by any other.
package eventhub

import (
	"complaintportal/backend/internal/models"
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Hub owns the set of connected clients. Its state is only touched by Run.
type Hub struct {
	Clients map[Client]bool

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.ComplaintEvent

	countCh chan chan int
	done    chan struct{}
}

// NewHub creates a hub; call Run to start it.
func NewHub() *Hub {
	return &Hub{
		Clients:      make(map[Client]bool),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.ComplaintEvent, 64),
		countCh:      make(chan chan int),
		done:         make(chan struct{}),
	}
}

// Run dispatches registrations and events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.Clients {
				c.Close()
				delete(h.Clients, c)
			}
			return

		case c := <-h.RegisterCh:
			h.Clients[c] = true
			log.Printf("INFO: event feed client %s (%s) connected, %d total", c.GetUserID(), c.GetRole(), len(h.Clients))

		case c := <-h.UnregisterCh:
			if _, ok := h.Clients[c]; ok {
				delete(h.Clients, c)
				c.Close()
			}

		case ev := <-h.BroadcastCh:
			for c := range h.Clients {
				if !CanSee(c.GetRole(), c.GetUserID(), ev.Complaint) {
					continue
				}
				select {
				case c.GetSendChannel() <- ev:
				default:
					// Slow consumer.
					log.Printf("WARN: dropping slow event feed client %s", c.GetUserID())
					delete(h.Clients, c)
					c.Close()
				}
			}

		case reply := <-h.countCh:
			reply <- len(h.Clients)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register hands c to the hub. It reports false, leaving c unregistered,
// once the hub has stopped.
func (h *Hub) Register(c Client) bool {
	select {
	case h.RegisterCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// Count returns the number of registered clients. Run must be running.
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	h.countCh <- reply
	return <-reply
}

// CanSee reports whether a subscriber may receive c. Students only see
// complaints they filed; every staff role sees all of them.
func CanSee(role models.Role, userID string, c models.Complaint) bool {
	switch role {
	case models.RoleStudent:
		return c.StudentID == userID
	case models.RoleIntermediate, models.RoleAdmin, models.RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// StartPubSubListener forwards events from a Redis subscription into the hub.
// It returns when the subscription channel closes or ctx is done.
func (h *Hub) StartPubSubListener(ctx context.Context, pubsub *redis.PubSub) {
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.ComplaintEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("ERROR: bad complaint event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case h.BroadcastCh <- ev:
				case <-h.done:
					return
				}
			}
		}
	}()
}
