package service

import (
	"errors"
	"sync"

	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/hearthcall/hearth/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Router dispatches inbound signaling events against the two stores and
// returns the notifications the transport must deliver. It holds no
// transport state, which keeps the whole signaling core testable without a
// live socket.
//
// One mutex serializes dispatch so every inbound event appears atomic to
// the others: two concurrent joins on the same room both land, and each
// sees exactly one peer-joined for the other.
type Router struct {
	mu        sync.Mutex
	registry  port.ConnectionRegistry
	rooms     port.RoomStore
	lifecycle *Lifecycle
}

func NewRouter(registry port.ConnectionRegistry, rooms port.RoomStore, lifecycle *Lifecycle) *Router {
	return &Router{registry: registry, rooms: rooms, lifecycle: lifecycle}
}

// Dispatch processes one inbound event from connID.
func (r *Router) Dispatch(connID string, ev domain.Event) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case domain.EventRegisterDevice:
		r.registry.RegisterDevice(connID, ev.DeviceID)
		log.Info().Str("conn_id", connID).Str("device_id", ev.DeviceID).Msg("Device registered")
		return nil
	case domain.EventJoinRoom:
		return r.lifecycle.Join(connID, ev)
	case domain.EventOffer, domain.EventAnswer, domain.EventICECandidate:
		return r.relay(connID, ev)
	case domain.EventCheckRoom:
		return r.checkRoom(connID, ev)
	case domain.EventEndCall:
		return r.lifecycle.EndCall(connID)
	default:
		log.Warn().Str("conn_id", connID).Str("type", string(ev.Type)).Msg("Unknown event type")
		return errorAck(connID, "unknown-event", errors.New("unknown event type"))
	}
}

// Disconnect runs the teardown rules for a dropped transport connection.
func (r *Router) Disconnect(connID string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lifecycle.Disconnect(connID)
}

// relay forwards an opaque negotiation payload. With a target peer id it is
// unicast to that peer alone; without one it goes to every other room
// member. The payload itself is never inspected.
func (r *Router) relay(connID string, ev domain.Event) []domain.Notification {
	ep, err := r.registry.Lookup(connID)
	if err != nil || !ep.Bound() {
		return errorAck(connID, "not-in-room", errors.New("join a room before sending signals"))
	}

	room, err := r.rooms.Get(ep.RoomID)
	if err != nil {
		return errorAck(connID, "room-not-found", domain.ErrRoomNotFound)
	}

	msg := domain.Message{
		Type:    ev.Type,
		Payload: domain.Relay{PeerID: ep.PeerID, Payload: ev.Payload},
	}

	if ev.TargetPeerID != "" {
		connTo, ok := "", false
		if room.Has(ev.TargetPeerID) {
			connTo, ok = r.registry.Conn(room.ID, ev.TargetPeerID)
		}
		if !ok {
			// Expected under churn: the target may have just disconnected.
			// Dropped without telling the sender.
			log.Warn().Err(domain.ErrUnknownTarget).
				Str("room_id", room.ID).Str("peer_id", ep.PeerID).
				Str("target_peer_id", ev.TargetPeerID).Str("type", string(ev.Type)).
				Msg("Dropping signal")
			return nil
		}
		return []domain.Notification{{ConnID: connTo, Message: msg}}
	}

	return fanout(r.registry, room, ep.PeerID, msg)
}

// checkRoom is a read-only probe: does the room exist, and has at least one
// callee joined. Safe under concurrent joins, no side effects.
func (r *Router) checkRoom(connID string, ev domain.Event) []domain.Notification {
	status := domain.RoomStatus{}
	if room, err := r.rooms.Get(ev.RoomID); err == nil {
		status.Exists = true
		status.Active = len(room.Callees) > 0
	}
	return []domain.Notification{{
		ConnID:  connID,
		Message: domain.Message{Type: domain.EventRoomStatus, Payload: status},
	}}
}
