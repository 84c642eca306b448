package service

import (
	"errors"

	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/hearthcall/hearth/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Lifecycle owns the state-transition rules for rooms and their members.
// The teardown rules are asymmetric: the caller leaving (or any explicit
// end-call) destroys the room for everyone, a callee leaving only shrinks
// it. Lifecycle methods are invoked with the router's dispatch lock held.
type Lifecycle struct {
	registry port.ConnectionRegistry
	rooms    port.RoomStore
}

func NewLifecycle(registry port.ConnectionRegistry, rooms port.RoomStore) *Lifecycle {
	return &Lifecycle{registry: registry, rooms: rooms}
}

// Join binds the connection into a room and announces it to the members
// already present. A repeated join with the same room and peer id is a
// no-op: no duplicate callee entry, no second peer-joined broadcast.
func (l *Lifecycle) Join(connID string, ev domain.Event) []domain.Notification {
	if ev.RoomID == "" || ev.PeerID == "" || !ev.Role.Valid() {
		return errorAck(connID, "bad-join", errors.New("join-room requires roomId, peerId and role"))
	}

	if ep, err := l.registry.Lookup(connID); err == nil && ep.Bound() {
		if ep.RoomID == ev.RoomID && ep.PeerID == ev.PeerID {
			return nil
		}
		return errorAck(connID, "already-bound", domain.ErrAlreadyBound)
	}

	var rejoin bool
	switch ev.Role {
	case domain.RoleCaller:
		if room, err := l.rooms.Get(ev.RoomID); err != nil {
			// The caller may open a room that call initiation never created
			// (direct dial from the device).
			if err := l.rooms.Create(ev.RoomID, ev.PeerID, ""); err != nil {
				return errorAck(connID, "duplicate-room", err)
			}
		} else {
			rejoin = room.CallerPeerID == ev.PeerID
			if err := l.rooms.SetCaller(ev.RoomID, ev.PeerID); err != nil {
				return errorAck(connID, "caller-present", err)
			}
		}
	case domain.RoleCallee:
		room, err := l.rooms.Get(ev.RoomID)
		if err != nil {
			return errorAck(connID, "room-not-found", domain.ErrRoomNotFound)
		}
		rejoin = room.Has(ev.PeerID)
		if err := l.rooms.AddCallee(ev.RoomID, ev.PeerID); err != nil {
			return errorAck(connID, "room-not-found", err)
		}
	}

	if err := l.registry.Bind(connID, ev.PeerID, ev.Role, ev.RoomID); err != nil {
		return errorAck(connID, "already-bound", err)
	}

	log.Info().Str("room_id", ev.RoomID).Str("peer_id", ev.PeerID).
		Str("role", string(ev.Role)).Msg("Peer joined room")

	if rejoin {
		// Same peer id coming back on a new connection; the others already
		// saw it join once.
		return nil
	}

	room, err := l.rooms.Get(ev.RoomID)
	if err != nil {
		return nil
	}
	return fanout(l.registry, room, ev.PeerID, domain.Message{
		Type:    domain.EventPeerJoined,
		Payload: domain.PeerJoined{PeerID: ev.PeerID, Role: ev.Role},
	})
}

// EndCall tears the sender's room down for everyone, whichever role issued
// it. The remaining members get call-ended and are expected to release
// their own resources.
func (l *Lifecycle) EndCall(connID string) []domain.Notification {
	ep, err := l.registry.Lookup(connID)
	if err != nil || !ep.Bound() {
		return errorAck(connID, "not-in-room", errors.New("end-call requires joining a room first"))
	}

	room, err := l.rooms.Get(ep.RoomID)
	if err != nil {
		// Already ended by someone else; nothing left to do.
		return nil
	}

	notifs := fanout(l.registry, room, ep.PeerID, domain.Message{Type: domain.EventCallEnded})
	l.rooms.Remove(room.ID)
	log.Info().Str("room_id", room.ID).Str("peer_id", ep.PeerID).Msg("Call ended")
	return notifs
}

// Disconnect handles a transport-level connection loss. A connection that
// never joined a room (registered-but-idle device) goes silently.
func (l *Lifecycle) Disconnect(connID string) []domain.Notification {
	ep, err := l.registry.Remove(connID)
	if err != nil || !ep.Bound() {
		return nil
	}

	room, err := l.rooms.Get(ep.RoomID)
	if err != nil {
		return nil
	}

	// A rejoin repoints the peer to a fresh connection before the stale one
	// times out. The stale socket dropping says nothing about the peer then.
	if _, ok := l.registry.Conn(room.ID, ep.PeerID); ok {
		log.Debug().Str("room_id", room.ID).Str("peer_id", ep.PeerID).
			Str("conn_id", connID).Msg("Stale connection closed, peer still live")
		return nil
	}

	if ep.Role == domain.RoleCaller && room.CallerPeerID == ep.PeerID {
		notifs := fanout(l.registry, room, ep.PeerID, domain.Message{Type: domain.EventCallEnded})
		l.rooms.Remove(room.ID)
		log.Info().Str("room_id", room.ID).Str("peer_id", ep.PeerID).Msg("Caller disconnected, call ended")
		return notifs
	}

	_ = l.rooms.RemoveCallee(room.ID, ep.PeerID)
	log.Info().Str("room_id", room.ID).Str("peer_id", ep.PeerID).Msg("Callee disconnected")
	return fanout(l.registry, room, ep.PeerID, domain.Message{
		Type:    domain.EventPeerDisconnected,
		Payload: domain.PeerGone{PeerID: ep.PeerID, Role: domain.RoleCallee},
	})
}

// fanout addresses msg to every current room member except exceptPeer,
// skipping members whose connection is already gone.
func fanout(registry port.ConnectionRegistry, room domain.Room, exceptPeer string, msg domain.Message) []domain.Notification {
	var out []domain.Notification
	for _, peer := range room.Members() {
		if peer == exceptPeer {
			continue
		}
		connID, ok := registry.Conn(room.ID, peer)
		if !ok {
			continue
		}
		out = append(out, domain.Notification{ConnID: connID, Message: msg})
	}
	return out
}

func errorAck(connID, code string, err error) []domain.Notification {
	return []domain.Notification{{
		ConnID: connID,
		Message: domain.Message{
			Type:    domain.EventError,
			Payload: domain.ErrorInfo{Code: code, Message: err.Error()},
		},
	}}
}
