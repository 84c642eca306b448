package port

import "github.com/hearthcall/hearth/internal/core/domain"

// ConnectionRegistry maps transport connection ids to endpoint state. It is
// the only owner of Endpoint records.
type ConnectionRegistry interface {
	// RegisterDevice binds a caller-class device id to the connection.
	// Idempotent per connection; a later registration of the same device id
	// (page reload) overwrites the previous binding.
	RegisterDevice(connID, deviceID string)

	// Bind records that the connection joined roomID under peerID. Returns
	// ErrAlreadyBound if the connection is in a different room; re-binding
	// to the same room is a no-op.
	Bind(connID, peerID string, role domain.Role, roomID string) error

	// Lookup returns the endpoint for connID or ErrNotFound.
	Lookup(connID string) (domain.Endpoint, error)

	// Remove drops the connection and returns the removed endpoint so the
	// caller can drive teardown. ErrNotFound if the connection was never
	// seen.
	Remove(connID string) (domain.Endpoint, error)

	// Conn resolves a room member's peer id to its live connection id.
	Conn(roomID, peerID string) (string, bool)

	// Devices returns a snapshot of device id -> connection id bindings.
	Devices() map[string]string
}

// RoomStore maps room ids to room state. It is the only owner of Room
// records; all mutation goes through the lifecycle rules.
type RoomStore interface {
	// Create registers a new room. Room ids are caller-chosen with enough
	// entropy that a collision is a hard error (ErrDuplicateRoom), never a
	// silent merge. callerPeerID may be empty when the room is created by
	// call initiation before the caller endpoint has joined.
	Create(roomID, callerPeerID, contactID string) error

	// SetCaller assigns the caller peer id, set-once. Assigning the same id
	// again is a no-op; a different id fails with ErrCallerPresent.
	SetCaller(roomID, peerID string) error

	Get(roomID string) (domain.Room, error)
	Exists(roomID string) bool

	// AddCallee adds peerID to the callee set; no-op if already present.
	AddCallee(roomID, peerID string) error

	// RemoveCallee removes peerID from the callee set; no-op if absent or
	// if the room is already gone.
	RemoveCallee(roomID, peerID string) error

	Remove(roomID string)

	// ListActive returns a copy-on-read snapshot for discovery.
	ListActive() []domain.RoomInfo
}
