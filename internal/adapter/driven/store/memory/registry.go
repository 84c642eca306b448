package memory

import (
	"sync"

	"github.com/hearthcall/hearth/internal/core/domain"
)

type peerKey struct {
	roomID string
	peerID string
}

// Registry is the in-memory ConnectionRegistry. All maps are guarded by one
// mutex; transport goroutines hit it concurrently.
type Registry struct {
	mu      sync.Mutex
	conns   map[string]domain.Endpoint
	devices map[string]string // device id -> connection id
	peers   map[peerKey]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[string]domain.Endpoint),
		devices: make(map[string]string),
		peers:   make(map[peerKey]string),
	}
}

func (r *Registry) RegisterDevice(connID, deviceID string) {
	if deviceID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// A reload registers the same device id on a fresh connection; the old
	// binding loses.
	if old, ok := r.devices[deviceID]; ok && old != connID {
		if ep, ok := r.conns[old]; ok {
			ep.DeviceID = ""
			r.conns[old] = ep
		}
	}

	ep := r.conns[connID]
	ep.ConnID = connID
	if ep.DeviceID != "" && ep.DeviceID != deviceID {
		delete(r.devices, ep.DeviceID)
	}
	ep.DeviceID = deviceID
	r.conns[connID] = ep
	r.devices[deviceID] = connID
}

func (r *Registry) Bind(connID, peerID string, role domain.Role, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep := r.conns[connID]
	ep.ConnID = connID
	if ep.RoomID != "" {
		if ep.RoomID != roomID {
			return domain.ErrAlreadyBound
		}
		return nil
	}
	ep.PeerID = peerID
	ep.Role = role
	ep.RoomID = roomID
	r.conns[connID] = ep
	r.peers[peerKey{roomID, peerID}] = connID
	return nil
}

func (r *Registry) Lookup(connID string) (domain.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.conns[connID]
	if !ok {
		return domain.Endpoint{}, domain.ErrNotFound
	}
	return ep, nil
}

func (r *Registry) Remove(connID string) (domain.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.conns[connID]
	if !ok {
		return domain.Endpoint{}, domain.ErrNotFound
	}
	delete(r.conns, connID)
	if ep.DeviceID != "" && r.devices[ep.DeviceID] == connID {
		delete(r.devices, ep.DeviceID)
	}
	if ep.RoomID != "" {
		key := peerKey{ep.RoomID, ep.PeerID}
		if r.peers[key] == connID {
			delete(r.peers, key)
		}
	}
	return ep, nil
}

func (r *Registry) Conn(roomID, peerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.peers[peerKey{roomID, peerID}]
	return connID, ok
}

func (r *Registry) Devices() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.devices))
	for id, conn := range r.devices {
		out[id] = conn
	}
	return out
}
