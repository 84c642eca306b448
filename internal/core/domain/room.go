package domain

import "time"

// Room is one active call session: one caller, zero or more callees.
// The caller peer id is set once and never changes for the room's life.
// A room with zero callees is still active, the caller is just waiting.
type Room struct {
	ID           string
	CallerPeerID string
	ContactID    string
	Callees      map[string]struct{}
	CreatedAt    time.Time
}

// Has reports whether peerID is a current member (caller or callee).
func (r Room) Has(peerID string) bool {
	if peerID == "" {
		return false
	}
	if r.CallerPeerID == peerID {
		return true
	}
	_, ok := r.Callees[peerID]
	return ok
}

// Members returns the peer ids of every current member, caller first.
func (r Room) Members() []string {
	out := make([]string, 0, len(r.Callees)+1)
	if r.CallerPeerID != "" {
		out = append(out, r.CallerPeerID)
	}
	for peer := range r.Callees {
		out = append(out, peer)
	}
	return out
}

// RoomInfo is one entry of the active-room discovery snapshot.
type RoomInfo struct {
	RoomID       string    `json:"roomId"`
	CallerPeerID string    `json:"callerPeerId,omitempty"`
	ContactID    string    `json:"contactId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	AgeMS        int64     `json:"age"`
}
