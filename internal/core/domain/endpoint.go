package domain

// Role distinguishes the two kinds of call participants. The caller is the
// fixed device that opens a room; callees join it from invitation links.
type Role string

const (
	RoleCaller Role = "caller"
	RoleCallee Role = "callee"
)

func (r Role) Valid() bool {
	return r == RoleCaller || r == RoleCallee
}

// Endpoint is one live transport connection and what the signaling layer
// knows about it. PeerID, Role and RoomID are zero until the connection
// joins a room; DeviceID is set only for caller-class devices that
// registered themselves.
type Endpoint struct {
	ConnID   string
	PeerID   string
	Role     Role
	RoomID   string
	DeviceID string
}

// Bound reports whether the endpoint has joined a room. The RoomID is a
// lookup key, not a pointer: the referenced room may already be gone.
func (e Endpoint) Bound() bool {
	return e.RoomID != ""
}
