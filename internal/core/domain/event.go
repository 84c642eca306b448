package domain

import "encoding/json"

type EventType string

// Inbound event types, one per signaling frame a client may send.
const (
	EventRegisterDevice EventType = "register-device"
	EventJoinRoom       EventType = "join-room"
	EventOffer          EventType = "offer"
	EventAnswer         EventType = "answer"
	EventICECandidate   EventType = "ice-candidate"
	EventCheckRoom      EventType = "check-room"
	EventEndCall        EventType = "end-call"
)

// Outbound event types.
const (
	EventPeerJoined       EventType = "peer-joined"
	EventPeerDisconnected EventType = "peer-disconnected"
	EventCallEnded        EventType = "call-ended"
	EventRoomStatus       EventType = "room-status"
	EventError            EventType = "error"
)

// Event is one inbound signaling frame. Which fields are meaningful depends
// on Type; Payload is an opaque blob (SDP, ICE candidate) that the server
// relays without ever parsing.
type Event struct {
	Type         EventType       `json:"type"`
	RoomID       string          `json:"roomId,omitempty"`
	PeerID       string          `json:"peerId,omitempty"`
	Role         Role            `json:"role,omitempty"`
	DeviceID     string          `json:"deviceId,omitempty"`
	TargetPeerID string          `json:"targetPeerId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Message is one outbound signaling frame.
type Message struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Notification pairs an outbound message with the connection that should
// receive it. The dispatcher returns these; the transport delivers them.
type Notification struct {
	ConnID  string
	Message Message
}

// PeerJoined announces a new room member to the members already present.
type PeerJoined struct {
	PeerID string `json:"peerId"`
	Role   Role   `json:"role"`
}

// PeerGone announces that a callee left while the call keeps going.
type PeerGone struct {
	PeerID string `json:"peerId"`
	Role   Role   `json:"role"`
}

// RoomStatus is the direct reply to a check-room probe.
type RoomStatus struct {
	Exists bool `json:"exists"`
	Active bool `json:"active"`
}

// Relay wraps an opaque negotiation payload with the sender's peer id so
// the receiver knows whom it is negotiating with.
type Relay struct {
	PeerID  string          `json:"peerId"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorInfo is a failure acknowledgment sent only to the offending
// connection, never broadcast.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}
