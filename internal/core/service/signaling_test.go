package service_test

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"github.com/hearthcall/hearth/internal/adapter/driven/store/memory"
	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/hearthcall/hearth/internal/core/service"
)

func newRouter(t *testing.T) (*service.Router, *memory.Registry, *memory.RoomStore) {
	t.Helper()
	registry := memory.NewRegistry()
	rooms := memory.NewRoomStore()
	lifecycle := service.NewLifecycle(registry, rooms)
	return service.NewRouter(registry, rooms, lifecycle), registry, rooms
}

func join(t *testing.T, r *service.Router, connID, roomID, peerID string, role domain.Role) []domain.Notification {
	t.Helper()
	return r.Dispatch(connID, domain.Event{
		Type:   domain.EventJoinRoom,
		RoomID: roomID,
		PeerID: peerID,
		Role:   role,
	})
}

func recipients(notifs []domain.Notification) []string {
	out := make([]string, 0, len(notifs))
	for _, n := range notifs {
		out = append(out, n.ConnID)
	}
	return out
}

func wantError(t *testing.T, notifs []domain.Notification, connID, code string) {
	t.Helper()
	if len(notifs) != 1 {
		t.Fatalf("want 1 error notification, got %d", len(notifs))
	}
	if notifs[0].ConnID != connID {
		t.Fatalf("error sent to %q, want %q", notifs[0].ConnID, connID)
	}
	if notifs[0].Message.Type != domain.EventError {
		t.Fatalf("want error message, got %q", notifs[0].Message.Type)
	}
	info, ok := notifs[0].Message.Payload.(domain.ErrorInfo)
	if !ok {
		t.Fatalf("error payload has type %T", notifs[0].Message.Payload)
	}
	if info.Code != code {
		t.Fatalf("error code = %q, want %q", info.Code, code)
	}
}

func TestJoinNotifiesExistingMembers(t *testing.T) {
	r, _, _ := newRouter(t)

	if notifs := join(t, r, "conn-c", "r1", "cam", domain.RoleCaller); len(notifs) != 0 {
		t.Fatalf("first join produced notifications: %v", notifs)
	}

	notifs := join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	if got := recipients(notifs); !reflect.DeepEqual(got, []string{"conn-c"}) {
		t.Fatalf("peer-joined recipients = %v, want [conn-c]", got)
	}
	if notifs[0].Message.Type != domain.EventPeerJoined {
		t.Fatalf("message type = %q", notifs[0].Message.Type)
	}
	joined := notifs[0].Message.Payload.(domain.PeerJoined)
	if joined.PeerID != "alice" || joined.Role != domain.RoleCallee {
		t.Fatalf("payload = %+v", joined)
	}

	// The second callee is announced to both existing members, not itself.
	notifs = join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)
	got := recipients(notifs)
	if len(got) != 2 {
		t.Fatalf("peer-joined recipients = %v", got)
	}
	for _, conn := range got {
		if conn == "conn-b" {
			t.Fatal("joiner received its own peer-joined")
		}
	}
}

func TestCalleeSetMatchesJoinsAndLeaves(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)
	join(t, r, "conn-d", "r1", "dora", domain.RoleCallee)
	r.Disconnect("conn-b")

	room, err := rooms.Get("r1")
	if err != nil {
		t.Fatalf("room gone: %v", err)
	}
	want := map[string]struct{}{"alice": {}, "dora": {}}
	if !reflect.DeepEqual(room.Callees, want) {
		t.Fatalf("callee set = %v, want %v", room.Callees, want)
	}
	if room.CallerPeerID != "cam" {
		t.Fatalf("caller = %q", room.CallerPeerID)
	}
}

func TestDuplicateJoinIsIdempotent(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)

	// Network retry: same connection, same join frame.
	if notifs := join(t, r, "conn-a", "r1", "alice", domain.RoleCallee); len(notifs) != 0 {
		t.Fatalf("repeated join produced notifications: %v", notifs)
	}

	room, _ := rooms.Get("r1")
	if len(room.Callees) != 1 {
		t.Fatalf("callee set has %d entries, want 1", len(room.Callees))
	}
}

func TestJoinSecondRoomWhileBoundRejected(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-c2", "r2", "cam2", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)

	notifs := join(t, r, "conn-a", "r2", "alice", domain.RoleCallee)
	wantError(t, notifs, "conn-a", "already-bound")

	room, _ := rooms.Get("r2")
	if len(room.Callees) != 0 {
		t.Fatalf("rejected join mutated r2: %v", room.Callees)
	}
}

func TestCalleeJoinMissingRoomRejected(t *testing.T) {
	r, _, _ := newRouter(t)

	notifs := join(t, r, "conn-a", "nope", "alice", domain.RoleCallee)
	wantError(t, notifs, "conn-a", "room-not-found")
}

func TestTargetedRelayReachesOnlyTarget(t *testing.T) {
	r, _, _ := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)

	sdp := json.RawMessage(`{"sdp":"v=0..."}`)
	notifs := r.Dispatch("conn-c", domain.Event{
		Type:         domain.EventOffer,
		RoomID:       "r1",
		TargetPeerID: "bob",
		Payload:      sdp,
	})

	if got := recipients(notifs); !reflect.DeepEqual(got, []string{"conn-b"}) {
		t.Fatalf("offer recipients = %v, want [conn-b]", got)
	}
	if notifs[0].Message.Type != domain.EventOffer {
		t.Fatalf("relayed type = %q", notifs[0].Message.Type)
	}
	relay := notifs[0].Message.Payload.(domain.Relay)
	if relay.PeerID != "cam" {
		t.Fatalf("relay sender = %q, want cam", relay.PeerID)
	}
	if string(relay.Payload) != string(sdp) {
		t.Fatalf("payload altered: %s", relay.Payload)
	}
}

func TestUntargetedRelaySingleOtherMember(t *testing.T) {
	r, _, _ := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)

	notifs := r.Dispatch("conn-a", domain.Event{
		Type:    domain.EventAnswer,
		RoomID:  "r1",
		Payload: json.RawMessage(`{"sdp":"answer"}`),
	})
	if got := recipients(notifs); !reflect.DeepEqual(got, []string{"conn-c"}) {
		t.Fatalf("answer recipients = %v, want [conn-c]", got)
	}
}

func TestUntargetedRelayFansOutToAllOthers(t *testing.T) {
	r, _, _ := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)

	notifs := r.Dispatch("conn-c", domain.Event{
		Type:    domain.EventICECandidate,
		RoomID:  "r1",
		Payload: json.RawMessage(`{"candidate":"..."}`),
	})
	got := recipients(notifs)
	if len(got) != 2 {
		t.Fatalf("candidate recipients = %v", got)
	}
	for _, conn := range got {
		if conn == "conn-c" {
			t.Fatal("sender received its own candidate")
		}
	}
}

func TestRelayToUnknownTargetDroppedSilently(t *testing.T) {
	r, _, _ := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)

	// The target may have just disconnected; the sender gets nothing.
	notifs := r.Dispatch("conn-c", domain.Event{
		Type:         domain.EventOffer,
		RoomID:       "r1",
		TargetPeerID: "ghost",
		Payload:      json.RawMessage(`{}`),
	})
	if len(notifs) != 0 {
		t.Fatalf("unknown target produced notifications: %v", notifs)
	}
}

func TestRelayBeforeJoinRejected(t *testing.T) {
	r, _, _ := newRouter(t)

	notifs := r.Dispatch("conn-x", domain.Event{
		Type:    domain.EventOffer,
		RoomID:  "r1",
		Payload: json.RawMessage(`{}`),
	})
	wantError(t, notifs, "conn-x", "not-in-room")
}

func TestCallerDisconnectEndsCall(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)

	notifs := r.Disconnect("conn-c")
	got := recipients(notifs)
	if len(got) != 2 {
		t.Fatalf("call-ended recipients = %v", got)
	}
	for _, n := range notifs {
		if n.Message.Type != domain.EventCallEnded {
			t.Fatalf("message type = %q", n.Message.Type)
		}
	}
	if rooms.Exists("r1") {
		t.Fatal("room survived caller disconnect")
	}
}

func TestCalleeDisconnectShrinksRoom(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)

	notifs := r.Disconnect("conn-a")
	got := recipients(notifs)
	if len(got) != 2 {
		t.Fatalf("peer-disconnected recipients = %v", got)
	}
	for _, n := range notifs {
		if n.Message.Type != domain.EventPeerDisconnected {
			t.Fatalf("message type = %q", n.Message.Type)
		}
		gone := n.Message.Payload.(domain.PeerGone)
		if gone.PeerID != "alice" || gone.Role != domain.RoleCallee {
			t.Fatalf("payload = %+v", gone)
		}
	}
	if !rooms.Exists("r1") {
		t.Fatal("room torn down by callee disconnect")
	}

	// The survivors can still negotiate.
	notifs = r.Dispatch("conn-b", domain.Event{
		Type:         domain.EventOffer,
		RoomID:       "r1",
		TargetPeerID: "cam",
		Payload:      json.RawMessage(`{}`),
	})
	if got := recipients(notifs); !reflect.DeepEqual(got, []string{"conn-c"}) {
		t.Fatalf("post-shrink offer recipients = %v", got)
	}
}

func TestEndCallFromCalleeTearsDownRoom(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-b", "r1", "bob", domain.RoleCallee)

	notifs := r.Dispatch("conn-a", domain.Event{Type: domain.EventEndCall, RoomID: "r1"})
	got := recipients(notifs)
	if len(got) != 2 {
		t.Fatalf("call-ended recipients = %v", got)
	}
	if rooms.Exists("r1") {
		t.Fatal("room survived explicit end-call")
	}
}

func TestDisconnectOfUnboundConnectionIsSilent(t *testing.T) {
	r, _, _ := newRouter(t)

	r.Dispatch("conn-idle", domain.Event{Type: domain.EventRegisterDevice, DeviceID: "tablet-1"})
	if notifs := r.Disconnect("conn-idle"); len(notifs) != 0 {
		t.Fatalf("idle disconnect produced notifications: %v", notifs)
	}
	if notifs := r.Disconnect("conn-never-seen"); len(notifs) != 0 {
		t.Fatalf("unknown disconnect produced notifications: %v", notifs)
	}
}

func TestCheckRoomIsReadOnly(t *testing.T) {
	r, registry, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)
	before, _ := rooms.Get("r1")

	notifs := r.Dispatch("conn-x", domain.Event{Type: domain.EventCheckRoom, RoomID: "r1"})
	if len(notifs) != 1 || notifs[0].ConnID != "conn-x" {
		t.Fatalf("check-room reply = %v", notifs)
	}
	status := notifs[0].Message.Payload.(domain.RoomStatus)
	if !status.Exists || !status.Active {
		t.Fatalf("status = %+v", status)
	}

	after, _ := rooms.Get("r1")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("check-room mutated room: %+v != %+v", before, after)
	}
	if _, err := registry.Lookup("conn-x"); err == nil {
		t.Fatal("check-room registered the probing connection")
	}
}

func TestCheckRoomLifecycle(t *testing.T) {
	r, _, rooms := newRouter(t)

	check := func(roomID string) domain.RoomStatus {
		notifs := r.Dispatch("conn-probe", domain.Event{Type: domain.EventCheckRoom, RoomID: roomID})
		return notifs[0].Message.Payload.(domain.RoomStatus)
	}

	// Call initiation creates the room before anyone joins.
	if err := rooms.Create("r2", "", "grandma"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if st := check("r2"); !st.Exists || st.Active {
		t.Fatalf("after create: %+v", st)
	}

	join(t, r, "conn-c1", "r2", "c1", domain.RoleCaller)
	if st := check("r2"); !st.Exists || st.Active {
		t.Fatalf("caller alone should not be active: %+v", st)
	}

	join(t, r, "conn-f1", "r2", "f1", domain.RoleCallee)
	if st := check("r2"); !st.Exists || !st.Active {
		t.Fatalf("after callee join: %+v", st)
	}

	r.Dispatch("conn-c1", domain.Event{Type: domain.EventEndCall, RoomID: "r2"})
	if st := check("r2"); st.Exists || st.Active {
		t.Fatalf("after end-call: %+v", st)
	}
}

func TestCallerRejoinReclaimsRoom(t *testing.T) {
	r, _, rooms := newRouter(t)

	if err := rooms.Create("r3", "", "mom"); err != nil {
		t.Fatalf("create: %v", err)
	}
	join(t, r, "conn-c", "r3", "cam", domain.RoleCaller)

	room, _ := rooms.Get("r3")
	if room.CallerPeerID != "cam" {
		t.Fatalf("caller = %q, want cam", room.CallerPeerID)
	}

	// A second caller with a different peer id is refused.
	notifs := join(t, r, "conn-c2", "r3", "intruder", domain.RoleCaller)
	wantError(t, notifs, "conn-c2", "caller-present")
}

func TestStaleCallerConnectionDropDoesNotEndCall(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-old", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-a", "r1", "alice", domain.RoleCallee)

	// Page reload: same caller comes back on a fresh connection before the
	// old socket's read loop notices anything.
	if notifs := join(t, r, "conn-new", "r1", "cam", domain.RoleCaller); len(notifs) != 0 {
		t.Fatalf("rejoin produced notifications: %v", notifs)
	}

	// Now the old socket times out. The call must survive.
	if notifs := r.Disconnect("conn-old"); len(notifs) != 0 {
		t.Fatalf("stale disconnect produced notifications: %v", notifs)
	}
	if !rooms.Exists("r1") {
		t.Fatal("room torn down by stale connection")
	}
	room, _ := rooms.Get("r1")
	if room.CallerPeerID != "cam" {
		t.Fatalf("caller = %q, want cam", room.CallerPeerID)
	}

	// The live connection still receives signals addressed to the caller.
	notifs := r.Dispatch("conn-a", domain.Event{
		Type: domain.EventAnswer, TargetPeerID: "cam",
		Payload: json.RawMessage(`{"sdp":"v=0"}`),
	})
	if got := recipients(notifs); !reflect.DeepEqual(got, []string{"conn-new"}) {
		t.Fatalf("answer recipients = %v, want [conn-new]", got)
	}
}

func TestStaleCalleeConnectionDropKeepsMembership(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)
	join(t, r, "conn-old", "r1", "alice", domain.RoleCallee)
	join(t, r, "conn-new", "r1", "alice", domain.RoleCallee)

	if notifs := r.Disconnect("conn-old"); len(notifs) != 0 {
		t.Fatalf("stale disconnect produced notifications: %v", notifs)
	}

	room, err := rooms.Get("r1")
	if err != nil {
		t.Fatalf("room gone: %v", err)
	}
	if _, ok := room.Callees["alice"]; !ok {
		t.Fatal("alice evicted by stale connection")
	}

	notifs := r.Dispatch("conn-c", domain.Event{
		Type: domain.EventOffer, TargetPeerID: "alice",
		Payload: json.RawMessage(`{"sdp":"v=0"}`),
	})
	if got := recipients(notifs); !reflect.DeepEqual(got, []string{"conn-new"}) {
		t.Fatalf("offer recipients = %v, want [conn-new]", got)
	}
}

func TestConcurrentJoinsBothLand(t *testing.T) {
	r, _, rooms := newRouter(t)

	join(t, r, "conn-c", "r1", "cam", domain.RoleCaller)

	var wg sync.WaitGroup
	results := make([][]domain.Notification, 2)
	for i, p := range []struct{ conn, peer string }{
		{"conn-a", "alice"},
		{"conn-b", "bob"},
	} {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = join(t, r, p.conn, "r1", p.peer, domain.RoleCallee)
		}()
	}
	wg.Wait()

	room, err := rooms.Get("r1")
	if err != nil {
		t.Fatalf("room gone: %v", err)
	}
	if len(room.Callees) != 2 {
		t.Fatalf("callee set = %v", room.Callees)
	}

	// Whichever join ran second announced itself to both the caller and
	// the first joiner: three peer-joined notifications in total, two of
	// them for the caller, one for a callee.
	toCaller, toCallee := 0, 0
	for _, notifs := range results {
		for _, n := range notifs {
			if n.Message.Type != domain.EventPeerJoined {
				t.Fatalf("unexpected notification: %+v", n)
			}
			switch n.ConnID {
			case "conn-c":
				toCaller++
			case "conn-a", "conn-b":
				toCallee++
			}
		}
	}
	if toCaller != 2 || toCallee != 1 {
		t.Fatalf("peer-joined counts: caller=%d callee=%d", toCaller, toCallee)
	}
}

func TestUnknownEventTypeAcked(t *testing.T) {
	r, _, _ := newRouter(t)

	notifs := r.Dispatch("conn-x", domain.Event{Type: "frobnicate"})
	wantError(t, notifs, "conn-x", "unknown-event")
}
