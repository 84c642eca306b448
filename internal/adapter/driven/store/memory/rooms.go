package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/hearthcall/hearth/internal/core/domain"
)

// RoomStore is the in-memory room table. Reads hand out copies so a
// snapshot is never affected by later mutation.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	now   func() time.Time
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*domain.Room),
		now:   time.Now,
	}
}

func (s *RoomStore) Create(roomID, callerPeerID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; ok {
		return domain.ErrDuplicateRoom
	}
	s.rooms[roomID] = &domain.Room{
		ID:           roomID,
		CallerPeerID: callerPeerID,
		ContactID:    contactID,
		Callees:      make(map[string]struct{}),
		CreatedAt:    s.now(),
	}
	return nil
}

func (s *RoomStore) SetCaller(roomID, peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.CallerPeerID == peerID {
		return nil
	}
	if room.CallerPeerID != "" {
		return domain.ErrCallerPresent
	}
	room.CallerPeerID = peerID
	return nil
}

func (s *RoomStore) Get(roomID string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (s *RoomStore) Exists(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[roomID]
	return ok
}

func (s *RoomStore) AddCallee(roomID, peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Callees[peerID] = struct{}{}
	return nil
}

func (s *RoomStore) RemoveCallee(roomID, peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Tolerates a room that already ended; the reference was a key, not a
	// pointer.
	if room, ok := s.rooms[roomID]; ok {
		delete(room.Callees, peerID)
	}
	return nil
}

func (s *RoomStore) Remove(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomID)
}

func (s *RoomStore) ListActive() []domain.RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]domain.RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, domain.RoomInfo{
			RoomID:       room.ID,
			CallerPeerID: room.CallerPeerID,
			ContactID:    room.ContactID,
			CreatedAt:    room.CreatedAt,
			AgeMS:        now.Sub(room.CreatedAt).Milliseconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func copyRoom(r *domain.Room) domain.Room {
	out := *r
	out.Callees = make(map[string]struct{}, len(r.Callees))
	for peer := range r.Callees {
		out.Callees[peer] = struct{}{}
	}
	return out
}
