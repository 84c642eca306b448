package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/hearthcall/hearth/internal/core/port"
	"github.com/rs/zerolog/log"
)

const inviteTimeout = 30 * time.Second

// CallService handles call initiation: it creates the room, then fires the
// invitation mail on a goroutine. The room-creation reply never waits for
// the mail, and a mail failure never rolls the room back.
type CallService struct {
	rooms    port.RoomStore
	contacts port.ContactRepository
	invites  port.InviteSender
	joinBase string
}

func NewCallService(rooms port.RoomStore, contacts port.ContactRepository, invites port.InviteSender, joinBase string) *CallService {
	return &CallService{
		rooms:    rooms,
		contacts: contacts,
		invites:  invites,
		joinBase: strings.TrimRight(joinBase, "/"),
	}
}

// Initiate creates roomID for a call to contactID and returns the join URL
// for the callee. ErrDuplicateRoom means the caller must retry with a fresh
// id; ids carry enough entropy that a collision is a hard error.
func (s *CallService) Initiate(ctx context.Context, contactID, roomID string) (string, error) {
	if roomID == "" {
		return "", errors.New("roomId is required")
	}
	contact, err := s.contacts.Get(contactID)
	if err != nil {
		return "", err
	}
	if err := s.rooms.Create(roomID, "", contactID); err != nil {
		return "", err
	}

	joinURL := s.joinBase + "/join.html?room=" + url.QueryEscape(roomID)

	if s.invites != nil && contact.Email != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), inviteTimeout)
			defer cancel()
			if err := s.invites.SendInvite(ctx, contact, joinURL); err != nil {
				log.Warn().Err(err).Str("contact_id", contact.ID).
					Str("room_id", roomID).Msg("Failed to send invitation")
				return
			}
			log.Info().Str("contact_id", contact.ID).Str("room_id", roomID).Msg("Invitation sent")
		}()
	}

	log.Info().Str("contact_id", contactID).Str("room_id", roomID).Msg("Call initiated")
	return joinURL, nil
}

// ActiveRooms is the discovery snapshot for late-joining participants.
func (s *CallService) ActiveRooms() []domain.RoomInfo {
	return s.rooms.ListActive()
}
