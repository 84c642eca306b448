package port

import (
	"context"

	"github.com/hearthcall/hearth/internal/core/domain"
)

// InviteSender delivers a call invitation out of band. It runs off the
// signaling path: failures are logged, never propagated into room state.
type InviteSender interface {
	SendInvite(ctx context.Context, to domain.Contact, joinURL string) error
}
