package repository

import (
	"context"

	"anilifetv/internal/domain/entity"
)

// PresenceRepository is read-only: presence documents are written by the
// heartbeat mechanism, not by this service.
type PresenceRepository interface {
	// ListenAll streams snapshots of the whole presence collection. One
	// subscription per session, not per chat.
	ListenAll(ctx context.Context) (<-chan []*entity.Presence, <-chan error)
}
