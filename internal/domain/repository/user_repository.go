package repository

import (
	"context"

	"anilifetv/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// EnsureUser creates the user document if it does not exist yet and
	// returns the stored document either way. Identity fields are written
	// only on first creation.
	EnsureUser(ctx context.Context, user *entity.User) (*entity.User, error)

	Update(ctx context.Context, user *entity.User) error

	// Search matches an exact email (when the query contains '@') and a
	// displayName prefix, de-duplicated, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]*entity.User, error)
}
