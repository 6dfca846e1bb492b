package repository

import (
	"context"

	"anilifetv/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	Update(ctx context.Context, chat *entity.Chat) error
	Delete(ctx context.Context, id string) error

	// ListByParticipant returns every chat the user belongs to, newest
	// activity first. The store only supports array-contains, so exact
	// pair matching is the caller's job.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error)

	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessage(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error
	DeleteMessage(ctx context.Context, chatID, messageID string) error
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)
	DeleteAllMessages(ctx context.Context, chatID string) error

	// SetMessagePreview writes the preview only if the stored message has
	// none yet. Returns true when the write happened.
	SetMessagePreview(ctx context.Context, chatID, messageID string, preview *entity.LinkPreview) (bool, error)

	// ListenByParticipant streams full result snapshots of the user's chat
	// list, ordered by lastUpdated descending, until ctx is cancelled.
	ListenByParticipant(ctx context.Context, userID string) (<-chan []*entity.Chat, <-chan error)

	// ListenMessages streams full ordered (createdAt ascending) message
	// snapshots for one chat until ctx is cancelled.
	ListenMessages(ctx context.Context, chatID string) (<-chan []*entity.Message, <-chan error)
}
