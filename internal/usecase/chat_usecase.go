package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/domain/repository"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/logger"
)

// MediaUploader stores a chat attachment and returns its durable URL.
type MediaUploader interface {
	UploadChatMedia(ctx context.Context, chatID, filename, mimeType string, file io.Reader) (string, error)
}

// PreviewResolver builds a link preview from message text, nil on failure.
type PreviewResolver interface {
	ExtractURL(text string) string
	Resolve(ctx context.Context, text string) *entity.LinkPreview
}

type ChatUseCase struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	uploader MediaUploader
	previews PreviewResolver
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	uploader MediaUploader,
	previews PreviewResolver,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo: chatRepo,
		userRepo: userRepo,
		uploader: uploader,
		previews: previews,
	}
}

type MediaUpload struct {
	Filename string
	MimeType string
	Size     int64
	Reader   io.Reader
}

type SendMessageInput struct {
	ChatID string
	Text   string
	Media  *MediaUpload
}

// OpenOrCreateChat finds the conversation between userID and otherID or
// creates it. The store only answers array-contains, so candidates are
// filtered here for the exact two-member set. Check-then-create is not
// atomic against the store: simultaneous first contact from both sides can
// produce a duplicate chat. Accepted; sequential calls are idempotent.
func (uc *ChatUseCase) OpenOrCreateChat(ctx context.Context, userID, otherID string) (*entity.Chat, error) {
	if userID == otherID {
		return nil, errors.BadRequest("You cannot create a chat with yourself", nil)
	}

	other, err := uc.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	self, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := uc.chatRepo.ListByParticipant(ctx, otherID)
	if err != nil {
		return nil, err
	}
	for _, chat := range candidates {
		if len(chat.Participants) == 2 && chat.HasParticipant(userID) && chat.HasParticipant(otherID) {
			return chat, nil
		}
	}

	chat := &entity.Chat{
		Participants: []string{userID, otherID},
		ParticipantMeta: map[string]entity.ParticipantMeta{
			userID:  {DisplayName: self.DisplayName, Email: self.Email, PhotoURL: self.PhotoURL},
			otherID: {DisplayName: other.DisplayName, Email: other.Email, PhotoURL: other.PhotoURL},
		},
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}

func (uc *ChatUseCase) ListChats(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return uc.chatRepo.ListByParticipant(ctx, userID)
}

func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, chatID string) ([]*entity.Message, error) {
	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ListMessages(ctx, chatID)
}

// SendMessage validates locally first: an empty trimmed text with no
// attachment performs zero external calls.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*entity.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && input.Media == nil {
		return nil, errors.BadRequest("Message is empty", nil)
	}

	chat, err := uc.GetChat(ctx, userID, input.ChatID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:   input.ChatID,
		SenderID: userID,
		Text:     text,
		Type:     entity.MessageTypeText,
	}

	if input.Media != nil {
		mediaURL, err := uc.uploader.UploadChatMedia(ctx, input.ChatID, input.Media.Filename, input.Media.MimeType, input.Media.Reader)
		if err != nil {
			return nil, errors.Internal("Failed to upload attachment", err)
		}
		message.MediaURL = mediaURL
		message.MediaMeta = &entity.MediaMeta{
			Name:     input.Media.Filename,
			Size:     input.Media.Size,
			MimeType: input.Media.MimeType,
		}
		message.Type = entity.MessageTypeMedia
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	// Second step of the non-transactional pair: a failure here leaves the
	// chat preview stale while the message stands, which the next send
	// repairs.
	chat.LastMessage = text
	if chat.LastMessage == "" && message.MediaMeta != nil {
		chat.LastMessage = message.MediaMeta.Name
	}
	chat.LastMessageSenderID = userID
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Warn("Failed to update chat %s preview after send: %v", chat.ID, err)
	}

	return message, nil
}

// EditMessage is sender-only. The preview is re-resolved from the new text,
// so an edit can gain, change, or lose its card.
func (uc *ChatUseCase) EditMessage(ctx context.Context, userID, chatID, messageID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Message is empty", nil)
	}

	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	message, err := uc.chatRepo.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, errors.Forbidden("Only the sender can edit a message", nil)
	}

	message.Text = text
	message.Edited = true
	message.EditedAt = time.Now()
	message.Preview = nil
	if uc.previews.ExtractURL(text) != "" {
		message.Preview = uc.previews.Resolve(ctx, text)
	}

	if err := uc.chatRepo.UpdateMessage(ctx, chatID, message); err != nil {
		return nil, err
	}

	return message, nil
}

// DeleteMessage is a sender-only hard delete; peers observe the message
// disappearing from the next snapshot.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, userID, chatID, messageID string) error {
	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return err
	}

	message, err := uc.chatRepo.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return errors.Forbidden("Only the sender can delete a message", nil)
	}

	return uc.chatRepo.DeleteMessage(ctx, chatID, messageID)
}

// DeleteChat removes the messages first, then the conversation document.
// If the second step fails an orphaned empty conversation remains; the
// caller can retry.
func (uc *ChatUseCase) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return err
	}

	if err := uc.chatRepo.DeleteAllMessages(ctx, chatID); err != nil {
		return err
	}
	if err := uc.chatRepo.Delete(ctx, chatID); err != nil {
		return errors.Internal("Conversation removal incomplete, retry to finish", err)
	}

	return nil
}

func (uc *ChatUseCase) SearchUsers(ctx context.Context, query string) ([]*entity.User, error) {
	return uc.userRepo.Search(ctx, query, 10)
}

// FillPreview resolves and attaches a preview to a stored message unless one
// is already present. The store-side if-absent guard makes it idempotent
// against concurrent sweeps.
func (uc *ChatUseCase) FillPreview(ctx context.Context, chatID string, message *entity.Message) {
	if message.Preview != nil || uc.previews.ExtractURL(message.Text) == "" {
		return
	}

	preview := uc.previews.Resolve(ctx, message.Text)
	if preview == nil {
		return
	}

	if _, err := uc.chatRepo.SetMessagePreview(ctx, chatID, message.ID, preview); err != nil {
		logger.Warn("Failed to store preview for message %s: %v", message.ID, err)
	}
}
