package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/domain/repository"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	// CreatedAt and LastUpdated carry the serverTimestamp option and are
	// left zero so the store assigns them.
	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	_, err := r.client.Collection("chats").Doc(chat.ID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: chat.LastMessage},
		{Path: "lastMessageSenderId", Value: chat.LastMessageSenderID},
		{Path: "lastUpdated", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("chats").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("participants", "array-contains", userID).
		OrderBy("lastUpdated", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch chats", err)
	}

	return decodeChats(docs), nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	_, err := r.client.Collection("chats").Doc(message.ChatID).
		Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessage(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).
		Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	message.ID = doc.Ref.ID

	return &message, nil
}

func (r *firestoreChatRepository) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	_, err := r.client.Collection("chats").Doc(chatID).
		Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

func (r *firestoreChatRepository) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	_, err := r.client.Collection("chats").Doc(chatID).
		Collection("messages").Doc(messageID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	query := r.client.Collection("chats").Doc(chatID).
		Collection("messages").OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for chat %s: %v", chatID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID

		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreChatRepository) DeleteAllMessages(ctx context.Context, chatID string) error {
	iter := r.client.Collection("chats").Doc(chatID).Collection("messages").Documents(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages for deletion", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errors.Internal("Failed to delete message", err)
		}
	}

	return nil
}

func (r *firestoreChatRepository) SetMessagePreview(ctx context.Context, chatID, messageID string, preview *entity.LinkPreview) (bool, error) {
	docRef := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID)

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Deleted while the preview resolved; nothing to fill.
			return false, nil
		}
		return false, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return false, errors.Internal("Failed to parse message data", err)
	}
	if message.Preview != nil {
		return false, nil
	}

	if _, err := docRef.Update(ctx, []firestore.Update{
		{Path: "preview", Value: preview},
	}); err != nil {
		return false, errors.Internal("Failed to set message preview", err)
	}

	return true, nil
}

func (r *firestoreChatRepository) ListenByParticipant(ctx context.Context, userID string) (<-chan []*entity.Chat, <-chan error) {
	snapshots := r.client.Collection("chats").
		Where("participants", "array-contains", userID).
		OrderBy("lastUpdated", firestore.Desc).
		Snapshots(ctx)

	out := make(chan []*entity.Chat)
	errc := make(chan error, 1)

	go func() {
		defer snapshots.Stop()
		defer close(out)

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					errc <- errors.Internal("Chat list subscription failed", err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errc <- errors.Internal("Failed to read chat list snapshot", err)
				return
			}

			select {
			case out <- decodeChats(docs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}

func (r *firestoreChatRepository) ListenMessages(ctx context.Context, chatID string) (<-chan []*entity.Message, <-chan error) {
	snapshots := r.client.Collection("chats").Doc(chatID).
		Collection("messages").
		OrderBy("createdAt", firestore.Asc).
		Snapshots(ctx)

	out := make(chan []*entity.Message)
	errc := make(chan error, 1)

	go func() {
		defer snapshots.Stop()
		defer close(out)

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					errc <- errors.Internal("Message subscription failed", err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errc <- errors.Internal("Failed to read message snapshot", err)
				return
			}

			var messages []*entity.Message
			for _, doc := range docs {
				var message entity.Message
				if err := doc.DataTo(&message); err != nil {
					logger.Warn("Skipping malformed message %s in chat %s: %v", doc.Ref.ID, chatID, err)
					continue
				}
				message.ID = doc.Ref.ID
				messages = append(messages, &message)
			}

			select {
			case out <- messages:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}

func decodeChats(docs []*firestore.DocumentSnapshot) []*entity.Chat {
	var chats []*entity.Chat
	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}
	return chats
}
