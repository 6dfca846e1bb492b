package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anilifetv/internal/domain/entity"
	"anilifetv/pkg/errors"
)

func newChatFixture(users ...*entity.User) (*ChatUseCase, *fakeChatRepo, *fakeUploader, *fakePreviews) {
	chatRepo := newFakeChatRepo()
	userRepo := newFakeUserRepo(users...)
	uploader := &fakeUploader{}
	previews := &fakePreviews{}
	return NewChatUseCase(chatRepo, userRepo, uploader, previews), chatRepo, uploader, previews
}

func testUsers() []*entity.User {
	return []*entity.User{
		{ID: "u1", DisplayName: "Alice", Email: "alice@example.com"},
		{ID: "u2", DisplayName: "Bob", Email: "bob@example.com"},
		{ID: "u3", DisplayName: "Carol", Email: "carol@example.com"},
	}
}

func TestOpenOrCreateChatIsIdempotent(t *testing.T) {
	uc, repo, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	first, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.createCalls)

	// The pair is unordered: opening from the other side finds the same chat.
	third, err := uc.OpenOrCreateChat(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestOpenOrCreateChatRejectsSelf(t *testing.T) {
	uc, repo, _, _ := newChatFixture(testUsers()...)

	_, err := uc.OpenOrCreateChat(context.Background(), "u1", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
	assert.Equal(t, 0, repo.createCalls)
}

func TestOpenOrCreateChatSnapshotsParticipantMeta(t *testing.T) {
	uc, _, _, _ := newChatFixture(testUsers()...)

	chat, err := uc.OpenOrCreateChat(context.Background(), "u1", "u2")
	require.NoError(t, err)

	assert.Equal(t, "Alice", chat.ParticipantMeta["u1"].DisplayName)
	assert.Equal(t, "bob@example.com", chat.ParticipantMeta["u2"].Email)
}

func TestSendMessageEmptyTextMakesNoExternalCalls(t *testing.T) {
	uc, _, uploader, previews := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "   \n\t  "})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
	assert.Equal(t, 0, uploader.callCount())
	assert.Equal(t, 0, previews.callCount())
}

func TestSendMessageUpdatesChatPreview(t *testing.T) {
	uc, repo, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	message, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "  hello there  "})
	require.NoError(t, err)

	assert.Equal(t, "hello there", message.Text)
	assert.Equal(t, entity.MessageTypeText, message.Type)

	stored, err := repo.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", stored.LastMessage)
	assert.Equal(t, "u1", stored.LastMessageSenderID)
}

func TestSendMessageWithMedia(t *testing.T) {
	uc, _, uploader, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	message, err := uc.SendMessage(ctx, "u1", SendMessageInput{
		ChatID: chat.ID,
		Media: &MediaUpload{
			Filename: "frame.png",
			MimeType: "image/png",
			Size:     2048,
			Reader:   strings.NewReader("png-bytes"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.MessageTypeMedia, message.Type)
	assert.Contains(t, message.MediaURL, "frame.png")
	require.NotNil(t, message.MediaMeta)
	assert.Equal(t, int64(2048), message.MediaMeta.Size)
	assert.Equal(t, 1, uploader.callCount())
}

func TestSendMessageRequiresMembership(t *testing.T) {
	uc, _, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u3", SendMessageInput{ChatID: chat.ID, Text: "hi"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestEditMessageRoundTrip(t *testing.T) {
	uc, _, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "first draft"})
	require.NoError(t, err)

	before := time.Now()
	edited, err := uc.EditMessage(ctx, "u1", chat.ID, sent.ID, "final version https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, "final version https://example.com/page", edited.Text)
	assert.True(t, edited.Edited)
	assert.False(t, edited.EditedAt.Before(before))
	require.NotNil(t, edited.Preview)
	assert.Equal(t, "https://example.com/page", edited.Preview.URL)

	stored, err := uc.ListMessages(ctx, "u1", chat.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, edited.Text, stored[0].Text)
}

func TestEditMessageLosingURLDropsPreview(t *testing.T) {
	uc, _, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "see https://example.com"})
	require.NoError(t, err)

	edited, err := uc.EditMessage(ctx, "u1", chat.ID, sent.ID, "never mind")
	require.NoError(t, err)

	assert.Nil(t, edited.Preview)
}

func TestEditMessageSenderOnly(t *testing.T) {
	uc, _, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "mine"})
	require.NoError(t, err)

	_, err = uc.EditMessage(ctx, "u2", chat.ID, sent.ID, "hijacked")

	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	uc, _, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "oops"})
	require.NoError(t, err)

	err = uc.DeleteMessage(ctx, "u2", chat.ID, sent.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	require.NoError(t, uc.DeleteMessage(ctx, "u1", chat.ID, sent.ID))

	remaining, err := uc.ListMessages(ctx, "u1", chat.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteChatRemovesMessagesAndDocument(t *testing.T) {
	uc, repo, _, _ := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "one"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "u2", SendMessageInput{ChatID: chat.ID, Text: "two"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteChat(ctx, "u1", chat.ID))

	_, err = repo.GetByID(ctx, chat.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
	assert.Empty(t, repo.messages[chat.ID])
}

func TestFillPreviewIsIdempotent(t *testing.T) {
	uc, repo, _, previews := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "watch https://example.com/ep1"})
	require.NoError(t, err)

	uc.FillPreview(ctx, chat.ID, sent)
	assert.Equal(t, 1, previews.callCount())

	// The stored message now carries the card: a second sweep pass sees it
	// and never re-fetches.
	stored, err := repo.GetMessage(ctx, chat.ID, sent.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Preview)

	uc.FillPreview(ctx, chat.ID, stored)
	assert.Equal(t, 1, previews.callCount())
}

func TestFillPreviewSkipsMessagesWithoutURL(t *testing.T) {
	uc, _, _, previews := newChatFixture(testUsers()...)
	ctx := context.Background()

	chat, err := uc.OpenOrCreateChat(ctx, "u1", "u2")
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "u1", SendMessageInput{ChatID: chat.ID, Text: "plain text"})
	require.NoError(t, err)

	uc.FillPreview(ctx, chat.ID, sent)

	assert.Equal(t, 0, previews.callCount())
}
