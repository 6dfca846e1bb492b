package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anilifetv/internal/domain/entity"
)

type fakePresenceRepo struct {
	snaps chan []*entity.Presence
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{snaps: make(chan []*entity.Presence, 8)}
}

func (r *fakePresenceRepo) ListenAll(ctx context.Context) (<-chan []*entity.Presence, <-chan error) {
	return r.snaps, make(chan error)
}

func newSessionFixture(t *testing.T) (*ChatSession, *fakeChatRepo, *fakePresenceRepo, context.CancelFunc) {
	t.Helper()

	chatRepo := newFakeChatRepo()
	userRepo := newFakeUserRepo(testUsers()...)
	presenceRepo := newFakePresenceRepo()
	chatUC := NewChatUseCase(chatRepo, userRepo, &fakeUploader{}, &fakePreviews{})

	session := NewChatSession("u1", chatUC, chatRepo, presenceRepo)

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	return session, chatRepo, presenceRepo, cancel
}

// nextEvent waits for the next event of the wanted type, skipping others.
func nextEvent(t *testing.T, session *ChatSession, wantType string) SessionEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-session.Events():
			if event.Type == wantType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", wantType)
		}
	}
}

func seedChat(t *testing.T, repo *fakeChatRepo, a, b string) *entity.Chat {
	t.Helper()

	chat := &entity.Chat{Participants: []string{a, b}}
	require.NoError(t, repo.Create(context.Background(), chat))
	return chat
}

func TestSessionForwardsChatListSnapshots(t *testing.T) {
	session, repo, _, cancel := newSessionFixture(t)
	defer cancel()

	chat := seedChat(t, repo, "u1", "u2")
	repo.chatSnaps <- []*entity.Chat{chat}

	event := nextEvent(t, session, EventChatList)
	require.Len(t, event.Chats, 1)
	assert.Equal(t, chat.ID, event.Chats[0].ID)
}

func TestSessionOpensConversationAndStreamsMessages(t *testing.T) {
	session, repo, _, cancel := newSessionFixture(t)
	defer cancel()

	chat := seedChat(t, repo, "u1", "u2")

	session.Submit(SessionCommand{Action: ActionOpenChat, ChatID: chat.ID})
	active := nextEvent(t, session, EventActiveChat)
	assert.Equal(t, chat.ID, active.Chat.ID)

	repo.mu.Lock()
	msgCh := repo.msgSnaps[chat.ID]
	repo.mu.Unlock()
	require.NotNil(t, msgCh)

	msgCh <- []*entity.Message{{ID: "m1", ChatID: chat.ID, SenderID: "u2", Text: "hi"}}

	event := nextEvent(t, session, EventMessages)
	assert.Equal(t, chat.ID, event.ChatID)
	require.Len(t, event.Messages, 1)
	assert.Equal(t, "hi", event.Messages[0].Text)
}

// A snapshot tagged with a previously active conversation must never reach
// the client after the session has switched away from it.
func TestSessionDiscardsStaleSnapshotsAfterSwitch(t *testing.T) {
	session, repo, _, cancel := newSessionFixture(t)
	defer cancel()

	chatX := seedChat(t, repo, "u1", "u2")
	chatY := seedChat(t, repo, "u1", "u3")

	session.Submit(SessionCommand{Action: ActionOpenChat, ChatID: chatX.ID})
	nextEvent(t, session, EventActiveChat)

	session.Submit(SessionCommand{Action: ActionOpenChat, ChatID: chatY.ID})
	nextEvent(t, session, EventActiveChat)

	// A late snapshot from the X subscription, still in flight when the
	// switch happened.
	session.msgCh <- taggedMessages{
		chatID:   chatX.ID,
		messages: []*entity.Message{{ID: "stale", ChatID: chatX.ID, Text: "old"}},
	}

	repo.mu.Lock()
	msgChY := repo.msgSnaps[chatY.ID]
	repo.mu.Unlock()
	msgChY <- []*entity.Message{{ID: "fresh", ChatID: chatY.ID, Text: "new"}}

	event := nextEvent(t, session, EventMessages)
	assert.Equal(t, chatY.ID, event.ChatID)
	require.Len(t, event.Messages, 1)
	assert.Equal(t, "fresh", event.Messages[0].ID)
}

func TestSessionDerivesPresenceView(t *testing.T) {
	session, _, presenceRepo, cancel := newSessionFixture(t)
	defer cancel()

	now := time.Now()
	presenceRepo.snaps <- []*entity.Presence{
		{UserID: "u2", State: entity.PresenceOnline, LastSeen: now},
		{UserID: "u3", State: entity.PresenceOffline, LastSeen: now.Add(-3 * time.Hour)},
	}

	event := nextEvent(t, session, EventPresence)
	require.Len(t, event.Presence, 2)
	assert.True(t, event.Presence["u2"].Online)
	assert.False(t, event.Presence["u3"].Online)
	assert.Equal(t, "3 hours ago", event.Presence["u3"].LastSeen)
}

func TestSessionOpenWithUserCreatesChat(t *testing.T) {
	session, repo, _, cancel := newSessionFixture(t)
	defer cancel()

	session.Submit(SessionCommand{Action: ActionOpenWithUser, UserID: "u2"})

	event := nextEvent(t, session, EventActiveChat)
	require.NotNil(t, event.Chat)
	assert.True(t, event.Chat.HasParticipant("u1"))
	assert.True(t, event.Chat.HasParticipant("u2"))
	assert.Equal(t, 1, repo.createCalls)
}

func TestSessionDeleteActiveChatDeactivates(t *testing.T) {
	session, repo, _, cancel := newSessionFixture(t)
	defer cancel()

	chat := seedChat(t, repo, "u1", "u2")

	session.Submit(SessionCommand{Action: ActionOpenChat, ChatID: chat.ID})
	nextEvent(t, session, EventActiveChat)

	session.Submit(SessionCommand{Action: ActionDeleteChat, ChatID: chat.ID})
	session.Submit(SessionCommand{Action: ActionSearchUsers, Query: "any"})
	nextEvent(t, session, EventUsersFound)

	// Stop the loop before inspecting state.
	cancel()
	for range session.Events() {
	}
	assert.Empty(t, session.activeChatID)
}

func TestSessionReportsErrorsAsEvents(t *testing.T) {
	session, _, _, cancel := newSessionFixture(t)
	defer cancel()

	session.Submit(SessionCommand{Action: ActionOpenChat, ChatID: "missing"})

	event := nextEvent(t, session, EventError)
	assert.Equal(t, "Could not open conversation", event.Message)
}
