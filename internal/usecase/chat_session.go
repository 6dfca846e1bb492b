package usecase

import (
	"context"
	"sync"
	"time"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/domain/repository"
	"anilifetv/pkg/logger"
)

// Session event types pushed to the client.
const (
	EventChatList   = "chat_list"
	EventPresence   = "presence"
	EventMessages   = "messages"
	EventActiveChat = "active_chat"
	EventUsersFound = "users_found"
	EventError      = "error"
)

// Session command actions accepted from the client.
const (
	ActionOpenChat     = "open_chat"
	ActionOpenWithUser = "open_with_user"
	ActionSend         = "send"
	ActionEdit         = "edit"
	ActionDelete       = "delete"
	ActionDeleteChat   = "delete_chat"
	ActionSearchUsers  = "search_users"
)

type SessionEvent struct {
	Type     string               `json:"type"`
	ChatID   string               `json:"chat_id,omitempty"`
	Chats    []*entity.Chat       `json:"chats,omitempty"`
	Messages []*entity.Message    `json:"messages,omitempty"`
	Chat     *entity.Chat         `json:"chat,omitempty"`
	Users    []*entity.User       `json:"users,omitempty"`
	Presence map[string]UserState `json:"presence,omitempty"`
	Message  string               `json:"message,omitempty"`
}

type UserState struct {
	Online   bool   `json:"online"`
	LastSeen string `json:"last_seen"`
}

type SessionCommand struct {
	Action    string `json:"action"`
	ChatID    string `json:"chat_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Query     string `json:"query,omitempty"`
}

// taggedMessages carries a message snapshot together with the id of the
// conversation its subscription was opened for. The session drops snapshots
// whose tag no longer matches the active conversation, which closes the
// stale-callback race when switching chats.
type taggedMessages struct {
	chatID   string
	messages []*entity.Message
}

// ChatSession reconciles the three live subscriptions (chat list, presence,
// active-chat messages) plus user commands into a single ordered event
// stream. The store snapshot is always the source of truth: nothing is
// patched optimistically into the lists.
type ChatSession struct {
	userID       string
	chatUC       *ChatUseCase
	chatRepo     repository.ChatRepository
	presenceRepo repository.PresenceRepository

	commands chan SessionCommand
	events   chan SessionEvent
	msgCh    chan taggedMessages

	activeChatID  string
	cancelMsgs    context.CancelFunc
	sweepInFlight sync.Map

	now func() time.Time
}

func NewChatSession(
	userID string,
	chatUC *ChatUseCase,
	chatRepo repository.ChatRepository,
	presenceRepo repository.PresenceRepository,
) *ChatSession {
	return &ChatSession{
		userID:       userID,
		chatUC:       chatUC,
		chatRepo:     chatRepo,
		presenceRepo: presenceRepo,
		commands:     make(chan SessionCommand, 16),
		events:       make(chan SessionEvent, 64),
		msgCh:        make(chan taggedMessages, 8),
		now:          time.Now,
	}
}

// Events is the outbound stream; it closes when Run returns.
func (s *ChatSession) Events() <-chan SessionEvent {
	return s.events
}

// Submit queues a client command. Commands on a full queue are dropped with
// a warning rather than blocking the read pump.
func (s *ChatSession) Submit(cmd SessionCommand) {
	select {
	case s.commands <- cmd:
	default:
		logger.Warn("Session %s command queue full, dropping %s", s.userID, cmd.Action)
	}
}

// Run drives the session until ctx is cancelled. It owns all session state;
// every mutation happens on this goroutine.
func (s *ChatSession) Run(ctx context.Context) {
	defer close(s.events)
	defer s.teardown()

	chatsCh, chatsErr := s.chatRepo.ListenByParticipant(ctx, s.userID)
	presenceCh, presenceErr := s.presenceRepo.ListenAll(ctx)

	for {
		select {
		case chats, ok := <-chatsCh:
			if !ok {
				chatsCh = nil
				continue
			}
			s.emit(SessionEvent{Type: EventChatList, Chats: chats})

		case all, ok := <-presenceCh:
			if !ok {
				presenceCh = nil
				continue
			}
			s.emit(SessionEvent{Type: EventPresence, Presence: s.presenceView(all)})

		case tagged := <-s.msgCh:
			if tagged.chatID != s.activeChatID {
				// Late delivery from a cancelled subscription.
				continue
			}
			s.emit(SessionEvent{Type: EventMessages, ChatID: tagged.chatID, Messages: tagged.messages})
			s.sweepPreviews(ctx, tagged)

		case err := <-chatsErr:
			logger.Error("Session %s chat list subscription: %v", s.userID, err)
			s.emit(SessionEvent{Type: EventError, Message: "Chat list temporarily unavailable"})

		case err := <-presenceErr:
			// Presence is an enhancement: degrade silently.
			logger.Warn("Session %s presence subscription: %v", s.userID, err)

		case cmd := <-s.commands:
			s.handle(ctx, cmd)

		case <-ctx.Done():
			return
		}
	}
}

func (s *ChatSession) handle(ctx context.Context, cmd SessionCommand) {
	switch cmd.Action {
	case ActionOpenChat:
		chat, err := s.chatUC.GetChat(ctx, s.userID, cmd.ChatID)
		if err != nil {
			s.fail(err, "Could not open conversation")
			return
		}
		s.activate(ctx, chat)

	case ActionOpenWithUser:
		if cmd.UserID == s.userID {
			return
		}
		chat, err := s.chatUC.OpenOrCreateChat(ctx, s.userID, cmd.UserID)
		if err != nil {
			s.fail(err, "Could not start conversation")
			return
		}
		s.activate(ctx, chat)

	case ActionSend:
		_, err := s.chatUC.SendMessage(ctx, s.userID, SendMessageInput{
			ChatID: cmd.ChatID,
			Text:   cmd.Text,
		})
		if err != nil {
			s.fail(err, "Could not send message")
		}

	case ActionEdit:
		if _, err := s.chatUC.EditMessage(ctx, s.userID, cmd.ChatID, cmd.MessageID, cmd.Text); err != nil {
			s.fail(err, "Could not edit message")
		}

	case ActionDelete:
		if err := s.chatUC.DeleteMessage(ctx, s.userID, cmd.ChatID, cmd.MessageID); err != nil {
			s.fail(err, "Could not delete message")
		}

	case ActionDeleteChat:
		if err := s.chatUC.DeleteChat(ctx, s.userID, cmd.ChatID); err != nil {
			s.fail(err, "Could not delete conversation, try again")
			return
		}
		if cmd.ChatID == s.activeChatID {
			s.deactivate()
		}

	case ActionSearchUsers:
		users, err := s.chatUC.SearchUsers(ctx, cmd.Query)
		if err != nil {
			s.fail(err, "Search failed")
			return
		}
		s.emit(SessionEvent{Type: EventUsersFound, Users: users})

	default:
		logger.Debug("Session %s ignoring unknown action %q", s.userID, cmd.Action)
	}
}

// activate switches the message subscription to chat. The previous listener
// is cancelled before the new one opens, and the tag check in Run covers
// snapshots that were already in flight.
func (s *ChatSession) activate(ctx context.Context, chat *entity.Chat) {
	if s.activeChatID == chat.ID {
		s.emit(SessionEvent{Type: EventActiveChat, Chat: chat})
		return
	}

	s.deactivate()
	s.activeChatID = chat.ID

	msgCtx, cancel := context.WithCancel(ctx)
	s.cancelMsgs = cancel

	msgs, errs := s.chatRepo.ListenMessages(msgCtx, chat.ID)
	go func(chatID string) {
		for {
			select {
			case snapshot, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case s.msgCh <- taggedMessages{chatID: chatID, messages: snapshot}:
				case <-msgCtx.Done():
					return
				}
			case err := <-errs:
				logger.Error("Session %s messages subscription for %s: %v", s.userID, chatID, err)
				return
			case <-msgCtx.Done():
				return
			}
		}
	}(chat.ID)

	s.emit(SessionEvent{Type: EventActiveChat, Chat: chat})
}

func (s *ChatSession) deactivate() {
	if s.cancelMsgs != nil {
		s.cancelMsgs()
		s.cancelMsgs = nil
	}
	s.activeChatID = ""
}

func (s *ChatSession) teardown() {
	if s.cancelMsgs != nil {
		s.cancelMsgs()
		s.cancelMsgs = nil
	}
}

// sweepPreviews fills previews for messages that carry a URL and no card
// yet. The in-flight set stops duplicate fetches when snapshots arrive
// faster than resolutions finish; the store-side if-absent guard makes the
// write idempotent regardless.
func (s *ChatSession) sweepPreviews(ctx context.Context, tagged taggedMessages) {
	for _, message := range tagged.messages {
		if message.Preview != nil {
			continue
		}
		if s.chatUC.previews.ExtractURL(message.Text) == "" {
			continue
		}
		if _, loaded := s.sweepInFlight.LoadOrStore(message.ID, true); loaded {
			continue
		}

		go func(chatID string, message *entity.Message) {
			defer s.sweepInFlight.Delete(message.ID)
			s.chatUC.FillPreview(ctx, chatID, message)
		}(tagged.chatID, message)
	}
}

func (s *ChatSession) presenceView(all []*entity.Presence) map[string]UserState {
	now := s.now()
	view := make(map[string]UserState, len(all))
	for _, p := range all {
		view[p.UserID] = UserState{
			Online:   p.IsOnline(now),
			LastSeen: p.LastSeenText(now),
		}
	}
	return view
}

func (s *ChatSession) fail(err error, message string) {
	logger.Warn("Session %s: %s: %v", s.userID, message, err)
	s.emit(SessionEvent{Type: EventError, Message: message})
}

func (s *ChatSession) emit(event SessionEvent) {
	select {
	case s.events <- event:
	default:
		logger.Warn("Session %s event buffer full, dropping %s", s.userID, event.Type)
	}
}
