package usecase

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"

	"anilifetv/internal/domain/entity"
	"anilifetv/pkg/errors"
)

type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
	nextID   int

	chatSnaps chan []*entity.Chat
	msgSnaps  map[string]chan []*entity.Message

	createCalls  int
	previewCalls int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:     make(map[string]*entity.Chat),
		messages:  make(map[string][]*entity.Message),
		chatSnaps: make(chan []*entity.Chat, 8),
		msgSnaps:  make(map[string]chan []*entity.Message),
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	chat.ID = fmt.Sprintf("chat-%d", r.nextID)
	r.chats[chat.ID] = chat
	r.createCalls++
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return chat, nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

func (r *fakeChatRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			out = append(out, chat)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message.ID = fmt.Sprintf("msg-%d", r.nextID)
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	return nil
}

func (r *fakeChatRepo) GetMessage(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages[chatID] {
		if m.ID == message.ID {
			r.messages[chatID][i] = message
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.messages[chatID]
	for i, m := range list {
		if m.ID == messageID {
			r.messages[chatID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Message(nil), r.messages[chatID]...), nil
}

func (r *fakeChatRepo) DeleteAllMessages(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, chatID)
	return nil
}

func (r *fakeChatRepo) SetMessagePreview(ctx context.Context, chatID, messageID string, preview *entity.LinkPreview) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previewCalls++
	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			if m.Preview != nil {
				return false, nil
			}
			m.Preview = preview
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChatRepo) ListenByParticipant(ctx context.Context, userID string) (<-chan []*entity.Chat, <-chan error) {
	return r.chatSnaps, make(chan error)
}

func (r *fakeChatRepo) ListenMessages(ctx context.Context, chatID string) (<-chan []*entity.Message, <-chan error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.msgSnaps[chatID]
	if !ok {
		ch = make(chan []*entity.Message, 8)
		r.msgSnaps[chatID] = ch
	}
	return ch, make(chan error)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *fakeUserRepo) EnsureUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.ID]; ok {
		return existing, nil
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if len(out) >= limit {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
}

func (u *fakeUploader) UploadChatMedia(ctx context.Context, chatID, filename, mimeType string, file io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	return "https://storage.example.com/" + chatID + "/" + filename, nil
}

func (u *fakeUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

var testURLPattern = regexp.MustCompile(`https?://\S+`)

type fakePreviews struct {
	mu      sync.Mutex
	calls   int
	preview *entity.LinkPreview
}

func (p *fakePreviews) ExtractURL(text string) string {
	return testURLPattern.FindString(text)
}

func (p *fakePreviews) Resolve(ctx context.Context, text string) *entity.LinkPreview {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.preview != nil {
		return p.preview
	}
	url := testURLPattern.FindString(text)
	if url == "" {
		return nil
	}
	return &entity.LinkPreview{Title: "Example", URL: url}
}

func (p *fakePreviews) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
