package service

import (
	"context"
	"sync"
	"time"

	"ai-mentor-go/internal/model"
	"ai-mentor-go/pkg/llm"

	"gorm.io/gorm"
)

// 本文件里的 fake 只服务于测试，行为与各自的 GORM 实现保持一致。

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		clone := *u
		repo.users[u.ID] = &clone
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, userID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) DecrementCredits(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.Plan != model.PlanFree || user.CreditsLeft <= 0 {
		return false, nil
	}
	user.CreditsLeft--
	return true, nil
}

func (r *fakeUserRepo) ResetPlan(_ context.Context, userID, plan string, credits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Plan = plan
	user.CreditsLeft = credits
	return nil
}

type fakePersonaRepo struct {
	personas []model.Persona
}

func (r *fakePersonaRepo) Create(_ context.Context, persona *model.Persona) error {
	r.personas = append(r.personas, *persona)
	return nil
}

func (r *fakePersonaRepo) FindByID(_ context.Context, personaID string) (*model.Persona, error) {
	for i := range r.personas {
		if r.personas[i].ID == personaID {
			clone := r.personas[i]
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePersonaRepo) FindAllOrdered(_ context.Context) ([]model.Persona, error) {
	out := make([]model.Persona, len(r.personas))
	copy(out, r.personas)
	return out, nil
}

func (r *fakePersonaRepo) FindByIDs(_ context.Context, ids []string) ([]model.Persona, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	var out []model.Persona
	for _, p := range r.personas {
		if idSet[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePersonaRepo) UpdateAvatarURL(_ context.Context, personaID, avatarURL string) error {
	for i := range r.personas {
		if r.personas[i].ID == personaID {
			r.personas[i].AvatarURL = avatarURL
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeConvRepo struct {
	convs map[string]*model.Conversation
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[string]*model.Conversation)}
}

func (r *fakeConvRepo) Create(_ context.Context, conv *model.Conversation) error {
	clone := *conv
	r.convs[conv.ID] = &clone
	return nil
}

func (r *fakeConvRepo) FindByIDForUser(_ context.Context, conversationID, userID string) (*model.Conversation, error) {
	conv, ok := r.convs[conversationID]
	if !ok || conv.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *conv
	return &clone, nil
}

func (r *fakeConvRepo) TouchLastMessage(_ context.Context, conversationID string, at time.Time) error {
	if conv, ok := r.convs[conversationID]; ok {
		conv.LastMessageAt = at
	}
	return nil
}

func (r *fakeConvRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, conv := range r.convs {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *fakeConvRepo) DeleteWithMessages(_ context.Context, conversationID string) error {
	delete(r.convs, conversationID)
	return nil
}

type fakeMessageRepo struct {
	messages    []*model.Message
	finalizeErr error
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *model.Message) error {
	clone := *msg
	clone.Seq = uint64(len(r.messages) + 1)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) UpdateContent(_ context.Context, messageID, content string) error {
	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	for _, msg := range r.messages {
		if msg.ID == messageID {
			msg.Content = content
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) LatestByConversation(_ context.Context, conversationID string) (*model.Message, error) {
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ConversationID == conversationID {
			clone := *r.messages[i]
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeSubRepo struct {
	subs      []model.Subscription
	createErr error
}

func (r *fakeSubRepo) Create(_ context.Context, sub *model.Subscription) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.subs = append(r.subs, *sub)
	return nil
}

func (r *fakeSubRepo) FindActiveByUser(_ context.Context, userID string, now time.Time) (*model.Subscription, error) {
	var best *model.Subscription
	for i := range r.subs {
		sub := &r.subs[i]
		if sub.UserID != userID || sub.Status != model.SubscriptionActive {
			continue
		}
		if best == nil || sub.EndDate.After(best.EndDate) {
			best = sub
		}
	}
	if best == nil {
		return nil, nil
	}
	clone := *best
	return &clone, nil
}

type fakePitchRepo struct {
	evals []model.PitchEvaluation
}

func (r *fakePitchRepo) Create(_ context.Context, eval *model.PitchEvaluation) error {
	r.evals = append(r.evals, *eval)
	return nil
}

func (r *fakePitchRepo) ListByUser(_ context.Context, userID string) ([]model.PitchEvaluation, error) {
	var out []model.PitchEvaluation
	for _, e := range r.evals {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePitchRepo) FindByIDForUser(_ context.Context, evaluationID, userID string) (*model.PitchEvaluation, error) {
	for _, e := range r.evals {
		if e.ID == evaluationID && e.UserID == userID {
			clone := e
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeLLM 按配置回放分块，然后返回设定的错误。
type fakeLLM struct {
	chunks      []string
	streamErr   error
	completion  string
	completeErr error
	calls       int
	gotPrompt   []llm.Message
}

func (f *fakeLLM) StreamChat(_ context.Context, messages []llm.Message, writer llm.ChunkWriter) error {
	f.calls++
	f.gotPrompt = messages
	for _, chunk := range f.chunks {
		if err := writer.WriteChunk([]byte(chunk)); err != nil {
			return err
		}
	}
	return f.streamErr
}

func (f *fakeLLM) Complete(_ context.Context, messages []llm.Message, _ int) (string, error) {
	f.calls++
	f.gotPrompt = messages
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completion, nil
}

// collectWriter 把所有分块拼成一个字符串。
type collectWriter struct {
	chunks []string
	err    error
}

func (w *collectWriter) WriteChunk(data []byte) error {
	if w.err != nil {
		return w.err
	}
	w.chunks = append(w.chunks, string(data))
	return nil
}
