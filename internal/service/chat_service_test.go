package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	userRepo    *fakeUserRepo
	personaRepo *fakePersonaRepo
	convRepo    *fakeConvRepo
	messageRepo *fakeMessageRepo
	llm         *fakeLLM
	reconTasks  []tasks.ReconciliationTask
	service     ChatService
}

func newChatFixture(t *testing.T, user *model.User, llmClient *fakeLLM) *chatFixture {
	t.Helper()
	f := &chatFixture{
		userRepo:    newFakeUserRepo(user),
		personaRepo: seededPersonaRepo(5),
		convRepo:    newFakeConvRepo(),
		messageRepo: &fakeMessageRepo{},
		llm:         llmClient,
	}
	access := NewAccessService(f.personaRepo, 3)
	ledger := NewLedgerService(f.userRepo)
	f.service = NewChatService(access, ledger, f.convRepo, f.messageRepo, f.llm, nil, func(task tasks.ReconciliationTask) error {
		f.reconTasks = append(f.reconTasks, task)
		return nil
	})
	return f
}

func TestStreamTurnHappyPath(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"Hello", ", ", "founder."}})

	writer := &collectWriter{}
	result, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "How do I validate my idea?",
	}, writer)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 客户端收到了全部分块
	assert.Equal(t, []string{"Hello", ", ", "founder."}, writer.chunks)
	assert.Equal(t, "Hello, founder.", result.Content)
	assert.Equal(t, 4, result.CreditsLeft)

	// 消息顺序：用户消息在前，助手消息在后且已终态
	msgs, err := f.messageRepo.ListByConversation(context.Background(), result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsUser)
	assert.Equal(t, "How do I validate my idea?", msgs[0].Content)
	assert.False(t, msgs[1].IsUser)
	assert.Equal(t, "Hello, founder.", msgs[1].Content)

	// 额度恰好扣了一次
	stored, err := f.userRepo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.CreditsLeft)
	assert.Empty(t, f.reconTasks)
}

func TestStreamTurnTitleTruncation(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"ok"}})

	longMessage := strings.Repeat("a", 40)
	result, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   longMessage,
	}, &collectWriter{})
	require.NoError(t, err)

	conv, err := f.convRepo.FindByIDForUser(context.Background(), result.ConversationID, "u1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 30)+"...", conv.Title)
}

func TestStreamTurnShortTitleNotTruncated(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"ok"}})

	result, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "short question",
	}, &collectWriter{})
	require.NoError(t, err)

	conv, err := f.convRepo.FindByIDForUser(context.Background(), result.ConversationID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "short question", conv.Title)
}

func TestStreamTurnInsufficientCredits(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 0}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"never"}})

	_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "hello",
	}, &collectWriter{})
	assert.ErrorIs(t, err, apperr.ErrInsufficientCredits)

	// 上游没有被调用，也没有任何消息落库
	assert.Zero(t, f.llm.calls)
	assert.Empty(t, f.messageRepo.messages)
}

func TestStreamTurnPaidPlanKeepsCredits(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanAnnual, CreditsLeft: 1200}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"ok"}})

	for i := 0; i < 3; i++ {
		_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
			PersonaID: "p5",
			Message:   "again",
		}, &collectWriter{})
		require.NoError(t, err)
	}

	stored, err := f.userRepo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1200, stored.CreditsLeft)
}

func TestStreamTurnPlanRestrictedPersona(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"never"}})

	_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p4", // 免费可见前缀之外
		Message:   "hello",
	}, &collectWriter{})
	assert.ErrorIs(t, err, apperr.ErrPlanRestricted)
	assert.Zero(t, f.llm.calls)
}

func TestStreamTurnUnknownConversation(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"never"}})

	_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID:      "p1",
		ConversationID: "someone-elses",
		Message:        "hello",
	}, &collectWriter{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStreamTurnUpstreamFailureSpendsNothing(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{streamErr: apperr.ErrUpstreamUnavailable})

	_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "hello",
	}, &collectWriter{})
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)

	// 助手消息显式落空，额度未扣
	require.Len(t, f.messageRepo.messages, 2)
	assert.Equal(t, "", f.messageRepo.messages[1].Content)

	stored, err := f.userRepo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.CreditsLeft)
}

func TestStreamTurnPartialStreamStillBills(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"partial "}, streamErr: apperr.ErrUpstreamUnavailable})

	result, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "hello",
	}, &collectWriter{})
	require.NoError(t, err)

	// 部分文本被持久化并照常计费
	assert.Equal(t, "partial ", result.Content)
	assert.Equal(t, "partial ", f.messageRepo.messages[1].Content)
	assert.Equal(t, 4, result.CreditsLeft)
}

func TestStreamTurnClientDisconnectKeepsFullText(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"one", "two", "three"}})

	// 客户端在第一块之后断开，模型仍然产出完整文本
	writer := &collectWriter{err: errors.New("client gone")}
	result, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "hello",
	}, writer)
	require.NoError(t, err)

	assert.Equal(t, "onetwothree", result.Content)
	assert.Equal(t, "onetwothree", f.messageRepo.messages[1].Content)
}

func TestStreamTurnFinalizeFailureEmitsReconciliation(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"answer"}})
	f.messageRepo.finalizeErr = errors.New("db down")

	_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID: "p1",
		Message:   "hello",
	}, &collectWriter{})
	require.NoError(t, err)

	// 额度已扣但消息未终态：留下对账记录
	require.Len(t, f.reconTasks, 1)
	assert.Equal(t, model.ReconCreditUnfinalized, f.reconTasks[0].Kind)
	assert.Equal(t, "u1", f.reconTasks[0].UserID)
}

func TestStreamTurnHistoryWindow(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 5}
	f := newChatFixture(t, user, &fakeLLM{chunks: []string{"ok"}})

	conv := &model.Conversation{ID: "c1", UserID: "u1", PersonaID: "p1", Title: "t"}
	require.NoError(t, f.convRepo.Create(context.Background(), conv))
	for i := 0; i < 15; i++ {
		require.NoError(t, f.messageRepo.Create(context.Background(), &model.Message{
			ID:             strings.Repeat("m", i+1),
			UserID:         "u1",
			PersonaID:      "p1",
			ConversationID: "c1",
			Content:        "msg",
			IsUser:         i%2 == 0,
		}))
	}

	_, err := f.service.StreamTurn(context.Background(), user, ChatRequest{
		PersonaID:      "p1",
		ConversationID: "c1",
		Message:        "latest question",
	}, &collectWriter{})
	require.NoError(t, err)

	// system + 最近 10 条历史 + 新消息
	require.Len(t, f.llm.gotPrompt, 12)
	assert.Equal(t, "system", f.llm.gotPrompt[0].Role)
	assert.Equal(t, "user", f.llm.gotPrompt[11].Role)
	assert.Equal(t, "latest question", f.llm.gotPrompt[11].Content)
}
