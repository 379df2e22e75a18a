package service

import (
	"context"
	"strings"
	"testing"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSummariesWithPreview(t *testing.T) {
	personaRepo := seededPersonaRepo(2)
	convRepo := newFakeConvRepo()
	messageRepo := &fakeMessageRepo{}
	svc := NewConversationService(convRepo, messageRepo, personaRepo, nil)

	user := &model.User{ID: "u1", Plan: model.PlanFree}
	require.NoError(t, convRepo.Create(context.Background(), &model.Conversation{
		ID: "c1", UserID: "u1", PersonaID: "p1", Title: "first",
	}))
	longText := strings.Repeat("x", 80)
	require.NoError(t, messageRepo.Create(context.Background(), &model.Message{
		ID: "m1", UserID: "u1", PersonaID: "p1", ConversationID: "c1", Content: longText, IsUser: false,
	}))

	summaries, err := svc.List(context.Background(), user, 20, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	// 预览截断在 50 个字符并带省略号，画像展示字段被补齐
	assert.Equal(t, strings.Repeat("x", 50)+"...", summaries[0].LastMessage)
	assert.Equal(t, "Persona 1", summaries[0].PersonaName)
}

func TestGetConversationScopedToOwner(t *testing.T) {
	personaRepo := seededPersonaRepo(1)
	convRepo := newFakeConvRepo()
	messageRepo := &fakeMessageRepo{}
	svc := NewConversationService(convRepo, messageRepo, personaRepo, nil)

	require.NoError(t, convRepo.Create(context.Background(), &model.Conversation{
		ID: "c1", UserID: "owner", PersonaID: "p1", Title: "t",
	}))
	require.NoError(t, messageRepo.Create(context.Background(), &model.Message{
		ID: "m1", UserID: "owner", PersonaID: "p1", ConversationID: "c1", Content: "hi", IsUser: true,
	}))

	detail, err := svc.Get(context.Background(), &model.User{ID: "owner"}, "c1", 0)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 1)

	// 他人访问按不存在处理
	_, err = svc.Get(context.Background(), &model.User{ID: "intruder"}, "c1", 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteConversation(t *testing.T) {
	personaRepo := seededPersonaRepo(1)
	convRepo := newFakeConvRepo()
	svc := NewConversationService(convRepo, &fakeMessageRepo{}, personaRepo, nil)

	require.NoError(t, convRepo.Create(context.Background(), &model.Conversation{
		ID: "c1", UserID: "owner", PersonaID: "p1", Title: "t",
	}))

	// 越权删除被拒绝
	err := svc.Delete(context.Background(), &model.User{ID: "intruder"}, "c1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), &model.User{ID: "owner"}, "c1"))
	_, err = convRepo.FindByIDForUser(context.Background(), "c1", "owner")
	assert.Error(t, err)
}

func TestSearchWithoutBackend(t *testing.T) {
	svc := NewConversationService(newFakeConvRepo(), &fakeMessageRepo{}, seededPersonaRepo(0), nil)

	hits, err := svc.SearchMessages(context.Background(), &model.User{ID: "u1"}, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
