package service

import (
	"context"
	"testing"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRequiresPaidPlan(t *testing.T) {
	personaRepo := seededPersonaRepo(3)
	access := NewAccessService(personaRepo, 3)
	llmClient := &fakeLLM{completion: "never"}
	svc := NewPitchService(access, &fakePitchRepo{}, personaRepo, llmClient, 1500)

	_, err := svc.Evaluate(context.Background(), &model.User{ID: "u1", Plan: model.PlanFree}, "p1", "my pitch")
	assert.ErrorIs(t, err, apperr.ErrPlanRestricted)
	assert.Zero(t, llmClient.calls)
}

func TestEvaluatePersistsAndReturnsPersona(t *testing.T) {
	personaRepo := seededPersonaRepo(3)
	access := NewAccessService(personaRepo, 3)
	pitchRepo := &fakePitchRepo{}
	llmClient := &fakeLLM{completion: "Strong team, weak market analysis."}
	svc := NewPitchService(access, pitchRepo, personaRepo, llmClient, 1500)

	user := &model.User{ID: "u1", Plan: model.PlanMonthly}
	view, err := svc.Evaluate(context.Background(), user, "p2", "We sell rockets.")
	require.NoError(t, err)

	assert.Equal(t, "Strong team, weak market analysis.", view.Evaluation)
	assert.Equal(t, "We sell rockets.", view.PitchText)
	require.NotNil(t, view.Persona)
	assert.Equal(t, "p2", view.Persona.ID)
	require.Len(t, pitchRepo.evals, 1)

	// 提示词：画像模板 + 评估指令做 system，pitch 正文做 user
	require.Len(t, llmClient.gotPrompt, 2)
	assert.Equal(t, "system", llmClient.gotPrompt[0].Role)
	assert.Contains(t, llmClient.gotPrompt[0].Content, "You are a mentor.")
	assert.Equal(t, "We sell rockets.", llmClient.gotPrompt[1].Content)
}

func TestEvaluateUnknownPersona(t *testing.T) {
	personaRepo := seededPersonaRepo(1)
	access := NewAccessService(personaRepo, 3)
	svc := NewPitchService(access, &fakePitchRepo{}, personaRepo, &fakeLLM{completion: "x"}, 1500)

	_, err := svc.Evaluate(context.Background(), &model.User{ID: "u1", Plan: model.PlanAnnual}, "missing", "pitch")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPitchHistoryJoinsPersona(t *testing.T) {
	personaRepo := seededPersonaRepo(2)
	access := NewAccessService(personaRepo, 3)
	pitchRepo := &fakePitchRepo{evals: []model.PitchEvaluation{
		{ID: "e1", UserID: "u1", PersonaID: "p1", PitchText: "a", Evaluation: "good"},
		{ID: "e2", UserID: "u1", PersonaID: "p2", PitchText: "b", Evaluation: "bad"},
		{ID: "e3", UserID: "other", PersonaID: "p1", PitchText: "c", Evaluation: "ugly"},
	}}
	svc := NewPitchService(access, pitchRepo, personaRepo, &fakeLLM{}, 1500)

	views, err := svc.History(context.Background(), &model.User{ID: "u1", Plan: model.PlanMonthly})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Persona)
	assert.Equal(t, "p1", views[0].Persona.ID)

	view, err := svc.Get(context.Background(), &model.User{ID: "u1"}, "e2")
	require.NoError(t, err)
	assert.Equal(t, "bad", view.Evaluation)

	// 他人的评估按不存在处理
	_, err = svc.Get(context.Background(), &model.User{ID: "u1"}, "e3")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
