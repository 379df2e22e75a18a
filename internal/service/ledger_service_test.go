package service

import (
	"context"
	"testing"

	"ai-mentor-go/internal/apperr"
	"ai-mentor-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCredits(t *testing.T) {
	ledger := NewLedgerService(newFakeUserRepo())

	assert.True(t, ledger.CheckCredits(&model.User{Plan: model.PlanMonthly, CreditsLeft: 0}))
	assert.True(t, ledger.CheckCredits(&model.User{Plan: model.PlanAnnual, CreditsLeft: 0}))
	assert.True(t, ledger.CheckCredits(&model.User{Plan: model.PlanFree, CreditsLeft: 1}))
	assert.False(t, ledger.CheckCredits(&model.User{Plan: model.PlanFree, CreditsLeft: 0}))
}

func TestDecrementFreePlan(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 2}
	repo := newFakeUserRepo(user)
	ledger := NewLedgerService(repo)

	left, err := ledger.Decrement(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	left, err = ledger.Decrement(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	// 余额到 0 之后扣减失败，余额不会变成负数
	_, err = ledger.Decrement(context.Background(), user)
	assert.ErrorIs(t, err, apperr.ErrInsufficientCredits)

	stored, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CreditsLeft)
}

func TestDecrementPaidPlanIsNoop(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanMonthly, CreditsLeft: 100}
	repo := newFakeUserRepo(user)
	ledger := NewLedgerService(repo)

	for i := 0; i < 5; i++ {
		left, err := ledger.Decrement(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, 100, left)
	}

	stored, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.CreditsLeft)
}

func TestApplySubscriptionEventResets(t *testing.T) {
	user := &model.User{ID: "u1", Plan: model.PlanFree, CreditsLeft: 2}
	repo := newFakeUserRepo(user)
	ledger := NewLedgerService(repo)

	require.NoError(t, ledger.ApplySubscriptionEvent(context.Background(), "u1", model.PlanMonthly))

	stored, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanMonthly, stored.Plan)
	assert.Equal(t, 100, stored.CreditsLeft)

	// 同一事件重复投递：结果不变（重置而非累加）
	require.NoError(t, ledger.ApplySubscriptionEvent(context.Background(), "u1", model.PlanMonthly))
	stored, err = repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.CreditsLeft)

	require.NoError(t, ledger.ApplySubscriptionEvent(context.Background(), "u1", model.PlanAnnual))
	stored, err = repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanAnnual, stored.Plan)
	assert.Equal(t, 1200, stored.CreditsLeft)
}

func TestApplySubscriptionEventUnknownUser(t *testing.T) {
	ledger := NewLedgerService(newFakeUserRepo())
	err := ledger.ApplySubscriptionEvent(context.Background(), "missing", model.PlanMonthly)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
