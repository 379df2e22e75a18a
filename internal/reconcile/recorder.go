// Package reconcile 消费对账任务并落库，供后续人工核对或回放。
package reconcile

import (
	"context"
	"fmt"

	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/pkg/log"
	"ai-mentor-go/pkg/tasks"

	"github.com/google/uuid"
)

// Recorder 实现 kafka.TaskProcessor，把对账任务写入 reconciliation_events 表。
type Recorder struct {
	reconRepo repository.ReconciliationRepository
}

// NewRecorder 创建一个新的 Recorder 实例。
func NewRecorder(reconRepo repository.ReconciliationRepository) *Recorder {
	return &Recorder{reconRepo: reconRepo}
}

// Process 持久化一条对账事件。失败时返回错误，由消费者按重试策略处理。
func (r *Recorder) Process(ctx context.Context, task tasks.ReconciliationTask) error {
	event := &model.ReconciliationEvent{
		ID:        uuid.NewString(),
		Kind:      task.Kind,
		UserID:    task.UserID,
		Reference: task.Reference,
		Detail:    task.Detail,
	}
	if err := r.reconRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to persist reconciliation event: %w", err)
	}
	log.Infow("对账事件已落库", "kind", task.Kind, "user_id", task.UserID, "reference", task.Reference)
	return nil
}
