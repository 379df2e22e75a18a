// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ReconciliationTask represents a billing/credit discrepancy that needs
// to be recorded for later replay or manual review.
type ReconciliationTask struct {
	TaskID    string `json:"task_id"`
	Kind      string `json:"kind"`
	UserID    string `json:"user_id"`
	Reference string `json:"reference"`
	Detail    string `json:"detail"`
}
