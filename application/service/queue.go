package service

import (
	"context"

	"github.com/fundsight/fundsight/domain/task"
	"github.com/fundsight/fundsight/internal/log"
)

// Queue enqueues background work.
type Queue struct {
	store  task.Store
	logger *log.Logger
}

// NewQueue creates a Queue.
func NewQueue(store task.Store, logger *log.Logger) *Queue {
	return &Queue{store: store, logger: logger}
}

// Enqueue adds a task to the queue.
func (q *Queue) Enqueue(ctx context.Context, t task.Task) error {
	saved, err := q.store.Save(ctx, t)
	if err != nil {
		return err
	}
	q.logger.Debug("task enqueued", "task_id", saved.ID(), "operation", saved.Operation())
	return nil
}

// EnqueueProcessDocument queues an ingestion run for one uploaded report.
// The fund, when the uploader named one, rides along in the payload; the
// pipeline reports it until the report header resolves the owning fund.
func (q *Queue) EnqueueProcessDocument(ctx context.Context, documentID int64, filePath string, fundID *int64) error {
	payload := map[string]any{
		"document_id": documentID,
		"file_path":   filePath,
	}
	if fundID != nil {
		payload["fund_id"] = *fundID
	}
	t, err := task.New(task.OperationProcessDocument, task.PriorityNormal, payload)
	if err != nil {
		return err
	}
	return q.Enqueue(ctx, t)
}

// Count returns the number of pending tasks.
func (q *Queue) Count(ctx context.Context) (int64, error) {
	return q.store.CountPending(ctx)
}
