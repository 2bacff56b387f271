package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundsight/fundsight/domain/task"
	"github.com/fundsight/fundsight/internal/database"
)

// TaskStore is the GORM-backed task.Store. Dequeue removes the claimed row
// inside a locking transaction so each task reaches exactly one worker.
type TaskStore struct {
	db   database.Database
	repo database.Repository[task.Task, TaskModel]
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(db database.Database) *TaskStore {
	return &TaskStore{
		db:   db,
		repo: database.NewRepository[task.Task, TaskModel](db, TaskMapper{}, "task"),
	}
}

// Save persists a task, inserting when new and updating otherwise.
func (s *TaskStore) Save(ctx context.Context, t task.Task) (task.Task, error) {
	model := s.repo.Mapper().ToModel(t)
	if err := s.repo.DB(ctx).Save(&model).Error; err != nil {
		return task.Task{}, fmt.Errorf("save task: %w", err)
	}
	return s.repo.Mapper().ToDomain(model), nil
}

// Dequeue claims and removes the highest-priority oldest task. Returns
// task.ErrNoTask when the queue is empty.
func (s *TaskStore) Dequeue(ctx context.Context) (task.Task, error) {
	var model TaskModel
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		query := tx.Order("priority DESC, created_at ASC, id ASC")
		if s.db.IsPostgres() {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := query.First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return task.ErrNoTask
			}
			return fmt.Errorf("dequeue task: %w", err)
		}
		if err := tx.Delete(&TaskModel{}, model.ID).Error; err != nil {
			return fmt.Errorf("claim task %d: %w", model.ID, err)
		}
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return s.repo.Mapper().ToDomain(model), nil
}

// Delete removes a task by ID.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteBy(ctx, database.WithID(id))
}

// CountPending returns the number of queued tasks.
func (s *TaskStore) CountPending(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
