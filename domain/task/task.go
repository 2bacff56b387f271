// Package task defines the durable background task queue's domain types.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Operation names a kind of background work.
type Operation string

const (
	// OperationProcessDocument runs the document ingestion pipeline for a
	// single uploaded report.
	OperationProcessDocument Operation = "fundsight.document.process"

	// OperationReindexFund clears and rebuilds a fund's vector records.
	OperationReindexFund Operation = "fundsight.fund.reindex"
)

// Valid reports whether the operation is a known one.
func (o Operation) Valid() bool {
	switch o {
	case OperationProcessDocument, OperationReindexFund:
		return true
	}
	return false
}

// Priority orders dequeuing: higher runs first, ties by creation time.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 10
)

// Task is one unit of queued work with a JSON payload.
type Task struct {
	id        int64
	operation Operation
	priority  Priority
	payload   map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// New creates a Task ready for enqueuing.
func New(operation Operation, priority Priority, payload map[string]any) (Task, error) {
	if !operation.Valid() {
		return Task{}, fmt.Errorf("unknown task operation: %q", operation)
	}
	return Task{
		operation: operation,
		priority:  priority,
		payload:   copyPayload(payload),
	}, nil
}

// Restore reconstructs a Task from persisted state.
func Restore(id int64, operation Operation, priority Priority, payload map[string]any, createdAt, updatedAt time.Time) Task {
	return Task{
		id:        id,
		operation: operation,
		priority:  priority,
		payload:   copyPayload(payload),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the task identifier (0 until persisted).
func (t Task) ID() int64 { return t.id }

// Operation returns the task operation.
func (t Task) Operation() Operation { return t.operation }

// Priority returns the task priority.
func (t Task) Priority() Priority { return t.priority }

// Payload returns a copy of the task payload.
func (t Task) Payload() map[string]any { return copyPayload(t.payload) }

// CreatedAt returns the enqueue timestamp.
func (t Task) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last update timestamp.
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// PayloadInt64 extracts an integer payload field, tolerating the numeric
// types a JSON round trip produces.
func (t Task) PayloadInt64(key string) (int64, error) {
	v, ok := t.payload[key]
	if !ok {
		return 0, fmt.Errorf("task payload missing %q", key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, fmt.Errorf("task payload %q is %T, not an integer", key, v)
}

// PayloadOptionalInt64 extracts an integer payload field that may be
// absent. A missing or null field yields nil; a present non-integer value
// is an error.
func (t Task) PayloadOptionalInt64(key string) (*int64, error) {
	v, ok := t.payload[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := t.PayloadInt64(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Store is the durable queue. Dequeue returns ErrNoTask when the queue is
// empty; implementations must hand each task to exactly one worker.
type Store interface {
	Save(ctx context.Context, t Task) (Task, error)
	Dequeue(ctx context.Context) (Task, error)
	Delete(ctx context.Context, id int64) error
	CountPending(ctx context.Context) (int64, error)
}

// ErrNoTask is returned by Dequeue when no task is pending.
var ErrNoTask = fmt.Errorf("no pending task")

func copyPayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	cp := make(map[string]any, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}
