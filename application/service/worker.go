package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fundsight/fundsight/domain/task"
	"github.com/fundsight/fundsight/internal/log"
)

// Handler executes one task operation.
type Handler interface {
	Execute(ctx context.Context, t task.Task) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, t task.Task) error

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, t task.Task) error { return f(ctx, t) }

// Registry maps operations to their handlers.
type Registry struct {
	handlers map[task.Operation]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[task.Operation]Handler)}
}

// Register binds a handler to an operation.
func (r *Registry) Register(operation task.Operation, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// Handler returns the handler for an operation.
func (r *Registry) Handler(operation task.Operation) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[operation]
	return handler, ok
}

// Worker polls the queue and executes tasks. Failed tasks are not retried;
// their failure lands on the affected document, not back on the queue.
type Worker struct {
	store      task.Store
	registry   *Registry
	logger     *log.Logger
	pollPeriod time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a Worker.
func NewWorker(store task.Store, registry *Registry, logger *log.Logger) *Worker {
	return &Worker{
		store:      store,
		registry:   registry,
		logger:     logger,
		pollPeriod: time.Second,
	}
}

// WithPollPeriod sets the queue poll period.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	if d > 0 {
		w.pollPeriod = d
	}
	return w
}

// Start begins processing tasks in a goroutine until Stop is called or the
// context ends.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	w.logger.Info("queue worker started", "poll_period", w.pollPeriod)
}

// Stop shuts the worker down, waiting for the in-flight task to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("queue worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processNext(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("task processing error", "error", err)
			}
		}
	}
}

func (w *Worker) processNext(ctx context.Context) error {
	t, err := w.store.Dequeue(ctx)
	if errors.Is(err, task.ErrNoTask) {
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	w.logger.Info("processing task", "task_id", t.ID(), "operation", t.Operation())

	handler, ok := w.registry.Handler(t.Operation())
	if !ok {
		w.logger.Error("no handler for operation", "task_id", t.ID(), "operation", t.Operation())
		return nil
	}

	if err := w.executeWithRecovery(ctx, handler, t); err != nil {
		w.logger.Error("task failed", "task_id", t.ID(), "operation", t.Operation(), "error", err)
		return nil
	}

	w.logger.Info("task completed",
		"task_id", t.ID(), "operation", t.Operation(), "duration", time.Since(start))
	return nil
}

func (w *Worker) executeWithRecovery(ctx context.Context, handler Handler, t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Execute(ctx, t)
}
