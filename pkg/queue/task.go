package queue

import (
	"container/list"
	"context"
	"time"
)

// Priority is the scheduling class of a task. High strictly dominates low:
// a high task is always dequeued before any low task regardless of arrival
// order. Within a class, tasks are served first-enqueued-first-served.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

type Task[T any] struct {
	ID       string
	Priority Priority
	Data     T
	ctx      context.Context
	cancel   context.CancelFunc
	created  time.Time
	element  *list.Element
}

func NewTask[T any](ctx context.Context, id string, priority Priority, data T) *Task[T] {
	cancelCtx, cancel := context.WithCancel(ctx)
	return &Task[T]{
		ID:       id,
		Priority: priority,
		Data:     data,
		ctx:      cancelCtx,
		cancel:   cancel,
		created:  time.Now(),
	}
}

func (t *Task[T]) IsCancelled() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

func (t *Task[T]) Cancel() {
	t.cancel()
}

func (t *Task[T]) Context() context.Context {
	return t.ctx
}

func (t *Task[T]) EnqueuedAt() time.Time {
	return t.created
}
