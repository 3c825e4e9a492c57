// Package core coordinates delivery requests end to end: it owns the task
// queue, the worker pool and the pipeline that turns a share link into a
// delivered video.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/admission"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/pkg/queue"
	"github.com/ryoka/teragrab-bot/pkg/stream"
	"github.com/ryoka/teragrab-bot/retriever"
	"golang.org/x/sync/errgroup"
)

type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) (*stream.Descriptor, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, desc *stream.Descriptor, taskID string, progress retriever.ProgressFunc) (*retriever.Result, error)
}

type Admitter interface {
	Admit(ctx context.Context, chatID int64) (*admission.Decision, error)
	RecordSuccess(ctx context.Context, chatID int64, fileName string, sizeBytes int64, kind string) error
}

// Sink receives the finished file. The chat layer implements it with a
// Telegram upload; tests implement it in memory.
type Sink interface {
	Deliver(ctx context.Context, t *Task, result *retriever.Result) error
}

// ProgressTracker observes a task's lifecycle for user-facing status edits.
// All methods are called from worker goroutines.
type ProgressTracker interface {
	OnStart(ctx context.Context, t *Task)
	OnProgress(ctx context.Context, t *Task)
	OnDone(ctx context.Context, t *Task, result *retriever.Result, err error)
}

var (
	ErrDuplicateTask = errors.New("a task for this chat is already in flight")
	ErrQueueClosed   = errors.New("task queue is closed")
)

type Orchestrator struct {
	queue     *queue.TaskQueue[*Task]
	resolver  Resolver
	retriever Retriever
	admitter  Admitter
	sink      Sink
	tracker   ProgressTracker

	baseDelay time.Duration
	workers   int

	mu        sync.Mutex
	userTasks map[int64]string
}

func New(res Resolver, ret Retriever, adm Admitter, sink Sink, tracker ProgressTracker) *Orchestrator {
	return &Orchestrator{
		queue:     queue.NewTaskQueue[*Task](),
		resolver:  res,
		retriever: ret,
		admitter:  adm,
		sink:      sink,
		tracker:   tracker,
		baseDelay: time.Duration(config.C().Download.BaseDelayMs) * time.Millisecond,
		workers:   config.C().Workers,
		userTasks: make(map[int64]string),
	}
}

// Run blocks, processing tasks with the configured number of workers until
// ctx is cancelled. Pending tasks are dropped on shutdown; they were never
// acknowledged as accepted beyond a status message.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := log.FromContext(ctx)
	logger.Infof("Processing tasks with %d workers", o.workers)

	go func() {
		<-ctx.Done()
		o.queue.CancelAll()
		o.queue.Close()
	}()

	eg := &errgroup.Group{}
	for i := 0; i < o.workers; i++ {
		eg.Go(func() error {
			o.worker(ctx)
			return nil
		})
	}
	return eg.Wait()
}

func (o *Orchestrator) worker(ctx context.Context) {
	logger := log.FromContext(ctx)
	for {
		task, err := o.queue.Get()
		if err != nil {
			return
		}
		o.process(task)
		o.queue.Done(task.ID)
		logger.Debugf("Task %s finished", task.ID)
	}
}

func (o *Orchestrator) process(qt *queue.Task[*Task]) {
	t := qt.Data
	ctx := qt.Context()
	logger := log.FromContext(ctx)
	defer o.releaseUser(t.ChatID, t.ID)

	if o.tracker != nil {
		o.tracker.OnStart(ctx, t)
	}
	result, err := o.deliver(ctx, t)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Infof("Task %s cancelled", t.ID)
	case err != nil:
		logger.Errorf("Task %s failed: %v", t.ID, err)
	default:
		logger.Infof("Task %s delivered %s", t.ID, result.FileName)
	}
	if o.tracker != nil {
		o.tracker.OnDone(ctx, t, result, err)
	}
}

// Enqueue admits a task into the queue at the given priority. One task per
// chat may be in flight at a time; a second link while the first is running
// is rejected rather than silently queued behind it.
func (o *Orchestrator) Enqueue(ctx context.Context, t *Task, priority queue.Priority) error {
	o.mu.Lock()
	if id, ok := o.userTasks[t.ChatID]; ok {
		o.mu.Unlock()
		return fmt.Errorf("%w (task %s)", ErrDuplicateTask, id)
	}
	o.userTasks[t.ChatID] = t.ID
	o.mu.Unlock()

	if err := o.queue.Add(queue.NewTask(ctx, t.ID, priority, t)); err != nil {
		o.releaseUser(t.ChatID, t.ID)
		if o.queue.IsClosed() {
			return ErrQueueClosed
		}
		return err
	}
	return nil
}

func (o *Orchestrator) releaseUser(chatID int64, taskID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if id, ok := o.userTasks[chatID]; ok && id == taskID {
		delete(o.userTasks, chatID)
	}
}

// CancelByChat cancels the chat's in-flight task, pending or running. The
// chat slot is freed immediately so the user can submit a new link without
// waiting for the old task to unwind.
func (o *Orchestrator) CancelByChat(chatID int64) bool {
	o.mu.Lock()
	id, ok := o.userTasks[chatID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	if err := o.queue.CancelTask(id); err != nil {
		return false
	}
	o.releaseUser(chatID, id)
	return true
}

// TaskByChat returns the chat's in-flight task, if any.
func (o *Orchestrator) TaskByChat(chatID int64) (*Task, bool) {
	o.mu.Lock()
	id, ok := o.userTasks[chatID]
	o.mu.Unlock()
	if !ok {
		return nil, false
	}
	return o.TaskByID(id)
}

// TaskByID returns the pending or running task with the given ID.
func (o *Orchestrator) TaskByID(taskID string) (*Task, bool) {
	qt, err := o.queue.GetTask(taskID)
	if err != nil {
		return nil, false
	}
	return qt.Data, true
}

func (o *Orchestrator) CancelTask(taskID string) error {
	qt, err := o.queue.GetTask(taskID)
	if err != nil {
		return err
	}
	if err := o.queue.CancelTask(taskID); err != nil {
		return err
	}
	o.releaseUser(qt.Data.ChatID, taskID)
	return nil
}

func (o *Orchestrator) QueueLength() int {
	return o.queue.ActiveLength()
}

func (o *Orchestrator) RunningLength() int {
	return o.queue.RunningLength()
}
