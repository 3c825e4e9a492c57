package queue

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
)

// TaskQueue is a blocking two-class priority queue. Entries are ephemeral:
// they exist only for the lifetime of one request and are never persisted.
type TaskQueue[T any] struct {
	high           *list.List
	low            *list.List
	taskMap        map[string]*Task[T]
	runningTaskMap map[string]*Task[T]
	mu             sync.RWMutex
	cond           *sync.Cond
	closed         bool
}

func NewTaskQueue[T any]() *TaskQueue[T] {
	tq := &TaskQueue[T]{
		high:           list.New(),
		low:            list.New(),
		taskMap:        make(map[string]*Task[T]),
		runningTaskMap: make(map[string]*Task[T]),
	}
	tq.cond = sync.NewCond(&tq.mu)
	return tq
}

func (tq *TaskQueue[T]) classList(p Priority) *list.List {
	if p == PriorityHigh {
		return tq.high
	}
	return tq.low
}

func (tq *TaskQueue[T]) Add(task *Task[T]) error {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	if tq.closed {
		return errors.New("queue is closed")
	}

	if _, exists := tq.taskMap[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}
	if _, exists := tq.runningTaskMap[task.ID]; exists {
		return fmt.Errorf("task with ID %s is already running", task.ID)
	}

	if task.IsCancelled() {
		return fmt.Errorf("task %s has been cancelled", task.ID)
	}

	element := tq.classList(task.Priority).PushBack(task)
	task.element = element
	tq.taskMap[task.ID] = task

	tq.cond.Signal()
	return nil
}

// Get blocks until a task is available and returns the highest-priority,
// oldest entry. Cancelled entries are skipped and dropped.
func (tq *TaskQueue[T]) Get() (*Task[T], error) {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	for {
		for tq.pendingLocked() == 0 && !tq.closed {
			tq.cond.Wait()
		}

		if tq.closed && tq.pendingLocked() == 0 {
			return nil, errors.New("queue is closed and empty")
		}

		for _, class := range []*list.List{tq.high, tq.low} {
			for class.Len() > 0 {
				element := class.Front()
				task := element.Value.(*Task[T])

				class.Remove(element)
				task.element = nil
				delete(tq.taskMap, task.ID)

				if !task.IsCancelled() {
					tq.runningTaskMap[task.ID] = task
					return task, nil
				}
			}
		}
	}
}

func (tq *TaskQueue[T]) pendingLocked() int {
	return tq.high.Len() + tq.low.Len()
}

func (tq *TaskQueue[T]) Done(taskID string) {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	delete(tq.taskMap, taskID)
	delete(tq.runningTaskMap, taskID)
}

func (tq *TaskQueue[T]) Length() int {
	tq.mu.RLock()
	defer tq.mu.RUnlock()
	return tq.pendingLocked()
}

func (tq *TaskQueue[T]) ActiveLength() int {
	tq.mu.RLock()
	defer tq.mu.RUnlock()

	count := 0
	for _, class := range []*list.List{tq.high, tq.low} {
		for element := class.Front(); element != nil; element = element.Next() {
			task := element.Value.(*Task[T])
			if !task.IsCancelled() {
				count++
			}
		}
	}
	return count
}

func (tq *TaskQueue[T]) RunningLength() int {
	tq.mu.RLock()
	defer tq.mu.RUnlock()
	return len(tq.runningTaskMap)
}

func (tq *TaskQueue[T]) CancelTask(taskID string) error {
	tq.mu.RLock()
	task, exists := tq.taskMap[taskID]
	if !exists {
		task, exists = tq.runningTaskMap[taskID]
	}
	tq.mu.RUnlock()

	if !exists {
		return fmt.Errorf("task %s does not exist", taskID)
	}

	task.Cancel()
	return nil
}

func (tq *TaskQueue[T]) GetTask(taskID string) (*Task[T], error) {
	tq.mu.RLock()
	defer tq.mu.RUnlock()

	task, exists := tq.taskMap[taskID]
	if !exists {
		task, exists = tq.runningTaskMap[taskID]
	}
	if !exists {
		return nil, fmt.Errorf("task %s does not exist", taskID)
	}

	return task, nil
}

func (tq *TaskQueue[T]) CancelAll() {
	tq.mu.RLock()
	tasks := make([]*Task[T], 0, tq.pendingLocked()+len(tq.runningTaskMap))
	for _, class := range []*list.List{tq.high, tq.low} {
		for element := class.Front(); element != nil; element = element.Next() {
			tasks = append(tasks, element.Value.(*Task[T]))
		}
	}
	for _, task := range tq.runningTaskMap {
		tasks = append(tasks, task)
	}
	tq.mu.RUnlock()

	for _, task := range tasks {
		task.Cancel()
	}
}

func (tq *TaskQueue[T]) Close() {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	tq.closed = true
	tq.cond.Broadcast()
}

func (tq *TaskQueue[T]) IsClosed() bool {
	tq.mu.RLock()
	defer tq.mu.RUnlock()
	return tq.closed
}

func (tq *TaskQueue[T]) CleanupCancelled() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	removed := 0
	for _, class := range []*list.List{tq.high, tq.low} {
		element := class.Front()
		for element != nil {
			next := element.Next()
			task := element.Value.(*Task[T])

			if task.IsCancelled() {
				class.Remove(element)
				delete(tq.taskMap, task.ID)
				removed++
			}

			element = next
		}
	}

	return removed
}
