package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ryoka/teragrab-bot/pkg/queue"
)

// helper to create a simple low-priority Task with integer payload
func newTask(id string) *queue.Task[int] {
	return queue.NewTask(context.Background(), id, queue.PriorityLow, 0)
}

func newHighTask(id string) *queue.Task[int] {
	return queue.NewTask(context.Background(), id, queue.PriorityHigh, 0)
}

func TestAddAndLength(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	if q.Length() != 0 {
		t.Fatalf("expected length 0, got %d", q.Length())
	}
	t1 := newTask("t1")
	if err := q.Add(t1); err != nil {
		t.Fatalf("unexpected error on Add: %v", err)
	}
	if q.Length() != 1 {
		t.Fatalf("expected length 1, got %d", q.Length())
	}
}

func TestDuplicateAdd(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	t1 := newTask("dup")
	if err := q.Add(t1); err != nil {
		t.Fatalf("unexpected error on first Add: %v", err)
	}
	if err := q.Add(t1); err == nil {
		t.Fatal("expected error on duplicate Add, got nil")
	}
}

func TestGetFIFOWithinClass(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	t1 := newTask("a")
	t2 := newTask("b")
	q.Add(t1)
	q.Add(t2)
	first, err := q.Get()
	if err != nil {
		t.Fatalf("unexpected error on Get: %v", err)
	}
	if first.ID != "a" {
		t.Fatalf("expected first Get ID 'a', got '%s'", first.ID)
	}
	second, err := q.Get()
	if err != nil {
		t.Fatalf("unexpected error on second Get: %v", err)
	}
	if second.ID != "b" {
		t.Fatalf("expected second Get ID 'b', got '%s'", second.ID)
	}
}

func TestPriorityDominatesArrivalOrder(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	// Enqueue order: low1, high, low2. The high entry must be served first
	// even though it arrived second.
	q.Add(newTask("low1"))
	q.Add(newHighTask("high"))
	q.Add(newTask("low2"))

	var got []string
	for i := 0; i < 3; i++ {
		task, err := q.Get()
		if err != nil {
			t.Fatalf("unexpected error on Get %d: %v", i, err)
		}
		got = append(got, task.ID)
	}

	want := []string{"high", "low1", "low2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("service order = %v, want %v", got, want)
		}
	}
}

func TestCancelAndActiveLength(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	t1 := newTask("1")
	t2 := newTask("2")
	q.Add(t1)
	q.Add(t2)
	if err := q.CancelTask("1"); err != nil {
		t.Fatalf("unexpected error on CancelTask: %v", err)
	}
	// Length counts all entries
	if q.Length() != 2 {
		t.Fatalf("expected total length 2, got %d", q.Length())
	}
	// ActiveLength skips cancelled
	if got := q.ActiveLength(); got != 1 {
		t.Fatalf("expected active length 1, got %d", got)
	}
}

func TestCancelRunningTask(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	t1 := newTask("r1")
	q.Add(t1)
	got, err := q.Get()
	if err != nil {
		t.Fatalf("unexpected error on Get: %v", err)
	}
	if err := q.CancelTask("r1"); err != nil {
		t.Fatalf("unexpected error cancelling running task: %v", err)
	}
	select {
	case <-got.Context().Done():
	default:
		t.Fatal("expected running task context to be cancelled")
	}
	q.Done("r1")
	if q.RunningLength() != 0 {
		t.Fatalf("expected 0 running tasks after Done, got %d", q.RunningLength())
	}
}

func TestCleanupCancelled(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	tasks := []*queue.Task[int]{newTask("c1"), newTask("c2"), newHighTask("c3")}
	for _, tsk := range tasks {
		q.Add(tsk)
	}
	q.CancelTask("c2")
	removed := q.CleanupCancelled()
	if removed != 1 {
		t.Fatalf("expected removed 1, got %d", removed)
	}
	if q.ActiveLength() != 2 {
		t.Fatalf("expected active length 2 after cleanup, got %d", q.ActiveLength())
	}
}

func TestCloseBehavior(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	done := make(chan struct{})
	go func() {
		_, err := q.Get()
		if err == nil {
			t.Errorf("expected error when getting from closed empty queue, got nil")
		}
		close(done)
	}()

	q.Close()
	<-done
}

func TestConcurrencySafety(t *testing.T) {
	q := queue.NewTaskQueue[int]()
	var wg sync.WaitGroup
	n := 1000
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Add(newTask(fmt.Sprintf("p%d", i)))
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		count := 0
		for count < n {
			task, err := q.Get()
			if err != nil {
				continue
			}
			q.Done(task.ID)
			count++
		}
	}()
	wg.Wait()
}
