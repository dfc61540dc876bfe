package fractal

import (
	"context"
	"sync"
	"time"
)

// Loop is a FIFO task queue drained on a single goroutine.
//
// It is the scheduling substrate of a Scheduler: every batch and every
// worker message is a task, and every frame callback runs inside one.
// Returning from a task is the yield point that lets other host work
// (input handling, drawing) interleave with rendering.
//
// Thread safety: Post, Len and Wake are safe for concurrent use. The
// Run* methods must be called from one goroutine at a time.
type Loop struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post appends a task. Nil tasks are ignored.
func (l *Loop) Post(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Wake returns a channel that receives after a Post. A receive does not
// guarantee the queue is non-empty; recheck with Len or RunPending.
func (l *Loop) Wake() <-chan struct{} {
	return l.wake
}

// RunPending runs the tasks queued at the time of the call and returns
// how many ran. Tasks posted while it runs wait for the next call, so one
// call has bounded length even when every task reposts itself.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	n := len(l.tasks)
	l.mu.Unlock()

	for i := 0; i < n; i++ {
		l.pop()()
	}
	return n
}

// RunFor runs queued tasks, including ones posted meanwhile, until the
// queue is empty or budget has elapsed. At least one task runs if any is
// queued. It returns how many ran.
func (l *Loop) RunFor(budget time.Duration) int {
	deadline := time.Now().Add(budget)
	n := 0
	for {
		task := l.tryPop()
		if task == nil {
			return n
		}
		task()
		n++
		if !time.Now().Before(deadline) {
			return n
		}
	}
}

// Run drains the queue as tasks arrive until ctx is done, then returns
// ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if task := l.tryPop(); task != nil {
			task()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) pop() func() {
	task := l.tryPop()
	if task == nil {
		return func() {}
	}
	return task
}

func (l *Loop) tryPop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	if len(l.tasks) == 0 {
		l.tasks = nil
	}
	return task
}
