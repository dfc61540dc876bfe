package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of goroutines that run band tasks.
//
// Each worker has its own queue and steals from the others when it runs
// dry, which keeps all workers busy when bands near the set boundary cost
// far more than bands in the exterior.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int

	// queues holds per-worker task queues.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	wg sync.WaitGroup

	// running reports whether the pool accepts work.
	running atomic.Bool

	// next is the round-robin cursor for Go.
	next atomic.Uint64
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case task := <-own:
			task()
			continue
		default:
		}

		if task := p.steal(id); task != nil {
			task()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case task := <-own:
			task()
		}
	}
}

// drain runs whatever is left in a queue at shutdown.
func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			task()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case task := <-p.queues[i]:
			return task
		default:
		}
	}
	return nil
}

// Go queues tasks round-robin across workers without waiting for them.
// It reports false, running nothing, if the pool is closed.
// Nil tasks are skipped.
func (p *Pool) Go(tasks ...func()) bool {
	if !p.running.Load() {
		return false
	}
	for _, task := range tasks {
		if task == nil {
			continue
		}
		id := int(p.next.Add(1)-1) % p.workers
		select {
		case p.queues[id] <- task:
		case <-p.done:
			return false
		}
	}
	return true
}

// Run queues tasks and blocks until all of them have finished.
// It reports false if the pool closed before every task was queued.
func (p *Pool) Run(tasks ...func()) bool {
	var wg sync.WaitGroup
	wrapped := make([]func(), 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		wg.Add(1)
		wrapped = append(wrapped, func() {
			defer wg.Done()
			task()
		})
	}

	if !p.running.Load() {
		return false
	}
	for i, task := range wrapped {
		id := i % p.workers
		select {
		case p.queues[id] <- task:
		case <-p.done:
			// Account for the tasks that never made it into a queue.
			for range wrapped[i:] {
				wg.Done()
			}
			wg.Wait()
			return false
		}
	}
	wg.Wait()
	return true
}

// Close stops accepting work, lets queued tasks finish and stops the
// workers. It is safe to call more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Queued returns an approximate count of queued tasks.
func (p *Pool) Queued() int {
	total := 0
	for _, q := range p.queues {
		total += len(q)
	}
	return total
}
