package crawler

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// workerPool runs tasks on a fixed number of goroutines.
// The queue is unbounded so that a running task can submit children while
// the orchestrator lock is held without ever blocking on a full channel.
type workerPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

// newWorkerPool starts size workers, each calling run for one task at a time.
// The context passed to run is cancelled by shutdownNow.
func newWorkerPool(parent context.Context, size int, run func(context.Context, Task)) *workerPool {
	ctx, cancel := context.WithCancel(parent)
	group, groupCtx := errgroup.WithContext(ctx)

	p := &workerPool{
		cancel: cancel,
		group:  group,
	}
	p.cond = sync.NewCond(&p.mu)

	for range size {
		group.Go(func() error {
			for {
				task, ok := p.next()
				if !ok {
					return nil
				}
				run(groupCtx, task)
			}
		})
	}

	return p
}

// next blocks until a task is queued or the pool is shut down.
func (p *workerPool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return Task{}, false
	}

	task := p.queue[0]
	p.queue[0] = Task{}
	p.queue = p.queue[1:]
	return task, true
}

// submit queues a task. It returns false once the pool is shut down.
func (p *workerPool) submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return true
}

// shutdown stops accepting tasks and returns the ones that were queued but
// not yet started. Running tasks finish normally. It does not wait, so it
// is safe to call from inside a worker.
func (p *workerPool) shutdown() []Task {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	drained := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	go func() {
		_ = p.group.Wait()
		p.cancel()
	}()

	return drained
}

// shutdownNow behaves like shutdown and additionally cancels the context
// of running tasks.
func (p *workerPool) shutdownNow() []Task {
	drained := p.shutdown()
	p.cancel()
	return drained
}

// wait blocks until every worker has exited.
func (p *workerPool) wait() {
	_ = p.group.Wait()
}
