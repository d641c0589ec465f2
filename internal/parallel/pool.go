// Package parallel runs per-row raster work across a fixed set of workers.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows is the smallest band handed to a single worker.
const minBandRows = 8

// WorkerPool is a pool of goroutines for parallel rendering.
//
// Each worker owns a queue. A worker whose queue is empty steals from the
// others before blocking, so uneven bands still finish close together.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	// mu is held for reading while work is enqueued and for writing while
	// Close flips running, so nothing lands in a queue after the drain.
	mu sync.RWMutex
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	mine := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(mine)
			return
		case work := <-mine:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(mine)
				return
			case work := <-mine:
				work()
			}
		}
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work across workers and waits for all to complete.
// On a closed pool the work runs on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}

	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		p.workQueues[i%p.workers] <- func() {
			defer wg.Done()
			fn()
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Rows splits [0, height) into contiguous bands and calls fn once per band.
// Bands never overlap, so fn may write its rows without synchronization.
func (p *WorkerPool) Rows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := min(p.workers, max(1, height/minBandRows))
	if bands == 1 {
		fn(0, height)
		return
	}
	step := (height + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

// Close stops accepting work, finishes anything queued, and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
