// Package asyncsolver runs Sudoku solves on a pool of background
// workers so interactive callers never block on the search. Each
// request owns its grid for the duration of the solve; results carry
// the outcome, the final grid, and search counters.
package asyncsolver

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"sudokusolver/sudoku"
)

// Config controls the worker pool.
type Config struct {
	Workers   int // number of solve workers, default NumCPU
	QueueSize int // pending request capacity, default 2*Workers
}

// Request is one puzzle to solve. ID is echoed back on the Result so
// callers can correlate submissions with completions.
type Request struct {
	ID   int64
	Grid sudoku.Grid
}

// Result is the completion of one Request. Solved reports the search
// outcome; Err is set only for requests that never reached the search
// (malformed or conflicting input).
type Result struct {
	ID     int64
	Solved bool
	Grid   sudoku.Grid
	Stats  sudoku.SolveStats
	Err    error
}

// PoolStats tracks pool activity.
type PoolStats struct {
	Submitted int64
	Solved    int64
	Failed    int64
	Rejected  int64
}

// Pool is a fixed-size solve worker pool.
type Pool struct {
	config   Config
	requests chan Request
	results  chan Result
	wg       sync.WaitGroup
	stats    PoolStats
	nextID   atomic.Int64
	mu       sync.Mutex
	running  bool
}

var (
	// ErrPoolStopped reports a submission to a pool that is not running.
	ErrPoolStopped = errors.New("solver pool is not running")
	// ErrQueueFull reports a submission that would block on a full queue.
	ErrQueueFull = errors.New("solver queue is full")
)

// NewPool creates a pool with defaults applied.
func NewPool(config Config) *Pool {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 2 * config.Workers
	}
	return &Pool{
		config:   config,
		requests: make(chan Request, config.QueueSize),
		// Sized so every accepted request can complete even if the
		// consumer lags behind.
		results: make(chan Result, config.QueueSize+config.Workers),
	}
}

// Start launches the workers. Starting a running pool is an error.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("solver pool already started")
	}
	p.running = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return nil
}

// Stop drains the workers and closes the results channel. Pending
// requests that were already accepted are completed first.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// Closed under the lock so Submit can never send afterwards.
	close(p.requests)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
}

// Submit queues a puzzle for solving. The request ID is assigned here
// and returned; the matching Result arrives on Results.
func (p *Pool) Submit(grid sudoku.Grid) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0, ErrPoolStopped
	}

	id := p.nextID.Add(1)
	select {
	case p.requests <- Request{ID: id, Grid: grid}:
		atomic.AddInt64(&p.stats.Submitted, 1)
		return id, nil
	default:
		atomic.AddInt64(&p.stats.Rejected, 1)
		return 0, ErrQueueFull
	}
}

// Results delivers one Result per accepted Request, in completion
// order. The channel is closed by Stop.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted: atomic.LoadInt64(&p.stats.Submitted),
		Solved:    atomic.LoadInt64(&p.stats.Solved),
		Failed:    atomic.LoadInt64(&p.stats.Failed),
		Rejected:  atomic.LoadInt64(&p.stats.Rejected),
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for req := range p.requests {
		res := process(ctx, req)
		if res.Solved {
			atomic.AddInt64(&p.stats.Solved, 1)
		} else {
			atomic.AddInt64(&p.stats.Failed, 1)
		}
		select {
		case p.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

func process(ctx context.Context, req Request) Result {
	res := Result{ID: req.ID, Grid: req.Grid}

	if !sudoku.IsWellFormed(&res.Grid) {
		res.Err = sudoku.ErrMalformedCell
		return res
	}
	if !sudoku.Validate(&res.Grid) {
		res.Err = sudoku.ErrInvalidGrid
		return res
	}

	stats, ok := sudoku.SolveContext(ctx, &res.Grid)
	res.Stats = stats
	res.Solved = ok
	if !ok && ctx.Err() == nil {
		res.Err = sudoku.ErrUnsolvable
	}
	return res
}

// SolveAsync is the one-shot form of the pool: it solves a single grid
// on its own goroutine and delivers the Result on the returned channel.
// Callers that only ever solve one puzzle at a time can use this
// instead of managing a Pool.
func SolveAsync(ctx context.Context, grid sudoku.Grid) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- process(ctx, Request{ID: 1, Grid: grid})
	}()
	return out
}
