package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

// Job is one notification. Run errors are logged and discarded.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type queued struct {
	ctx context.Context
	job Job
}

// Dispatcher runs jobs inline or on a single background goroutine.
type Dispatcher struct {
	cfg       Config
	logger    *slog.Logger
	ch        chan queued
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closeOnce sync.Once

	// mu orders queue sends against Close: a job that passes the closed
	// check is queued before done closes, so the drain delivers it.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the delivery goroutine when cfg.Async is set.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dispatcher{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
	if !cfg.Async {
		return d
	}
	if cfg.BufferSize <= 0 {
		d.cfg.BufferSize = 1
	}
	d.ch = make(chan queued, d.cfg.BufferSize)

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case q := <-d.ch:
			d.deliver(q.ctx, q.job)
		case <-d.done:
			for {
				select {
				case q := <-d.ch:
					d.deliver(q.ctx, q.job)
				default:
					return
				}
			}
		}
	}
}

// Dispatch delivers job. In async mode it returns once the job is queued,
// dropped, or ctx is done. Jobs see ctx values but not its cancellation.
// It reports whether the job ran inline or was queued; a queued job is
// delivered before Close returns.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) bool {
	if d == nil || job.Run == nil {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	if !d.cfg.Async {
		d.deliver(ctx, job)
		return true
	}

	q := queued{ctx: context.WithoutCancel(ctx), job: job}
	if d.cfg.DropIfFull {
		select {
		case d.ch <- q:
			return true
		default:
			d.dropped.Add(1)
			d.logger.Warn("notification dropped", "job", job.Name)
			return false
		}
	}

	select {
	case d.ch <- q:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Warn("notification panicked", "job", job.Name, "panic", fmt.Sprint(r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		d.failed.Add(1)
		d.logger.Warn("notification failed", "job", job.Name, "error", err)
	}
}

// Close stops accepting jobs and drains the queue.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.done)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// Dropped returns the number of jobs discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed returns the number of jobs that returned an error or panicked.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
