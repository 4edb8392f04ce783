package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func countingJob(n *atomic.Int64) Job {
	return Job{Name: "count", Run: func(context.Context) error {
		n.Add(1)
		return nil
	}}
}

func TestDispatchInlineRunsBeforeReturn(t *testing.T) {
	d := NewDispatcher(Config{Async: false}, nil)
	defer d.Close()

	var n atomic.Int64
	d.Dispatch(context.Background(), countingJob(&n))

	if n.Load() != 1 {
		t.Fatalf("expected inline job to run, got %d", n.Load())
	}
}

func TestDispatchAsyncDrainsOnClose(t *testing.T) {
	d := NewDispatcher(Config{Async: true, BufferSize: 64}, nil)

	var n atomic.Int64
	for i := 0; i < 50; i++ {
		d.Dispatch(context.Background(), countingJob(&n))
	}
	d.Close()

	if n.Load() != 50 {
		t.Fatalf("expected 50 delivered jobs after close, got %d", n.Load())
	}
}

func TestDispatchDropIfFull(t *testing.T) {
	d := NewDispatcher(Config{Async: true, BufferSize: 1, DropIfFull: true}, nil)

	gate := make(chan struct{})
	started := make(chan struct{})
	d.Dispatch(context.Background(), Job{Name: "block", Run: func(context.Context) error {
		close(started)
		<-gate
		return nil
	}})
	<-started

	var n atomic.Int64
	d.Dispatch(context.Background(), countingJob(&n))
	d.Dispatch(context.Background(), countingJob(&n))
	d.Dispatch(context.Background(), countingJob(&n))

	if d.Dropped() != 2 {
		t.Fatalf("expected 2 dropped jobs, got %d", d.Dropped())
	}

	close(gate)
	d.Close()

	if n.Load() != 1 {
		t.Fatalf("expected 1 buffered job delivered, got %d", n.Load())
	}
}

func TestDispatchBlockingRespectsContext(t *testing.T) {
	d := NewDispatcher(Config{Async: true, BufferSize: 1, DropIfFull: false}, nil)

	gate := make(chan struct{})
	started := make(chan struct{})
	d.Dispatch(context.Background(), Job{Name: "block", Run: func(context.Context) error {
		close(started)
		<-gate
		return nil
	}})
	<-started

	var n atomic.Int64
	d.Dispatch(context.Background(), countingJob(&n))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	d.Dispatch(ctx, countingJob(&n))
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("expected dispatch to block until context deadline")
	}
	if d.Dropped() != 0 {
		t.Fatalf("blocking mode must not count drops, got %d", d.Dropped())
	}

	close(gate)
	d.Close()
}

func TestDispatchIsolatesErrorsAndPanics(t *testing.T) {
	d := NewDispatcher(Config{Async: false}, nil)
	defer d.Close()

	d.Dispatch(context.Background(), Job{Name: "err", Run: func(context.Context) error {
		return errors.New("hook failed")
	}})
	d.Dispatch(context.Background(), Job{Name: "panic", Run: func(context.Context) error {
		panic("boom")
	}})

	if d.Failed() != 2 {
		t.Fatalf("expected 2 failed jobs, got %d", d.Failed())
	}
}

func TestDispatchAsyncIgnoresRequestCancellation(t *testing.T) {
	d := NewDispatcher(Config{Async: true, BufferSize: 4}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var sawCancel atomic.Bool
	d.Dispatch(ctx, Job{Name: "ctx", Run: func(jobCtx context.Context) error {
		if jobCtx.Err() != nil {
			sawCancel.Store(true)
		}
		return nil
	}})
	cancel()
	d.Close()

	if sawCancel.Load() {
		t.Fatal("async job must not observe request cancellation")
	}
}

func TestDispatchAfterCloseIsNoop(t *testing.T) {
	d := NewDispatcher(Config{Async: true, BufferSize: 4}, nil)
	d.Close()
	d.Close()

	var n atomic.Int64
	if d.Dispatch(context.Background(), countingJob(&n)) {
		t.Fatal("dispatch after close must not accept the job")
	}
	if n.Load() != 0 {
		t.Fatalf("expected no delivery after close, got %d", n.Load())
	}

	var nilD *Dispatcher
	nilD.Dispatch(context.Background(), countingJob(&n))
	nilD.Close()
	if nilD.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatchConcurrentWithCloseDeliversAcceptedJobs(t *testing.T) {
	for _, dropIfFull := range []bool{false, true} {
		for round := 0; round < 50; round++ {
			d := NewDispatcher(Config{Async: true, BufferSize: 4, DropIfFull: dropIfFull}, nil)

			var delivered, accepted atomic.Int64
			job := Job{Name: "count", Run: func(context.Context) error {
				delivered.Add(1)
				return nil
			}}

			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					for j := 0; j < 20; j++ {
						if d.Dispatch(context.Background(), job) {
							accepted.Add(1)
						}
					}
				}()
			}
			close(start)
			d.Close()
			wg.Wait()

			if delivered.Load() != accepted.Load() {
				t.Fatalf("dropIfFull=%v: accepted %d jobs, delivered %d", dropIfFull, accepted.Load(), delivered.Load())
			}
		}
	}
}
