package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/gsarma/texcompile/internal/metrics"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("worker: queue full")
	// ErrStopped is returned by Submit once the worker has shut down.
	ErrStopped = errors.New("worker: stopped")
)

// Task is one unit of work. ctx is the context passed to Submit.
type Task func(ctx context.Context)

type job struct {
	ctx  context.Context
	task Task
}

// Worker runs submitted tasks on a fixed number of goroutines, holding at
// most queueSize tasks that are waiting for a goroutine.
type Worker struct {
	queue       chan job
	concurrency int
	recorder    metrics.Recorder
	inFlight    atomic.Int64

	mu      sync.RWMutex
	stopped bool
}

func New(concurrency, queueSize int, recorder metrics.Recorder) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Worker{
		queue:       make(chan job, queueSize),
		concurrency: concurrency,
		recorder:    metrics.OrNoop(recorder),
	}
}

// Submit enqueues task without blocking.
func (w *Worker) Submit(ctx context.Context, task Task) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- job{ctx: ctx, task: task}:
		w.recorder.SetQueueDepth(len(w.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start spawns concurrency goroutines that execute queued tasks.
// It blocks until ctx is cancelled and every running task has returned.
// Tasks still queued at that point run with an already-cancelled context
// so their submitters are released.
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	<-ctx.Done()
	wg.Wait()

	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.drain()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.queue:
			w.recorder.SetQueueDepth(len(w.queue))
			if ctx.Err() != nil {
				w.runCancelled(j)
				continue
			}
			w.run(j.ctx, j.task)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case j := <-w.queue:
			w.runCancelled(j)
		default:
			w.recorder.SetQueueDepth(0)
			return
		}
	}
}

func (w *Worker) runCancelled(j job) {
	ctx, cancel := context.WithCancel(j.ctx)
	cancel()
	w.run(ctx, j.task)
}

func (w *Worker) run(ctx context.Context, task Task) {
	w.recorder.SetInFlight(int(w.inFlight.Add(1)))
	defer func() {
		w.recorder.SetInFlight(int(w.inFlight.Add(-1)))
		if r := recover(); r != nil {
			slog.Error("worker: task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task(ctx)
}
