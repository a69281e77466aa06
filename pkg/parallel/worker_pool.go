package parallel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/dd0wney/cluso-layout/pkg/logging"
)

// WorkerPool manages a fixed pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	logger    logging.Logger
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")

	// ErrPoolClosed is returned by Run once Close has been called.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// DefaultWorkers returns the available hardware parallelism minus one,
// leaving a core for the driving goroutine. Never less than 1.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// TaskPanicError carries a panic recovered from a task run through Run.
type TaskPanicError struct {
	Task  int
	Value any
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Task, e.Value)
}

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	return NewWorkerPoolWithLogger(workers, logging.NewNopLogger())
}

// NewWorkerPoolWithLogger is NewWorkerPool with a logger for panics raised
// by tasks handed to Submit.
func NewWorkerPoolWithLogger(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2), // Buffer for 2x workers
		logger:    logger.With(logging.Component("worker_pool")),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// start initializes the worker goroutines
func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// Recover from panics in tasks to prevent worker crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error("worker panic recovered", logging.Any("panic", r))
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	// Check if pool is closed while holding read lock
	if wp.closed {
		return false
	}

	// Safe to send because we hold the lock and pool is not closed
	wp.taskQueue <- task
	return true
}

// Run executes task(0) .. task(n-1) on the pool and blocks until every
// submitted task has returned. Task errors and panics are collected and
// returned joined; a nil result means every task succeeded. Run must not
// be called from inside a pool task.
func (wp *WorkerPool) Run(n int, task func(i int) error) error {
	if n <= 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		idx := i
		submitted := wp.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					record(&TaskPanicError{Task: idx, Value: r})
				}
			}()
			if err := task(idx); err != nil {
				record(err)
			}
		})
		if !submitted {
			wg.Done()
			record(ErrPoolClosed)
			break
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		// Acquire write lock before closing
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Closed reports whether Close has been called
func (wp *WorkerPool) Closed() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.closed
}
