package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t testing.TB, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	return pool
}

// TestWorkerPoolBasicOperations tests basic worker pool functionality
func TestWorkerPoolBasicOperations(t *testing.T) {
	pool := newTestPool(t, 4)

	var executed atomic.Bool
	success := pool.Submit(func() {
		executed.Store(true)
	})

	if !success {
		t.Error("Task submission failed")
	}

	// Close drains the queue
	pool.Close()

	if !executed.Load() {
		t.Error("Task was not executed")
	}
}

func TestNewWorkerPoolBounds(t *testing.T) {
	pool := newTestPool(t, 0)
	defer pool.Close()
	if pool.Workers() != 1 {
		t.Errorf("Expected non-positive worker count to clamp to 1, got %d", pool.Workers())
	}

	if _, err := NewWorkerPool(MaxWorkers + 1); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if DefaultWorkers() < 1 {
		t.Errorf("DefaultWorkers() = %d, want >= 1", DefaultWorkers())
	}
}

// TestWorkerPoolConcurrentSubmissions tests concurrent task submissions
func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newTestPool(t, 10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() {
				atomic.AddInt64(&counter, 1)
			})
		}()
	}

	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// TestWorkerPoolCloseRace validates that closing the pool while submitting tasks doesn't panic
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := newTestPool(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() {
						time.Sleep(100 * time.Microsecond)
					})
				}
			}()
		}

		time.Sleep(time.Millisecond)
		pool.Close()

		wg.Wait()
	}
}

// TestWorkerPoolSubmitAfterClose tests that submissions after close return false
func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newTestPool(t, 4)
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Task submission after close should return false")
	}
	if !pool.Closed() {
		t.Error("Closed() should report true")
	}
}

// TestWorkerPoolMultipleClose tests that closing multiple times is safe
func TestWorkerPoolMultipleClose(t *testing.T) {
	pool := newTestPool(t, 4)

	for i := 0; i < 10; i++ {
		pool.Submit(func() {})
	}

	pool.Close()
	pool.Close()
	pool.Close()
}

// TestWorkerPoolWithPanic tests that panics in submitted tasks don't kill workers
func TestWorkerPoolWithPanic(t *testing.T) {
	pool := newTestPool(t, 4)

	var counter int64
	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			panic("intentional panic")
		})
	}
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}

	pool.Close()

	if counter != 10 {
		t.Errorf("Expected counter 10, got %d", counter)
	}
}

func TestRunBarrier(t *testing.T) {
	pool := newTestPool(t, 4)
	defer pool.Close()

	results := make([]int, 1000)
	err := pool.Run(len(results), func(i int) error {
		results[i] = i * 2
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Every write must be visible once Run returns
	for i, v := range results {
		if v != i*2 {
			t.Fatalf("results[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestRunReusable(t *testing.T) {
	pool := newTestPool(t, 3)
	defer pool.Close()

	var total int64
	for phase := 0; phase < 5; phase++ {
		if err := pool.Run(10, func(int) error {
			atomic.AddInt64(&total, 1)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if total != 50 {
		t.Errorf("Expected 50 task executions across phases, got %d", total)
	}
}

func TestRunAggregatesErrors(t *testing.T) {
	pool := newTestPool(t, 4)
	defer pool.Close()

	errOdd := errors.New("odd task")
	var ran int64
	err := pool.Run(10, func(i int) error {
		atomic.AddInt64(&ran, 1)
		if i%2 == 1 {
			return errOdd
		}
		return nil
	})

	if !errors.Is(err, errOdd) {
		t.Fatalf("Expected joined error to contain errOdd, got %v", err)
	}
	if ran != 10 {
		t.Errorf("All tasks should run even when some fail, ran %d", ran)
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 5 {
		t.Errorf("Expected 5 joined errors, got %v", err)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	pool := newTestPool(t, 2)
	defer pool.Close()

	err := pool.Run(4, func(i int) error {
		if i == 2 {
			panic("kaboom")
		}
		return nil
	})

	var panicErr *TaskPanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected TaskPanicError, got %v", err)
	}
	if panicErr.Task != 2 || panicErr.Value != "kaboom" {
		t.Errorf("Unexpected panic error: %+v", panicErr)
	}

	// Pool still usable afterwards
	if err := pool.Run(4, func(int) error { return nil }); err != nil {
		t.Errorf("Pool unusable after panic: %v", err)
	}
}

func TestRunOnClosedPool(t *testing.T) {
	pool := newTestPool(t, 2)
	pool.Close()

	err := pool.Run(3, func(int) error { return nil })
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}

func TestRunEmpty(t *testing.T) {
	pool := newTestPool(t, 2)
	defer pool.Close()

	if err := pool.Run(0, func(int) error { return errors.New("unreachable") }); err != nil {
		t.Errorf("Run(0) should be a no-op, got %v", err)
	}
}

// BenchmarkWorkerPoolThroughput benchmarks worker pool throughput
func BenchmarkWorkerPoolThroughput(b *testing.B) {
	pool := newTestPool(b, 10)
	defer pool.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {})
	}
}

// BenchmarkRun benchmarks a fork-join phase of 1000 trivial tasks
func BenchmarkRun(b *testing.B) {
	pool := newTestPool(b, DefaultWorkers())
	defer pool.Close()

	sink := make([]float64, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.Run(len(sink), func(j int) error {
			sink[j] += 1
			return nil
		})
	}
}
