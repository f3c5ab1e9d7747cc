package helpers

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// GoroutineSnapshot captures the state of goroutines at a point in time
type GoroutineSnapshot struct {
	Count     int
	Timestamp time.Time
}

// TakeGoroutineSnapshot captures current goroutine count
func TakeGoroutineSnapshot() *GoroutineSnapshot {
	return &GoroutineSnapshot{
		Count:     runtime.NumGoroutine(),
		Timestamp: time.Now(),
	}
}

// DetectGoroutineLeak compares two snapshots and returns an error if goroutines leaked
func DetectGoroutineLeak(before, after *GoroutineSnapshot, tolerance int) error {
	leaked := after.Count - before.Count
	if leaked > tolerance {
		return fmt.Errorf("goroutine leak detected: started with %d, ended with %d (leaked %d, tolerance %d)",
			before.Count, after.Count, leaked, tolerance)
	}
	return nil
}

// WaitForGoroutineCleanup waits for goroutines to clean up, retrying with GC
func WaitForGoroutineCleanup(maxWait time.Duration, targetCount int, tolerance int) (int, error) {
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		current := runtime.NumGoroutine()
		if current-targetCount <= tolerance {
			return current, nil
		}

		runtime.GC()
		time.Sleep(50 * time.Millisecond)
	}

	final := runtime.NumGoroutine()
	return final, fmt.Errorf("goroutines did not clean up within %v: expected %d±%d, got %d",
		maxWait, targetCount, tolerance, final)
}

// DeadlockDetector helps detect operations that never return
type DeadlockDetector struct {
	timeout time.Duration
}

// NewDeadlockDetector creates a new deadlock detector
func NewDeadlockDetector(timeout time.Duration) *DeadlockDetector {
	return &DeadlockDetector{timeout: timeout}
}

// Run executes the function with deadlock detection
func (dd *DeadlockDetector) Run(fn func() error) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- fn()
	}()

	select {
	case err := <-errChan:
		return err
	case <-time.After(dd.timeout):
		return fmt.Errorf("operation timed out after %v (possible deadlock)", dd.timeout)
	}
}

// RunParallel runs fn once per worker and collects every returned error
func RunParallel(workers int, fn func(worker int) error) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if err := fn(worker); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("worker %d: %w", worker, err))
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	return errs
}
