package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockPainter simulates painting for testing
type mockPainter struct {
	delay     time.Duration
	failFiles map[string]bool // inputs that should fail
	callCount atomic.Int32
}

func (m *mockPainter) Paint(ctx context.Context, input, output string) (int, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.failFiles != nil && m.failFiles[input] {
		return 0, errors.New("simulated failure")
	}

	return len(input), nil
}

func photoTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		name := string(rune('a' + i))
		tasks[i] = Task{Input: "in/" + name + ".jpg", Output: "out/" + name + ".png"}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	painter := &mockPainter{delay: 10 * time.Millisecond}

	pool := New(Config{
		Workers: 2,
		Painter: painter,
	})

	tasks := photoTasks(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Input, r.Err)
		}
		if r.Pixels != len(r.Task.Input) {
			t.Errorf("Expected pixel count for %s, got %d", r.Task.Input, r.Pixels)
		}
	}

	if painter.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d painter calls, got %d", len(tasks), painter.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	painter := &mockPainter{delay: 50 * time.Millisecond}

	pool := New(Config{
		Workers: 4,
		Painter: painter,
	})

	tasks := photoTasks(8)

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// With 4 workers and 8 tasks at 50ms each, should take ~100ms (2 batches)
	maxExpected := 300 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	tasks := photoTasks(3)
	painter := &mockPainter{
		delay:     10 * time.Millisecond,
		failFiles: map[string]bool{tasks[1].Input: true},
	}

	pool := New(Config{
		Workers: 2,
		Painter: painter,
	})

	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	var successCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.Task.Input != tasks[1].Input {
				t.Errorf("Unexpected failure for %s", r.Task.Input)
			}
		} else {
			successCount++
		}
	}

	if successCount != 2 {
		t.Errorf("Expected 2 successes, got %d", successCount)
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
}

func TestPool_Cancellation(t *testing.T) {
	painter := &mockPainter{delay: 100 * time.Millisecond}

	pool := New(Config{
		Workers: 2,
		Painter: painter,
	})

	tasks := photoTasks(10)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}

	if len(results) != len(tasks) {
		t.Errorf("Expected a result for every task, got %d", len(results))
	}

	var cancelledCount int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelledCount++
		}
	}
	if cancelledCount == 0 {
		t.Error("Expected cancelled results")
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	painter := &mockPainter{delay: 10 * time.Millisecond}

	var progressCalls atomic.Int32
	var lastCompleted, lastTotal, pixels int

	pool := New(Config{
		Workers: 2,
		Painter: painter,
		OnProgress: func(r Result, completed, total int) {
			progressCalls.Add(1)
			pixels += r.Pixels
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := photoTasks(3)
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() == 0 {
		t.Error("Expected progress callbacks, got none")
	}
	if lastCompleted != len(tasks) {
		t.Errorf("Expected lastCompleted=%d, got %d", len(tasks), lastCompleted)
	}
	if lastTotal != len(tasks) {
		t.Errorf("Expected lastTotal=%d, got %d", len(tasks), lastTotal)
	}
	// mockPainter reports len(input) pixels per photo.
	if want := 3 * len("in/a.jpg"); pixels != want {
		t.Errorf("Expected %d pixels reported, got %d", want, pixels)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	painter := &mockPainter{}

	pool := New(Config{
		Workers: 2,
		Painter: painter,
	})

	results := pool.Run(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if painter.callCount.Load() != 0 {
		t.Errorf("Expected 0 painter calls for empty tasks, got %d", painter.callCount.Load())
	}
}

func TestPool_DefaultsToOneWorker(t *testing.T) {
	pool := New(Config{Painter: &mockPainter{}})
	if pool.workers != 1 {
		t.Errorf("Expected 1 worker, got %d", pool.workers)
	}
}
