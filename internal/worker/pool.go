// Package worker paints batches of photos in parallel.
package worker

import (
	"context"
	"sync"
	"time"
)

// Painter repaints one photo. Each call must use its own editing session.
type Painter interface {
	Paint(ctx context.Context, input, output string) (pixels int, err error)
}

// Task is one photo to paint.
type Task struct {
	Input  string
	Output string
}

// Result is the outcome of a Task.
type Result struct {
	Err     error
	Task    Task
	Pixels  int // repainted pixel count
	Elapsed time.Duration
}

// ProgressFunc is called with each finished task's result and the number of
// tasks finished so far. Calls are made from a single goroutine.
type ProgressFunc func(r Result, completed, total int)

// Config configures the worker pool.
type Config struct {
	Painter    Painter
	OnProgress ProgressFunc
	Workers    int
}

// Pool paints tasks with a fixed number of workers.
type Pool struct {
	painter    Painter
	onProgress ProgressFunc
	workers    int
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		painter:    cfg.Painter,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns results.
// Tasks are processed in parallel by the configured number of workers.
// The function blocks until all tasks complete or the context is cancelled.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	// Queue every task up front; workers report cancelled tasks as failures.
	taskCh := make(chan Task, len(tasks))
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)
	resultCh := make(chan Result, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// Collect results in a separate goroutine
	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)
			if p.onProgress != nil {
				p.onProgress(result, len(results), len(tasks))
			}
		}
		close(done)
	}()

	// Wait for workers to finish
	wg.Wait()
	close(resultCh)

	// Wait for result collection to finish
	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			// Send cancellation result
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		pixels, err := p.painter.Paint(ctx, task.Input, task.Output)
		elapsed := time.Since(start)

		results <- Result{
			Task:    task,
			Pixels:  pixels,
			Err:     err,
			Elapsed: elapsed,
		}
	}
}
