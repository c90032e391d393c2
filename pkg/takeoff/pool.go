package takeoff

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PoolConfig configures the extraction worker pool.
type PoolConfig struct {
	MaxConcurrent int // Maximum concurrent extraction calls (default: 4)
}

// DefaultPoolConfig returns sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConcurrent: 4,
	}
}

// Pool runs extraction tasks with bounded parallelism. Every task settles
// independently with a result or an error; one task's failure or panic never
// cancels or corrupts a sibling.
type Pool struct {
	config PoolConfig
	logger *zap.Logger
}

// NewPool creates a new extraction worker pool.
func NewPool(config PoolConfig, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 4
	}
	return &Pool{
		config: config,
		logger: logger.Named("takeoff-pool"),
	}
}

// Task represents a unit of work to be executed.
type Task[T any] struct {
	ID      string                               // For logging and result attribution
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// TaskResult represents the settled outcome of a task.
type TaskResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Run executes all tasks and returns once every task has settled. Results
// come back in completion order, not submission order.
func Run[T any](ctx context.Context, pool *Pool, tasks []Task[T]) []TaskResult[T] {
	if len(tasks) == 0 {
		return nil
	}

	resultsChan := make(chan TaskResult[T], len(tasks))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(task Task[T]) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					pool.logger.Error("task panicked",
						zap.String("task", task.ID),
						zap.Any("panic", r))
					var zero T
					resultsChan <- TaskResult[T]{ID: task.ID, Result: zero, Err: fmt.Errorf("task %s panicked: %v", task.ID, r)}
				}
			}()

			// Acquire semaphore slot (blocks if at max concurrency)
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- TaskResult[T]{ID: task.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := task.Execute(ctx)
			resultsChan <- TaskResult[T]{ID: task.ID, Result: result, Err: err}
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]TaskResult[T], 0, len(tasks))
	for result := range resultsChan {
		results = append(results, result)
	}

	return results
}
