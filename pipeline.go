package tilebuilder

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pipeline runs a list of build tasks and stops at the first failure.
type Pipeline struct {
	Runner *TaskRunner
	// Workers is the number of tasks built at the same time. Values below 2
	// run tasks one by one in order.
	Workers int
	// Progress, if set, is called with each result as soon as its task
	// finishes. Calls never overlap.
	Progress func(Result)
}

// Run executes tasks and returns the results of every task that was started.
// The returned error is the first failure, as a *TaskError.
//
// In sequential mode no task after a failing one is started. With several
// workers, tasks still running when one fails are cancelled before their
// next operation.
func (p *Pipeline) Run(ctx context.Context, tasks []BuildTask) ([]Result, error) {
	runner := p.Runner
	if runner == nil {
		runner = NewTaskRunner(nil)
	}
	if p.Workers < 2 {
		return p.runSequential(ctx, runner, tasks)
	}

	var mu sync.Mutex
	results := make([]Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = runner.Run(gctx, task)
			if p.Progress != nil {
				mu.Lock()
				p.Progress(results[i])
				mu.Unlock()
			}
			if results[i].State == StateFailed {
				return &TaskError{Task: task.Name, Err: results[i].Err}
			}
			return nil
		})
	}
	err := g.Wait()

	started := results[:0]
	for _, r := range results {
		if r.State != StatePending {
			started = append(started, r)
		}
	}
	return started, err
}

func (p *Pipeline) runSequential(ctx context.Context, runner *TaskRunner, tasks []BuildTask) ([]Result, error) {
	results := make([]Result, 0, len(tasks))
	for _, task := range tasks {
		res := runner.Run(ctx, task)
		results = append(results, res)
		if p.Progress != nil {
			p.Progress(res)
		}
		if res.State == StateFailed {
			return results, &TaskError{Task: task.Name, Err: res.Err}
		}
	}
	return results, nil
}
