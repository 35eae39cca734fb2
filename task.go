package tilebuilder

import (
	"context"
	"image"
	"image/color"

	"github.com/setanarut/tilebuilder/utils"
)

// BuildTask describes one output image.
type BuildTask struct {
	Name       string // identifies the task in logs and errors
	Size       image.Point
	Background color.NRGBA
	Output     string
	Operations []Operation
}

type State int

const (
	StatePending State = iota
	StateBuilding
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Result is the outcome of one task. Err is set iff State is StateFailed.
type Result struct {
	Task   string
	Output string
	State  State
	Err    error
}

// TaskRunner turns build tasks into image files.
type TaskRunner struct {
	Loader utils.ImageLoader
}

// NewTaskRunner returns a runner reading sources through loader, or through
// a fresh utils.FileLoader if loader is nil.
func NewTaskRunner(loader utils.ImageLoader) *TaskRunner {
	if loader == nil {
		loader = utils.NewFileLoader()
	}
	return &TaskRunner{Loader: loader}
}

// Run builds the canvas for task, applies its operations in order and saves
// the result. Nothing is written when any operation fails.
func (r *TaskRunner) Run(ctx context.Context, task BuildTask) Result {
	res := Result{Task: task.Name, Output: task.Output, State: StateBuilding}
	log := Logger().With("task", task.Name)

	fail := func(err error) Result {
		res.State = StateFailed
		res.Err = err
		log.Warn("task failed", "error", err)
		return res
	}

	b, err := NewImageBuilder(task.Size, task.Background, r.Loader)
	if err != nil {
		return fail(err)
	}
	log.Debug("building image", "size", task.Size, "operations", len(task.Operations))
	if err := b.ApplyOperations(ctx, task.Operations); err != nil {
		return fail(err)
	}
	if err := b.Save(task.Output); err != nil {
		return fail(err)
	}
	log.Info("created image", "output", task.Output, "size", b.Canvas.Size())
	res.State = StateSucceeded
	return res
}
