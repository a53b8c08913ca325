package editor

import (
	"context"

	"github.com/google/uuid"
)

// Task is an asynchronous placement. The instance only exists once the task
// is done; a cancelled task never adds one.
type Task struct {
	ID       uuid.UUID
	Op       string
	Template string

	cancel context.CancelFunc
	done   chan struct{}
	inst   *Instance
	err    error
}

func newTask(op, template string, cancel context.CancelFunc) *Task {
	return &Task{
		ID:       uuid.New(),
		Op:       op,
		Template: template,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// failedTask is a task that never started.
func failedTask(op, template string, err error) *Task {
	t := newTask(op, template, func() {})
	t.finish(nil, err)
	return t
}

func (t *Task) finish(inst *Instance, err error) {
	t.inst, t.err = inst, err
	t.cancel()
	close(t.done)
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel suppresses the placement if it has not completed yet.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task completes or ctx is done.
func (t *Task) Wait(ctx context.Context) (*Instance, error) {
	select {
	case <-t.done:
		return t.inst, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
