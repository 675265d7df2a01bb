// Package runner is the thin orchestrator wiring API-layer calls to the
// Scheduler's state decisions and the BackendClient's side effects.
//
// Grounded on jobs/runner.py's JobRunner: create_new_job generates an
// identifier and dispatches immediately; complete_task threads the
// scheduler's service-removal batch and "may run more" decision back
// into another dispatch pass. The Python original wires itself into
// JobQueue.run_signal as a plain callback attribute; here Runner
// implements scheduler.DispatchSignal instead (design notes §9),
// avoiding the Runner<->Scheduler reference cycle a function pointer
// would otherwise require at construction time.
package runner

import (
	"context"
	"log"

	"github.com/stevepentland/swarmer/internal/identifier"
	"github.com/stevepentland/swarmer/internal/model"
)

// Backend is the capability surface Runner needs from the container
// orchestration backend.
type Backend interface {
	StartTask(ctx context.Context, jobID, image, taskName string, args []string) (serviceID string, err error)
	RemoveServices(ctx context.Context, serviceIDs []string) error
}

// Scheduler is the capability surface Runner needs from the job
// scheduling engine.
type Scheduler interface {
	AddNewJob(ctx context.Context, id, image, callback string, tasks []model.TaskSubmission) error
	GetNextTasks() []model.QueueEntry
	MarkTaskStarted(ctx context.Context, jobID, taskName, serviceID string) error
	RequeueFailed(jobID, taskName string)
	CompleteTask(ctx context.Context, jobID, taskName string, status int, result model.TaskResult) (servicesToRemove []string, mayRunMore bool, err error)
	GetJobDetails(ctx context.Context, id string) (*model.Job, error)
}

// Runner wires job submission and task completion through the
// Scheduler, using the Backend to actually start and tear down task
// containers. It implements scheduler.DispatchSignal so background
// sweepers can wake it without a direct pointer back from Scheduler.
type Runner struct {
	scheduler Scheduler
	backend   Backend

	// dispatchCh decouples DispatchMore (which sweepers call under no
	// assumptions about the caller's goroutine) from runTasks, which
	// performs blocking backend I/O.
	dispatchCh chan struct{}
}

// New builds a Runner. Call Start once to begin servicing dispatch
// wake-ups delivered via DispatchMore.
func New(scheduler Scheduler, backend Backend) *Runner {
	return &Runner{
		scheduler:  scheduler,
		backend:    backend,
		dispatchCh: make(chan struct{}, 1),
	}
}

// Start runs the background loop that drains dispatch wake-ups until
// ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.dispatchCh:
				r.runTasks(ctx)
			}
		}
	}()
}

// DispatchMore implements scheduler.DispatchSignal: it schedules a
// dispatch pass without blocking the caller (sweepers hold the
// scheduler mutex up to the point they call this).
func (r *Runner) DispatchMore() {
	select {
	case r.dispatchCh <- struct{}{}:
	default:
		// a pass is already pending, coalesce
	}
}

// CreateNewJob generates a fresh sortable identifier, registers the job
// with the Scheduler, and performs one dispatch pass.
func (r *Runner) CreateNewJob(ctx context.Context, image, callback string, tasks []model.TaskSubmission) (string, error) {
	id := identifier.New()
	log.Printf("[Runner] creating job %s with image %s and %d task(s)", id, image, len(tasks))

	if err := r.scheduler.AddNewJob(ctx, id, image, callback, tasks); err != nil {
		return "", err
	}

	r.runTasks(ctx)
	return id, nil
}

// runTasks loops once over GetNextTasks, dispatching each through the
// Backend and threading the returned service id back via
// MarkTaskStarted. A start failure is logged and the task is requeued
// directly, the faster-recovery option spec.md §4.4.6 allows in place
// of waiting for the dead-sweeper's timeout.
func (r *Runner) runTasks(ctx context.Context) {
	for _, entry := range r.scheduler.GetNextTasks() {
		serviceID, err := r.backend.StartTask(ctx, entry.JobID, entry.Image, entry.TaskName, entry.Args)
		if err != nil {
			log.Printf("[Runner] failed to start task job=%s task=%s: %v, requeueing", entry.JobID, entry.TaskName, err)
			r.scheduler.RequeueFailed(entry.JobID, entry.TaskName)
			continue
		}
		if err := r.scheduler.MarkTaskStarted(ctx, entry.JobID, entry.TaskName, serviceID); err != nil {
			log.Printf("[Runner] failed to record start for job=%s task=%s: %v", entry.JobID, entry.TaskName, err)
		}
	}
}

// CompleteTask forwards a task completion to the Scheduler, instructs
// the Backend to remove the drained services, and fires another
// dispatch pass if the Scheduler reports capacity may be available.
func (r *Runner) CompleteTask(ctx context.Context, jobID, taskName string, status int, result model.TaskResult) error {
	servicesToRemove, mayRunMore, err := r.scheduler.CompleteTask(ctx, jobID, taskName, status, result)
	if err != nil {
		return err
	}

	if len(servicesToRemove) > 0 {
		if err := r.backend.RemoveServices(ctx, servicesToRemove); err != nil {
			log.Printf("[Runner] failed to remove service(s) for job=%s task=%s: %v", jobID, taskName, err)
		}
	}

	if mayRunMore {
		r.runTasks(ctx)
	}
	return nil
}

// GetJob is a passthrough to the Scheduler.
func (r *Runner) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return r.scheduler.GetJobDetails(ctx, id)
}
