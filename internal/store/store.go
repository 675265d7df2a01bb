package store

import (
	"context"

	"github.com/stevepentland/swarmer/internal/model"
)

// Store is the durable key/value + hash store abstraction for jobs and
// their task lists (spec §4.1). All cross-field updates for a single task
// are serialized per job; implementations may use a per-job mutex or
// optimistic concurrency, the external behavior is the same either way.
type Store interface {
	// AddJob creates the hash for a new job with empty tasks.
	AddJob(ctx context.Context, id, image, callback string) error

	// AddTasks replaces the tasks field with the serialized list in its
	// initial state and resets the task counters. Fails with
	// swarmerr.NotFoundError if the job does not exist.
	AddTasks(ctx context.Context, id string, tasks []model.TaskSubmission) error

	// UpdateStatus performs a read-modify-write of the task list, setting
	// the named task's status. Fails if the job or task is absent.
	UpdateStatus(ctx context.Context, id, taskName string, status int) error

	// UpdateResult performs a read-modify-write of the task list, setting
	// the named task's result. Fails if the job or task is absent.
	UpdateResult(ctx context.Context, id, taskName string, result model.TaskResult) error

	// SetTaskID records the backend service id on the named task.
	SetTaskID(ctx context.Context, id, taskName, serviceID string) error

	// GetJob returns the whole job record with tasks still a deserialized
	// slice (unlike the raw hash, callers never see the wire encoding).
	GetJob(ctx context.Context, id string) (*model.Job, error)

	// GetTasks returns the deserialized task list for a job.
	GetTasks(ctx context.Context, id string) ([]model.Task, error)

	// GetTask returns a single task by name.
	GetTask(ctx context.Context, id, taskName string) (*model.Task, error)

	// ModifyTaskCount hash-increments one of the three counter fields and
	// returns the new value. counterName must be one of
	// "__task_count_total", "__task_count_started", "__task_count_complete".
	ModifyTaskCount(ctx context.Context, id, counterName string, delta int) (int64, error)

	// ClearJob deletes the whole job hash. Fails if the job is absent.
	ClearJob(ctx context.Context, id string) error
}
