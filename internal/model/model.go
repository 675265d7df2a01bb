// Package model defines the durable and in-memory shapes shared by the
// store, scheduler and API layers: Job, Task and QueueEntry.
package model

import "time"

// PendingStatus is the sentinel exit status of a task that has not yet
// reported. It is replaced by the real exit code on completion.
const PendingStatus = 500

// TaskResult carries a task's captured output. Both fields are nil until
// the task's completion callback is accepted.
type TaskResult struct {
	Stdout *string `json:"stdout"`
	Stderr *string `json:"stderr"`
}

// Task is one container invocation within a job.
type Task struct {
	Name      string     `json:"name"`
	Args      []string   `json:"args"`
	Status    int        `json:"status"`
	Result    TaskResult `json:"result"`
	ServiceID string     `json:"__task_id,omitempty"`
}

// NewTask creates a task in its initial, undispatched state.
func NewTask(name string, args []string) Task {
	if args == nil {
		args = []string{}
	}
	return Task{
		Name:   name,
		Args:   args,
		Status: PendingStatus,
		Result: TaskResult{},
	}
}

// Job is a submission of an image plus a set of tasks, sharing one
// completion callback.
type Job struct {
	ID          string `json:"id"`
	Image       string `json:"__image"`
	CallbackURL string `json:"__callback"`
	Tasks       []Task `json:"tasks"`

	TaskCountTotal     int `json:"__task_count_total"`
	TaskCountStarted   int `json:"__task_count_started"`
	TaskCountComplete  int `json:"__task_count_complete"`
}

// QueueEntry is the in-memory-only record the scheduler threads through
// pending and running (overdue keeps only the service id). Args/Image/JobID are immutable for the
// entry's lifetime; ServiceID/StartedAt are populated once dispatched.
type QueueEntry struct {
	JobID     string
	TaskName  string
	Args      []string
	Image     string
	ServiceID string
	StartedAt time.Time
}

// Dispatched reports whether the backend has returned a service id for
// this entry.
func (e QueueEntry) Dispatched() bool {
	return e.ServiceID != ""
}

// Fresh returns a copy of the entry with dispatch fields cleared, used to
// requeue a task that was swept for exceeding its liveness timeout.
func (e QueueEntry) Fresh() QueueEntry {
	return QueueEntry{
		JobID:    e.JobID,
		TaskName: e.TaskName,
		Args:     e.Args,
		Image:    e.Image,
	}
}

// TaskSubmission is the caller-supplied shape of one task at job
// submission time, before it has been assigned its initial state.
type TaskSubmission struct {
	Name string
	Args []string
}
