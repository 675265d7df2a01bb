// Package scheduler implements the in-memory bounded task queue, the
// running set, and the two background sweepers that drive a job's
// lifecycle forward independently of API traffic.
//
// Grounded line-for-line on jobs/queue.py's JobQueue: a deque plus a
// running list plus an overdue set, guarded by one lock, with two
// daemon threads. The background sweepers are re-expressed as
// goroutines driven by time.Ticker and ctx.Done(), the way
// internal/orchestrator/engine.go structures its event loop.
package scheduler

import (
	"container/list"
	"context"
	"log"
	"sync"
	"time"

	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stevepentland/swarmer/internal/store"
	"github.com/stevepentland/swarmer/internal/swarmerr"
)

const (
	// DeadScanInterval is how often the liveness sweeper runs.
	DeadScanInterval = 600 * time.Second
	// CompletedScanInterval is how often the completion sweeper runs.
	CompletedScanInterval = 60 * time.Second
	// DeadJobInterval is how long a running task may go without
	// completing before it is declared overdue.
	DeadJobInterval = 30 * time.Minute
)

// DispatchSignal is notified when the scheduler believes more tasks
// could be started, replacing the Python original's plain run_signal
// function attribute with an interface the Runner implements, so the
// Scheduler never holds a pointer back to it.
type DispatchSignal interface {
	DispatchMore()
}

// Scheduler holds the bounded in-memory task queue and running set for
// every job in flight, plus the durable Store all task-level writes
// commit to.
type Scheduler struct {
	store    store.Store
	capacity int
	poster   CallbackPoster

	mu      sync.Mutex
	pending *list.List // of model.QueueEntry, FIFO: push back, pop front
	running []model.QueueEntry
	jobs    map[string]struct{}
	overdue []string

	signal DispatchSignal
}

// CallbackPoster is the collaborator the completion sweeper delivers
// finished job records to.
type CallbackPoster interface {
	Post(ctx context.Context, jobs []*model.Job)
}

// New builds a Scheduler bound to a Store, a CallbackPoster and a fixed
// running-set capacity. SetSignal must be called before background
// sweepers are started if dispatch wake-ups are desired.
func New(s store.Store, capacity int, poster CallbackPoster) *Scheduler {
	return &Scheduler{
		store:    s,
		capacity: capacity,
		poster:   poster,
		pending:  list.New(),
		jobs:     make(map[string]struct{}),
	}
}

// SetSignal registers the DispatchSignal sweepers notify when capacity
// may have freed up. Not safe to call concurrently with Start.
func (s *Scheduler) SetSignal(signal DispatchSignal) {
	s.signal = signal
}

// AddNewJob rejects an empty task list with a validation error; on
// success writes the job and its initial tasks to the Store, tracks the
// job id, and enqueues one QueueEntry per task.
func (s *Scheduler) AddNewJob(ctx context.Context, id, image, callback string, tasks []model.TaskSubmission) error {
	if len(tasks) == 0 {
		return swarmerr.NewValidationError("job %s must be submitted with at least one task", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AddJob(ctx, id, image, callback); err != nil {
		return err
	}
	if err := s.store.AddTasks(ctx, id, tasks); err != nil {
		return err
	}

	s.jobs[id] = struct{}{}
	for _, t := range tasks {
		s.pending.PushBack(model.QueueEntry{
			JobID:    id,
			TaskName: t.Name,
			Args:     t.Args,
			Image:    image,
		})
	}

	log.Printf("[Scheduler] added job %s with %d tasks", id, len(tasks))
	return nil
}

// GetNextTasks pops up to capacity-|running| entries off the pending
// queue and moves them into running, without service ids or start
// times populated yet. Returns nil if already at capacity or nothing
// is pending.
func (s *Scheduler) GetNextTasks() []model.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	free := s.capacity - len(s.running)
	if free <= 0 || s.pending.Len() == 0 {
		return nil
	}

	var out []model.QueueEntry
	for len(out) < free && s.pending.Len() > 0 {
		front := s.pending.Front()
		entry := front.Value.(model.QueueEntry)
		s.pending.Remove(front)
		s.running = append(s.running, entry)
		out = append(out, entry)
	}
	return out
}

// MarkTaskStarted records the backend-assigned service id, persists it
// and increments the started counter in the Store, then stamps the
// matching running entry's start time. Unknown entries are silently
// ignored; the task may already have been swept to overdue. Mirrors
// jobs/runner.py's _start_task: set_task_id followed by
// modify_task_count('__task_count_started', +1).
func (s *Scheduler) MarkTaskStarted(ctx context.Context, jobID, taskName, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.running {
		if s.running[i].JobID == jobID && s.running[i].TaskName == taskName {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	if err := s.store.SetTaskID(ctx, jobID, taskName, serviceID); err != nil {
		return err
	}
	if _, err := s.store.ModifyTaskCount(ctx, jobID, store.FieldTaskCountStarted, 1); err != nil {
		return err
	}

	s.running[idx].ServiceID = serviceID
	s.running[idx].StartedAt = time.Now()
	return nil
}

// RequeueFailed moves a running entry whose backend dispatch failed back
// onto the pending queue for another attempt, the direct-requeue option
// spec.md §4.4.6 sanctions for start_task failures (as an alternative to
// waiting out the dead-sweeper's timeout).
func (s *Scheduler) RequeueFailed(jobID, taskName string) {
	s.mu.Lock()
	idx := -1
	for i := range s.running {
		if s.running[i].JobID == jobID && s.running[i].TaskName == taskName {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	entry := s.running[idx]
	s.running = append(s.running[:idx], s.running[idx+1:]...)
	s.pending.PushBack(entry.Fresh())
	canDispatch := len(s.running) < s.capacity && s.pending.Len() > 0
	s.mu.Unlock()

	if canDispatch {
		s.notify()
	}
}

// CompleteTask locates the named running entry, writes result then
// status to the Store, moves the started counter to complete, removes
// the entry from running, and drains any overdue service ids alongside
// the completing entry's own id. Returns the service ids the caller
// should batch-remove from the backend and whether more tasks may now
// be dispatched. If no matching running entry exists the call is a
// no-op (an idempotent late callback).
func (s *Scheduler) CompleteTask(ctx context.Context, jobID, taskName string, status int, result model.TaskResult) (servicesToRemove []string, mayRunMore bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.running {
		if s.running[i].JobID == jobID && s.running[i].TaskName == taskName {
			idx = i
			break
		}
	}
	if idx == -1 {
		log.Printf("[Scheduler] completion for unknown running task job=%s task=%s ignored", jobID, taskName)
		return nil, false, nil
	}
	entry := s.running[idx]

	if err := s.store.UpdateResult(ctx, jobID, taskName, result); err != nil {
		return nil, false, err
	}
	if err := s.store.UpdateStatus(ctx, jobID, taskName, status); err != nil {
		return nil, false, err
	}
	if _, err := s.store.ModifyTaskCount(ctx, jobID, store.FieldTaskCountStarted, -1); err != nil {
		return nil, false, err
	}
	if _, err := s.store.ModifyTaskCount(ctx, jobID, store.FieldTaskCountComplete, 1); err != nil {
		return nil, false, err
	}

	s.running = append(s.running[:idx], s.running[idx+1:]...)

	toRemove := append([]string{}, s.overdue...)
	s.overdue = nil
	if entry.ServiceID != "" {
		toRemove = append(toRemove, entry.ServiceID)
	}

	mayRunMore = len(s.running) < s.capacity && s.pending.Len() > 0
	return toRemove, mayRunMore, nil
}

// GetJobDetails returns the Store's job record with tasks deserialized.
func (s *Scheduler) GetJobDetails(ctx context.Context, id string) (*model.Job, error) {
	return s.store.GetJob(ctx, id)
}

// Start launches the dead-task and completion sweepers as background
// goroutines and returns immediately; cancelling ctx stops them.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runDeadSweeper(ctx)
	go s.runCompletionSweeper(ctx)
}

func (s *Scheduler) runDeadSweeper(ctx context.Context) {
	ticker := time.NewTicker(DeadScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepDead()
		}
	}
}

func (s *Scheduler) sweepDead() {
	s.mu.Lock()
	now := time.Now()
	var kept []model.QueueEntry
	var requeued int
	for _, e := range s.running {
		if e.StartedAt.IsZero() || now.Sub(e.StartedAt) <= DeadJobInterval {
			kept = append(kept, e)
			continue
		}
		if e.ServiceID != "" {
			s.overdue = append(s.overdue, e.ServiceID)
		}
		s.pending.PushBack(e.Fresh())
		requeued++
	}
	s.running = kept
	canDispatch := len(s.running) < s.capacity && s.pending.Len() > 0
	s.mu.Unlock()

	if requeued > 0 {
		log.Printf("[Scheduler] requeued %d overdue task(s)", requeued)
	}
	if canDispatch {
		s.notify()
	}
}

func (s *Scheduler) runCompletionSweeper(ctx context.Context) {
	ticker := time.NewTicker(CompletedScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepCompleted(ctx)
		}
	}
}

func (s *Scheduler) sweepCompleted(ctx context.Context) {
	s.mu.Lock()
	var completed []string
	for jobID := range s.jobs {
		if s.jobHasOutstandingTasks(jobID) {
			continue
		}
		completed = append(completed, jobID)
	}

	var records []*model.Job
	for _, jobID := range completed {
		delete(s.jobs, jobID)
		job, err := s.store.GetJob(ctx, jobID)
		if err != nil {
			log.Printf("[Scheduler] failed to fetch completed job %s: %v", jobID, err)
			continue
		}
		if err := s.store.ClearJob(ctx, jobID); err != nil {
			log.Printf("[Scheduler] failed to clear completed job %s: %v", jobID, err)
		}
		records = append(records, job)
	}
	s.mu.Unlock()

	if len(records) > 0 && s.poster != nil {
		s.poster.Post(ctx, records)
	}
	s.notify()
}

// jobHasOutstandingTasks reports whether jobID still owns a pending or
// running entry. Callers must hold s.mu.
func (s *Scheduler) jobHasOutstandingTasks(jobID string) bool {
	for _, e := range s.running {
		if e.JobID == jobID {
			return true
		}
	}
	for el := s.pending.Front(); el != nil; el = el.Next() {
		if el.Value.(model.QueueEntry).JobID == jobID {
			return true
		}
	}
	return false
}

func (s *Scheduler) notify() {
	if s.signal != nil {
		s.signal.DispatchMore()
	}
}
