package runner

import (
	"context"
	"sync"
	"testing"

	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stevepentland/swarmer/internal/swarmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	mu             sync.Mutex
	addNewJobErr   error
	nextTasks      [][]model.QueueEntry // successive calls to GetNextTasks pop one slice each
	startedCalls   []string
	markStartedErr error
	requeuedCalls  []string
	completeResult struct {
		toRemove   []string
		mayRunMore bool
		err        error
	}
	jobDetails *model.Job
}

func (f *fakeScheduler) AddNewJob(_ context.Context, id, image, callback string, tasks []model.TaskSubmission) error {
	return f.addNewJobErr
}

func (f *fakeScheduler) GetNextTasks() []model.QueueEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.nextTasks) == 0 {
		return nil
	}
	next := f.nextTasks[0]
	f.nextTasks = f.nextTasks[1:]
	return next
}

func (f *fakeScheduler) MarkTaskStarted(_ context.Context, jobID, taskName, serviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startedCalls = append(f.startedCalls, jobID+"/"+taskName+"/"+serviceID)
	return f.markStartedErr
}

func (f *fakeScheduler) RequeueFailed(jobID, taskName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeuedCalls = append(f.requeuedCalls, jobID+"/"+taskName)
}

func (f *fakeScheduler) CompleteTask(_ context.Context, jobID, taskName string, status int, result model.TaskResult) ([]string, bool, error) {
	return f.completeResult.toRemove, f.completeResult.mayRunMore, f.completeResult.err
}

func (f *fakeScheduler) GetJobDetails(_ context.Context, id string) (*model.Job, error) {
	return f.jobDetails, nil
}

type fakeBackend struct {
	mu           sync.Mutex
	startResults map[string]string // taskName -> serviceID
	startErr     map[string]error
	removed      [][]string
}

func (f *fakeBackend) StartTask(_ context.Context, jobID, image, taskName string, args []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.startErr[taskName]; err != nil {
		return "", err
	}
	return f.startResults[taskName], nil
}

func (f *fakeBackend) RemoveServices(_ context.Context, serviceIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, serviceIDs)
	return nil
}

func TestCreateNewJobDispatchesTasks(t *testing.T) {
	sched := &fakeScheduler{
		nextTasks: [][]model.QueueEntry{
			{{JobID: "ignored-by-fake", TaskName: "a"}},
		},
	}
	backend := &fakeBackend{startResults: map[string]string{"a": "svc-a"}, startErr: map[string]error{}}
	r := New(sched, backend)

	id, err := r.CreateNewJob(context.Background(), "image", "http://cb", []model.TaskSubmission{{Name: "a"}})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, sched.startedCalls, 1)
	assert.Contains(t, sched.startedCalls[0], "svc-a")
}

func TestCreateNewJobPropagatesValidationError(t *testing.T) {
	sched := &fakeScheduler{addNewJobErr: swarmerr.NewValidationError("job must be submitted with at least one task")}
	backend := &fakeBackend{startResults: map[string]string{}, startErr: map[string]error{}}
	r := New(sched, backend)

	_, err := r.CreateNewJob(context.Background(), "image", "http://cb", nil)
	assert.Error(t, err)
}

func TestRunTasksRequeuesFailedStarts(t *testing.T) {
	sched := &fakeScheduler{
		nextTasks: [][]model.QueueEntry{
			{{JobID: "job-1", TaskName: "a"}, {JobID: "job-1", TaskName: "b"}},
		},
	}
	backend := &fakeBackend{
		startResults: map[string]string{"b": "svc-b"},
		startErr:     map[string]error{"a": assertErr()},
	}
	r := New(sched, backend)
	r.runTasks(context.Background())

	require.Len(t, sched.startedCalls, 1)
	assert.Contains(t, sched.startedCalls[0], "svc-b")
	require.Len(t, sched.requeuedCalls, 1)
	assert.Equal(t, "job-1/a", sched.requeuedCalls[0])
}

func TestCompleteTaskRemovesServicesAndMayDispatchAgain(t *testing.T) {
	sched := &fakeScheduler{}
	sched.completeResult.toRemove = []string{"svc-1", "svc-2"}
	sched.completeResult.mayRunMore = true
	sched.nextTasks = [][]model.QueueEntry{{}}

	backend := &fakeBackend{startResults: map[string]string{}, startErr: map[string]error{}}
	r := New(sched, backend)

	err := r.CompleteTask(context.Background(), "job-1", "a", 0, model.TaskResult{})
	require.NoError(t, err)
	require.Len(t, backend.removed, 1)
	assert.ElementsMatch(t, []string{"svc-1", "svc-2"}, backend.removed[0])
}

func TestDispatchMoreCoalesces(t *testing.T) {
	sched := &fakeScheduler{}
	backend := &fakeBackend{startResults: map[string]string{}, startErr: map[string]error{}}
	r := New(sched, backend)

	r.DispatchMore()
	r.DispatchMore()
	assert.Len(t, r.dispatchCh, 1, "second signal should coalesce rather than block")
}

type stubErr struct{}

func (stubErr) Error() string { return "stub error" }

func assertErr() error { return stubErr{} }
