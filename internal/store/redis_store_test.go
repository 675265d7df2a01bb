package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stevepentland/swarmer/internal/swarmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb), mr
}

func strPtr(s string) *string { return &s }

func TestAddJobAndGetJob(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))

	job, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "alpine", job.Image)
	assert.Equal(t, "http://cb", job.CallbackURL)
	assert.Empty(t, job.Tasks)
}

func TestGetJobMissing(t *testing.T) {
	s, _ := setupTestStore(t)
	_, err := s.GetJob(context.Background(), "missing")
	require.Error(t, err)
	var nf *swarmerr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAddTasksMissingJob(t *testing.T) {
	s, _ := setupTestStore(t)
	err := s.AddTasks(context.Background(), "missing", []model.TaskSubmission{{Name: "a"}})
	require.Error(t, err)
	var nf *swarmerr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// TestAddTasksRoundTrip covers spec invariant 8: get_job after add_new_job
// returns tasks with the same names/args in order, status=500, result nil.
func TestAddTasksRoundTrip(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))
	require.NoError(t, s.AddTasks(ctx, "job-1", []model.TaskSubmission{
		{Name: "a", Args: []string{"1", "2"}},
		{Name: "b", Args: []string{}},
	}))

	job, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, job.Tasks, 2)

	assert.Equal(t, "a", job.Tasks[0].Name)
	assert.Equal(t, []string{"1", "2"}, job.Tasks[0].Args)
	assert.Equal(t, model.PendingStatus, job.Tasks[0].Status)
	assert.Nil(t, job.Tasks[0].Result.Stdout)
	assert.Nil(t, job.Tasks[0].Result.Stderr)

	assert.Equal(t, "b", job.Tasks[1].Name)
	assert.Equal(t, []string{}, job.Tasks[1].Args)

	assert.Equal(t, 2, job.TaskCountTotal)
	assert.Equal(t, 0, job.TaskCountStarted)
	assert.Equal(t, 0, job.TaskCountComplete)
}

func TestUpdateStatusAndResult(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))
	require.NoError(t, s.AddTasks(ctx, "job-1", []model.TaskSubmission{{Name: "t1"}}))

	require.NoError(t, s.UpdateStatus(ctx, "job-1", "t1", 0))
	require.NoError(t, s.UpdateResult(ctx, "job-1", "t1", model.TaskResult{
		Stdout: strPtr("ok"),
		Stderr: strPtr(""),
	}))

	task, err := s.GetTask(ctx, "job-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, task.Status)
	assert.Equal(t, "ok", *task.Result.Stdout)
}

func TestUpdateStatusUnknownTask(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))
	require.NoError(t, s.AddTasks(ctx, "job-1", []model.TaskSubmission{{Name: "t1"}}))

	err := s.UpdateStatus(ctx, "job-1", "unknown", 0)
	require.Error(t, err)
	var nf *swarmerr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestSetTaskID(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))
	require.NoError(t, s.AddTasks(ctx, "job-1", []model.TaskSubmission{{Name: "t1"}}))

	require.NoError(t, s.SetTaskID(ctx, "job-1", "t1", "svc-123"))

	task, err := s.GetTask(ctx, "job-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "svc-123", task.ServiceID)
}

func TestModifyTaskCount(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))
	require.NoError(t, s.AddTasks(ctx, "job-1", []model.TaskSubmission{{Name: "t1"}, {Name: "t2"}}))

	n, err := s.ModifyTaskCount(ctx, "job-1", "__task_count_started", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 1, job.TaskCountStarted)
}

func TestClearJob(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddJob(ctx, "job-1", "alpine", "http://cb"))

	require.NoError(t, s.ClearJob(ctx, "job-1"))

	_, err := s.GetJob(ctx, "job-1")
	require.Error(t, err)

	err = s.ClearJob(ctx, "job-1")
	require.Error(t, err)
	var nf *swarmerr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
