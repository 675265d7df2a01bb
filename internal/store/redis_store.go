package store

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stevepentland/swarmer/internal/swarmerr"
)

// RedisStore is the Store implementation backing production deployments,
// grounded on pkg/blackboard/client.go's namespaced-hash approach but
// scoped to jobs/tasks rather than artefacts/claims/bids.
//
// Cross-field updates for a single job are serialized by a per-job
// sync.Mutex held for the duration of the read-modify-write Redis
// round-trip (spec §4.1, §5). This is simpler than Redis-side
// optimistic-CAS (WATCH/MULTI/EXEC) and sufficient because contention is
// per-job and low, exactly as the design notes (§9) call out.
type RedisStore struct {
	rdb *redis.Client

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewRedisStore wraps an existing go-redis client. The caller owns the
// client's lifecycle (Close()).
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb:   rdb,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *RedisStore) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *RedisStore) exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, jobKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check job existence: %w", err)
	}
	return n > 0, nil
}

// AddJob creates the hash with __image, __callback, and an empty tasks list.
func (s *RedisStore) AddJob(ctx context.Context, id, image, callback string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	initial := map[string]interface{}{
		fieldImage:             image,
		fieldCallback:          callback,
		fieldTasks:             "[]",
		fieldTaskCountTotal:    0,
		fieldTaskCountStarted:  0,
		fieldTaskCountComplete: 0,
	}

	if err := s.rdb.HSet(ctx, jobKey(id), initial).Err(); err != nil {
		return swarmerr.NewStoreError("failed to write new job to redis", err)
	}

	log.Printf("[Store] added job %s", id)
	return nil
}

// AddTasks replaces the tasks field with the serialized initial-state list
// and resets the task counters. Fails if the job does not exist.
func (s *RedisStore) AddTasks(ctx context.Context, id string, tasks []model.TaskSubmission) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.exists(ctx, id)
	if err != nil {
		return swarmerr.NewStoreError("failed to check job existence", err)
	}
	if !ok {
		return swarmerr.NewNotFoundError("job %s does not exist", id)
	}

	initialTasks := submissionsToInitialTasks(tasks)
	raw, err := tasksToJSON(initialTasks)
	if err != nil {
		return swarmerr.NewStoreError("failed to serialize tasks", err)
	}

	update := map[string]interface{}{
		fieldTasks:             raw,
		fieldTaskCountTotal:    len(tasks),
		fieldTaskCountStarted:  0,
		fieldTaskCountComplete: 0,
	}

	if err := s.rdb.HSet(ctx, jobKey(id), update).Err(); err != nil {
		return swarmerr.NewStoreError("failed to write tasks to redis", err)
	}

	log.Printf("[Store] added %d tasks to job %s", len(tasks), id)
	return nil
}

// readTasks fetches and decodes the tasks field for a job, failing with
// NotFoundError if the job (or its tasks field) is absent. Caller must
// hold the job's lock.
func (s *RedisStore) readTasks(ctx context.Context, id string) ([]model.Task, error) {
	exists, err := s.rdb.HExists(ctx, jobKey(id), fieldTasks).Result()
	if err != nil {
		return nil, swarmerr.NewStoreError("failed to check tasks field", err)
	}
	if !exists {
		return nil, swarmerr.NewNotFoundError("job %s has no tasks (or does not exist)", id)
	}

	raw, err := s.rdb.HGet(ctx, jobKey(id), fieldTasks).Result()
	if err != nil {
		return nil, swarmerr.NewStoreError("failed to read tasks from redis", err)
	}

	tasks, err := tasksFromJSON(raw)
	if err != nil {
		return nil, swarmerr.NewStoreError("failed to deserialize tasks", err)
	}
	return tasks, nil
}

func (s *RedisStore) writeTasks(ctx context.Context, id string, tasks []model.Task) error {
	raw, err := tasksToJSON(tasks)
	if err != nil {
		return swarmerr.NewStoreError("failed to serialize tasks", err)
	}
	if err := s.rdb.HSet(ctx, jobKey(id), fieldTasks, raw).Err(); err != nil {
		return swarmerr.NewStoreError("failed to write tasks to redis", err)
	}
	return nil
}

// UpdateStatus updates the status of the named task.
func (s *RedisStore) UpdateStatus(ctx context.Context, id, taskName string, status int) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	tasks, err := s.readTasks(ctx, id)
	if err != nil {
		return err
	}

	idx := taskIndex(tasks, taskName)
	if idx < 0 {
		return swarmerr.NewNotFoundError("task %s not found in job %s", taskName, id)
	}
	tasks[idx].Status = status

	log.Printf("[Store] updating status of task %s for job %s to %d", taskName, id, status)
	return s.writeTasks(ctx, id, tasks)
}

// UpdateResult updates the captured output of the named task.
func (s *RedisStore) UpdateResult(ctx context.Context, id, taskName string, result model.TaskResult) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	tasks, err := s.readTasks(ctx, id)
	if err != nil {
		return err
	}

	idx := taskIndex(tasks, taskName)
	if idx < 0 {
		return swarmerr.NewNotFoundError("task %s not found in job %s", taskName, id)
	}
	tasks[idx].Result = result

	log.Printf("[Store] updating result of task %s for job %s", taskName, id)
	return s.writeTasks(ctx, id, tasks)
}

// SetTaskID records the backend service id assigned to the named task.
func (s *RedisStore) SetTaskID(ctx context.Context, id, taskName, serviceID string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	tasks, err := s.readTasks(ctx, id)
	if err != nil {
		return err
	}

	idx := taskIndex(tasks, taskName)
	if idx < 0 {
		return swarmerr.NewNotFoundError("task %s not found in job %s", taskName, id)
	}
	tasks[idx].ServiceID = serviceID

	log.Printf("[Store] setting service id %s for task %s in job %s", serviceID, taskName, id)
	return s.writeTasks(ctx, id, tasks)
}

// GetJob returns the whole job record with tasks deserialized.
func (s *RedisStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	hash, err := s.rdb.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, swarmerr.NewStoreError("failed to read job from redis", err)
	}
	if len(hash) == 0 {
		return nil, swarmerr.NewNotFoundError("job %s not found", id)
	}

	job, err := hashToJob(id, hash)
	if err != nil {
		return nil, swarmerr.NewStoreError("failed to decode job", err)
	}
	return job, nil
}

// GetTasks returns the deserialized task list for a job.
func (s *RedisStore) GetTasks(ctx context.Context, id string) ([]model.Task, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return s.readTasks(ctx, id)
}

// GetTask returns a single task by name.
func (s *RedisStore) GetTask(ctx context.Context, id, taskName string) (*model.Task, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	tasks, err := s.readTasks(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := taskIndex(tasks, taskName)
	if idx < 0 {
		return nil, swarmerr.NewNotFoundError("task %s not found in job %s", taskName, id)
	}
	return &tasks[idx], nil
}

// ModifyTaskCount hash-increments one of the three counter fields.
func (s *RedisStore) ModifyTaskCount(ctx context.Context, id, counterName string, delta int) (int64, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	n, err := s.rdb.HIncrBy(ctx, jobKey(id), counterName, int64(delta)).Result()
	if err != nil {
		return 0, swarmerr.NewStoreError("failed to increment "+counterName, err)
	}
	return n, nil
}

// ClearJob deletes the whole job hash.
func (s *RedisStore) ClearJob(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.exists(ctx, id)
	if err != nil {
		return swarmerr.NewStoreError("failed to check job existence", err)
	}
	if !ok {
		return swarmerr.NewNotFoundError("job %s does not exist", id)
	}

	if err := s.rdb.Del(ctx, jobKey(id)).Err(); err != nil {
		return swarmerr.NewStoreError("failed to delete job", err)
	}

	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()

	log.Printf("[Store] cleared job %s", id)
	return nil
}
