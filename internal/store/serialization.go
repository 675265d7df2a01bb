package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stevepentland/swarmer/internal/model"
)

// Serialization helpers for converting between the Job/Task model and the
// Redis hash layout described in spec §3 invariant 6 and §6: the outer
// hash shape stays stable (`__image`, `__callback`, the three counters)
// while `tasks` carries the mutable sub-records as one JSON string field.
// Mirrors pkg/blackboard's ArtefactToHash/HashToArtefact pattern of
// JSON-encoding array/struct fields into single hash values.

const (
	fieldImage    = "__image"
	fieldCallback = "__callback"
	fieldTasks    = "tasks"

	// FieldTaskCountTotal, FieldTaskCountStarted and FieldTaskCountComplete
	// are the counterName values ModifyTaskCount accepts; exported so
	// callers outside the package (the scheduler) don't hardcode the wire
	// field names.
	FieldTaskCountTotal    = "__task_count_total"
	FieldTaskCountStarted  = "__task_count_started"
	FieldTaskCountComplete = "__task_count_complete"

	fieldTaskCountTotal    = FieldTaskCountTotal
	fieldTaskCountStarted  = FieldTaskCountStarted
	fieldTaskCountComplete = FieldTaskCountComplete
)

func tasksToJSON(tasks []model.Task) (string, error) {
	b, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return string(b), nil
}

func tasksFromJSON(raw string) ([]model.Task, error) {
	var tasks []model.Task
	if raw == "" {
		return []model.Task{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}
	return tasks, nil
}

func submissionsToInitialTasks(tasks []model.TaskSubmission) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = model.NewTask(t.Name, t.Args)
	}
	return out
}

// hashToJob decodes a raw Redis hash (string->string) into a Job, with
// tasks left as the deserialized slice.
func hashToJob(id string, hash map[string]string) (*model.Job, error) {
	tasks, err := tasksFromJSON(hash[fieldTasks])
	if err != nil {
		return nil, err
	}

	job := &model.Job{
		ID:          id,
		Image:       hash[fieldImage],
		CallbackURL: hash[fieldCallback],
		Tasks:       tasks,
	}

	job.TaskCountTotal, _ = strconv.Atoi(hash[fieldTaskCountTotal])
	job.TaskCountStarted, _ = strconv.Atoi(hash[fieldTaskCountStarted])
	job.TaskCountComplete, _ = strconv.Atoi(hash[fieldTaskCountComplete])

	return job, nil
}

func taskIndex(tasks []model.Task, name string) int {
	for i := range tasks {
		if tasks[i].Name == name {
			return i
		}
	}
	return -1
}
