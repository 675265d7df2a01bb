package docker

import "fmt"

// Label keys attached to every task service swarmer creates, so an
// operator can filter `docker service ls` by job or task without
// parsing the generated service name.
const (
	LabelProject = "swarmer.project"
	LabelJob     = "swarmer.job"
	LabelTask    = "swarmer.task"
)

// BuildLabels returns the standard label set for a task service.
func BuildLabels(jobID, taskName string) map[string]string {
	return map[string]string{
		LabelProject: "true",
		LabelJob:     jobID,
		LabelTask:    taskName,
	}
}

// ServiceName returns the Swarm service name for one task, the
// "{job_id}-{task_name}" convention spec.md §4.2 and §6 require.
func ServiceName(jobID, taskName string) string {
	return fmt.Sprintf("%s-%s", jobID, taskName)
}
