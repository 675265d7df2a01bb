package store

import "fmt"

// Redis key pattern helpers, namespaced the way the blackboard namespaces
// its hashes by instance name (pkg/blackboard/schema.go), but swarmer has
// a single global namespace per Redis database rather than per-instance.
//
// Key pattern: swarmer:job:{job_id}

// jobKey returns the Redis key for a job's hash.
func jobKey(jobID string) string {
	return fmt.Sprintf("swarmer:job:%s", jobID)
}
