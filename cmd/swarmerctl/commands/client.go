package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// ErrJobNotFound is returned by fetchStatus on a 404. A daemon clears a
// job's Store record once its completion sweeper observes every task
// drained (spec.md §4.4.4), so a 404 on a job watch was previously
// polling successfully means it finished, not that it never existed.
var ErrJobNotFound = errors.New("job not found")

var httpClient = &http.Client{Timeout: requestTimeout}

// submitPayload mirrors internal/api's submitRequest wire shape.
type submitPayload struct {
	ImageName   string            `json:"image_name"`
	CallbackURL string            `json:"callback_url"`
	Tasks       []submitTaskEntry `json:"tasks"`
}

type submitTaskEntry struct {
	TaskName string   `json:"task_name"`
	TaskArgs []string `json:"task_args"`
}

type submitReply struct {
	ID string `json:"id"`
}

// taskView mirrors the subset of model.Task the status endpoint returns.
type taskView struct {
	Name   string `json:"name"`
	Status int    `json:"status"`
	Result struct {
		Stdout *string `json:"stdout"`
		Stderr *string `json:"stderr"`
	} `json:"result"`
}

type jobView struct {
	ID                string     `json:"id"`
	Tasks             []taskView `json:"tasks"`
	TaskCountTotal    int        `json:"__task_count_total"`
	TaskCountStarted  int        `json:"__task_count_started"`
	TaskCountComplete int        `json:"__task_count_complete"`
}

func submitJob(payload submitPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode submit request: %w", err)
	}

	resp, err := httpClient.Post(strings.TrimRight(serverAddr, "/")+"/submit", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to reach %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("submit rejected: %s", readErrBody(resp.Body))
	}

	var reply submitReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	return reply.ID, nil
}

func fetchStatus(jobID string) (*jobView, error) {
	resp, err := httpClient.Get(strings.TrimRight(serverAddr, "/") + "/status/" + jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status request failed: %s", readErrBody(resp.Body))
	}

	var job jobView
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &job, nil
}

func readErrBody(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil || len(b) == 0 {
		return "unknown error"
	}
	return string(bytes.TrimSpace(b))
}

func jobDrained(job *jobView) bool {
	return job.TaskCountComplete >= job.TaskCountTotal
}
