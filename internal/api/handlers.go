package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stevepentland/swarmer/internal/swarmerr"
)

// decodeAndValidate reads the request body once, validates it against
// schema, and unmarshals it into dst. Mirrors api/schema.py's
// validate-then-deserialize sequence.
func decodeAndValidate(r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return swarmerr.NewValidationError("failed to read request body: %v", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return swarmerr.NewValidationError("malformed JSON body: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return swarmerr.NewValidationError("request failed schema validation: %v", err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return swarmerr.NewValidationError("failed to decode request body: %v", err)
	}
	return nil
}

// handleSubmit implements POST /submit: creates a job and dispatches up
// to capacity.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeAndValidate(r, s.schemas.submit, &req); err != nil {
		writeError(w, err)
		return
	}

	tasks := make([]model.TaskSubmission, len(req.Tasks))
	for i, t := range req.Tasks {
		tasks[i] = model.TaskSubmission{Name: t.TaskName, Args: t.TaskArgs}
	}

	id, err := s.runner.CreateNewJob(r.Context(), req.ImageName, req.CallbackURL, tasks)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/status/%s", id))
	writeJSON(w, http.StatusCreated, submitResponse{ID: id})
}

// handleStatus implements GET /status/{job_id}: returns the job record
// with tasks as a deserialized array.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mustParam(r, "job_id")

	job, err := s.runner.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleResult implements POST /result/{job_id}: records a task's
// completion and lets the Runner decide whether to dispatch more work.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	jobID := mustParam(r, "job_id")

	var req resultRequest
	if err := decodeAndValidate(r, s.schemas.result, &req); err != nil {
		writeError(w, err)
		return
	}

	result := model.TaskResult{Stdout: req.TaskResult.Stdout, Stderr: req.TaskResult.Stderr}
	if err := s.runner.CompleteTask(r.Context(), jobID, req.TaskName, req.TaskStatus, result); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleTest implements GET /test, a plain liveness probe returning the
// literal text the original's TestingEndpoint resource served.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("I am ALIVE"))
}

// handleHealthz is a supplemented endpoint reporting Store connectivity,
// grounded on internal/orchestrator/health.go's HealthResponse shape.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := struct {
		Status string `json:"status"`
		Redis  string `json:"redis,omitempty"`
		Error  string `json:"error,omitempty"`
	}{Status: "healthy"}

	if s.rdb == nil {
		resp.Redis = "unconfigured"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		resp.Status = "unhealthy"
		resp.Redis = "disconnected"
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Redis = "connected"
	writeJSON(w, http.StatusOK, resp)
}
