// Package api is the HTTP surface: request routing, JSON Schema
// validation and status-code mapping sit here so the Runner and
// Scheduler stay transport-agnostic.
//
// Grounded on internal/orchestrator/health.go's http.Server wiring
// style, generalized from a bare ServeMux to gorilla/mux for the
// path-parameter routes /submit, /status/{job_id} and
// /result/{job_id} need.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stevepentland/swarmer/internal/model"
)

// JobRunner is the capability surface the API needs from the Runner.
type JobRunner interface {
	CreateNewJob(ctx context.Context, image, callback string, tasks []model.TaskSubmission) (string, error)
	CompleteTask(ctx context.Context, jobID, taskName string, status int, result model.TaskResult) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
}

// Server is the HTTP front end: routing, schema validation, and
// dispatch into the Runner.
type Server struct {
	runner  JobRunner
	schemas *schemas
	rdb     *redis.Client
	server  *http.Server
}

// NewServer builds a Server listening on addr. rdb is optional and used
// only by the supplemented /healthz endpoint's connectivity check.
func NewServer(runner JobRunner, rdb *redis.Client, addr string) (*Server, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{runner: runner, schemas: schemas, rdb: rdb}

	router := mux.NewRouter()
	router.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	router.HandleFunc("/status/{job_id}", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/result/{job_id}", s.handleResult).Methods(http.MethodPost)
	router.HandleFunc("/test", s.handleTest).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start begins serving in the background. Errors other than a clean
// shutdown are logged, matching internal/orchestrator/health.go's
// fire-and-forget goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[API] server error: %v", err)
		}
	}()
	log.Printf("[API] listening on %s", s.server.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := jsonEncode(w, v); err != nil {
			log.Printf("[API] failed to encode response: %v", err)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeJSON(w, status, map[string]string{"error": msg})
}

func mustParam(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
