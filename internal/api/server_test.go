package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stevepentland/swarmer/internal/swarmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	createID  string
	createErr error
	job       *model.Job
	getErr    error
	completed bool
	completeErr error
}

func (f *fakeRunner) CreateNewJob(_ context.Context, image, callback string, tasks []model.TaskSubmission) (string, error) {
	return f.createID, f.createErr
}

func (f *fakeRunner) CompleteTask(_ context.Context, jobID, taskName string, status int, result model.TaskResult) error {
	f.completed = true
	return f.completeErr
}

func (f *fakeRunner) GetJob(_ context.Context, id string) (*model.Job, error) {
	return f.job, f.getErr
}

func newTestServer(t *testing.T, runner JobRunner) *Server {
	t.Helper()
	s, err := NewServer(runner, nil, ":0")
	require.NoError(t, err)
	return s
}

func TestHandleSubmitCreatesJob(t *testing.T) {
	runner := &fakeRunner{createID: "job-1"}
	s := newTestServer(t, runner)

	body := `{"image_name":"img","callback_url":"http://cb","tasks":[{"task_name":"a","task_args":[]}]}`
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	s.handleSubmit(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/status/job-1", rec.Header().Get("Location"))

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.ID)
}

func TestHandleSubmitRejectsEmptyTasks(t *testing.T) {
	runner := &fakeRunner{createID: "job-1"}
	s := newTestServer(t, runner)

	body := `{"image_name":"img","callback_url":"http://cb","tasks":[]}`
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	s.handleSubmit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitRejectsMissingFields(t *testing.T) {
	runner := &fakeRunner{createID: "job-1"}
	s := newTestServer(t, runner)

	body := `{"image_name":"img"}`
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	s.handleSubmit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitPropagatesValidationError(t *testing.T) {
	runner := &fakeRunner{createErr: swarmerr.NewValidationError("bad job")}
	s := newTestServer(t, runner)

	body := `{"image_name":"img","callback_url":"http://cb","tasks":[{"task_name":"a","task_args":[]}]}`
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	s.handleSubmit(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResultAccepted(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner)

	body := `{"task_name":"a","task_status":0,"task_result":{"stdout":"hi","stderr":null}}`
	req := httptest.NewRequest(http.MethodPost, "/result/job-1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	s.handleResult(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, runner.completed)
}

func TestHandleResultNotFound(t *testing.T) {
	runner := &fakeRunner{completeErr: swarmerr.NewNotFoundError("no such job")}
	s := newTestServer(t, runner)

	body := `{"task_name":"a","task_status":0,"task_result":{"stdout":null,"stderr":null}}`
	req := httptest.NewRequest(http.MethodPost, "/result/job-1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	s.handleResult(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatusReturnsJob(t *testing.T) {
	runner := &fakeRunner{job: &model.Job{ID: "job-1", Image: "img"}}
	s := newTestServer(t, runner)

	req := httptest.NewRequest(http.MethodGet, "/status/job-1", nil)
	rec := httptest.NewRecorder()

	s.handleStatus(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleTest(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	s.handleTest(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "I am ALIVE", rec.Body.String())
}

func TestHandleHealthzUnconfiguredRedis(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.handleHealthz(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
