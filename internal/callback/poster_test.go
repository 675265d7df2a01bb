package callback

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stevepentland/swarmer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostDeliversEachJob(t *testing.T) {
	var mu sync.Mutex
	var received []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var job model.Job
		require.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		mu.Lock()
		received = append(received, job.ID)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New()
	jobs := []*model.Job{
		{ID: "job-1", CallbackURL: srv.URL},
		{ID: "job-2", CallbackURL: srv.URL},
	}
	p.Post(t.Context(), jobs)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, received)
}

func TestPostToleratesOneFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New()
	assert.NotPanics(t, func() {
		p.Post(t.Context(), []*model.Job{{ID: "job-1", CallbackURL: srv.URL}})
	})
}

func TestPostSkipsNilJobs(t *testing.T) {
	p := New()
	assert.NotPanics(t, func() {
		p.Post(t.Context(), []*model.Job{nil})
	})
}
