// Package callback delivers aggregated job results to user-supplied
// callback URLs.
//
// Grounded on jobs/queue.py's module-level _send_job_results: one POST
// per record, no retry, no ordering guarantee between records, logged
// and swallowed on failure.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/stevepentland/swarmer/internal/model"
)

// DefaultTimeout bounds a single callback POST.
const DefaultTimeout = 10 * time.Second

// Poster issues the completion POST for finished jobs.
type Poster struct {
	client *http.Client
}

// New builds a Poster with a bounded http.Client, the way
// internal/docker.NewClient validates its collaborator up front rather
// than relying on http.DefaultClient's unbounded timeout.
func New() *Poster {
	return &Poster{client: &http.Client{Timeout: DefaultTimeout}}
}

// Post delivers each job record as a JSON POST to its CallbackURL. No
// retry and no ordering guarantee between records; a failed delivery
// is logged and the job is still considered delivered, matching
// spec §4.4.6's acknowledged limitation.
func (p *Poster) Post(ctx context.Context, jobs []*model.Job) {
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := p.postOne(ctx, job); err != nil {
			log.Printf("[CallbackPoster] delivery to %s for job %s failed: %v", job.CallbackURL, job.ID, err)
		}
	}
}

func (p *Poster) postOne(ctx context.Context, job *model.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback POST failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("callback POST returned status %d", resp.StatusCode)
	}
	return nil
}
