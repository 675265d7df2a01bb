// Package backend implements the container-orchestration backend client:
// one-shot Docker Swarm services that execute a single task and exit.
//
// Grounded on jobs/runner.py's RestartPolicy(condition='none') +
// services.create(...) call, and on internal/orchestrator/workers.go's
// style for wrapping the Docker client (constructor injection, labels
// built by a helper, errors wrapped with %w, "[Component] message"
// logging).
package backend

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/client"
	"github.com/stevepentland/swarmer/internal/auth"
	dockerpkg "github.com/stevepentland/swarmer/internal/docker"
)

const (
	// EnvSwarmerAddress is the callback URL a task container posts its
	// result to on completion.
	EnvSwarmerAddress = "SWARMER_ADDRESS"
	// EnvTaskName carries the task's name into the container.
	EnvTaskName = "TASK_NAME"
	// EnvJobID carries the owning job's id into the container.
	EnvJobID = "SWARMER_JOB_ID"
	// EnvRunArgs carries the task's comma-joined arguments, omitted when
	// the task has none.
	EnvRunArgs = "RUN_ARGS"
)

// DockerBackend is the BackendClient implementation: it dispatches one
// task per Swarm service and removes services once drained.
type DockerBackend struct {
	cli         *client.Client
	network     string
	callbackURL string // base URL tasks use to report results, e.g. http://swarmer:8080
	broker      *auth.Broker
}

// New builds a DockerBackend. callbackBase is the scheme://host:port
// prefix tasks use to reach the daemon's /result/{job_id} endpoint;
// network is the overlay network every task service attaches to.
func New(cli *client.Client, network, callbackBase string, broker *auth.Broker) *DockerBackend {
	return &DockerBackend{cli: cli, network: network, callbackURL: callbackBase, broker: broker}
}

// StartTask creates a one-shot Swarm service running image, with the
// container environment the task binary expects to find its callback
// address and arguments under. Returns the created service's id.
func (b *DockerBackend) StartTask(ctx context.Context, jobID, image, taskName string, args []string) (string, error) {
	b.authenticateIfNeeded(ctx, image)

	env := []string{
		fmt.Sprintf("%s=%s", EnvSwarmerAddress, b.resultURL(jobID)),
		fmt.Sprintf("%s=%s", EnvTaskName, taskName),
		fmt.Sprintf("%s=%s", EnvJobID, jobID),
	}
	if len(args) > 0 {
		env = append(env, fmt.Sprintf("%s=%s", EnvRunArgs, strings.Join(args, ",")))
	}

	spec := swarm.ServiceSpec{
		Annotations: swarm.Annotations{
			Name:   dockerpkg.ServiceName(jobID, taskName),
			Labels: dockerpkg.BuildLabels(jobID, taskName),
		},
		TaskTemplate: swarm.TaskSpec{
			ContainerSpec: &swarm.ContainerSpec{
				Image: image,
				Env:   env,
			},
			RestartPolicy: &swarm.RestartPolicy{
				Condition: swarm.RestartPolicyConditionNone,
			},
			Networks: []swarm.NetworkAttachmentConfig{
				{Target: b.network},
			},
		},
	}

	resp, err := b.cli.ServiceCreate(ctx, spec, types.ServiceCreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create service for %s/%s: %w", jobID, taskName, err)
	}

	log.Printf("[Backend] started service %s for job=%s task=%s", resp.ID, jobID, taskName)
	return resp.ID, nil
}

// RemoveServices removes a batch of services, swallowing not-found
// errors so a caller can safely pass ids that have already drained.
func (b *DockerBackend) RemoveServices(ctx context.Context, serviceIDs []string) error {
	var firstErr error
	for _, id := range serviceIDs {
		if id == "" {
			continue
		}
		if err := b.cli.ServiceRemove(ctx, id); err != nil {
			if client.IsErrNotFound(err) {
				continue
			}
			log.Printf("[Backend] failed to remove service %s: %v", id, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove service %s: %w", id, err)
			}
		}
	}
	return firstErr
}

// authenticateIfNeeded performs any pending registry logins before a
// create call, per the broker's any-require-login contract. A login
// failure is logged by the broker itself and does not block dispatch;
// the subsequent create call will simply fail against a private image.
func (b *DockerBackend) authenticateIfNeeded(ctx context.Context, _ string) {
	if b.broker == nil || !b.broker.AnyRequireLogin() {
		return
	}
	b.broker.PerformLogins(ctx, func(ctx context.Context, user, password, registry string) error {
		_, err := b.cli.RegistryLogin(ctx, types.AuthConfig{
			Username:      user,
			Password:      password,
			ServerAddress: registry,
		})
		return err
	})
}

func (b *DockerBackend) resultURL(jobID string) string {
	base := strings.TrimRight(b.callbackURL, "/")
	return fmt.Sprintf("%s/result/%s", base, url.PathEscape(jobID))
}
