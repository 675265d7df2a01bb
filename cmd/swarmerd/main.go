// Command swarmerd is the job scheduling and lifecycle daemon: it
// serves the HTTP API, runs the Scheduler's background sweepers, and
// dispatches tasks to Docker Swarm.
//
// Grounded on cmd/orchestrator/main.go's bootstrap sequence: load
// environment, validate collaborator connectivity, wire components,
// install signal-driven graceful shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stevepentland/swarmer/internal/api"
	"github.com/stevepentland/swarmer/internal/auth"
	"github.com/stevepentland/swarmer/internal/auth/basic"
	"github.com/stevepentland/swarmer/internal/auth/ecr"
	"github.com/stevepentland/swarmer/internal/backend"
	"github.com/stevepentland/swarmer/internal/callback"
	"github.com/stevepentland/swarmer/internal/config"
	dockerpkg "github.com/stevepentland/swarmer/internal/docker"
	"github.com/stevepentland/swarmer/internal/runner"
	"github.com/stevepentland/swarmer/internal/scheduler"
	"github.com/stevepentland/swarmer/internal/store"
)

// QueueCapacity is the running-set upper bound (spec.md's queue_len,
// default 12 in the original).
const QueueCapacity = 12

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.RedisTarget, cfg.RedisPort),
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis not accessible: %w", err)
	}

	dockerClient, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("docker not accessible: %w", err)
	}
	defer dockerClient.Close()

	broker, err := buildAuthBroker(ctx)
	if err != nil {
		return fmt.Errorf("failed to build auth broker: %w", err)
	}

	st := store.NewRedisStore(rdb)
	poster := callback.New()
	backendClient := backend.New(dockerClient, cfg.RunnerNetwork, cfg.CallbackBase(), broker)

	sched := scheduler.New(st, QueueCapacity, poster)
	run := runner.New(sched, backendClient)
	sched.SetSignal(run)

	server, err := api.NewServer(run, rdb, cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to build HTTP server: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(runCtx)
	run.Start(runCtx)
	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	fmt.Printf("received signal %v, shutting down gracefully...\n", sig)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildAuthBroker(ctx context.Context) (*auth.Broker, error) {
	var providers []auth.Provider

	if p, err := basic.FromEnv(); err != nil {
		return nil, err
	} else if p != nil {
		providers = append(providers, p)
	}

	if p, err := ecr.FromEnv(ctx); err != nil {
		return nil, err
	} else if p != nil {
		providers = append(providers, p)
	}

	return auth.NewBroker(providers...), nil
}
