// Package dockerengine checks and nudges the local container engine that
// backs the minikube docker driver.
package dockerengine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/dfir-lab/labctl/internal/execx"
)

// Engine probes the local Docker daemon over its API socket.
type Engine struct {
	api    client.APIClient
	runner execx.Runner
	logger *slog.Logger
}

// New constructs an Engine using environment-configured connection settings.
func New(runner execx.Runner, logger *slog.Logger) (*Engine, error) {
	api, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if runner == nil {
		runner = execx.NewLocal()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{api: api, runner: runner, logger: logger}, nil
}

// NewWithClient constructs an Engine around an existing API client.
func NewWithClient(api client.APIClient, runner execx.Runner, logger *slog.Logger) *Engine {
	if runner == nil {
		runner = execx.NewLocal()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{api: api, runner: runner, logger: logger}
}

// Ping reports whether the daemon answers on its API socket.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.api.Ping(ctx); err != nil {
		return fmt.Errorf("docker engine not responding: %w", err)
	}
	return nil
}

// EnsureRunning pings the daemon and, when it is down, attempts a best-effort
// platform launch, then re-polls until the deadline.
func (e *Engine) EnsureRunning(ctx context.Context, timeout time.Duration) error {
	if err := e.Ping(ctx); err == nil {
		return nil
	}

	e.logger.Info("container engine not running, attempting to start it")
	if err := e.launch(ctx); err != nil {
		e.logger.Warn("could not launch container engine", "error", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := e.Ping(ctx); err == nil {
			e.logger.Info("container engine is up")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("container engine did not become ready within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
}

// launch starts the engine the way the host platform expects.
func (e *Engine) launch(ctx context.Context) error {
	switch runtime.GOOS {
	case "darwin":
		return e.runner.Run(ctx, execx.Command{Name: "open", Args: []string{"-a", "Docker"}})
	case "linux":
		return e.runner.Run(ctx, execx.Command{Name: "systemctl", Args: []string{"start", "docker"}})
	default:
		return fmt.Errorf("no engine launch strategy for %s; start it manually", runtime.GOOS)
	}
}
