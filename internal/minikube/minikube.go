// Package minikube wraps the minikube CLI for cluster lifecycle operations.
package minikube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/execx"
)

// Client runs minikube commands against a named profile.
type Client struct {
	Profile string

	runner execx.Runner
	stdout io.Writer
	stderr io.Writer
}

// NewClient constructs a minikube wrapper for the given profile.
// Output writers may be nil; streaming then goes to the process streams.
func NewClient(profile string, runner execx.Runner, stdout, stderr io.Writer) *Client {
	if runner == nil {
		runner = execx.NewLocal()
	}
	return &Client{Profile: profile, runner: runner, stdout: stdout, stderr: stderr}
}

// Status mirrors the fields of `minikube status -o json`.
type Status struct {
	Name       string `json:"Name"`
	Host       string `json:"Host"`
	Kubelet    string `json:"Kubelet"`
	APIServer  string `json:"APIServer"`
	Kubeconfig string `json:"Kubeconfig"`
}

// Running reports whether the cluster components are up and configured.
func (s Status) Running() bool {
	return s.Host == "Running" && s.Kubelet == "Running" && s.APIServer == "Running"
}

func (c *Client) command(args ...string) execx.Command {
	cmdArgs := append([]string{"-p", c.Profile}, args...)
	return execx.Command{
		Name:   "minikube",
		Args:   cmdArgs,
		Stdout: c.stdout,
		Stderr: c.stderr,
	}
}

// Status queries the cluster state via minikube's JSON output mode.
// A non-existent profile is reported as a zero Status, not an error; minikube
// exits non-zero for stopped and missing clusters alike. A missing binary or
// unparseable output on a clean exit is still an error.
func (c *Client) Status(ctx context.Context) (Status, error) {
	out, err := c.runner.Output(ctx, c.command("status", "-o", "json"))

	var st Status
	if err == nil {
		if jerr := json.Unmarshal(out, &st); jerr != nil {
			return Status{}, fmt.Errorf("decode minikube status: %w", jerr)
		}
		return st, nil
	}

	if len(out) > 0 {
		if jerr := json.Unmarshal(out, &st); jerr == nil {
			return st, nil
		}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return Status{}, err
	}
	return Status{}, nil
}

// Start creates or resumes the cluster with the configured resources.
func (c *Client) Start(ctx context.Context, cfg config.MinikubeConfig) error {
	args := []string{"start", "--driver", cfg.Driver}
	if cfg.CPUs > 0 {
		args = append(args, "--cpus", strconv.Itoa(cfg.CPUs))
	}
	if cfg.Memory != "" {
		args = append(args, "--memory", cfg.Memory)
	}
	if cfg.DiskSize != "" {
		args = append(args, "--disk-size", cfg.DiskSize)
	}
	for _, addon := range cfg.Addons {
		args = append(args, "--addons", addon)
	}
	if err := c.runner.Run(ctx, c.command(args...)); err != nil {
		return fmt.Errorf("minikube start: %w", err)
	}
	return nil
}

// Stop halts the cluster without deleting it.
func (c *Client) Stop(ctx context.Context) error {
	if err := c.runner.Run(ctx, c.command("stop")); err != nil {
		return fmt.Errorf("minikube stop: %w", err)
	}
	return nil
}

// Delete removes the cluster and its profile.
func (c *Client) Delete(ctx context.Context) error {
	if err := c.runner.Run(ctx, c.command("delete")); err != nil {
		return fmt.Errorf("minikube delete: %w", err)
	}
	return nil
}
