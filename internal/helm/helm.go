// Package helm wraps the helm CLI for release inspection and removal.
package helm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dfir-lab/labctl/internal/execx"
)

// Client runs helm commands, optionally pinned to a kubeconfig.
type Client struct {
	Kubeconfig string

	runner execx.Runner
	stdout io.Writer
	stderr io.Writer
}

// NewClient constructs a helm wrapper.
func NewClient(kubeconfig string, runner execx.Runner, stdout, stderr io.Writer) *Client {
	if runner == nil {
		runner = execx.NewLocal()
	}
	return &Client{Kubeconfig: kubeconfig, runner: runner, stdout: stdout, stderr: stderr}
}

// Release mirrors the fields of `helm list -o json` entries.
type Release struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Revision   string `json:"revision"`
	Status     string `json:"status"`
	Chart      string `json:"chart"`
	AppVersion string `json:"app_version"`
}

func (c *Client) command(args ...string) execx.Command {
	cmd := execx.Command{
		Name:   "helm",
		Args:   args,
		Stdout: c.stdout,
		Stderr: c.stderr,
	}
	if c.Kubeconfig != "" {
		cmd.Env = append(cmd.Env, "KUBECONFIG="+c.Kubeconfig)
	}
	return cmd
}

// List returns the releases installed in the namespace.
func (c *Client) List(ctx context.Context, namespace string) ([]Release, error) {
	out, err := c.runner.Output(ctx, c.command("list", "-n", namespace, "-o", "json"))
	if err != nil {
		return nil, fmt.Errorf("helm list: %w", err)
	}

	var releases []Release
	if err := json.Unmarshal(out, &releases); err != nil {
		return nil, fmt.Errorf("decode helm list output: %w", err)
	}
	return releases, nil
}

// Find returns the named release from the namespace, or nil when absent.
func (c *Client) Find(ctx context.Context, namespace, name string) (*Release, error) {
	releases, err := c.List(ctx, namespace)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].Name == name {
			return &releases[i], nil
		}
	}
	return nil, nil
}

// Uninstall removes a release; absent releases are not an error.
func (c *Client) Uninstall(ctx context.Context, namespace, name string) error {
	args := []string{"uninstall", name, "-n", namespace, "--ignore-not-found"}
	if err := c.runner.Run(ctx, c.command(args...)); err != nil {
		return fmt.Errorf("helm uninstall %s: %w", name, err)
	}
	return nil
}
