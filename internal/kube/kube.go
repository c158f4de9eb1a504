// Package kube provides low-level integration with Kubernetes via kubectl.
// Cluster state is read through kubectl's JSON output mode and decoded into
// typed k8s.io/api objects, so text scraping stays confined to log streams.
package kube

import (
	"context"
	"strings"

	"github.com/dfir-lab/labctl/internal/execx"
)

// Client wraps kubectl execution with optional kubeconfig and context selection.
type Client struct {
	Kubeconfig string
	Context    string

	runner execx.Runner
}

// NewClient constructs a new Kubernetes client wrapper.
func NewClient(kubeconfig, kubeContext string, runner execx.Runner) *Client {
	if runner == nil {
		runner = execx.NewLocal()
	}
	return &Client{
		Kubeconfig: kubeconfig,
		Context:    kubeContext,
		runner:     runner,
	}
}

func (c *Client) command(stdin []byte, args ...string) execx.Command {
	cmdArgs := make([]string, 0, len(args)+2)
	if c.Context != "" {
		cmdArgs = append(cmdArgs, "--context", c.Context)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := execx.Command{
		Name:  "kubectl",
		Args:  cmdArgs,
		Stdin: stdin,
	}
	if c.Kubeconfig != "" {
		cmd.Env = append(cmd.Env, "KUBECONFIG="+c.Kubeconfig)
	}
	return cmd
}

// RunAndCapture executes kubectl with the given args and returns captured stdout.
func (c *Client) RunAndCapture(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	return c.runner.Output(ctx, c.command(stdin, args...))
}

// CurrentContext returns the active kubeconfig context name.
func (c *Client) CurrentContext(ctx context.Context) (string, error) {
	out, err := c.RunAndCapture(ctx, nil, "config", "current-context")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
