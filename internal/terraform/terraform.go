// Package terraform wraps the terraform CLI for the provisioning step.
// State, locking and diffing are terraform's responsibility; this layer only
// sequences init/apply/destroy and surfaces exit status.
package terraform

import (
	"context"
	"fmt"
	"io"

	"github.com/dfir-lab/labctl/internal/execx"
)

// Client runs terraform commands against a fixed root module directory.
type Client struct {
	Dir string

	runner execx.Runner
	env    []string
	stdout io.Writer
	stderr io.Writer
}

// NewClient constructs a terraform wrapper rooted at dir.
// Extra env entries (e.g. TF_VAR_*) are appended to every invocation.
func NewClient(dir string, runner execx.Runner, env []string, stdout, stderr io.Writer) *Client {
	if runner == nil {
		runner = execx.NewLocal()
	}
	return &Client{Dir: dir, runner: runner, env: env, stdout: stdout, stderr: stderr}
}

func (c *Client) command(args ...string) execx.Command {
	cmdArgs := append([]string{"-chdir=" + c.Dir}, args...)
	return execx.Command{
		Name:   "terraform",
		Args:   cmdArgs,
		Env:    c.env,
		Stdout: c.stdout,
		Stderr: c.stderr,
	}
}

// Init prepares the working directory; safe to repeat between runs.
func (c *Client) Init(ctx context.Context) error {
	if err := c.runner.Run(ctx, c.command("init", "-input=false", "-upgrade=false")); err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}
	return nil
}

// Apply provisions the declared resources without interactive approval.
func (c *Client) Apply(ctx context.Context) error {
	if err := c.runner.Run(ctx, c.command("apply", "-input=false", "-auto-approve")); err != nil {
		return fmt.Errorf("terraform apply: %w", err)
	}
	return nil
}

// Plan shows pending changes without applying them.
func (c *Client) Plan(ctx context.Context) error {
	if err := c.runner.Run(ctx, c.command("plan", "-input=false")); err != nil {
		return fmt.Errorf("terraform plan: %w", err)
	}
	return nil
}

// Destroy removes the declared resources without interactive approval.
func (c *Client) Destroy(ctx context.Context) error {
	if err := c.runner.Run(ctx, c.command("destroy", "-input=false", "-auto-approve")); err != nil {
		return fmt.Errorf("terraform destroy: %w", err)
	}
	return nil
}
