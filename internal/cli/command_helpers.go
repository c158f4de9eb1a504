package cli

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/execx"
	"github.com/dfir-lab/labctl/internal/kube"
	"github.com/dfir-lab/labctl/internal/logging"
	"github.com/dfir-lab/labctl/internal/minikube"
	"github.com/dfir-lab/labctl/internal/terraform"
)

// newGroupCommand builds a cobra.Command that groups subcommands.
func newGroupCommand(use, short string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	if len(subcommands) > 0 {
		cmd.AddCommand(subcommands...)
	}
	return cmd
}

// loadLab loads the lab configuration with global overrides applied.
func loadLab(opts *Options) (*config.Lab, error) {
	return config.Load(opts.ConfigPath, config.LoadOptions{
		Namespace: opts.Namespace,
		Release:   opts.Release,
	})
}

// newKubeClient builds a kubectl wrapper pinned to the lab's cluster context.
// Minikube names the kubeconfig context after the profile.
func newKubeClient(lab *config.Lab, runner execx.Runner) *kube.Client {
	return kube.NewClient("", lab.Minikube.Profile, runner)
}

// newMinikubeClient builds a minikube wrapper streaming output through slog.
func newMinikubeClient(lab *config.Lab, runner execx.Runner, logger *slog.Logger) *minikube.Client {
	w := logging.NewWriter(logger, "minikube")
	return minikube.NewClient(lab.Minikube.Profile, runner, w, w)
}

// newTerraformClient builds a terraform wrapper rooted at the lab's module dir.
func newTerraformClient(lab *config.Lab, runner execx.Runner, logger *slog.Logger) *terraform.Client {
	dir := lab.Terraform.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(lab.BaseDir, dir)
	}
	w := logging.NewWriter(logger, "terraform")
	return terraform.NewClient(dir, runner, lab.Env.Environ(), w, w)
}
