package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/execx"
	"github.com/dfir-lab/labctl/internal/helm"
	"github.com/dfir-lab/labctl/internal/logging"
)

// newTeardownCommand creates the "teardown" subcommand that removes the lab.
func newTeardownCommand(opts *Options) *cobra.Command {
	var force, all bool
	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Destroy lab resources (terraform destroy, helm uninstall, optionally the cluster)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			ctx := cmd.Context()

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			if !force {
				target := "release " + lab.Release
				if all {
					target += " and cluster " + lab.Minikube.Profile
				}
				if !confirm(fmt.Sprintf("Tear down %s? [y/N]: ", target)) {
					logger.Info("teardown cancelled")
					return nil
				}
			}

			runner := execx.NewLocal()

			tf := newTerraformClient(lab, runner, logger)
			if err := tf.Destroy(ctx); err != nil {
				// Terraform state may be gone already; helm is the fallback.
				logger.Warn("terraform destroy failed, falling back to helm uninstall", "error", err)
				w := logging.NewWriter(logger, "helm")
				helmClient := helm.NewClient("", runner, w, w)
				if err := helmClient.Uninstall(ctx, lab.Namespace, lab.Release); err != nil {
					logger.Warn("helm uninstall failed", "error", err)
				}
			}

			if all {
				mk := newMinikubeClient(lab, runner, logger)
				logger.Info("deleting cluster", "profile", lab.Minikube.Profile)
				if err := mk.Delete(ctx); err != nil {
					return err
				}
			}

			logger.Info("teardown complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Do not prompt for confirmation")
	cmd.Flags().BoolVar(&all, "all", false, "Also delete the minikube cluster")
	return cmd
}

// confirm reads a yes/no answer from stdin.
func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
