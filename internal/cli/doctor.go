package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/dockerengine"
	"github.com/dfir-lab/labctl/internal/execx"
)

// requiredTools are the external binaries the deploy sequence shells out to.
var requiredTools = []string{"docker", "minikube", "kubectl", "terraform", "helm"}

// newDoctorCommand creates the "doctor" subcommand that runs environment preflight checks.
func newDoctorCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment preflight checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if err := runDoctorChecks(ctx, logger, lab, execx.NewLocal()); err != nil {
				return err
			}

			logger.Info("doctor checks completed successfully")
			return nil
		},
	}
	return cmd
}

func runDoctorChecks(ctx context.Context, logger *slog.Logger, lab *config.Lab, runner execx.Runner) error {
	var fatalErrs []error

	for _, tool := range requiredTools {
		if err := runner.LookPath(tool); err != nil {
			logger.Error("required tool missing", "tool", tool, "error", err)
			fatalErrs = append(fatalErrs, err)
		} else {
			logger.Info("tool present", "tool", tool)
		}
	}

	if engine, err := dockerengine.New(runner, logger); err != nil {
		logger.Error("docker client setup failed", "error", err)
		fatalErrs = append(fatalErrs, err)
	} else if err := engine.Ping(ctx); err != nil {
		logger.Error("container engine check failed", "error", err)
		fatalErrs = append(fatalErrs, err)
	} else {
		logger.Info("container engine ok")
	}

	kubeClient := newKubeClient(lab, runner)
	if current, err := kubeClient.CurrentContext(ctx); err != nil {
		// Not fatal: the cluster may simply not exist yet.
		logger.Warn("no kubeconfig context yet; deploy will create the cluster", "error", err)
	} else {
		logger.Info("kubeconfig context present", "context", current)
	}

	if len(fatalErrs) > 0 {
		return fmt.Errorf("doctor found %d fatal issue(s); see log for details", len(fatalErrs))
	}
	return nil
}
