package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/dockerengine"
	"github.com/dfir-lab/labctl/internal/execx"
	"github.com/dfir-lab/labctl/internal/forward"
	"github.com/dfir-lab/labctl/internal/readiness"
	"github.com/dfir-lab/labctl/internal/ui"
)

const engineStartTimeout = 2 * time.Minute

// newDeployCommand creates the "deploy" subcommand that brings up the whole lab.
func newDeployCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the lab: engine, cluster, Terraform apply, readiness, port-forwards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			var envDefaults deployEnv
			if err := parseEnv(&envDefaults); err != nil {
				return err
			}

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			waitTimeout := lab.ReadinessTimeout()
			if v := cmd.Flag("timeout").Value.String(); cmd.Flag("timeout").Changed && v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid --timeout value %q: %w", v, err)
				}
				waitTimeout = d
			} else if envDefaults.WaitTimeout != "" {
				if d, err := time.ParseDuration(envDefaults.WaitTimeout); err == nil {
					waitTimeout = d
				}
			}

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			noForward, _ := cmd.Flags().GetBool("no-forward")
			skipEngine, _ := cmd.Flags().GetBool("skip-engine-check")
			noForward = noForward || envDefaults.NoForward
			skipEngine = skipEngine || envDefaults.SkipEngineCheck

			return runDeploy(cmd.Context(), logger, lab, deployParams{
				waitTimeout: waitTimeout,
				dryRun:      dryRun,
				noForward:   noForward,
				skipEngine:  skipEngine,
			})
		},
	}

	cmd.Flags().String("timeout", "", "Readiness poll budget (e.g. 600s); overrides lab.yaml")
	cmd.Flags().Bool("dry-run", false, "Run terraform plan instead of apply and stop there")
	cmd.Flags().Bool("no-forward", false, "Skip starting port-forward jobs after deployment")
	cmd.Flags().Bool("skip-engine-check", false, "Skip the container engine liveness check")

	return cmd
}

type deployParams struct {
	waitTimeout time.Duration
	dryRun      bool
	noForward   bool
	skipEngine  bool
}

// runDeploy sequences the deployment. The early steps (engine, cluster,
// terraform) are hard failures; readiness timeout and per-service forwarding
// problems degrade to warnings so a partial lab is still reachable.
func runDeploy(ctx context.Context, logger *slog.Logger, lab *config.Lab, params deployParams) error {
	runner := execx.NewLocal()

	if !params.skipEngine {
		engine, err := dockerengine.New(runner, logger)
		if err != nil {
			return err
		}
		if err := engine.EnsureRunning(ctx, engineStartTimeout); err != nil {
			return fmt.Errorf("container engine: %w", err)
		}
	}

	mk := newMinikubeClient(lab, runner, logger)
	st, err := mk.Status(ctx)
	if err != nil {
		return err
	}
	if st.Running() {
		logger.Info("cluster already running", "profile", lab.Minikube.Profile)
	} else {
		logger.Info("starting cluster", "profile", lab.Minikube.Profile, "driver", lab.Minikube.Driver)
		if err := mk.Start(ctx, lab.Minikube); err != nil {
			return err
		}
	}

	tf := newTerraformClient(lab, runner, logger)
	logger.Info("initializing terraform", "dir", tf.Dir)
	if err := tf.Init(ctx); err != nil {
		return err
	}
	if params.dryRun {
		logger.Info("dry run: showing plan only")
		return tf.Plan(ctx)
	}
	logger.Info("applying infrastructure", "release", lab.Release, "namespace", lab.Namespace)
	if err := tf.Apply(ctx); err != nil {
		return err
	}

	kubeClient := newKubeClient(lab, runner)
	poller := &readiness.Poller{
		Pods:     kubeClient,
		Logs:     kubeClient,
		Interval: lab.ReadinessInterval(),
		Timeout:  params.waitTimeout,
		Progress: readiness.ProgressSpec{
			Selector:  lab.Readiness.ModelPull.Selector,
			Container: lab.Readiness.ModelPull.Container,
		},
		Logger: logger,
	}

	res, err := poller.Wait(ctx, lab.Namespace)
	if err != nil {
		return err
	}
	if res.TimedOut {
		// Workloads may still converge after we move on; not fatal.
		logger.Warn("readiness timeout reached, continuing anyway",
			"ready", res.Ready,
			"total", res.Total,
			"elapsed", res.Elapsed.Round(time.Second).String(),
		)
	} else {
		logger.Info("all workloads ready",
			"total", res.Total,
			"elapsed", res.Elapsed.Round(time.Second).String(),
		)
	}

	if params.noForward {
		logger.Info("port-forwarding skipped; run 'labctl forward up' when ready")
		return nil
	}

	mgr := forward.NewManager("", lab.Minikube.Profile, runner, logger)
	started := startForwards(ctx, logger, mgr, kubeClient, lab, "")
	if started == 0 {
		logger.Warn("no port-forward jobs started; services may not exist yet")
		return nil
	}

	printCredentials(ctx, logger, kubeClient, lab)

	fmt.Fprintln(os.Stdout, ui.InfoMsg("forwarding %d service(s); press Ctrl-C to stop", started))
	<-ctx.Done()
	stopped := mgr.StopAll()
	logger.Info("port-forward jobs stopped", "count", stopped)
	return nil
}

// serviceNames renders the descriptor names for help texts and messages.
func serviceNames(lab *config.Lab) string {
	names := make([]string, 0, len(lab.Services))
	for _, svc := range lab.Services {
		names = append(names, svc.Name)
	}
	return strings.Join(names, ", ")
}
