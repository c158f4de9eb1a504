package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/execx"
	"github.com/dfir-lab/labctl/internal/forward"
	"github.com/dfir-lab/labctl/internal/kube"
	"github.com/dfir-lab/labctl/internal/ui"
)

const probeTimeout = 500 * time.Millisecond

// newForwardCommand creates the "forward" group for port-forward job management.
func newForwardCommand(opts *Options) *cobra.Command {
	return newGroupCommand(
		"forward",
		"Manage local port-forward jobs to lab services",
		newForwardUpCommand(opts),
		newForwardStatusCommand(opts),
	)
}

// newForwardUpCommand creates "forward up", which holds forwards open in the foreground.
func newForwardUpCommand(opts *Options) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start port-forward jobs and keep them open until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}
			if only != "" {
				if _, ok := lab.FindService(only); !ok {
					return fmt.Errorf("unknown service %q (known: %s)", only, serviceNames(lab))
				}
			}

			runner := execx.NewLocal()
			kubeClient := newKubeClient(lab, runner)
			mgr := forward.NewManager("", lab.Minikube.Profile, runner, logger)

			started := startForwards(cmd.Context(), logger, mgr, kubeClient, lab, only)
			if started == 0 {
				return fmt.Errorf("no port-forward jobs could be started")
			}

			fmt.Fprintln(os.Stdout, ui.InfoMsg("forwarding %d service(s); press Ctrl-C to stop", started))
			<-cmd.Context().Done()
			stopped := mgr.StopAll()
			if stopped == 0 {
				logger.Info("nothing to stop")
			} else {
				logger.Info("port-forward jobs stopped", "count", stopped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "service", "", "Forward only the named service")
	return cmd
}

// newForwardStatusCommand creates "forward status", which probes local listener ports.
func newForwardStatusCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe local listener ports for all lab services",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(lab.Services))
			for _, svc := range lab.Services {
				port := svc.EffectiveLocalPort()
				state := ui.Error("down")
				if forward.ProbeLocal(port, probeTimeout) {
					state = ui.Success("listening")
				}
				rows = append(rows, []string{svc.Name, strconv.Itoa(port), state})
			}

			fmt.Fprintln(os.Stdout, ui.Table([]string{"SERVICE", "LOCAL PORT", "STATE"}, rows))
			return nil
		},
	}
	return cmd
}

// startForwards launches a forwarding job for each descriptor (or the one
// named by only). A missing cluster Service is reported and skipped; other
// services still get forwarded.
func startForwards(ctx context.Context, logger *slog.Logger, mgr *forward.Manager, kubeClient *kube.Client, lab *config.Lab, only string) int {
	started := 0
	for _, svc := range lab.Services {
		if only != "" && svc.Name != only {
			continue
		}

		exists, err := kubeClient.ServiceExists(ctx, lab.Namespace, svc.Service)
		if err != nil {
			logger.Warn("could not check service, skipping", "service", svc.Name, "error", err)
			continue
		}
		if !exists {
			logger.Warn("service not found in cluster, skipping",
				"service", svc.Name,
				"object", svc.Service,
				"namespace", lab.Namespace,
			)
			continue
		}

		spec := forward.Spec{
			Name:       svc.Name,
			Namespace:  lab.Namespace,
			Service:    svc.Service,
			LocalPort:  svc.EffectiveLocalPort(),
			RemotePort: svc.Port,
		}
		if err := mgr.Start(ctx, spec); err != nil {
			logger.Warn("port-forward failed", "service", svc.Name, "error", err)
			continue
		}
		started++
	}
	return started
}
