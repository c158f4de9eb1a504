package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/execx"
	"github.com/dfir-lab/labctl/internal/forward"
	"github.com/dfir-lab/labctl/internal/helm"
	"github.com/dfir-lab/labctl/internal/kube"
	"github.com/dfir-lab/labctl/internal/ui"
)

// newStatusCommand creates the "status" subcommand that shows the lab state.
func newStatusCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cluster, release, workload and forwarding status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			ctx := cmd.Context()

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			runner := execx.NewLocal()

			mk := newMinikubeClient(lab, runner, logger)
			st, err := mk.Status(ctx)
			if err != nil {
				return err
			}
			clusterState := ui.Error("stopped")
			if st.Running() {
				clusterState = ui.Success("running")
			}

			releaseState := ui.Muted("not installed")
			helmClient := helm.NewClient("", runner, nil, nil)
			if rel, err := helmClient.Find(ctx, lab.Namespace, lab.Release); err != nil {
				logger.Warn("helm release lookup failed", "error", err)
			} else if rel != nil {
				releaseState = rel.Status + " (" + rel.Chart + ")"
			}

			podsState := ui.Muted("unknown")
			kubeClient := newKubeClient(lab, runner)
			if list, err := kubeClient.ListPods(ctx, lab.Namespace); err != nil {
				logger.Warn("pod query failed", "error", err)
			} else {
				ready, total := kube.CountReady(list)
				podsState = fmt.Sprintf("%d/%d ready", ready, total)
				if total > 0 && ready == total {
					podsState = ui.Success(podsState)
				} else {
					podsState = ui.Warn(podsState)
				}
			}

			fmt.Fprint(os.Stdout, ui.KeyValues("",
				ui.KV("cluster", clusterState),
				ui.KV("release", releaseState),
				ui.KV("namespace", lab.Namespace),
				ui.KV("workloads", podsState),
			))

			rows := make([][]string, 0, len(lab.Services))
			for _, svc := range lab.Services {
				port := svc.EffectiveLocalPort()
				state := ui.Muted("down")
				if forward.ProbeLocal(port, probeTimeout) {
					state = ui.Success("listening")
				}
				rows = append(rows, []string{svc.Name, strconv.Itoa(port), state})
			}
			fmt.Fprintln(os.Stdout, ui.Table([]string{"SERVICE", "LOCAL PORT", "FORWARD"}, rows))
			return nil
		},
	}
	return cmd
}
