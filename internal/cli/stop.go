package cli

import (
	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/execx"
)

// newStopCommand creates the "stop" subcommand that halts the cluster while
// keeping its state, so a later deploy resumes instead of rebuilding.
func newStopCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the cluster without deleting it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			mk := newMinikubeClient(lab, execx.NewLocal(), logger)
			st, err := mk.Status(cmd.Context())
			if err != nil {
				return err
			}
			if !st.Running() {
				logger.Info("cluster is not running", "profile", lab.Minikube.Profile)
				return nil
			}

			logger.Info("stopping cluster", "profile", lab.Minikube.Profile)
			if err := mk.Stop(cmd.Context()); err != nil {
				return err
			}
			logger.Info("cluster stopped", "profile", lab.Minikube.Profile)
			return nil
		},
	}
	return cmd
}
