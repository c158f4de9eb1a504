package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/config"
	"github.com/dfir-lab/labctl/internal/creds"
	"github.com/dfir-lab/labctl/internal/execx"
	"github.com/dfir-lab/labctl/internal/kube"
	"github.com/dfir-lab/labctl/internal/ui"
)

// newCredentialsCommand creates the "credentials" subcommand that shows service logins.
func newCredentialsCommand(opts *Options) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:     "credentials",
		Aliases: []string{"creds"},
		Short:   "Show operator credentials stored in cluster secrets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			kubeClient := newKubeClient(lab, execx.NewLocal())

			if service != "" {
				if _, ok := lab.FindService(service); !ok {
					return fmt.Errorf("unknown service %q (known: %s)", service, serviceNames(lab))
				}
				cred, err := creds.ForService(cmd.Context(), kubeClient, logger, lab, service)
				if err != nil {
					return err
				}
				printCredential(cred)
				return nil
			}

			printCredentials(cmd.Context(), logger, kubeClient, lab)
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "Show credentials for the named service only")
	return cmd
}

// printCredentials renders credentials for all services with a secret
// reference. Missing secrets are shown as not found; partial deployments are
// expected.
func printCredentials(ctx context.Context, logger *slog.Logger, kubeClient *kube.Client, lab *config.Lab) {
	collected := creds.Collect(ctx, kubeClient, logger, lab.Namespace, lab.Services)
	if len(collected) == 0 {
		fmt.Fprintln(os.Stdout, ui.WarnMsg("no services with credential secrets configured"))
		return
	}

	for _, cred := range collected {
		printCredential(cred)
	}
}

func printCredential(cred creds.Credential) {
	fmt.Fprintln(os.Stdout, ui.Bold(cred.Service))
	password := ui.Muted("<not found>")
	if cred.Found {
		password = cred.Password
	}
	fmt.Fprint(os.Stdout, ui.KeyValues("  ",
		ui.KV("url", cred.URL),
		ui.KV("username", cred.Username),
		ui.KV("password", password),
	))
}
