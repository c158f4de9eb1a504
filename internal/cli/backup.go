package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/backup"
)

// newBackupCommand creates the "backup" group for workspace and chart archives.
func newBackupCommand(opts *Options) *cobra.Command {
	return newGroupCommand(
		"backup",
		"Create backup artifacts of the working tree and vendored chart data",
		newBackupWorkspaceCommand(opts),
		newBackupChartsCommand(opts),
	)
}

// newBackupWorkspaceCommand creates "backup workspace", a zip snapshot of the tree.
func newBackupWorkspaceCommand(opts *Options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Zip the working tree into a timestamped archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(lab.BaseDir, lab.Backup.Dir, backup.ArchiveName(lab.Project, time.Now()))
			}

			if err := backup.ZipTree(lab.BaseDir, out, lab.Backup.Skip); err != nil {
				return err
			}
			logger.Info("workspace archived", "path", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Archive output path (default: <backup dir>/<project>-<timestamp>.zip)")
	return cmd
}

// newBackupChartsCommand creates "backup charts", the base64 tarball of vendored chart data.
func newBackupChartsCommand(opts *Options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Encode the vendored chart directory as a base64 tar.gz blob",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			lab, err := loadLab(opts)
			if err != nil {
				return err
			}

			chartDir := lab.Backup.ChartDir
			if !filepath.IsAbs(chartDir) {
				chartDir = filepath.Join(lab.BaseDir, chartDir)
			}
			if out == "" {
				out = filepath.Join(lab.BaseDir, lab.Backup.Dir, "charts.tgz.b64")
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create backup dir: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %q: %w", out, err)
			}
			defer func() { _ = f.Close() }()

			if err := backup.EncodeChartData(chartDir, f); err != nil {
				return err
			}
			logger.Info("chart data encoded", "path", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output path for the encoded blob")
	return cmd
}
