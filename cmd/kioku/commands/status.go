package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/storage"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show note count, provider, and storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()
			count, err := c.Storage.Count(cmd.Context())
			if err != nil {
				return err
			}
			cfg := opts.cfg
			status := &cli.Status{
				Notes:           count,
				TopK:            c.Engine.TopK(),
				Provider:        c.Provider.Name(),
				BaseURL:         cfg.Provider.BaseURL,
				EmbeddingModel:  cfg.Provider.EmbeddingModel,
				CompletionModel: cfg.Provider.CompletionModel,
				StorageDriver:   cfg.Storage.Driver,
			}
			if db := cfg.Storage.DatabasePath; cfg.Storage.Driver == config.DriverSQLite && db != ":memory:" {
				status.DatabasePath = db
				if n, err := storage.DiskUsageBytes(db); err == nil {
					status.DiskUsageBytes = &n
				}
			}
			return cli.WriteStatus(cmd.OutOrStdout(), status, opts.output)
		},
	}
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a config file with default settings to --config (default: ` + config.DefaultPath() + `).
Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
