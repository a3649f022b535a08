// Package commands implements the kioku command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/pkg/utils"
)

// localConfigName is picked up from the working directory when --config is not given.
const localConfigName = "kioku.yaml"

// rootOptions holds the global flags and the state derived from them.
type rootOptions struct {
	configPath string
	debug      bool
	format     string

	cfg          *config.Config
	resolvedPath string
	output       cli.OutputFormat
	logger       *zap.Logger
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "kioku",
		Short: "Ask questions about your own notes",
		Long: `Kioku stores short notes with their embeddings and answers questions
using only the notes most similar to the question.

Embeddings and answers come from a local Ollama server by default, or from any
OpenAI-compatible API. Notes live in SQLite (or PostgreSQL).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default: ./kioku.yaml, then "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "output format: text or json")

	cmd.AddCommand(
		newServeCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newAskCmd(opts),
		newSearchCmd(opts),
		newImportCmd(opts),
		newWatchCmd(opts),
		newMCPCmd(opts),
		newStatusCmd(opts),
		newInitCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	format, err := cli.ParseFormat(o.format)
	if err != nil {
		return err
	}
	o.output = format

	// init writes the config file, so it must not require one.
	if cmd.Name() == "init" || cmd.Name() == "version" {
		return nil
	}

	cfg, path, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	if o.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	o.cfg = cfg
	o.resolvedPath = path

	logger := utils.NewLogger(cfg.Debug, cmd.ErrOrStderr())
	o.logger = logger
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", cfg.Debug))
	return nil
}

// loadConfig loads the config at path. With no explicit path it first looks for
// kioku.yaml in the working directory, then the user config file, and falls back to
// defaults when neither exists. Returns the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	candidates := []string{config.DefaultPath()}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append([]string{filepath.Join(cwd, localConfigName)}, candidates...)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", err
		}
		cfg, err := config.Load(c)
		if err != nil {
			return nil, "", err
		}
		return cfg, c, nil
	}
	return config.Default(), "", nil
}

// componentLogger is the logger handed to pipeline components. One-shot commands only
// see warnings (skipped or excluded notes) unless debug is on.
func (o *rootOptions) componentLogger(longRunning bool) *zap.Logger {
	if longRunning || o.cfg.Debug {
		return o.logger
	}
	return utils.WarnOnly(o.logger)
}
