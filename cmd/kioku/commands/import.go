package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/watcher"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var exts []string
	cmd := &cobra.Command{
		Use:   "import <file|directory|pattern>...",
		Short: "Import files as notes",
		Long: `Import files as notes. Each file becomes one note titled with its file name.
Directories are walked recursively; patterns use ** for any depth. Files already
imported with the same title and content are skipped.

Supported formats: plain text, markdown, PDF, DOCX, XLSX.

Examples:
  kioku import journal.md
  kioku import ~/Documents/notes
  kioku import "notes/**/*.md"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()

			var (
				total int
				errs  []error
			)
			for _, arg := range args {
				var n int
				if info, statErr := os.Stat(arg); statErr == nil && info.IsDir() {
					n, err = c.Indexer.IndexDirectory(cmd.Context(), arg, exts)
				} else {
					n, err = c.Indexer.IndexPattern(cmd.Context(), arg, exts)
				}
				total += n
				if err != nil {
					errs = append(errs, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new notes\n", total)
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "only import these extensions (default: all supported)")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [directory]...",
		Short: "Import new and changed files from directories until interrupted",
		Long: `Watch directories and import files as they are created or changed.
Without arguments the directories from watch.directories in the config are used.
Deleting a file does not delete its note.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = opts.cfg.Watch.Directories
			}
			if len(dirs) == 0 {
				return errors.New("no directories to watch; pass them as arguments or set watch.directories")
			}
			c, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			w := newWatcher(c, dirs)
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directories (Ctrl+C to stop)\n", len(w.Roots()))
			return w.Run(cmd.Context())
		},
	}
}

// newWatcher builds a watcher that imports existing and changed files through the indexer.
func newWatcher(c *Components, dirs []string) *watcher.Watcher {
	exts := c.Config.Watch.Extensions
	roots := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			roots = append(roots, abs)
		}
	}
	onFile := func(ctx context.Context, path string) {
		created, err := c.Indexer.IndexFile(ctx, path, exts)
		if err != nil {
			c.Logger.Warn("watch import failed", zap.String("path", path), zap.Error(err))
			return
		}
		if created {
			c.Logger.Info("watch imported file", zap.String("path", path))
		}
	}
	return watcher.NewWatcher(roots, c.Config.Watch.RecursiveOrDefault(), onFile,
		watcher.WithLogger(c.Logger),
		watcher.WithFilter(c.Indexer.Filter(roots, exts)),
		watcher.WithSyncOnStart(),
	)
}
