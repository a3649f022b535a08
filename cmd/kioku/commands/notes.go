package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/models"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var title, file string
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a note",
		Long: `Add a note. The content comes from the argument, --file, or stdin.

Examples:
  kioku add --title "Wifi" "The guest password is hunter2"
  kioku add --file meeting.txt
  echo "Call the plumber" | kioku add --title Todo`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()
			note, err := c.Engine.Ingest(cmd.Context(), &models.NoteInput{Title: title, Content: content})
			if err != nil {
				return err
			}
			return cli.WriteNote(cmd.OutOrStdout(), note, opts.output)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&file, "file", "", "read note content from file")
	return cmd
}

// readContent picks the note body from --file, the argument, or stdin, in that order.
func readContent(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return args[0], nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()
			notes, err := c.Engine.ListNotes(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteNotes(cmd.OutOrStdout(), notes, opts.output)
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("note id must be an integer: %q", args[0])
			}
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Engine.DeleteNote(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
			return nil
		},
	}
}
