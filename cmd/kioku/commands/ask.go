package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/models"
)

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from your notes",
		Long: `Answer a question using only the notes most similar to it.

Examples:
  kioku ask what is the wifi password
  kioku ask "when is the dentist appointment?" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()
			answer, err := c.Engine.Answer(cmd.Context(), &models.Question{Question: buildQuestion(args)})
			if err != nil {
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), answer, opts.output)
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Show the notes most similar to a question without answering it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Close()
			response, err := c.Engine.Retrieve(cmd.Context(), &models.Question{Question: buildQuestion(args), Limit: limit})
			if err != nil {
				return err
			}
			return cli.WriteResults(cmd.OutOrStdout(), response, opts.output)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of notes to show (default: retrieval.top_k)")
	return cmd
}
