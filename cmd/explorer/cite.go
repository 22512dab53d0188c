package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixir/article-explorer/internal/citation"
	"github.com/helixir/article-explorer/internal/clipboard"
)

var copyToClipboard = clipboard.Copy

func newCiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cite ARTICLE_FILE",
		Short: "Format a citation for a saved article",
		Long: `cite reads an article (JSON or YAML, "-" for stdin) and prints its citation
in the requested style. With --copy the citation is also placed on the system
clipboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styleName, _ := cmd.Flags().GetString("style")
			style, err := citation.ParseStyle(styleName)
			if err != nil {
				return err
			}
			article, err := readArticle(cmd, args[0])
			if err != nil {
				return err
			}
			text, err := citation.Format(article, style)
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
				return err
			}
			if copyFlag, _ := cmd.Flags().GetBool("copy"); copyFlag {
				if err := copyToClipboard(text); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard.")
			}
			return nil
		},
	}

	cmd.Flags().StringP("style", "s", string(citation.StyleAPA), "citation style")
	cmd.Flags().Bool("copy", false, "copy the citation to the clipboard")
	return cmd
}

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List supported citation styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			styles := citation.Styles()
			if format != outputText {
				type entry struct {
					ID    string `json:"id" yaml:"id"`
					Label string `json:"label" yaml:"label"`
				}
				out := make([]entry, len(styles))
				for i, s := range styles {
					out[i] = entry{ID: string(s), Label: s.Label()}
				}
				return writeStructured(cmd.OutOrStdout(), format, out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, s := range styles {
				fmt.Fprintf(tw, "%s\t%s\n", s, s.Label())
			}
			return tw.Flush()
		},
	}
}
