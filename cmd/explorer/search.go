package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/normalize"
)

const searchTimeout = 60 * time.Second

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search articles through the server's search proxy",
		Long: `search posts the query to the /api/search endpoint of an article-explorer
server and prints the normalized results. Absent journal and DOI values are
shown as N/A.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			server, _ := cmd.Flags().GetString("server")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
			defer cancel()

			articles, err := searchProxy(ctx, http.DefaultClient, server, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if format != outputText {
				return writeStructured(cmd.OutOrStdout(), format, articles)
			}
			return writeArticleTable(cmd.OutOrStdout(), articles)
		},
	}

	cmd.Flags().String("server", defaultServerURL, "article-explorer server base URL")
	cmd.Flags().IntP("limit", "n", 10, "maximum number of results")
	return cmd
}

// searchProxy calls the server's search proxy and normalizes the relayed
// provider response.
func searchProxy(ctx context.Context, client *http.Client, server, query string, limit int) ([]domain.Article, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "limit": limit})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(server, "/") + "/api/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("search failed (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("search failed with status %d", resp.StatusCode)
	}

	records, err := normalize.DecodeResults(body)
	if err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return normalize.Normalize(records), nil
}

func writeArticleTable(w io.Writer, articles []domain.Article) error {
	if len(articles) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tJOURNAL\tCITATIONS")
	for _, a := range articles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", a.ID, truncate(a.Title, 60), truncate(strings.Join(a.Authors, ", "), 40), a.Journal, a.CitationCount)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
