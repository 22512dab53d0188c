package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/helixir/article-explorer/internal/domain"
)

// outputFormat returns the validated --output flag value.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	switch format {
	case outputText, outputJSON, outputYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readArticle reads an article from a JSON or YAML file. "-" reads stdin.
func readArticle(cmd *cobra.Command, path string) (domain.Article, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return domain.Article{}, err
	}
	var article domain.Article
	if err := decodeDocument(data, &article); err != nil {
		return domain.Article{}, fmt.Errorf("parse article %s: %w", path, err)
	}
	if article.Journal == "" {
		article.Journal = domain.NotAvailable
	}
	if article.DOI == "" {
		article.DOI = domain.NotAvailable
	}
	return article, nil
}

// decodeDocument decodes JSON input with encoding/json and anything else as YAML.
func decodeDocument(data []byte, v any) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, v)
	}
	return yaml.Unmarshal(data, v)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
