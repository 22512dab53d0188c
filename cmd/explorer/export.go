package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/export"
)

// savedAnnotations is the shape of an annotation file: a snapshot from the
// session API or any document with an article and its notes.
type savedAnnotations struct {
	Article domain.Article `json:"article" yaml:"article"`
	Notes   []domain.Note  `json:"notes" yaml:"notes"`
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ANNOTATIONS_FILE",
		Short: "Export saved notes to a file",
		Long: `export reads a saved annotation snapshot (JSON or YAML, "-" for stdin) and
writes the notes in the chosen format. The file is named after the article
title, e.g. My_Paper_notes.txt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			dir, _ := cmd.Flags().GetString("dir")

			exporter, err := export.NewExporter(formatName)
			if err != nil {
				return err
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var saved savedAnnotations
			if err := decodeDocument(data, &saved); err != nil {
				return fmt.Errorf("parse annotations %s: %w", args[0], err)
			}

			artifact, err := exporter.Export(saved.Article, saved.Notes)
			if err != nil {
				return err
			}
			if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
				_, err := cmd.OutOrStdout().Write(artifact.Body)
				return err
			}

			path := filepath.Join(dir, artifact.Filename)
			if err := os.WriteFile(path, artifact.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d notes to %s\n", len(saved.Notes), path)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", string(export.FormatText), "export format: text, markdown, json or yaml")
	cmd.Flags().StringP("dir", "d", ".", "directory to write the export into")
	cmd.Flags().Bool("stdout", false, "write the export to stdout instead of a file")
	return cmd
}
