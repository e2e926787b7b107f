package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"resume-builder/internal/render"
	"resume-builder/internal/usecase"
	infra "resume-builder/pkg/infrastructure"

	"github.com/spf13/cobra"
)

type ExportOptions struct {
	*RootOptions
	Template   string
	Output     string
	ChromePath string
	Timeout    time.Duration
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <document.json>",
		Short: "Export a document to a one-page PDF",
		Long: `Render a résumé document and print it to an A4 PDF with headless Chrome.

The output name defaults to the holder's name, e.g. Ana_Souza_CV.pdf.

Example:
  resumectl export --template minimalist resume.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Template, "template", "t", string(render.Default), "template (modern|classic|minimalist)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default <Name>_CV.pdf)")
	cmd.Flags().StringVar(&opts.ChromePath, "chrome", os.Getenv("CHROME_PATH"), "Chrome/Chromium executable")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "export timeout")
	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, path string) error {
	t, err := render.ParseTemplate(opts.Template)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, path)
	if err != nil {
		return err
	}
	r, err := render.New()
	if err != nil {
		return err
	}
	logger := opts.logger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()
	exporter := usecase.NewExporter(r, infra.NewChromedpSurface(opts.ChromePath), nil, logger, nil)
	art, err := exporter.Export(ctx, t, doc)
	if err != nil {
		return err
	}
	out := opts.Output
	if out == "" {
		out = art.FileName
	}
	if err := os.WriteFile(out, art.PDF, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(art.PDF))
	return nil
}
