package cli

import (
	"fmt"
	"os"

	"resume-builder/internal/render"

	"github.com/spf13/cobra"
)

type RenderOptions struct {
	*RootOptions
	Template string
	Output   string
}

func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <document.json>",
		Short: "Render a document to HTML",
		Long: `Render a résumé document with one of the built-in templates.

Example:
  resumectl render --template classic resume.json > resume.html
  cat resume.json | resumectl render -o out.html -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Template, "template", "t", string(render.Default), "template (modern|classic|minimalist)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runRender(cmd *cobra.Command, opts *RenderOptions, path string) error {
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
	html, err := r.Render(t, doc)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(opts.Output, []byte(html), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.Output)
	return nil
}
