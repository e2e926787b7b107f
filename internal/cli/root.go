package cli

import (
	"fmt"
	"io"
	"os"

	"resume-builder/internal/model"
	infra "resume-builder/pkg/infrastructure"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

func (o *RootOptions) logger() *zap.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	l, err := infra.NewLogger("development", level)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewRootCommand creates the root command for resumectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "resumectl",
		Short: "Résumé document tooling",
		Long:  "Render, export and validate résumé documents and manage the document store.",
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	return cmd
}

// readDocument reads a document from path, or stdin for "-".
func readDocument(cmd *cobra.Command, path string) (model.Resume, error) {
	raw, err := readRaw(cmd, path)
	if err != nil {
		return model.Resume{}, err
	}
	return model.Decode(raw)
}

func readRaw(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return raw, nil
}
