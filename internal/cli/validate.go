package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"resume-builder/internal/model"

	"github.com/spf13/cobra"
)

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.json>...",
		Short: "Check documents against the résumé schema",
		Long: "Check documents against the résumé schema. A file holding a JSON array " +
			"is checked element by element, e.g. a dump of stored contents.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed, total := 0, 0
			report := func(name string, err error) {
				total++
				if err != nil {
					failed++
					fmt.Fprintf(out, "✗ %s: %v\n", name, err)
					return
				}
				if rootOpts.Verbose || len(args) > 1 {
					fmt.Fprintf(out, "✓ %s\n", name)
				}
			}

			for _, path := range args {
				raw, err := readRaw(cmd, path)
				if err != nil {
					report(path, err)
					continue
				}
				if !isArray(raw) {
					_, err := model.Decode(raw)
					report(path, err)
					continue
				}
				var docs []map[string]interface{}
				if err := json.Unmarshal(raw, &docs); err != nil {
					report(path, err)
					continue
				}
				for i, doc := range docs {
					report(fmt.Sprintf("%s[%d]", path, i), model.ValidateMap(doc))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, total)
			}
			fmt.Fprintln(out, "✓ All documents valid")
			return nil
		},
	}
}

func isArray(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

