package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/source"
)

func newSchemaCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "Check documents against the workspace schemas"}
	cmd.AddCommand(newSchemaValidateCmd(app))
	return cmd
}

func newSchemaValidateCmd(app *App) *cobra.Command {
	var kind, file string
	cmd := &cobra.Command{
		Use:   "validate --kind <kind> -f <file>",
		Short: "Validate a YAML document (workspace, automation, page or block)",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := source.Kind(kind)
			if !k.Valid() {
				return writeFailure(cmd, app, "invalid_kind", fmt.Errorf("unknown kind %q", kind), "Use workspace, automation, page or block.", nil)
			}
			if file == "" {
				return writeFailure(cmd, app, "missing_file", errors.New("missing --file"), "Pass -f <file> or -f - for stdin.", nil)
			}
			text, err := readInput(cmd, file)
			if err != nil {
				return writeFailure(cmd, app, "read_failed", err, "", nil)
			}
			ctx := cmdContext(cmd)
			w := source.NewWorker()
			defer w.Close()
			ed, err := source.NewEditor(ctx, k, map[string]any{}, w, source.NewValidator())
			if err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}
			res, err := ed.Update(ctx, string(text))
			if err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}
			if res.Invalid {
				return invalidSource(cmd, app, ed, file)
			}
			return writeData(cmd, app, nil, map[string]any{"kind": k, "file": file, "valid": true})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Document kind (workspace|automation|page|block)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file (- for stdin)")
	return cmd
}
