package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/form"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/schema"
)

// renderConfigForm asks for the values of a config schema on the terminal.
// Selector widgets are filled from ws, and template keys are escaped for the
// duration of the form.
func renderConfigForm(cmd *cobra.Command, app *App, s *schema.Schema, ws *model.Workspace, value map[string]any) (map[string]any, error) {
	if ws != nil {
		s = schema.ExpandSelectors(s, schema.SourcesFromWorkspace(ws, app.Lang))
	}
	var start any = map[string]any{}
	if value != nil {
		start = schema.RemoveTemplateDots(value)
	}
	out, err := form.Render(cmdContext(cmd), s, start, form.Options{
		PlanOptions: form.PlanOptions{Lang: app.Lang},
		Input:       cmd.InOrStdin(),
		Output:      cmd.ErrOrStderr(),
		OnChange: func(pointer string, v any) {
			app.logger().Debug("form field", "pointer", pointer, "value", v)
		},
	})
	if err != nil {
		return nil, err
	}
	m, ok := schema.GetBackTemplateDots(out).(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}

func newFormCmd(app *App) *cobra.Command {
	var file, valueFile string
	cmd := &cobra.Command{
		Use:   "form -f <schema>",
		Short: "Fill a JSON-schema form on the terminal and print the value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return writeFailure(cmd, app, "missing_file", errors.New("missing --file"), "Pass -f <schema.yml|json>.", nil)
			}
			raw, err := readInput(cmd, file)
			if err != nil {
				return writeFailure(cmd, app, "read_failed", err, "", nil)
			}
			var s schema.Schema
			if err := decodeDocument(file, raw, &s); err != nil {
				return writeFailure(cmd, app, "invalid_schema", err, "", nil)
			}
			var value map[string]any
			if valueFile != "" {
				b, err := readInput(cmd, valueFile)
				if err != nil {
					return writeFailure(cmd, app, "read_failed", err, "", nil)
				}
				if err := decodeDocument(valueFile, b, &value); err != nil {
					return writeFailure(cmd, app, "invalid_input", err, "", nil)
				}
			}
			if !isTerminal(cmd.InOrStdin()) {
				return writeFailure(cmd, app, "not_a_terminal", errors.New("forms need an interactive terminal"), "", nil)
			}
			out, err := renderConfigForm(cmd, app, &s, nil, value)
			if err != nil {
				return writeFailure(cmd, app, "aborted", err, "", nil)
			}
			return writeData(cmd, app, nil, map[string]any{"value": out})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Schema file (JSON or YAML)")
	cmd.Flags().StringVar(&valueFile, "value", "", "Initial value file (JSON or YAML)")
	return cmd
}
