package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/dirty"
	"github.com/prismeai/prisme-cli/internal/source"
	"github.com/prismeai/prisme-cli/internal/tools"
)

// sourceTarget binds the source commands to one document: how to fetch it
// and how to save a parsed version back.
type sourceTarget struct {
	kind  source.Kind
	fetch func(ctx context.Context, app *App, slug string) (any, error)
	save  func(ctx context.Context, app *App, slug string, doc any) (any, error)
}

func newSourceCmd(app *App, t sourceTarget) *cobra.Command {
	cmd := &cobra.Command{Use: "source", Short: "Read or edit the YAML source of a " + string(t.kind)}
	cmd.AddCommand(newSourceGetCmd(app, t))
	cmd.AddCommand(newSourceApplyCmd(app, t))
	cmd.AddCommand(newSourceEditCmd(app, t))
	return cmd
}

// convertDoc re-decodes a generic document into a typed value.
func convertDoc(doc any, into any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

func openEditor(ctx context.Context, app *App, t sourceTarget, slug string) (*source.Editor, *source.Worker, error) {
	doc, err := t.fetch(ctx, app, slug)
	if err != nil {
		return nil, nil, err
	}
	w := source.NewWorker()
	ed, err := source.NewEditor(ctx, t.kind, doc, w, source.NewValidator())
	if err != nil {
		w.Close()
		return nil, nil, err
	}
	return ed, w, nil
}

func sourceData(t sourceTarget, slug string, ed *source.Editor) map[string]any {
	return map[string]any{
		"kind":        t.kind,
		"slug":        slug,
		"yaml":        ed.Text(),
		"invalid":     ed.Invalid(),
		"annotations": ed.Annotations(),
	}
}

func invalidSource(cmd *cobra.Command, app *App, ed *source.Editor, file string) error {
	details := map[string]any{"annotations": ed.Annotations()}
	hint := "Fix the reported rows and apply again."
	if file != "" {
		details["file"] = file
		hint = "Fix the reported rows in " + file + " and apply it with `source apply -f`."
	}
	return writeFailure(cmd, app, "invalid_source", source.ErrInvalid, hint, details)
}

// saveSource saves the editor content. When the request never reached the
// backend the text is written to a recovery file so the edit is not lost.
func saveSource(cmd *cobra.Command, app *App, t sourceTarget, slug string, ed *source.Editor) (any, error) {
	ctx := cmdContext(cmd)
	var saved any
	err := ed.Save(ctx, func(ctx context.Context, doc any) error {
		out, err := t.save(ctx, app, slug, doc)
		saved = out
		return err
	})
	if err == nil {
		return saved, nil
	}
	if errors.Is(err, source.ErrInvalid) {
		return nil, invalidSource(cmd, app, ed, "")
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return nil, writeAPIFailure(cmd, app, err)
	}
	path, werr := writeRecovery(t, slug, ed.Text())
	if werr != nil {
		app.logger().Warn("cannot write recovery file", "err", werr)
		return nil, writeFailure(cmd, app, "request_failed", err, "Your edit could not be saved.", nil)
	}
	return nil, writeFailure(cmd, app, "request_failed", err,
		"Nothing was saved; your edit is kept in "+path+" (retry with `source apply -f`).",
		map[string]any{"recoveryFile": path})
}

func writeRecovery(t sourceTarget, slug, text string) (string, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("prisme-%s-%s-*.yml", t.kind, slug))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func newSourceGetCmd(app *App, t sourceTarget) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get <slug>",
		Short: "Print the YAML source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			ed, w, err := openEditor(ctx, app, t, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			defer w.Close()
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), ed.Text())
				return err
			}
			return writeData(cmd, app, nil, sourceData(t, args[0], ed))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the YAML text")
	return cmd
}

func newSourceApplyCmd(app *App, t sourceTarget) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "apply <slug> -f <file>",
		Short: "Validate a YAML file and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			if file == "" {
				return writeFailure(cmd, app, "missing_file", errors.New("missing --file"), "Pass -f <file> or -f - for stdin.", nil)
			}
			text, err := readInput(cmd, file)
			if err != nil {
				return writeFailure(cmd, app, "read_failed", err, "", nil)
			}
			ctx := cmdContext(cmd)
			ed, w, err := openEditor(ctx, app, t, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			defer w.Close()
			if _, err := ed.Update(ctx, string(text)); err != nil {
				return writeFailure(cmd, app, "parse_failed", err, "", nil)
			}
			if ed.Invalid() {
				return invalidSource(cmd, app, ed, "")
			}
			saved, err := saveSource(cmd, app, t, args[0], ed)
			if err != nil {
				return err
			}
			return writeData(cmd, app, nil, map[string]any{"kind": t.kind, "saved": saved})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file to apply (- for stdin)")
	return cmd
}

func runEditor(cmd *cobra.Command, path string) error {
	argv, err := tools.FindEditor()
	if err != nil {
		return err
	}
	c := exec.CommandContext(cmdContext(cmd), argv[0], append(argv[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}

func askReopen(cmd *cobra.Command, n int) bool {
	again := true
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("The document has %d error(s)", n)).
			Affirmative("Edit again").
			Negative("Give up").
			Value(&again),
	)).WithInput(cmd.InOrStdin()).WithOutput(cmd.ErrOrStderr()).RunWithContext(cmdContext(cmd))
	return err == nil && again
}

func newSourceEditCmd(app *App, t sourceTarget) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <slug>",
		Short: "Edit the YAML source in $EDITOR and save it on exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			slug := args[0]
			ctx := cmdContext(cmd)
			ed, w, err := openEditor(ctx, app, t, slug)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			defer w.Close()
			// Compare parsed documents, not typed ones, so an untouched file
			// is never reported as a change.
			guard, err := dirty.New(ed.Value())
			if err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}

			dir, err := os.MkdirTemp("", "prisme-edit-")
			if err != nil {
				return writeFailure(cmd, app, "write_failed", err, "", nil)
			}
			path := filepath.Join(dir, slug+".yml")
			if err := os.WriteFile(path, []byte(ed.Text()), 0o600); err != nil {
				return writeFailure(cmd, app, "write_failed", err, "", nil)
			}
			interactive := isTerminal(cmd.InOrStdin())

			for {
				if err := runEditor(cmd, path); err != nil {
					return writeFailure(cmd, app, "editor_failed", err, "Set $EDITOR to a working editor. Your file is "+path+".", nil)
				}
				b, err := os.ReadFile(path)
				if err != nil {
					return writeFailure(cmd, app, "read_failed", err, "", nil)
				}
				if _, err := ed.Update(ctx, string(b)); err != nil {
					return writeFailure(cmd, app, "parse_failed", err, "", nil)
				}
				if !ed.Invalid() {
					break
				}
				if !interactive || !askReopen(cmd, len(ed.Annotations())) {
					return invalidSource(cmd, app, ed, path)
				}
			}

			if err := guard.Update(ed.Value()); err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}
			if !guard.Dirty() {
				_ = os.RemoveAll(dir)
				return writeData(cmd, app, nil, map[string]any{"kind": t.kind, "slug": slug, "changed": false})
			}
			saved, err := saveSource(cmd, app, t, slug, ed)
			if err != nil {
				return err
			}
			_ = os.RemoveAll(dir)
			return writeData(cmd, app, nil, map[string]any{"kind": t.kind, "slug": slug, "changed": true, "saved": saved})
		},
	}
}
