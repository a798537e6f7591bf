package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/names"
	"github.com/prismeai/prisme-cli/internal/source"
)

const defaultAutomationName = "My automation"

func newAutomationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "automations", Aliases: []string{"automation"}, Short: "Manage workspace automations"}
	cmd.AddCommand(newAutomationsListCmd(app))
	cmd.AddCommand(newAutomationsGetCmd(app))
	cmd.AddCommand(newAutomationsCreateCmd(app))
	cmd.AddCommand(newAutomationsDeleteCmd(app))
	cmd.AddCommand(newSourceCmd(app, sourceTarget{
		kind: source.KindAutomation,
		fetch: func(ctx context.Context, app *App, slug string) (any, error) {
			return app.client().GetAutomation(ctx, app.WorkspaceID, slug)
		},
		save: func(ctx context.Context, app *App, slug string, doc any) (any, error) {
			var a model.Automation
			if err := convertDoc(doc, &a); err != nil {
				return nil, err
			}
			return app.client().UpdateAutomation(ctx, app.WorkspaceID, slug, &a)
		},
	}))
	return cmd
}

func automationItem(slug string, a *model.Automation, lang string) map[string]any {
	item := map[string]any{"slug": slug, "name": slug}
	if a == nil {
		return item
	}
	if !a.Name.IsZero() {
		item["name"] = model.Localize(a.Name, lang)
	}
	if !a.Description.IsZero() {
		item["description"] = model.Localize(a.Description, lang)
	}
	if a.When != nil && !a.When.Empty() {
		item["when"] = a.When
	}
	item["instructions"] = a.InstructionCount()
	if a.Disabled {
		item["disabled"] = true
	}
	return item
}

func newAutomationsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List automations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ws, err := app.client().GetWorkspace(cmdContext(cmd), app.WorkspaceID)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			items := make([]map[string]any, 0, len(ws.Automations))
			for _, slug := range sortedKeys(ws.Automations) {
				items = append(items, automationItem(slug, ws.Automations[slug], app.Lang))
			}
			return writeData(cmd, app, map[string]any{"total": len(items)}, map[string]any{"items": items})
		},
	}
}

func newAutomationsGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show an automation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			a, err := app.client().GetAutomation(cmdContext(cmd), app.WorkspaceID, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			meta := map[string]any{"instructions": a.InstructionCount()}
			return writeData(cmd, app, meta, map[string]any{"automation": a})
		},
	}
}

func newAutomationsCreateCmd(app *App) *cobra.Command {
	var name, description string
	var events []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an automation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			c := app.client()
			if strings.TrimSpace(name) == "" {
				ws, err := c.GetWorkspace(ctx, app.WorkspaceID)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				name = names.IncrementName(defaultAutomationName, ws.AutomationNames(app.Lang), "")
			}
			a := &model.Automation{Name: model.Text(name), Do: []model.Instruction{}}
			if description != "" {
				a.Description = model.Text(description)
			}
			if len(events) > 0 {
				a.When = &model.When{Events: events}
			}
			created, err := c.CreateAutomation(ctx, app.WorkspaceID, a)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{
				"automation": created,
				"path":       "/workspaces/" + app.WorkspaceID + "/automations/" + created.Slug,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Automation name (default: a free \""+defaultAutomationName+"\" name)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringArrayVar(&events, "on", nil, "Event that triggers the automation (repeatable)")
	return cmd
}

func newAutomationsDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete an automation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			if !yes {
				return writeFailure(cmd, app, "confirmation_required", errors.New("refusing to delete without --yes"), "Re-run with --yes to delete "+args[0]+".", nil)
			}
			if err := app.client().DeleteAutomation(cmdContext(cmd), app.WorkspaceID, args[0]); err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"deleted": args[0]})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}
