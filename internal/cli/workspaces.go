package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/archive"
	"github.com/prismeai/prisme-cli/internal/browseropen"
	"github.com/prismeai/prisme-cli/internal/configstore"
	"github.com/prismeai/prisme-cli/internal/dateformat"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/names"
)

const (
	defaultWorkspaceName = "My workspace"
	defaultConsoleURL    = "https://studio.prisme.ai"
)

func newWorkspacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "workspaces", Aliases: []string{"ws"}, Short: "Manage workspaces"}
	cmd.AddCommand(newWorkspacesListCmd(app))
	cmd.AddCommand(newWorkspacesGetCmd(app))
	cmd.AddCommand(newWorkspacesCreateCmd(app))
	cmd.AddCommand(newWorkspacesUpdateCmd(app))
	cmd.AddCommand(newWorkspacesDeleteCmd(app))
	cmd.AddCommand(newWorkspacesExportCmd(app))
	cmd.AddCommand(newWorkspacesOpenCmd(app))
	cmd.AddCommand(newWorkspacesUseCmd(app))
	return cmd
}

func workspaceSummary(app *App, ws model.Workspace, now time.Time) map[string]any {
	item := map[string]any{
		"id":      ws.ID,
		"name":    ws.Name,
		"current": ws.ID == app.WorkspaceID,
	}
	if !ws.Description.IsZero() {
		item["description"] = model.Localize(ws.Description, app.Lang)
	}
	if ws.UpdatedAt != nil {
		item["updatedAt"] = ws.UpdatedAt
		item["updated"] = dateformat.New(app.Lang).Format(*ws.UpdatedAt, dateformat.Options{Relative: true, Now: now})
	}
	return item
}

func newWorkspacesListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the workspaces you can access",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.client().GetWorkspaces(cmdContext(cmd), limit)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			now := time.Now()
			items := make([]map[string]any, 0, len(list))
			for _, ws := range list {
				items = append(items, workspaceSummary(app, ws, now))
			}
			return writeData(cmd, app, map[string]any{"total": len(items)}, map[string]any{"items": items})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of workspaces")
	return cmd
}

// workspaceArg returns the positional workspace id, or the selected one.
func workspaceArg(app *App, args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return app.WorkspaceID
}

func newWorkspacesGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get [workspace-id]",
		Short: "Show a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := workspaceArg(app, args)
			if id == "" {
				return requireWorkspace(cmd, app)
			}
			ws, err := app.client().GetWorkspace(cmdContext(cmd), id)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			meta := map[string]any{
				"automations": len(ws.Automations),
				"pages":       len(ws.Pages),
				"blocks":      len(ws.Blocks),
				"apps":        len(ws.Imports),
			}
			return writeData(cmd, app, meta, map[string]any{"workspace": ws})
		},
	}
}

func newWorkspacesCreateCmd(app *App) *cobra.Command {
	var name string
	var use bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			c := app.client()
			if strings.TrimSpace(name) == "" {
				list, err := c.GetWorkspaces(ctx, 0)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				taken := make([]string, 0, len(list))
				for _, ws := range list {
					taken = append(taken, ws.Name)
				}
				name = names.IncrementName(defaultWorkspaceName, taken, "")
			}
			ws, err := c.CreateWorkspace(ctx, name)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if use {
				if err := app.saveConfig(func(s *configstore.Store) { s.WorkspaceID = ws.ID }); err != nil {
					return writeFailure(cmd, app, "config_failed", err, "", nil)
				}
				app.WorkspaceID = ws.ID
			}
			return writeData(cmd, app, nil, map[string]any{
				"workspace": ws,
				"path":      "/workspaces/" + ws.ID,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Workspace name (default: a free \""+defaultWorkspaceName+"\" name)")
	cmd.Flags().BoolVar(&use, "use", false, "Select the new workspace")
	return cmd
}

func newWorkspacesUpdateCmd(app *App) *cobra.Command {
	var name, description, photo string
	var config []string
	cmd := &cobra.Command{
		Use:   "update [workspace-id]",
		Short: "Rename or describe a workspace, or set config values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := workspaceArg(app, args)
			if id == "" {
				return requireWorkspace(cmd, app)
			}
			ctx := cmdContext(cmd)
			c := app.client()
			ws, err := c.GetWorkspace(ctx, id)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			changed := false
			if cmd.Flags().Changed("name") {
				ws.Name = name
				changed = true
			}
			if cmd.Flags().Changed("description") {
				ws.Description = setLocalized(ws.Description, app.Lang, description)
				changed = true
			}
			if cmd.Flags().Changed("photo") {
				ws.Photo = photo
				changed = true
			}
			if len(config) > 0 {
				values, err := parseAssignments(config)
				if err != nil {
					return writeFailure(cmd, app, "invalid_input", err, "Use --set key=value.", nil)
				}
				if ws.Config == nil {
					ws.Config = &model.ConfigSection{}
				}
				if ws.Config.Value == nil {
					ws.Config.Value = map[string]any{}
				}
				for k, v := range values {
					if v == nil {
						delete(ws.Config.Value, k)
						continue
					}
					ws.Config.Value[k] = v
				}
				changed = true
			}
			if !changed {
				return writeFailure(cmd, app, "nothing_to_update", errors.New("no change requested"), "Pass --name, --description, --photo or --set.", nil)
			}
			out, err := c.UpdateWorkspace(ctx, ws)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"workspace": out})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "Description in the --lang language")
	cmd.Flags().StringVar(&photo, "photo", "", "Photo URL")
	cmd.Flags().StringArrayVar(&config, "set", nil, "Config value key=value (repeatable; key= removes)")
	return cmd
}

// setLocalized sets the text for lang, keeping the other translations. A
// plain string is kept plain when lang is the default language.
func setLocalized(t model.LocalizedText, lang, text string) model.LocalizedText {
	if len(t.Translations) == 0 && (lang == "" || lang == "en") {
		return model.Text(text)
	}
	out := model.LocalizedText{Translations: map[string]string{}}
	for k, v := range t.Translations {
		out.Translations[k] = v
	}
	if t.Text != "" && len(t.Translations) == 0 {
		out.Translations["en"] = t.Text
	}
	out.Translations[lang] = text
	return out
}

func newWorkspacesDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <workspace-id>",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				return writeFailure(cmd, app, "confirmation_required", errors.New("refusing to delete without --yes"), "Re-run with --yes to delete "+id+".", nil)
			}
			if err := app.client().DeleteWorkspace(cmdContext(cmd), id); err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if app.config != nil && app.config.WorkspaceID == id {
				if err := app.saveConfig(func(s *configstore.Store) { s.WorkspaceID = "" }); err != nil {
					app.logger().Warn("cannot clear selected workspace", "err", err)
				}
			}
			return writeData(cmd, app, nil, map[string]any{"deleted": id})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newWorkspacesExportCmd(app *App) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export [workspace-id]",
		Short: "Download the workspace archive (workspace-<id>.zip)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := workspaceArg(app, args)
			if id == "" {
				return requireWorkspace(cmd, app)
			}
			blob, err := app.client().ExportWorkspace(cmdContext(cmd), id)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			entries, err := archive.List(blob)
			if err != nil {
				return writeFailure(cmd, app, "invalid_archive", err, "The server did not return a zip archive.", nil)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return writeFailure(cmd, app, "write_failed", err, "", nil)
			}
			path := filepath.Join(outDir, api.ExportFilename(id))
			if err := os.WriteFile(path, blob, 0o644); err != nil {
				return writeFailure(cmd, app, "write_failed", err, "", nil)
			}
			return writeData(cmd, app, map[string]any{"bytes": len(blob)}, map[string]any{
				"file":    path,
				"entries": entries,
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the archive to")
	return cmd
}

func consoleBase(app *App) string {
	if app.config != nil && strings.TrimSpace(app.config.ConsoleURL) != "" {
		return app.config.ConsoleURL
	}
	return envOr("PRISME_CONSOLE_URL", defaultConsoleURL)
}

func newWorkspacesOpenCmd(app *App) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "open [workspace-id]",
		Short: "Open the workspace in the web console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := workspaceArg(app, args)
			if id == "" {
				return requireWorkspace(cmd, app)
			}
			u, err := browseropen.ConsoleURL(consoleBase(app), "/workspaces/"+id)
			if err != nil {
				return writeFailure(cmd, app, "invalid_console_url", err, "Set consoleUrl in the config file or PRISME_CONSOLE_URL.", nil)
			}
			opened := false
			if !printOnly {
				if err := browseropen.Open(u); err != nil {
					app.logger().Warn("cannot open browser", "err", err)
				} else {
					opened = true
				}
			}
			return writeData(cmd, app, nil, map[string]any{"url": u, "opened": opened})
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Only print the URL")
	return cmd
}

func newWorkspacesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <workspace-id>",
		Short: "Select the workspace used by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			ws, err := app.client().GetWorkspace(cmdContext(cmd), id)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if err := app.saveConfig(func(s *configstore.Store) {
				s.WorkspaceID = ws.ID
				if cmd.Flags().Changed("api") {
					s.APIURL = app.APIURL
				}
			}); err != nil {
				return writeFailure(cmd, app, "config_failed", err, "", nil)
			}
			app.WorkspaceID = ws.ID
			return writeData(cmd, app, nil, map[string]any{"workspace": map[string]any{"id": ws.ID, "name": ws.Name}, "config": app.ConfigPath})
		},
	}
}
