package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/schema"
)

func newAppsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "apps", Short: "Manage the apps installed in a workspace"}
	cmd.AddCommand(newAppsListCmd(app))
	cmd.AddCommand(newAppsInstallCmd(app))
	cmd.AddCommand(newAppsConfigureCmd(app))
	cmd.AddCommand(newAppsUninstallCmd(app))
	return cmd
}

func appItem(inst model.AppInstance, lang string) map[string]any {
	item := map[string]any{
		"slug":    inst.Slug,
		"appSlug": inst.AppSlug,
		"blocks":  len(inst.Blocks),
	}
	if !inst.AppName.IsZero() {
		item["appName"] = model.Localize(inst.AppName, lang)
	}
	if inst.AppVersion != "" {
		item["appVersion"] = inst.AppVersion
	}
	if inst.Disabled {
		item["disabled"] = true
	}
	return item
}

func newAppsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed apps",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			list, err := app.client().ListAppInstances(cmdContext(cmd), app.WorkspaceID)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			items := make([]map[string]any, 0, len(list))
			for _, inst := range list {
				items = append(items, appItem(inst, app.Lang))
			}
			return writeData(cmd, app, map[string]any{"total": len(items)}, map[string]any{"items": items})
		},
	}
}

func newAppsInstallCmd(app *App) *cobra.Command {
	var req api.InstallRequest
	cmd := &cobra.Command{
		Use:   "install <app>",
		Short: "Install an app from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			req.AppSlug = args[0]
			inst, err := app.client().InstallApp(cmdContext(cmd), app.WorkspaceID, req)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{
				"app":  inst,
				"path": "/workspaces/" + app.WorkspaceID + "/apps/" + inst.Slug,
			})
		},
	}
	cmd.Flags().StringVar(&req.Slug, "slug", "", "Instance slug (default: the app slug, made unique)")
	cmd.Flags().StringVar(&req.AppVersion, "version", "", "App version")
	return cmd
}

func newAppsConfigureCmd(app *App) *cobra.Command {
	var set []string
	var disable, enable bool
	cmd := &cobra.Command{
		Use:   "configure <slug>",
		Short: "Set app config values (--set, or a form on a terminal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			if disable && enable {
				return writeFailure(cmd, app, "invalid_input", errors.New("--disable and --enable are exclusive"), "", nil)
			}
			slug := args[0]
			ctx := cmdContext(cmd)
			c := app.client()

			if disable || enable {
				inst, err := c.SetAppDisabled(ctx, app.WorkspaceID, slug, disable)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				if len(set) == 0 && !isTerminal(cmd.InOrStdin()) {
					return writeData(cmd, app, nil, map[string]any{"app": appItem(*inst, app.Lang)})
				}
			}

			var values map[string]any
			switch {
			case len(set) > 0:
				v, err := parseAssignments(set)
				if err != nil {
					return writeFailure(cmd, app, "invalid_input", err, "Use --set key=value.", nil)
				}
				values = v
			case isTerminal(cmd.InOrStdin()):
				ws, err := c.GetWorkspace(ctx, app.WorkspaceID)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				inst := ws.Imports[slug]
				if inst == nil {
					return writeFailure(cmd, app, "not_found", fmt.Errorf("app %q is not installed", slug), "See `prisme apps list`.", nil)
				}
				if inst.Config == nil || inst.Config.Schema == nil {
					return writeFailure(cmd, app, "no_schema", fmt.Errorf("app %q has no config schema", slug), "Pass values with --set key=value.", nil)
				}
				s, err := schema.FromMap(inst.Config.Schema)
				if err != nil {
					return writeFailure(cmd, app, "invalid_schema", err, "", nil)
				}
				current, err := c.GetAppConfig(ctx, app.WorkspaceID, slug)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				if values, err = renderConfigForm(cmd, app, s, ws, current); err != nil {
					return writeFailure(cmd, app, "aborted", err, "", nil)
				}
			default:
				return writeFailure(cmd, app, "invalid_input", errors.New("nothing to set"), "Pass --set key=value.", nil)
			}

			saved, err := c.SaveAppConfig(ctx, app.WorkspaceID, slug, values)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"slug": slug, "config": saved})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "Config value key=value (repeatable; key= removes)")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the app instance")
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable the app instance")
	return cmd
}

func newAppsUninstallCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "uninstall <slug>",
		Short: "Remove an app instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			if !yes {
				return writeFailure(cmd, app, "confirmation_required", errors.New("refusing to uninstall without --yes"), "Re-run with --yes to uninstall "+args[0]+".", nil)
			}
			if err := app.client().UninstallApp(cmdContext(cmd), app.WorkspaceID, args[0]); err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"uninstalled": args[0]})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the removal")
	return cmd
}
