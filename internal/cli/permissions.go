package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/model"
)

// publicTarget designates everyone in permission targets.
const publicTarget = "*"

type subjectFlags struct {
	kind string
	id   string
}

func (s *subjectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.kind, "subject", "workspaces", "Subject type (workspaces|pages|apps)")
	cmd.Flags().StringVar(&s.id, "id", "", "Subject id (default: the selected workspace)")
}

func (s *subjectFlags) resolve(cmd *cobra.Command, app *App) (string, string, error) {
	kind := strings.TrimSpace(s.kind)
	id := strings.TrimSpace(s.id)
	if id == "" {
		if kind != "workspaces" {
			return "", "", writeFailure(cmd, app, "missing_subject", errors.New("missing --id"), "Pass --id for "+kind+".", nil)
		}
		if err := requireWorkspace(cmd, app); err != nil {
			return "", "", err
		}
		id = app.WorkspaceID
	}
	return kind, id, nil
}

func permissionItem(p model.Permission) map[string]any {
	item := map[string]any{"role": p.Role}
	switch {
	case p.Target.Public:
		item["target"] = publicTarget
	case p.Target.ID != "":
		item["target"] = p.Target.ID
	default:
		item["target"] = p.Target.Email
	}
	if p.Target.Email != "" {
		item["email"] = p.Target.Email
	}
	if len(p.Policies) > 0 {
		item["policies"] = p.Policies
	}
	return item
}

func newPermissionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "permissions", Aliases: []string{"sharing"}, Short: "Share workspaces, pages and apps"}
	cmd.AddCommand(newPermissionsListCmd(app))
	cmd.AddCommand(newPermissionsShareCmd(app))
	cmd.AddCommand(newPermissionsRevokeCmd(app))
	return cmd
}

func newPermissionsListCmd(app *App) *cobra.Command {
	var subject subjectFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List who can access a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := subject.resolve(cmd, app)
			if err != nil {
				return err
			}
			list, err := app.client().GetPermissions(cmdContext(cmd), kind, id)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			items := make([]map[string]any, 0, len(list))
			for _, p := range list {
				items = append(items, permissionItem(p))
			}
			return writeData(cmd, app, map[string]any{"total": len(items), "subject": kind + "/" + id}, map[string]any{"items": items})
		},
	}
	subject.register(cmd)
	return cmd
}

func newPermissionsShareCmd(app *App) *cobra.Command {
	var subject subjectFlags
	var email, userID, role string
	var public bool
	var policies []string
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Grant a role to a user, an email or the public",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := subject.resolve(cmd, app)
			if err != nil {
				return err
			}
			targets := 0
			for _, set := range []bool{email != "", userID != "", public} {
				if set {
					targets++
				}
			}
			if targets != 1 {
				return writeFailure(cmd, app, "invalid_target", errors.New("pass exactly one of --email, --user or --public"), "", nil)
			}
			p := model.Permission{
				Target: model.PermissionTarget{ID: userID, Email: email, Public: public},
				Role:   role,
			}
			if len(policies) > 0 {
				p.Policies = map[string]bool{}
				for _, pol := range policies {
					p.Policies[pol] = true
				}
			}
			saved, err := app.client().AddPermission(cmdContext(cmd), kind, id, p)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{"subject": kind + "/" + id}, map[string]any{"permission": permissionItem(*saved)})
		},
	}
	subject.register(cmd)
	cmd.Flags().StringVar(&email, "email", "", "Share with this email")
	cmd.Flags().StringVar(&userID, "user", "", "Share with this user id")
	cmd.Flags().BoolVar(&public, "public", false, "Share with everyone")
	cmd.Flags().StringVar(&role, "role", "", "Role (owner|editor; default editor)")
	cmd.Flags().StringSliceVar(&policies, "policy", nil, "Grant a policy instead of a role (read, write, ...)")
	return cmd
}

func newPermissionsRevokeCmd(app *App) *cobra.Command {
	var subject subjectFlags
	cmd := &cobra.Command{
		Use:   "revoke <user-id|email|public>",
		Short: "Remove the access of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := subject.resolve(cmd, app)
			if err != nil {
				return err
			}
			target := args[0]
			if target == "public" {
				target = publicTarget
			}
			if err := app.client().DeletePermission(cmdContext(cmd), kind, id, target); err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{"subject": kind + "/" + id}, map[string]any{"revoked": target})
		},
	}
	subject.register(cmd)
	return cmd
}
