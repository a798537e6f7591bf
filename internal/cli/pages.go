package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/builder"
	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/names"
	"github.com/prismeai/prisme-cli/internal/schema"
	"github.com/prismeai/prisme-cli/internal/source"
)

const defaultPageName = "My page"

func newPagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "pages", Aliases: []string{"page"}, Short: "Manage workspace pages"}
	cmd.AddCommand(newPagesListCmd(app))
	cmd.AddCommand(newPagesGetCmd(app))
	cmd.AddCommand(newPagesCreateCmd(app))
	cmd.AddCommand(newPagesDeleteCmd(app))
	cmd.AddCommand(newSourceCmd(app, sourceTarget{
		kind: source.KindPage,
		fetch: func(ctx context.Context, app *App, slug string) (any, error) {
			return app.client().GetPage(ctx, app.WorkspaceID, slug)
		},
		save: func(ctx context.Context, app *App, slug string, doc any) (any, error) {
			var p model.Page
			if err := convertDoc(doc, &p); err != nil {
				return nil, err
			}
			return app.client().UpdatePage(ctx, app.WorkspaceID, slug, &p)
		},
	}))
	cmd.AddCommand(newPageBlocksCmd(app))
	return cmd
}

func pageItem(p model.Page, lang string) map[string]any {
	item := map[string]any{
		"id":     p.ID,
		"slug":   p.Slug,
		"name":   model.Localize(p.Name, lang),
		"blocks": len(p.Blocks),
	}
	if !p.Description.IsZero() {
		item["description"] = model.Localize(p.Description, lang)
	}
	if p.Public {
		item["public"] = true
	}
	return item
}

func newPagesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			pages, err := app.client().GetPages(cmdContext(cmd), app.WorkspaceID)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			items := make([]map[string]any, 0, len(pages))
			for _, p := range pages {
				items = append(items, pageItem(p, app.Lang))
			}
			return writeData(cmd, app, map[string]any{"total": len(items)}, map[string]any{"items": items})
		},
	}
}

func newPagesGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			p, err := app.client().GetPage(cmdContext(cmd), app.WorkspaceID, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{"blocks": len(p.Blocks)}, map[string]any{"page": p})
		},
	}
}

func newPagesCreateCmd(app *App) *cobra.Command {
	var name, description string
	var public bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			c := app.client()
			if strings.TrimSpace(name) == "" {
				pages, err := c.GetPages(ctx, app.WorkspaceID)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				taken := make([]string, 0, len(pages))
				for _, p := range pages {
					taken = append(taken, model.Localize(p.Name, app.Lang))
				}
				name = names.IncrementName(defaultPageName, taken, "")
			}
			p := &model.Page{Name: model.Text(name), Blocks: []model.BlockConfig{}, Public: public}
			if description != "" {
				p.Description = model.Text(description)
			}
			created, err := c.CreatePage(ctx, app.WorkspaceID, p)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{
				"page": created,
				"path": "/workspaces/" + app.WorkspaceID + "/pages/" + created.Slug,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Page name (default: a free \""+defaultPageName+"\" name)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().BoolVar(&public, "public", false, "Make the page public")
	return cmd
}

func newPagesDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			if !yes {
				return writeFailure(cmd, app, "confirmation_required", errors.New("refusing to delete without --yes"), "Re-run with --yes to delete "+args[0]+".", nil)
			}
			if err := app.client().DeletePage(cmdContext(cmd), app.WorkspaceID, args[0]); err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"deleted": args[0]})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newPageBlocksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "blocks", Short: "Arrange the blocks placed on a page"}
	cmd.AddCommand(newPageBlocksListCmd(app))
	cmd.AddCommand(newPageBlocksAddCmd(app))
	cmd.AddCommand(newPageBlocksRemoveCmd(app))
	cmd.AddCommand(newPageBlocksConfigCmd(app))
	cmd.AddCommand(newPageBlocksMoveCmd(app))
	return cmd
}

// pageBuilder loads a page and wraps its placements in a builder.
func pageBuilder(ctx context.Context, app *App, slug string) (*model.Page, *builder.Builder, error) {
	p, err := app.client().GetPage(ctx, app.WorkspaceID, slug)
	if err != nil {
		return nil, nil, err
	}
	return p, builder.New(p.Blocks), nil
}

// loadCatalog assembles the block catalog of the selected workspace.
func loadCatalog(ctx context.Context, app *App) ([]model.BlockInCatalog, error) {
	c := app.client()
	ws, err := c.GetWorkspace(ctx, app.WorkspaceID)
	if err != nil {
		return nil, err
	}
	apps, err := c.ListAppInstances(ctx, app.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return builder.Catalog(ws, apps), nil
}

func savePageBlocks(cmd *cobra.Command, app *App, p *model.Page, b *builder.Builder) (*model.Page, error) {
	updated := b.Page(*p)
	return app.client().UpdatePage(cmdContext(cmd), app.WorkspaceID, p.Slug, &updated)
}

func blockIndex(cmd *cobra.Command, app *App, b *builder.Builder, arg string) (string, int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return "", 0, writeFailure(cmd, app, "invalid_index", err, "Block positions are 0-based numbers; see `pages blocks list`.", nil)
	}
	key, ok := b.Key(i)
	if !ok {
		return "", 0, writeFailure(cmd, app, "invalid_index", fmt.Errorf("no block at position %d", i), "See `pages blocks list` for positions.", nil)
	}
	return key, i, nil
}

func placements(blocks []model.BlockConfig) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for i, bc := range blocks {
		item := map[string]any{"position": i, "slug": bc.Slug}
		if len(bc.Config) > 0 {
			item["config"] = bc.Config
		}
		out = append(out, item)
	}
	return out
}

func newPageBlocksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <page>",
		Short: "List the blocks of a page in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			p, err := app.client().GetPage(cmdContext(cmd), app.WorkspaceID, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{"total": len(p.Blocks)}, map[string]any{"page": p.Slug, "blocks": placements(p.Blocks)})
		},
	}
}

func newPageBlocksAddCmd(app *App) *cobra.Command {
	var at int
	var set []string
	cmd := &cobra.Command{
		Use:   "add <page> <block>",
		Short: "Place a block from the catalog on a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			catalog, err := loadCatalog(ctx, app)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			entry, ok := builder.Find(catalog, args[1])
			if !ok {
				return writeFailure(cmd, app, "unknown_block", fmt.Errorf("block %q is not in the catalog", args[1]), "Run `prisme blocks search "+args[1]+"`.", nil)
			}
			values, err := parseAssignments(set)
			if err != nil {
				return writeFailure(cmd, app, "invalid_input", err, "Use --set key=value.", nil)
			}
			p, b, err := pageBuilder(ctx, app, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if at < 0 {
				at = len(b.Blocks())
			}
			key, err := b.Pick(ctx, at, builder.PickerFunc(func(context.Context) (model.BlockInCatalog, error) {
				return entry, nil
			}))
			if err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}
			if len(values) > 0 {
				if err := b.SetBlockConfig(key, values); err != nil {
					return writeFailure(cmd, app, "internal_error", err, "", nil)
				}
			}
			saved, err := savePageBlocks(cmd, app, p, b)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"page": saved.Slug, "blocks": placements(saved.Blocks)})
		},
	}
	cmd.Flags().IntVar(&at, "at", -1, "Position to insert at (default: end)")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Config value key=value (repeatable)")
	return cmd
}

func newPageBlocksRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <page> <position>",
		Short: "Remove a block from a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			p, b, err := pageBuilder(cmdContext(cmd), app, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			key, _, err := blockIndex(cmd, app, b, args[1])
			if err != nil {
				return err
			}
			if err := b.RemoveBlock(key); err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}
			saved, err := savePageBlocks(cmd, app, p, b)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"page": saved.Slug, "blocks": placements(saved.Blocks)})
		},
	}
}

// blockSchema returns the config schema of the placed block: inline, or
// fetched from the block URL.
func blockSchema(ctx context.Context, app *App, slug string) (*schema.Schema, error) {
	catalog, err := loadCatalog(ctx, app)
	if err != nil {
		return nil, err
	}
	entry, ok := builder.Find(catalog, slug)
	if !ok {
		return nil, fmt.Errorf("block %q is not in the catalog", slug)
	}
	if entry.Parent != "" {
		if parent, ok := builder.Find(catalog, entry.Parent); ok {
			entry = parent
		}
	}
	cache := builder.NewSchemaCache(builder.HTTPLoader(&http.Client{Timeout: 15 * time.Second}))
	raw, err := cache.Get(ctx, entry)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("block %q has no config schema", slug)
	}
	return schema.FromMap(raw)
}

func newPageBlocksConfigCmd(app *App) *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "config <page> <position>",
		Short: "Change the config of a placed block (--set, or a form on a terminal)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			p, b, err := pageBuilder(ctx, app, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			key, i, err := blockIndex(cmd, app, b, args[1])
			if err != nil {
				return err
			}

			var partial map[string]any
			switch {
			case len(set) > 0:
				if partial, err = parseAssignments(set); err != nil {
					return writeFailure(cmd, app, "invalid_input", err, "Use --set key=value.", nil)
				}
			case isTerminal(cmd.InOrStdin()):
				placed := b.Blocks()[i]
				s, err := blockSchema(ctx, app, placed.Slug)
				if err != nil {
					return writeFailure(cmd, app, "no_schema", err, "Pass values with --set key=value.", nil)
				}
				ws, err := app.client().GetWorkspace(ctx, app.WorkspaceID)
				if err != nil {
					return writeAPIFailure(cmd, app, err)
				}
				if partial, err = renderConfigForm(cmd, app, s, ws, placed.Config); err != nil {
					return writeFailure(cmd, app, "aborted", err, "", nil)
				}
			default:
				return writeFailure(cmd, app, "invalid_input", errors.New("nothing to set"), "Pass --set key=value.", nil)
			}

			if err := b.SetBlockConfig(key, partial); err != nil {
				return writeFailure(cmd, app, "internal_error", err, "", nil)
			}
			saved, err := savePageBlocks(cmd, app, p, b)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"page": saved.Slug, "blocks": placements(saved.Blocks)})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "Config value key=value (repeatable; key= removes)")
	return cmd
}

func newPageBlocksMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <page> <from> <to>",
		Short: "Move a block to another position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			from, err1 := strconv.Atoi(args[1])
			to, err2 := strconv.Atoi(args[2])
			if err := errors.Join(err1, err2); err != nil {
				return writeFailure(cmd, app, "invalid_index", err, "Block positions are 0-based numbers.", nil)
			}
			p, b, err := pageBuilder(cmdContext(cmd), app, args[0])
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if err := b.Sort(from, to); err != nil {
				return writeFailure(cmd, app, "invalid_index", err, "See `pages blocks list` for positions.", nil)
			}
			saved, err := savePageBlocks(cmd, app, p, b)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"page": saved.Slug, "blocks": placements(saved.Blocks)})
		},
	}
}
