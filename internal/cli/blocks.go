package cli

import (
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/builder"
	"github.com/prismeai/prisme-cli/internal/model"
)

func newBlocksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "blocks", Short: "Browse the blocks that can be placed on pages"}
	cmd.AddCommand(newBlocksCatalogCmd(app))
	cmd.AddCommand(newBlocksSearchCmd(app))
	return cmd
}

func catalogItems(entries []model.BlockInCatalog, lang string) []map[string]any {
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		item := map[string]any{
			"slug": e.Slug,
			"name": model.Localize(e.Name, lang),
			"from": e.From,
		}
		if e.From == "" && e.BuiltIn {
			item["from"] = model.FromBuiltIn
		}
		if !e.Description.IsZero() {
			item["description"] = model.Localize(e.Description, lang)
		}
		if e.Parent != "" {
			item["variantOf"] = e.Parent
		}
		if e.App != "" {
			item["app"] = e.App
		}
		items = append(items, item)
	}
	return items
}

func newBlocksCatalogCmd(app *App) *cobra.Command {
	var schemas bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List built-in, workspace and app blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			catalog, err := loadCatalog(ctx, app)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			meta := map[string]any{"total": len(catalog)}
			if schemas {
				cache := builder.NewSchemaCache(builder.HTTPLoader(&http.Client{Timeout: 15 * time.Second}))
				if err := cache.Warm(ctx, catalog); err != nil {
					app.logger().Warn("some block schemas failed to load", "err", err)
					meta["schemaError"] = err.Error()
				}
				meta["remoteSchemas"] = cache.Len()
			}
			return writeData(cmd, app, meta, map[string]any{"items": catalogItems(catalog, app.Lang)})
		},
	}
	cmd.Flags().BoolVar(&schemas, "schemas", false, "Also fetch the config schema of remote blocks")
	return cmd
}

func newBlocksSearchCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search the block catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			catalog, err := loadCatalog(cmdContext(cmd), app)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			query := strings.Join(args, " ")
			found := builder.Search(catalog, query, app.Lang)
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}
			return writeData(cmd, app, map[string]any{"query": query, "total": len(found)}, map[string]any{"items": catalogItems(found, app.Lang)})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results (0 = all)")
	return cmd
}
