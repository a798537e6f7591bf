package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/authstore"
	"github.com/prismeai/prisme-cli/internal/configstore"
	"github.com/prismeai/prisme-cli/internal/format"
)

type App struct {
	WorkspaceID string
	APIURL      string
	Token       string
	Format      string
	PrettyJSON  bool
	Lang        string
	Verbose     bool
	ConfigPath  string
	AuthPath    string

	config *configstore.Store
	log    *slog.Logger
	// tokenFromStore is set when Token was read from the auth store rather
	// than given on the command line.
	tokenFromStore bool
}

// formatValue rejects unknown output formats while flags are parsed.
type formatValue struct{ p *string }

var _ pflag.Value = formatValue{}

func (f formatValue) String() string { return *f.p }
func (f formatValue) Type() string   { return "format" }

func (f formatValue) Set(s string) error {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "json", "yaml", "yml", "edn":
		*f.p = v
		return nil
	}
	return fmt.Errorf("unknown format %q (expected json|yaml|edn)", s)
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "prisme",
		Short:        "prisme workspace console",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 && isTerminal(cmd.OutOrStdout()) {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	defaultConfig, _ := configstore.DefaultPath()
	defaultAuth, _ := authstore.DefaultPath()

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.WorkspaceID, "workspace", envOr("PRISME_WORKSPACE", ""), "Workspace id (defaults to the one selected with `workspaces use`)")
	pf.StringVar(&app.APIURL, "api", envOr("PRISME_API_URL", ""), "API base URL (e.g. "+configstore.DefaultAPIURL+")")
	pf.StringVar(&app.Token, "token", envOr("PRISME_TOKEN", ""), "API token (or set PRISME_TOKEN)")
	app.Format = envOr("PRISME_FORMAT", "json")
	pf.Var(formatValue{&app.Format}, "format", "Output format (json|yaml|edn)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.Lang, "lang", envOr("PRISME_LANG", ""), "Display language for localized texts")
	pf.BoolVar(&app.Verbose, "verbose", envOr("PRISME_VERBOSE", "") == "1", "Log requests and internals to stderr")
	pf.StringVar(&app.ConfigPath, "config", envOr("PRISME_CONFIG", defaultConfig), "Path to the CLI config file")
	pf.StringVar(&app.AuthPath, "auth-store", envOr("PRISME_AUTH_STORE", defaultAuth), "Path to the token store")
	_ = pf.MarkHidden("auth-store")

	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newWorkspacesCmd(app))
	cmd.AddCommand(newAutomationsCmd(app))
	cmd.AddCommand(newPagesCmd(app))
	cmd.AddCommand(newBlocksCmd(app))
	cmd.AddCommand(newAppsCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newPermissionsCmd(app))
	cmd.AddCommand(newSchemaCmd(app))
	cmd.AddCommand(newFormCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newDevCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

// init resolves flags against the config file and the token store. Flags
// and env vars win over saved settings.
func (app *App) init(cmd *cobra.Command) error {
	app.log = newLogger(cmd.ErrOrStderr(), app.Verbose)

	cfg := &configstore.Store{}
	if app.ConfigPath != "" {
		loaded, err := configstore.LoadOrEmpty(app.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", app.ConfigPath, err)
		}
		cfg = loaded
	}
	app.config = cfg

	if strings.TrimSpace(app.APIURL) == "" {
		app.APIURL = cfg.APIURL
	}
	if strings.TrimSpace(app.APIURL) == "" {
		app.APIURL = configstore.DefaultAPIURL
	}
	app.APIURL = strings.TrimRight(strings.TrimSpace(app.APIURL), "/")
	if app.WorkspaceID == "" {
		app.WorkspaceID = cfg.WorkspaceID
	}
	if app.Lang == "" {
		app.Lang = cfg.Lang
	}
	if app.Lang == "" {
		app.Lang = "en"
	}

	if strings.TrimSpace(app.Token) == "" && app.AuthPath != "" {
		store, err := authstore.LoadOrEmpty(app.AuthPath)
		if err != nil {
			app.log.Warn("cannot read token store", "path", app.AuthPath, "err", err)
			return nil
		}
		if rec, ok := store.Get(app.APIURL); ok {
			if rec.Expired(time.Now()) {
				app.log.Warn("stored token expired; run `prisme auth signin`", "api", app.APIURL)
			} else {
				app.Token = rec.Token
				app.tokenFromStore = true
			}
		}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (app *App) client() api.Client {
	return api.Client{
		BaseURL: app.APIURL,
		Token:   app.Token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  app.log,
	}
}

func (app *App) logger() *slog.Logger {
	if app.log == nil {
		return slog.Default()
	}
	return app.log
}

func (app *App) saveConfig(mutate func(*configstore.Store)) error {
	if app.ConfigPath == "" {
		return errors.New("missing --config")
	}
	cfg, err := configstore.LoadOrEmpty(app.ConfigPath)
	if err != nil {
		return err
	}
	mutate(cfg)
	if err := configstore.SaveAtomic(app.ConfigPath, cfg); err != nil {
		return err
	}
	app.config = cfg
	return nil
}

func requireWorkspace(cmd *cobra.Command, app *App) error {
	if strings.TrimSpace(app.WorkspaceID) != "" {
		return nil
	}
	return writeFailure(cmd, app, "missing_workspace", errors.New("no workspace selected"), "Pass --workspace <id> or run `prisme workspaces use <id>`.", nil)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}
