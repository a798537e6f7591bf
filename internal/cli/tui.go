package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/configstore"
	"github.com/prismeai/prisme-cli/internal/tui"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive workspace console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	if err := requireWorkspace(cmd, app); err != nil {
		return err
	}
	if !isTerminal(cmd.OutOrStdout()) {
		return writeFailure(cmd, app, "not_a_terminal", errors.New("the console needs a terminal"), "Use the subcommands for scripted access.", nil)
	}
	prefs := app.config
	if prefs == nil {
		prefs = &configstore.Store{}
	}
	return tui.Run(cmdContext(cmd), tui.Config{
		Client:      app.client(),
		WorkspaceID: app.WorkspaceID,
		Lang:        app.Lang,
		Prefs:       prefs,
		SavePrefs: func(st *configstore.Store) error {
			return app.saveConfig(func(cfg *configstore.Store) {
				cfg.SetSidebarMinimized(st.SidebarMinimized())
			})
		},
		Logger: app.logger(),
	})
}
