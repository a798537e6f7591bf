package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/mock"
	"github.com/prismeai/prisme-cli/internal/state"
)

func newDevCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "dev", Short: "Local development helpers"}
	cmd.AddCommand(newDevMockServerCmd(app))
	cmd.AddCommand(newDevSeedCmd(app))
	return cmd
}

func statePathFlag(cmd *cobra.Command, path *string) {
	def, _ := state.DefaultPath()
	cmd.Flags().StringVar(path, "state", envOr("PRISME_MOCK_STATE", def), "Mock state file")
}

func newDevMockServerCmd(app *App) *cobra.Command {
	var addr, statePath string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve a local file-backed API for the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.EnsureParentDir(statePath); err != nil {
				return writeFailure(cmd, app, "state_failed", err, "", nil)
			}
			store := mock.Store{Path: statePath}
			st, err := store.Ensure()
			if err != nil {
				return writeFailure(cmd, app, "state_failed", err, "Run `prisme dev seed` to reset the state file.", nil)
			}
			backend := mock.NewBackend(st, mock.WithSave(store.Save), mock.WithLogger(app.logger()))

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return writeFailure(cmd, app, "listen_failed", err, "", nil)
			}
			srv := &http.Server{Handler: backend.Handler(), ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			base := "http://" + ln.Addr().String()
			if err := writeData(cmd, app, nil, map[string]any{
				"api":   base,
				"state": statePath,
				"login": map[string]any{"email": state.DemoEmail, "password": state.DemoPassword, "token": state.DemoToken},
				"hint":  "prisme --api " + base + " --token " + state.DemoToken + " --workspace " + state.DemoWorkspace + " workspaces get",
			}); err != nil {
				return err
			}
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeFailure(cmd, app, "serve_failed", err, "", nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3001", "Listen address")
	statePathFlag(cmd, &statePath)
	return cmd
}

func newDevSeedCmd(app *App) *cobra.Command {
	var statePath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the mock state to the demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.EnsureParentDir(statePath); err != nil {
				return writeFailure(cmd, app, "state_failed", err, "", nil)
			}
			st := state.SeedDefault()
			if err := (mock.Store{Path: statePath}).Save(st); err != nil {
				return writeFailure(cmd, app, "state_failed", err, "", nil)
			}
			return writeData(cmd, app, nil, map[string]any{
				"state":      statePath,
				"workspaces": len(st.Workspaces),
				"users":      len(st.Users),
			})
		},
	}
	statePathFlag(cmd, &statePath)
	return cmd
}
