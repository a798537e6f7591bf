package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/authinfo"
	"github.com/prismeai/prisme-cli/internal/authstore"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Sign in and manage the stored session"}
	cmd.AddCommand(newAuthSigninCmd(app))
	cmd.AddCommand(newAuthSignupCmd(app))
	cmd.AddCommand(newAuthSignoutCmd(app))
	cmd.AddCommand(newAuthMeCmd(app))
	return cmd
}

// storeSession saves the session token for the current API base URL.
func storeSession(app *App, s *api.Session) error {
	if app.AuthPath == "" {
		return errors.New("missing --auth-store")
	}
	store, err := authstore.LoadOrEmpty(app.AuthPath)
	if err != nil {
		return err
	}
	rec := authstore.Record{Token: s.Token, Email: s.Email, UserID: s.ID, UpdatedAt: time.Now().UTC()}
	if t, err := time.Parse(time.RFC3339, s.Expires); err == nil {
		rec.ExpiresAt = &t
	} else if t, ok := authinfo.ExpiryFromToken(s.Token); ok {
		rec.ExpiresAt = &t
	}
	if rec.Email == "" {
		rec.Email = authinfo.EmailFromToken(s.Token)
	}
	store.Set(app.APIURL, rec)
	return authstore.SaveAtomic(app.AuthPath, store)
}

func sessionData(app *App, s *api.Session) map[string]any {
	return map[string]any{
		"api":     app.APIURL,
		"user":    s.User,
		"expires": s.Expires,
		"stored":  app.AuthPath,
	}
}

// readSecret reads one line from r, used by --password-stdin.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptCredentials asks for whatever is missing when attached to a
// terminal.
func promptCredentials(cmd *cobra.Command, email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).
		WithInput(cmd.InOrStdin()).
		WithOutput(cmd.ErrOrStderr()).
		RunWithContext(cmdContext(cmd))
}

func newAuthSigninCmd(app *App) *cobra.Command {
	var email, password string
	var passwordStdin, anonymous bool
	cmd := &cobra.Command{
		Use:     "signin",
		Aliases: []string{"login"},
		Short:   "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			c := app.client()
			c.Token = ""

			var sess *api.Session
			var err error
			if anonymous {
				sess, err = c.AnonymousSignin(ctx)
			} else {
				if passwordStdin {
					if password, err = readSecret(cmd.InOrStdin()); err != nil {
						return writeFailure(cmd, app, "invalid_input", err, "", nil)
					}
				}
				if (email == "" || password == "") && isTerminal(cmd.InOrStdin()) {
					if err := promptCredentials(cmd, &email, &password); err != nil {
						return writeFailure(cmd, app, "aborted", err, "", nil)
					}
				}
				if strings.TrimSpace(email) == "" || password == "" {
					return writeFailure(cmd, app, "missing_credentials", errors.New("email and password are required"), "Pass --email and --password (or --password-stdin).", nil)
				}
				sess, err = c.Signin(ctx, strings.TrimSpace(email), password)
			}
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if err := storeSession(app, sess); err != nil {
				return writeFailure(cmd, app, "store_failed", err, "The session is valid but could not be saved; pass it with --token.", nil)
			}
			app.Token = sess.Token
			return writeData(cmd, app, nil, sessionData(app, sess))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "Open an anonymous session")
	return cmd
}

func newAuthSignupCmd(app *App) *cobra.Command {
	var req api.SignupRequest
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store its session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				p, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return writeFailure(cmd, app, "invalid_input", err, "", nil)
				}
				req.Password = p
			}
			if strings.TrimSpace(req.Email) == "" || req.Password == "" {
				return writeFailure(cmd, app, "missing_credentials", errors.New("email and password are required"), "Pass --email and --password.", nil)
			}
			if req.Language == "" {
				req.Language = app.Lang
			}
			c := app.client()
			c.Token = ""
			sess, err := c.Signup(cmdContext(cmd), req)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			if err := storeSession(app, sess); err != nil {
				return writeFailure(cmd, app, "store_failed", err, "", nil)
			}
			app.Token = sess.Token
			return writeData(cmd, app, nil, sessionData(app, sess))
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	return cmd
}

func newAuthSignoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "signout",
		Aliases: []string{"logout"},
		Short:   "End the session and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := "skipped"
			if app.Token != "" {
				if err := app.client().Signout(cmdContext(cmd)); err != nil {
					// The local token is dropped regardless.
					app.logger().Warn("remote signout failed", "err", err)
					remote = "failed"
				} else {
					remote = "ok"
				}
			}
			if app.AuthPath != "" {
				store, err := authstore.LoadOrEmpty(app.AuthPath)
				if err != nil {
					return writeFailure(cmd, app, "store_failed", err, "", nil)
				}
				store.Delete(app.APIURL)
				if err := authstore.SaveAtomic(app.AuthPath, store); err != nil {
					return writeFailure(cmd, app, "store_failed", err, "", nil)
				}
			}
			return writeData(cmd, app, nil, map[string]any{"api": app.APIURL, "remote": remote, "signedOut": true})
		},
	}
}

func newAuthMeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "me",
		Aliases: []string{"whoami"},
		Short:   "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Token == "" {
				return writeFailure(cmd, app, "unauthenticated", errors.New("not signed in"), "Run `prisme auth signin` or pass --token.", nil)
			}
			u, err := app.client().Me(cmdContext(cmd))
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			data := map[string]any{"user": u, "api": app.APIURL}
			if exp, ok := authinfo.ExpiryFromToken(app.Token); ok {
				data["tokenExpiresAt"] = exp
			}
			return writeData(cmd, app, nil, data)
		},
	}
}
