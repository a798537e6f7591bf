package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/api"
)

func writeData(cmd *cobra.Command, app *App, meta map[string]any, data any) error {
	out := map[string]any{
		"ok":          true,
		"workspaceId": app.WorkspaceID,
		"meta":        meta,
		"data":        data,
	}
	// Avoid emitting empty meta.
	if meta == nil {
		delete(out, "meta")
	}
	return writeOut(cmd, app, out)
}

func writeFailure(cmd *cobra.Command, app *App, code string, err error, hint string, details any) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	out := map[string]any{
		"ok":          false,
		"workspaceId": app.WorkspaceID,
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
			"details": details,
		},
		"hint": hint,
	}
	// We still return an error so Cobra exits non-zero.
	_ = writeOut(cmd, app, out)
	return err
}

// writeAPIFailure reports a failed API call, with a hint derived from the
// HTTP status.
func writeAPIFailure(cmd *cobra.Command, app *App, err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return writeFailure(cmd, app, "request_failed", err, "Check --api ("+app.APIURL+") and your network.", nil)
	}
	details := map[string]any{"status": apiErr.Status}
	if apiErr.Code != "" {
		details["error"] = apiErr.Code
	}
	if apiErr.Details != nil {
		details["details"] = apiErr.Details
	}
	hint := ""
	switch apiErr.Status {
	case http.StatusUnauthorized:
		hint = "Run `prisme auth signin` or pass --token."
		if app.tokenFromStore {
			hint = "The stored token was rejected; run `prisme auth signin` again."
		}
	case http.StatusForbidden:
		hint = "Your account lacks the permission for this action."
	case http.StatusNotFound:
		hint = "Check the workspace id and slug (`prisme workspaces list`)."
	case http.StatusConflict:
		hint = "Pick another name or slug."
	}
	return writeFailure(cmd, app, "api_error", err, hint, details)
}
