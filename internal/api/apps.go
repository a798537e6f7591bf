package api

import (
	"context"
	"net/http"

	"github.com/prismeai/prisme-cli/internal/model"
)

func appPath(wsID, slug string) string {
	p := "/workspaces/" + seg(wsID) + "/apps"
	if slug != "" {
		p += "/" + seg(slug)
	}
	return p
}

func (c Client) ListAppInstances(ctx context.Context, wsID string) ([]model.AppInstance, error) {
	var out []model.AppInstance
	if err := c.call(ctx, http.MethodGet, appPath(wsID, ""), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type InstallRequest struct {
	AppSlug    string `json:"appSlug"`
	Slug       string `json:"slug,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`
}

func (c Client) InstallApp(ctx context.Context, wsID string, req InstallRequest) (*model.AppInstance, error) {
	var out model.AppInstance
	if err := c.call(ctx, http.MethodPost, appPath(wsID, ""), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) UpdateAppInstance(ctx context.Context, wsID, slug string, app *model.AppInstance) (*model.AppInstance, error) {
	var out model.AppInstance
	if err := c.call(ctx, http.MethodPatch, appPath(wsID, slug), nil, app, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAppDisabled toggles an instance. The flag is sent on its own since a
// false value would be dropped from a full AppInstance body.
func (c Client) SetAppDisabled(ctx context.Context, wsID, slug string, disabled bool) (*model.AppInstance, error) {
	var out model.AppInstance
	if err := c.call(ctx, http.MethodPatch, appPath(wsID, slug), nil, map[string]any{"disabled": disabled}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) UninstallApp(ctx context.Context, wsID, slug string) error {
	return c.call(ctx, http.MethodDelete, appPath(wsID, slug), nil, nil, nil)
}

func (c Client) GetAppConfig(ctx context.Context, wsID, slug string) (map[string]any, error) {
	var out map[string]any
	if err := c.call(ctx, http.MethodGet, appPath(wsID, slug)+"/config", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) SaveAppConfig(ctx context.Context, wsID, slug string, config map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.call(ctx, http.MethodPatch, appPath(wsID, slug)+"/config", nil, config, &out); err != nil {
		return nil, err
	}
	return out, nil
}
