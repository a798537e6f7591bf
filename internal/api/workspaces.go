package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prismeai/prisme-cli/internal/model"
)

func (c Client) GetWorkspaces(ctx context.Context, limit int) ([]model.Workspace, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out []model.Workspace
	if err := c.call(ctx, http.MethodGet, "/workspaces", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	var ws model.Workspace
	if err := c.call(ctx, http.MethodGet, "/workspaces/"+seg(id), nil, nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (c Client) CreateWorkspace(ctx context.Context, name string) (*model.Workspace, error) {
	var ws model.Workspace
	if err := c.call(ctx, http.MethodPost, "/workspaces", nil, map[string]any{"name": name}, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (c Client) UpdateWorkspace(ctx context.Context, ws *model.Workspace) (*model.Workspace, error) {
	var out model.Workspace
	if err := c.call(ctx, http.MethodPatch, "/workspaces/"+seg(ws.ID), nil, ws, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/workspaces/"+seg(id), nil, nil, nil)
}

// ExportFilename is the name under which an export archive is saved.
func ExportFilename(id string) string { return "workspace-" + id + ".zip" }

// ExportWorkspace returns the zip archive of the workspace's current
// version.
func (c Client) ExportWorkspace(ctx context.Context, id string) ([]byte, error) {
	path := "/workspaces/" + seg(id) + "/versions/current/export"
	b, status, _, err := c.do(ctx, http.MethodPost, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, newError(status, b)
	}
	return b, nil
}
