package api

import (
	"context"
	"net/http"

	"github.com/prismeai/prisme-cli/internal/model"
)

func pagePath(wsID, slug string) string {
	p := "/workspaces/" + seg(wsID) + "/pages"
	if slug != "" {
		p += "/" + seg(slug)
	}
	return p
}

func (c Client) GetPages(ctx context.Context, wsID string) ([]model.Page, error) {
	var out []model.Page
	if err := c.call(ctx, http.MethodGet, pagePath(wsID, ""), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) GetPage(ctx context.Context, wsID, slug string) (*model.Page, error) {
	var p model.Page
	if err := c.call(ctx, http.MethodGet, pagePath(wsID, slug), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c Client) CreatePage(ctx context.Context, wsID string, p *model.Page) (*model.Page, error) {
	var out model.Page
	if err := c.call(ctx, http.MethodPost, pagePath(wsID, ""), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) UpdatePage(ctx context.Context, wsID, slug string, p *model.Page) (*model.Page, error) {
	var out model.Page
	if err := c.call(ctx, http.MethodPatch, pagePath(wsID, slug), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) DeletePage(ctx context.Context, wsID, slug string) error {
	return c.call(ctx, http.MethodDelete, pagePath(wsID, slug), nil, nil, nil)
}
