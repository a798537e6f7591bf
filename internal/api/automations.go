package api

import (
	"context"
	"net/http"

	"github.com/prismeai/prisme-cli/internal/model"
)

func automationPath(wsID, slug string) string {
	p := "/workspaces/" + seg(wsID) + "/automations"
	if slug != "" {
		p += "/" + seg(slug)
	}
	return p
}

func (c Client) GetAutomation(ctx context.Context, wsID, slug string) (*model.Automation, error) {
	var a model.Automation
	if err := c.call(ctx, http.MethodGet, automationPath(wsID, slug), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c Client) CreateAutomation(ctx context.Context, wsID string, a *model.Automation) (*model.Automation, error) {
	var out model.Automation
	if err := c.call(ctx, http.MethodPost, automationPath(wsID, ""), nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) UpdateAutomation(ctx context.Context, wsID, slug string, a *model.Automation) (*model.Automation, error) {
	var out model.Automation
	if err := c.call(ctx, http.MethodPatch, automationPath(wsID, slug), nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c Client) DeleteAutomation(ctx context.Context, wsID, slug string) error {
	return c.call(ctx, http.MethodDelete, automationPath(wsID, slug), nil, nil, nil)
}
