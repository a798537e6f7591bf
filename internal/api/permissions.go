package api

import (
	"context"
	"net/http"

	"github.com/prismeai/prisme-cli/internal/model"
)

func permissionsPath(subjectType, id string) string {
	return "/" + seg(subjectType) + "/" + seg(id) + "/permissions"
}

func (c Client) GetPermissions(ctx context.Context, subjectType, id string) ([]model.Permission, error) {
	var out struct {
		Result []model.Permission `json:"result"`
	}
	if err := c.call(ctx, http.MethodGet, permissionsPath(subjectType, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c Client) AddPermission(ctx context.Context, subjectType, id string, p model.Permission) (*model.Permission, error) {
	var out model.Permission
	if err := c.call(ctx, http.MethodPost, permissionsPath(subjectType, id), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePermission revokes the permissions of a user (by id) or of the
// public ("*").
func (c Client) DeletePermission(ctx context.Context, subjectType, id, targetID string) error {
	return c.call(ctx, http.MethodDelete, permissionsPath(subjectType, id)+"/"+seg(targetID), nil, nil, nil)
}
