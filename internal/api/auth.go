package api

import (
	"context"
	"net/http"

	"github.com/prismeai/prisme-cli/internal/model"
)

// Session is the user returned by the sign-in endpoints, with the bearer
// token to use for later calls.
type Session struct {
	model.User
	Token   string `json:"token,omitempty"`
	Expires string `json:"expires,omitempty"`
}

func (c Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.call(ctx, http.MethodGet, "/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c Client) Signin(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]any{"email": email, "password": password, "type": "password"}
	if err := c.call(ctx, http.MethodPost, "/login", nil, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c Client) AnonymousSignin(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.call(ctx, http.MethodPost, "/login/anonymous", nil, map[string]any{}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Language  string `json:"language,omitempty"`
}

func (c Client) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	var s Session
	if err := c.call(ctx, http.MethodPost, "/signup", nil, req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c Client) Signout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/logout", nil, nil, nil)
}
