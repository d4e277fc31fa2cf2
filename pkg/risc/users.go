package risc

import (
	"context"
	"net/http"
	"net/url"
)

// UserOptions carries the optional user fields.
type UserOptions struct {
	Email string
	Phone string
	Name  string
}

// VerifyAPIKey checks that the configured credentials are accepted.
func (c *Client) VerifyAPIKey(ctx context.Context) (Result, error) {
	return c.call(ctx, http.MethodGet, "api/verify", url.Values{})
}

// CreateUser registers a user. opts may be nil; only Name is read from it.
func (c *Client) CreateUser(ctx context.Context, userID, email, phone string, opts *UserOptions) (Result, error) {
	if userID == "" {
		return nil, invalidInput("no user ID specified")
	}
	if email == "" {
		return nil, invalidInput("no email address specified")
	}
	if phone == "" {
		return nil, invalidInput("no phone number specified")
	}

	params := url.Values{
		"user_id": {userID},
		"email":   {email},
		"phone":   {phone},
	}
	if opts != nil && opts.Name != "" {
		params.Set("name", opts.Name)
	}
	return c.call(ctx, http.MethodPost, "api/users", params)
}

// GetUser fetches a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return nil, invalidInput("no user ID specified")
	}
	return c.call(ctx, http.MethodGet, "api/users", url.Values{"user_id": {userID}})
}

// ModifyUser updates the non-empty fields of opts.
func (c *Client) ModifyUser(ctx context.Context, userID string, opts *UserOptions) (Result, error) {
	if userID == "" {
		return nil, invalidInput("no user ID specified")
	}
	if opts == nil {
		return nil, invalidInput("no user options specified")
	}

	params := url.Values{"user_id": {userID}}
	if opts.Email != "" {
		params.Set("email", opts.Email)
	}
	if opts.Phone != "" {
		params.Set("phone", opts.Phone)
	}
	if opts.Name != "" {
		params.Set("name", opts.Name)
	}
	return c.call(ctx, http.MethodPut, "api/users", params)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return nil, invalidInput("no user ID specified")
	}
	return c.call(ctx, http.MethodDelete, "api/users", url.Values{"user_id": {userID}})
}

// CreateSession opens a session for a user.
func (c *Client) CreateSession(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return nil, invalidInput("no user ID specified")
	}
	return c.call(ctx, http.MethodPost, "api/sessions", url.Values{"user_id": {userID}})
}

// GetSession fetches a session by ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return nil, invalidInput("no session ID specified")
	}
	return c.call(ctx, http.MethodGet, "api/sessions", url.Values{"session_id": {sessionID}})
}
