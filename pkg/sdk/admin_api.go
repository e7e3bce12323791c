package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// RolesAPI wraps /v1/roles.
type RolesAPI struct {
	client *Client
}

// NewRolesAPI returns a RolesAPI bound to client.
func NewRolesAPI(client *Client) *RolesAPI {
	return &RolesAPI{client: client}
}

// List returns all roles using the client's token source.
func (a *RolesAPI) List(ctx context.Context) ([]APIRole, error) {
	return a.list(ctx, RequestOptions{})
}

// ListRoles returns all roles using an explicit token. It never triggers a
// refresh: it runs during login, before the session it belongs to exists.
func (a *RolesAPI) ListRoles(ctx context.Context, token string) ([]APIRole, error) {
	return a.list(ctx, RequestOptions{Token: token, SkipRefresh: true})
}

func (a *RolesAPI) list(ctx context.Context, opts RequestOptions) ([]APIRole, error) {
	var raw json.RawMessage
	if err := a.client.Do(ctx, "/v1/roles", opts, &raw); err != nil {
		return nil, err
	}
	return decodeRoles(raw)
}

// Get returns a single role.
func (a *RolesAPI) Get(ctx context.Context, id EntityID) (*APIRole, error) {
	return Request[APIRole](ctx, a.client, "/v1/roles/"+url.PathEscape(id.String()), RequestOptions{})
}

// Create adds a role.
func (a *RolesAPI) Create(ctx context.Context, body RoleInput) (*APIRole, error) {
	return Request[APIRole](ctx, a.client, "/v1/roles", RequestOptions{Method: http.MethodPost, Body: body})
}

// Update renames or toggles a role.
func (a *RolesAPI) Update(ctx context.Context, id EntityID, body RoleInput) (*APIRole, error) {
	return Request[APIRole](ctx, a.client, "/v1/roles/"+url.PathEscape(id.String()), RequestOptions{Method: http.MethodPut, Body: body})
}

// Delete removes a role.
func (a *RolesAPI) Delete(ctx context.Context, id EntityID) error {
	return a.client.Do(ctx, "/v1/roles/"+url.PathEscape(id.String()), RequestOptions{Method: http.MethodDelete}, nil)
}

// UsersAPI wraps /v1/users.
type UsersAPI struct {
	client *Client
}

// NewUsersAPI returns a UsersAPI bound to client.
func NewUsersAPI(client *Client) *UsersAPI {
	return &UsersAPI{client: client}
}

// ListUsersParams selects a page of users.
type ListUsersParams struct {
	Limit  int
	Cursor string
}

// List returns one page of users. Limit defaults to 20.
func (a *UsersAPI) List(ctx context.Context, params ListUsersParams) (*UsersPage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}

	page, err := Request[UsersPage](ctx, a.client, "/v1/users?"+query.Encode(), RequestOptions{})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &UsersPage{Limit: limit}, nil
	}
	if page.Error != "" {
		return nil, fmt.Errorf("list users: %s", page.Error)
	}
	return page, nil
}

// Get returns a single user.
func (a *UsersAPI) Get(ctx context.Context, id EntityID) (*APIUser, error) {
	return Request[APIUser](ctx, a.client, "/v1/users/"+url.PathEscape(id.String()), RequestOptions{})
}

// Create registers a new account. The endpoint is public and answers with the
// same envelope as login.
func (a *UsersAPI) Create(ctx context.Context, body CreateUserRequest) (*AuthEnvelope, error) {
	return Request[AuthEnvelope](ctx, a.client, "/v1/users", RequestOptions{
		Method:      http.MethodPost,
		Body:        body,
		SkipRefresh: true,
	})
}

// Update patches a user.
func (a *UsersAPI) Update(ctx context.Context, id EntityID, body UpdateUserRequest) (*APIUser, error) {
	return Request[APIUser](ctx, a.client, "/v1/users/"+url.PathEscape(id.String()), RequestOptions{Method: http.MethodPut, Body: body})
}

// Delete removes a user.
func (a *UsersAPI) Delete(ctx context.Context, id EntityID) error {
	return a.client.Do(ctx, "/v1/users/"+url.PathEscape(id.String()), RequestOptions{Method: http.MethodDelete}, nil)
}

// StatusesAPI wraps /v1/statuses.
type StatusesAPI struct {
	client *Client
}

// NewStatusesAPI returns a StatusesAPI bound to client.
func NewStatusesAPI(client *Client) *StatusesAPI {
	return &StatusesAPI{client: client}
}

// List returns all statuses; a bare array and a {"data": [...]} envelope are both accepted.
func (a *StatusesAPI) List(ctx context.Context) ([]APIStatus, error) {
	var raw json.RawMessage
	if err := a.client.Do(ctx, "/v1/statuses", RequestOptions{}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var statuses []APIStatus
	if err := json.Unmarshal(raw, &statuses); err == nil {
		return statuses, nil
	}
	var wrapped struct {
		Data []APIStatus `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode statuses: %w", err)
	}
	return wrapped.Data, nil
}

// Create adds a status.
func (a *StatusesAPI) Create(ctx context.Context, body StatusInput) (*APIStatus, error) {
	return Request[APIStatus](ctx, a.client, "/v1/statuses", RequestOptions{Method: http.MethodPost, Body: body})
}

// Update changes a status description.
func (a *StatusesAPI) Update(ctx context.Context, id EntityID, body StatusInput) (*APIStatus, error) {
	return Request[APIStatus](ctx, a.client, "/v1/statuses/"+url.PathEscape(id.String()), RequestOptions{Method: http.MethodPut, Body: body})
}

// Delete removes a status.
func (a *StatusesAPI) Delete(ctx context.Context, id EntityID) error {
	return a.client.Do(ctx, "/v1/statuses/"+url.PathEscape(id.String()), RequestOptions{Method: http.MethodDelete}, nil)
}
