package user

import (
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Pachada/ReactBase/pkg/sdk"
	"github.com/Pachada/ReactBase/pkg/sdk/sdktest"
)

func parseUpdate(t *testing.T, args ...string) (sdk.UpdateUserRequest, error) {
	t.Helper()
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	bindUpdateFlags(fs)
	require.NoError(t, fs.Parse(args))
	return buildUpdate(fs)
}

func TestBuildUpdateOnlySetsChangedFields(t *testing.T) {
	input, err := parseUpdate(t, "--email", "new@example.com", "--role-id", "3")
	require.NoError(t, err)

	require.NotNil(t, input.Email)
	assert.Equal(t, "new@example.com", *input.Email)
	require.NotNil(t, input.RoleID)
	assert.Equal(t, sdk.EntityID("3"), *input.RoleID)
	assert.Nil(t, input.Username)
	assert.Nil(t, input.Phone)
	assert.Nil(t, input.Enable)
}

func TestBuildUpdateClearingAField(t *testing.T) {
	input, err := parseUpdate(t, "--phone", "")
	require.NoError(t, err)
	require.NotNil(t, input.Phone)
	assert.Empty(t, *input.Phone)
}

func TestBuildUpdateEnableDisable(t *testing.T) {
	input, err := parseUpdate(t, "--disable")
	require.NoError(t, err)
	require.NotNil(t, input.Enable)
	assert.False(t, *input.Enable)

	input, err = parseUpdate(t, "--enable")
	require.NoError(t, err)
	require.NotNil(t, input.Enable)
	assert.True(t, *input.Enable)

	_, err = parseUpdate(t, "--enable", "--disable")
	assert.Error(t, err)
}

func TestBuildUpdateRequiresAField(t *testing.T) {
	_, err := parseUpdate(t)
	assert.Error(t, err)
}

func newUsersBackend(t *testing.T, n int) *sdk.Client {
	t.Helper()
	server := sdktest.NewServer(t)
	server.AddUser(sdk.APIUser{Username: "admin", Email: "admin@example.com", RoleID: "3"}, "pw")
	for i := 1; i < n; i++ {
		server.AddUser(sdk.APIUser{Username: "user", Email: "user@example.com", RoleID: "1"}, "pw")
	}

	client := sdk.NewClient(server.URL)
	env, err := sdk.NewSessionAPI(client).Login(context.Background(), sdk.LoginRequest{Username: "admin", Password: "pw"})
	require.NoError(t, err)
	client.SetTokenSource(staticToken(env.AccessToken))
	return client
}

func TestFetchUsersSinglePage(t *testing.T) {
	client := newUsersBackend(t, 5)

	users, next, err := fetchUsers(context.Background(), sdk.NewUsersAPI(client), sdk.ListUsersParams{Limit: 2}, false)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "2", next)

	users, next, err = fetchUsers(context.Background(), sdk.NewUsersAPI(client), sdk.ListUsersParams{Limit: 2, Cursor: next}, false)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, sdk.EntityID("3"), users[0].ID)
	assert.Equal(t, "4", next)
}

func TestFetchUsersAllPages(t *testing.T) {
	client := newUsersBackend(t, 5)

	users, next, err := fetchUsers(context.Background(), sdk.NewUsersAPI(client), sdk.ListUsersParams{Limit: 2}, true)
	require.NoError(t, err)
	assert.Len(t, users, 5)
	assert.Empty(t, next)
}

func TestRoleLabeler(t *testing.T) {
	labeler := &roleLabeler{roles: []sdk.APIRole{{ID: "3", Name: "Admin"}}}
	assert.Equal(t, "Admin", labeler.label(&sdk.APIUser{RoleID: "3"}))
	assert.Equal(t, "Viewer", labeler.label(&sdk.APIUser{RoleID: "9"}))
	assert.Equal(t, "Editor", labeler.label(&sdk.APIUser{Role: "editor"}))
}

func staticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
