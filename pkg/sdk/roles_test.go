package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRoleName(t *testing.T) {
	relational := []APIRole{
		{ID: "1", Name: "Viewer", Enable: true},
		{ID: "3", Name: "Admin", Enable: true},
	}
	document := []APIRole{
		{ID: "Admin", Name: "Admin", Enable: true},
		{ID: "User", Name: "User", Enable: true},
	}

	tests := []struct {
		name  string
		ref   string
		roles []APIRole
		want  string
	}{
		{name: "numeric id match", ref: "3", roles: relational, want: "admin"},
		{name: "name match ignores case", ref: "admin", roles: relational, want: "admin"},
		{name: "document name", ref: "Admin", roles: document, want: "admin"},
		{name: "unknown numeric id", ref: "9", roles: relational, want: DefaultRoleName},
		{name: "numeric id without catalogue", ref: "3", roles: nil, want: DefaultRoleName},
		{name: "name without catalogue", ref: "Editor", roles: nil, want: "editor"},
		{name: "empty ref", ref: "", roles: relational, want: DefaultRoleName},
		{name: "whitespace ref", ref: "  ", roles: relational, want: DefaultRoleName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRoleName(tt.ref, tt.roles))
		})
	}
}

type stubLister struct {
	roles []APIRole
	err   error
	token string
}

func (s *stubLister) ListRoles(_ context.Context, token string) ([]APIRole, error) {
	s.token = token
	return s.roles, s.err
}

func TestRoleResolverFallsBackOnFetchFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("boom")}
	resolver := NewRoleResolver(lister, nil)

	assert.Equal(t, DefaultRoleName, resolver.Resolve(context.Background(), "tok", "3"))
	assert.Equal(t, "admin", resolver.Resolve(context.Background(), "tok", "Admin"))
	assert.Equal(t, "tok", lister.token)
}

func TestRoleResolverUsesCatalogue(t *testing.T) {
	lister := &stubLister{roles: []APIRole{{ID: "3", Name: "Admin"}}}
	resolver := NewRoleResolver(lister, nil)

	assert.Equal(t, "admin", resolver.Resolve(context.Background(), "tok", "3"))
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Admin", RoleLabel("admin"))
	assert.Equal(t, "Viewer", RoleLabel("VIEWER"))
	assert.Equal(t, "Édition", RoleLabel("édition"))
	assert.Equal(t, "Unknown", RoleLabel(""))
}

func TestDecodeRoles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []APIRole
	}{
		{
			name: "objects with numeric ids",
			raw:  `[{"id":1,"name":"Viewer","enable":true},{"id":3,"name":"Admin","enable":false}]`,
			want: []APIRole{{ID: "1", Name: "Viewer", Enable: true}, {ID: "3", Name: "Admin"}},
		},
		{
			name: "plain names",
			raw:  `["Admin","User"]`,
			want: []APIRole{{ID: "Admin", Name: "Admin", Enable: true}, {ID: "User", Name: "User", Enable: true}},
		},
		{
			name: "wrapped",
			raw:  `{"data":[{"id":"a1","name":"Admin","enable":true}]}`,
			want: []APIRole{{ID: "a1", Name: "Admin", Enable: true}},
		},
		{
			name: "wrapped without data",
			raw:  `{"message":"nothing here"}`,
			want: []APIRole{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, err := decodeRoles(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, roles)
		})
	}
}

func TestDecodeRolesRejectsUnexpectedShapes(t *testing.T) {
	for _, raw := range []string{`42`, `[42]`, `{"data":"x"}`} {
		_, err := decodeRoles(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}
