package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterUsers(t *testing.T) {
	users := []APIUser{
		{ID: "1", Username: "alex", RoleID: "3", Enable: true, Verified: true},
		{ID: "2", Username: "sam", Role: "Admin", Enable: false},
		{ID: "3", Username: "jo", RoleID: "1", Enable: true},
	}

	tests := []struct {
		name string
		expr string
		want []EntityID
	}{
		{name: "empty matches all", expr: "", want: []EntityID{"1", "2", "3"}},
		{name: "by role id", expr: `role_id == "3"`, want: []EntityID{"1"}},
		{name: "by role name", expr: `role == "Admin"`, want: []EntityID{"2"}},
		{name: "enabled", expr: `enable == true`, want: []EntityID{"1", "3"}},
		{name: "combined", expr: `enable == true and verified == false`, want: []EntityID{"3"}},
		{name: "match", expr: `username matches "^[as]"`, want: []EntityID{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterUsers(users, tt.expr)
			require.NoError(t, err)
			ids := make([]EntityID, 0, len(got))
			for _, u := range got {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterUsersInvalidExpression(t *testing.T) {
	_, err := FilterUsers([]APIUser{{ID: "1"}}, `enable ==`)
	assert.Error(t, err)
}

func TestCompileFilterIsCached(t *testing.T) {
	first, err := compileFilter(`username == "alex"`)
	require.NoError(t, err)
	second, err := compileFilter(`username == "alex"`)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
