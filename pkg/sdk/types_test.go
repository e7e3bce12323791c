package sdk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIDUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want EntityID
	}{
		{raw: `7`, want: "7"},
		{raw: `"7"`, want: "7"},
		{raw: `"65f0c2ab"`, want: "65f0c2ab"},
		{raw: `null`, want: ""},
	}

	for _, tt := range tests {
		var id EntityID
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &id), tt.raw)
		assert.Equal(t, tt.want, id, tt.raw)
	}

	var id EntityID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestEntityIDMarshal(t *testing.T) {
	tests := []struct {
		id   EntityID
		want string
	}{
		{id: "7", want: `7`},
		{id: "0", want: `0`},
		{id: "007", want: `"007"`},
		{id: "Admin", want: `"Admin"`},
		{id: "", want: `""`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data), tt.id)
	}
}

func TestAPIUserDecodesBothBackends(t *testing.T) {
	var relational APIUser
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"username":"alex","email":"a@x","role_id":3,"first_name":"Alex","last_name":"Doe"}`), &relational))
	assert.Equal(t, EntityID("7"), relational.ID)
	assert.Equal(t, "3", relational.RoleRef())
	assert.Equal(t, "Alex Doe", relational.DisplayName())

	var document APIUser
	require.NoError(t, json.Unmarshal([]byte(`{"id":"65f0","username":"sam","email":"s@x","role":"Admin"}`), &document))
	assert.Equal(t, EntityID("65f0"), document.ID)
	assert.Equal(t, "Admin", document.RoleRef())
	assert.Equal(t, "sam", document.DisplayName())
}
